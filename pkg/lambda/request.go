package lambda

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// NewRequest converts an HTTP event into the request the hosted server sees.
// The whole body is available up front, so the returned request's body is
// already terminated: reading it past the event body yields io.EOF.
func NewRequest(ctx context.Context, conn *Connection, event HTTPEvent) (*http.Request, error) {
	s := event.shape()
	if err := validate.Struct(s); err != nil {
		return nil, newAdapterError("request", fmt.Errorf("%w: %s", ErrMalformedEvent, describeValidation(err)))
	}

	target := (&url.URL{Path: s.Path, RawQuery: s.RawQuery}).RequestURI()
	if event.Origin() == OriginHTTPAPI {
		target = s.Path
		if s.RawQuery != "" {
			target += "?" + s.RawQuery
		}
	}

	body, err := decodeBody(s.Body, s.IsBase64Encoded)
	if err != nil {
		return nil, newAdapterError("request", err)
	}

	ctx = contextWithConnection(ctx, conn)
	ctx = context.WithValue(ctx, http.LocalAddrContextKey, conn.LocalAddr())

	req, err := http.NewRequestWithContext(ctx, s.Method, target, nil)
	if err != nil {
		return nil, newAdapterError("request", fmt.Errorf("%w: %v", ErrMalformedEvent, err))
	}

	header := make(http.Header, len(s.Header)+1)
	for _, f := range s.Header {
		header.Add(f.Name, f.Value)
	}

	req.Proto = "HTTP/1.1"
	req.ProtoMajor = 1
	req.ProtoMinor = 1
	req.RequestURI = target
	req.Header = header
	req.Host = header.Get("Host")
	req.RemoteAddr = conn.remoteHostPort()
	req.TLS = &tls.ConnectionState{HandshakeComplete: true, ServerName: req.Host}

	if len(body) == 0 {
		req.Body = http.NoBody
		req.ContentLength = 0
		return req, nil
	}

	if header.Get("Content-Length") == "" {
		header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	req.ContentLength = int64(len(body))
	req.Body = io.NopCloser(bytes.NewReader(body))

	return req, nil
}

func decodeBody(body string, isBase64 bool) ([]byte, error) {
	if body == "" {
		return nil, nil
	}
	if !isBase64 {
		return []byte(body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: body is not valid base64: %v", ErrMalformedEvent, err)
	}
	return decoded, nil
}
