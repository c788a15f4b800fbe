package lambda

import (
	"fmt"
	"net/http"
	"strings"
)

// Reply is the envelope returned to the platform for an HTTP invocation.
// Its concrete type depends on the Origin of the invocation.
type Reply interface {
	Status() int
	Base64Encoded() bool
	Payload() string
}

// RestReply is the API Gateway REST proxy integration response
type RestReply struct {
	IsBase64Encoded   bool                `json:"isBase64Encoded"`
	StatusCode        int                 `json:"statusCode"`
	Headers           map[string]string   `json:"headers"`
	MultiValueHeaders map[string][]string `json:"multiValueHeaders"`
	Body              string              `json:"body"`
}

// LoadBalancerReply is the Application Load Balancer target response. It
// carries only multi-value headers, the target group is expected to have
// multi-value headers enabled.
type LoadBalancerReply struct {
	IsBase64Encoded   bool                `json:"isBase64Encoded"`
	StatusCode        int                 `json:"statusCode"`
	StatusDescription string              `json:"statusDescription"`
	MultiValueHeaders map[string][]string `json:"multiValueHeaders"`
	Body              string              `json:"body"`
}

// HTTPAPIReply is the API Gateway HTTP API response, format version 2.0
type HTTPAPIReply struct {
	IsBase64Encoded bool              `json:"isBase64Encoded"`
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Cookies         []string          `json:"cookies,omitempty"`
	Body            string            `json:"body"`
}

func (r *RestReply) Status() int                 { return r.StatusCode }
func (r *LoadBalancerReply) Status() int         { return r.StatusCode }
func (r *HTTPAPIReply) Status() int              { return r.StatusCode }
func (r *RestReply) Base64Encoded() bool         { return r.IsBase64Encoded }
func (r *LoadBalancerReply) Base64Encoded() bool { return r.IsBase64Encoded }
func (r *HTTPAPIReply) Base64Encoded() bool      { return r.IsBase64Encoded }
func (r *RestReply) Payload() string             { return r.Body }
func (r *LoadBalancerReply) Payload() string     { return r.Body }
func (r *HTTPAPIReply) Payload() string          { return r.Body }

// StatusDescription formats a status line the way load balancers expect,
// e.g. "404 Not Found".
func StatusDescription(code int) string {
	text := http.StatusText(code)
	if text == "" {
		text = "Unknown"
	}
	return fmt.Sprintf("%d %s", code, text)
}

func renderReply(origin Origin, status int, header http.Header, body []byte) Reply {
	binary := IsBinary(header)
	encoded := encodeBody(body, binary)
	lowered := lowerHeader(header)

	switch origin {
	case OriginLoadBalancer:
		return &LoadBalancerReply{
			IsBase64Encoded:   binary,
			StatusCode:        status,
			StatusDescription: StatusDescription(status),
			MultiValueHeaders: lowered,
			Body:              encoded,
		}
	case OriginHTTPAPI:
		headers := make(map[string]string, len(lowered))
		var cookies []string
		for name, values := range lowered {
			if name == "set-cookie" {
				cookies = append(cookies, values...)
				continue
			}
			headers[name] = strings.Join(values, ", ")
		}
		return &HTTPAPIReply{
			IsBase64Encoded: binary,
			StatusCode:      status,
			Headers:         headers,
			Cookies:         cookies,
			Body:            encoded,
		}
	default:
		single := make(map[string]string, len(lowered))
		multi := make(map[string][]string)
		for name, values := range lowered {
			if len(values) == 1 {
				single[name] = values[0]
			} else {
				multi[name] = values
			}
		}
		return &RestReply{
			IsBase64Encoded:   binary,
			StatusCode:        status,
			Headers:           single,
			MultiValueHeaders: multi,
			Body:              encoded,
		}
	}
}

func lowerHeader(header http.Header) map[string][]string {
	out := make(map[string][]string, len(header))
	for name, values := range header {
		if len(values) == 0 {
			continue
		}
		key := strings.ToLower(name)
		out[key] = append(out[key], values...)
	}
	return out
}
