package lambda

import (
	"bytes"
	"fmt"
	"net/http"
)

// Finisher is implemented by response writers that can be finalized before
// the handler returns. Handlers that stream nothing after a point may call
// Finish to complete the invocation early; the dispatcher finalizes
// otherwise.
type Finisher interface {
	Finish() error
}

// ResponseSink is the http.ResponseWriter handed to the hosted server. It
// collects the written chunks in order and renders a single Reply when
// finalized. After finalization it is immutable.
type ResponseSink struct {
	conn        *Connection
	method      string
	header      http.Header
	sent        http.Header
	status      int
	wroteHeader bool
	chunks      [][]byte
	finalized   bool
	onFinish    func(Reply)
}

var (
	_ http.ResponseWriter = (*ResponseSink)(nil)
	_ http.Flusher        = (*ResponseSink)(nil)
	_ Finisher            = (*ResponseSink)(nil)
)

// NewResponseSink creates a sink bound to conn for a request with the given
// method. onFinish receives the reply once the sink is finalized and may be
// nil.
func NewResponseSink(conn *Connection, method string, onFinish func(Reply)) *ResponseSink {
	return &ResponseSink{
		conn:     conn,
		method:   method,
		header:   make(http.Header),
		status:   http.StatusOK,
		onFinish: onFinish,
	}
}

// Header returns the response headers. As with net/http, changes made after
// the status has been written do not reach the reply.
func (s *ResponseSink) Header() http.Header {
	return s.header
}

// WriteHeader records the status code; only the first call counts. Like
// net/http it panics on codes outside 100-999.
func (s *ResponseSink) WriteHeader(code int) {
	if code < 100 || code > 999 {
		panic(fmt.Sprintf("invalid WriteHeader code %v", code))
	}
	if s.wroteHeader || s.finalized {
		return
	}
	s.status = code
	s.sent = s.header.Clone()
	s.wroteHeader = true
}

// Write appends a copy of b to the body
func (s *ResponseSink) Write(b []byte) (int, error) {
	if err := s.WriteChunk(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// WriteString appends s to the body
func (s *ResponseSink) WriteString(str string) (int, error) {
	if err := s.WriteChunk(str); err != nil {
		return 0, err
	}
	return len(str), nil
}

// WriteChunk appends a string or byte slice chunk. Any other type is
// rejected with ErrInvalidChunk.
func (s *ResponseSink) WriteChunk(chunk any) error {
	if s.finalized {
		return newAdapterError("write", ErrAlreadyFinalized)
	}

	var data []byte
	switch c := chunk.(type) {
	case string:
		data = []byte(c)
	case []byte:
		data = bytes.Clone(c)
	default:
		return newAdapterError("write", fmt.Errorf("%w: got %T", ErrInvalidChunk, chunk))
	}

	s.WriteHeader(http.StatusOK)
	s.chunks = append(s.chunks, data)
	return nil
}

// Flush is a no-op apart from committing the status code
func (s *ResponseSink) Flush() {
	s.WriteHeader(http.StatusOK)
}

// Finish finalizes the sink and hands the reply to the completion callback.
// It fails with ErrAlreadyFinalized when called more than once.
func (s *ResponseSink) Finish() error {
	if s.finalized {
		return newAdapterError("finish", ErrAlreadyFinalized)
	}
	reply := s.render()
	s.finalized = true
	if s.onFinish != nil {
		s.onFinish(reply)
	}
	return nil
}

// Finalized reports whether Finish has been called
func (s *ResponseSink) Finalized() bool {
	return s.finalized
}

// StatusCode returns the status the reply will carry
func (s *ResponseSink) StatusCode() int {
	return s.status
}

// Body returns the concatenated chunks written so far
func (s *ResponseSink) Body() []byte {
	return bytes.Join(s.chunks, nil)
}

func (s *ResponseSink) render() Reply {
	header := s.sent
	if !s.wroteHeader {
		header = s.header.Clone()
	}
	// Content-Type is never guessed: an untyped body is sent as binary
	body := s.Body()
	if s.method == http.MethodHead {
		body = nil
	}
	return renderReply(s.conn.Origin(), s.status, header, body)
}
