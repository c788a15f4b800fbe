package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"sort"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"scandium/pkg/lambda"
)

// AppState is the mutable state of one warm execution context
type AppState struct {
	warmedAt atomic.Pointer[time.Time]
}

// MarkWarm records the time of the latest warm-up hook
func (s *AppState) MarkWarm(at time.Time) {
	s.warmedAt.Store(&at)
}

// WarmedAt returns the last warm-up time, or nil if no warm-up ran
func (s *AppState) WarmedAt() *time.Time {
	return s.warmedAt.Load()
}

// HealthHandler reports service liveness
type HealthHandler struct {
	service string
	version string
	mode    string
	state   *AppState
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service, version, mode string, state *AppState) *HealthHandler {
	return &HealthHandler{service: service, version: version, mode: mode, state: state}
}

// Health returns the service status
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": h.service,
		"version": h.version,
		"mode":    h.mode,
		"warm":    false,
	}
	if at := h.state.WarmedAt(); at != nil {
		body["warm"] = true
		body["warmed_at"] = at.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, body)
}

// EchoResponse describes the request as the application received it
type EchoResponse struct {
	Method        string              `json:"method"`
	Path          string              `json:"path"`
	Query         map[string][]string `json:"query,omitempty"`
	Headers       map[string][]string `json:"headers"`
	Body          string              `json:"body,omitempty"`
	BodyEncoding  string              `json:"body_encoding,omitempty"`
	ContentLength int64               `json:"content_length"`
	ClientIP      string              `json:"client_ip"`
	Proto         string              `json:"proto"`
	TLS           bool                `json:"tls"`
	Origin        string              `json:"origin,omitempty"`
	HeaderNames   []string            `json:"header_names"`
}

// EchoHandler mirrors requests back to the caller
type EchoHandler struct{}

// NewEchoHandler creates a new echo handler
func NewEchoHandler() *EchoHandler {
	return &EchoHandler{}
}

// Describe returns a JSON description of the request
func (h *EchoHandler) Describe(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp := EchoResponse{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Query:         c.Request.URL.Query(),
		Headers:       c.Request.Header,
		ContentLength: c.Request.ContentLength,
		ClientIP:      c.ClientIP(),
		Proto:         c.Request.Proto,
		TLS:           c.Request.TLS != nil,
		HeaderNames:   make([]string, 0, len(c.Request.Header)),
	}
	for name := range c.Request.Header {
		resp.HeaderNames = append(resp.HeaderNames, name)
	}
	sort.Strings(resp.HeaderNames)

	if len(body) > 0 {
		if utf8.Valid(body) {
			resp.Body = string(body)
		} else {
			resp.Body = base64.StdEncoding.EncodeToString(body)
			resp.BodyEncoding = "base64"
		}
	}

	if conn, ok := lambda.ConnectionFromContext(c.Request.Context()); ok {
		resp.Origin = conn.Origin().String()
	}

	c.JSON(http.StatusOK, resp)
}

// Raw writes the request body back with the request's content type
func (h *EchoHandler) Raw(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(body) == 0 {
		respondError(c, http.StatusBadRequest, "Empty request body", errEmptyBody)
		return
	}

	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, body)
}
