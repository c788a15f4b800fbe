package lambda

import (
	"context"
	"net/http"
	"sync"
)

// ServerState is the lifecycle of a ServerCell
type ServerState int

const (
	StateUninitialized ServerState = iota
	StateAwaitingServer
	StateReady
)

func (s ServerState) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateAwaitingServer:
		return "AWAITING_SERVER"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// ServerCell holds the hosted application's handler for the lifetime of the
// warm execution context. It is written at most once; every invocation that
// arrives before that waits on the ready signal.
type ServerCell struct {
	mu      sync.Mutex
	handler http.Handler
	waited  bool
	ready   chan struct{}
}

// NewServerCell returns an empty cell
func NewServerCell() *ServerCell {
	return &ServerCell{ready: make(chan struct{})}
}

var (
	defaultCell     *ServerCell
	defaultCellOnce sync.Once
)

// DefaultServerCell returns the process-wide cell used by Listen and Serve
func DefaultServerCell() *ServerCell {
	defaultCellOnce.Do(func() {
		defaultCell = NewServerCell()
	})
	return defaultCell
}

// Listen registers the hosted handler with the process-wide cell
func Listen(handler http.Handler) error {
	return DefaultServerCell().Listen(handler)
}

// Serve registers srv's handler with the process-wide cell
func Serve(srv *http.Server) error {
	return DefaultServerCell().Serve(srv)
}

// Listen captures handler and releases every waiting invocation. A nil
// handler means http.DefaultServeMux, as with http.Server. A second call
// fails with ErrAlreadyListening and leaves the first handler in place.
func (c *ServerCell) Listen(handler http.Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != nil {
		return newAdapterError("listen", ErrAlreadyListening)
	}
	if handler == nil {
		handler = http.DefaultServeMux
	}
	c.handler = handler
	close(c.ready)
	return nil
}

// Serve captures srv.Handler. The server's address and timeouts are ignored,
// the platform owns the transport.
func (c *ServerCell) Serve(srv *http.Server) error {
	return c.Listen(srv.Handler)
}

// Ready is closed once a handler has been captured
func (c *ServerCell) Ready() <-chan struct{} {
	return c.ready
}

// Wait blocks until a handler is captured or ctx is done
func (c *ServerCell) Wait(ctx context.Context) (http.Handler, error) {
	c.mu.Lock()
	c.waited = true
	c.mu.Unlock()

	select {
	case <-c.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler, nil
}

// State reports where the cell is in its lifecycle
func (c *ServerCell) State() ServerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.handler != nil:
		return StateReady
	case c.waited:
		return StateAwaitingServer
	default:
		return StateUninitialized
	}
}
