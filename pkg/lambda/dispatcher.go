package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Observer receives the outcome of every invocation
type Observer interface {
	ObserveInvocation(kind EventKind, elapsed time.Duration, err error)
	ObserveReply(origin Origin, reply Reply)
}

// Dispatcher is the function entry point. It routes hook directives to the
// hook registry and HTTP events into the hosted server, and completes every
// invocation exactly once.
type Dispatcher struct {
	server   *ServerCell
	hooks    *HookRegistry
	logger   logrus.FieldLogger
	observer Observer
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithServerCell overrides the process-wide server cell
func WithServerCell(cell *ServerCell) Option {
	return func(d *Dispatcher) { d.server = cell }
}

// WithHooks sets the hook registry
func WithHooks(hooks *HookRegistry) Option {
	return func(d *Dispatcher) { d.hooks = hooks }
}

// WithLogger sets the logger used for invocation logs
func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithObserver sets the invocation observer
func WithObserver(observer Observer) Option {
	return func(d *Dispatcher) { d.observer = observer }
}

// NewDispatcher creates a dispatcher bound to the process-wide server cell
// unless WithServerCell says otherwise.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	if d.server == nil {
		d.server = DefaultServerCell()
	}
	if d.hooks == nil {
		d.hooks = NewHookRegistry()
	}
	if d.logger == nil {
		d.logger = logrus.StandardLogger()
	}
	return d
}

// Server returns the cell the hosted application listens on
func (d *Dispatcher) Server() *ServerCell {
	return d.server
}

// Hooks returns the hook registry
func (d *Dispatcher) Hooks() *HookRegistry {
	return d.hooks
}

// Listen registers the hosted handler with the dispatcher's server cell
func (d *Dispatcher) Listen(handler http.Handler) error {
	return d.server.Listen(handler)
}

// Start hands Invoke to the Lambda runtime. It does not return.
func (d *Dispatcher) Start() {
	awslambda.Start(d.Invoke)
}

// Invoke is the Lambda handler: it decodes the payload and dispatches it.
// Hook invocations reply with null.
func (d *Dispatcher) Invoke(ctx context.Context, payload json.RawMessage) (any, error) {
	event, err := ParseEvent(payload)
	if err != nil {
		d.requestLogger(ctx).WithError(err).Error("Invalid invocation event")
		if d.observer != nil {
			d.observer.ObserveInvocation(KindUnknown, 0, err)
		}
		return nil, err
	}

	reply, err := d.Dispatch(ctx, event)
	if reply == nil {
		return nil, err
	}
	return reply, err
}

// Dispatch runs one decoded event to completion
func (d *Dispatcher) Dispatch(ctx context.Context, event InvocationEvent) (Reply, error) {
	if isNilEvent(event) {
		return nil, newAdapterError("dispatch", ErrUnknownEvent)
	}
	start := time.Now()
	log := d.requestLogger(ctx).WithField("kind", event.Kind())

	var (
		reply Reply
		err   error
	)
	switch e := event.(type) {
	case *HookInvocation:
		log = log.WithFields(logrus.Fields{
			"hook_file": e.ScandiumInvokeHook.File,
			"hook":      e.ScandiumInvokeHook.Hook,
		})
		err = d.runHook(ctx, e)
	case HTTPEvent:
		log = log.WithField("origin", e.Origin().String())
		reply, err = d.serveHTTP(ctx, e, log)
	default:
		err = newAdapterError("dispatch", fmt.Errorf("%w: %T", ErrUnknownEvent, event))
	}

	latency := time.Since(start)
	if d.observer != nil {
		d.observer.ObserveInvocation(event.Kind(), latency, err)
		if reply != nil {
			d.observer.ObserveReply(event.(HTTPEvent).Origin(), reply)
		}
	}

	fields := logrus.Fields{
		"latency_ms": float64(latency.Nanoseconds()) / 1000000,
	}
	if reply != nil {
		fields["status_code"] = reply.Status()
		fields["is_base64_encoded"] = reply.Base64Encoded()
	}
	switch {
	case err != nil:
		log.WithFields(fields).WithError(err).Error("Invocation failed")
	case reply != nil && reply.Status() >= 500:
		log.WithFields(fields).Warn("Invocation completed with server error")
	default:
		log.WithFields(fields).Info("Invocation completed")
	}

	return reply, err
}

// isNilEvent also catches typed nil pointers wrapped in the interface
func isNilEvent(event InvocationEvent) bool {
	switch e := event.(type) {
	case nil:
		return true
	case *RestProxyEvent:
		return e == nil
	case *HTTPAPIEvent:
		return e == nil
	case *ALBTargetEvent:
		return e == nil
	case *HookInvocation:
		return e == nil
	}
	return false
}

// runHook never touches the server cell, hook invocations may arrive before
// the hosted application has started listening. The hook's error is returned
// as is.
func (d *Dispatcher) runHook(ctx context.Context, event *HookInvocation) error {
	fn, err := d.hooks.Lookup(event.ScandiumInvokeHook.File, event.ScandiumInvokeHook.Hook)
	if err != nil {
		return err
	}
	return fn(ctx)
}

func (d *Dispatcher) serveHTTP(ctx context.Context, event HTTPEvent, log logrus.FieldLogger) (Reply, error) {
	conn := NewConnection(event)
	req, err := NewRequest(ctx, conn, event)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(logrus.Fields{
		"method":    req.Method,
		"path":      req.URL.Path,
		"client_ip": conn.RemoteAddress(),
	})

	done := &completion{}
	sink := NewResponseSink(conn, req.Method, func(reply Reply) {
		if err := done.complete(reply, nil); err != nil {
			log.WithError(err).Error("Contract violation")
		}
	})

	handler, err := d.server.Wait(ctx)
	if err != nil {
		return nil, newAdapterError("await server", err)
	}

	if err := serve(handler, sink, req); err != nil {
		if cerr := done.complete(nil, err); cerr != nil {
			log.WithError(cerr).Error("Contract violation")
		}
	} else if !sink.Finalized() {
		_ = sink.Finish()
	}

	return done.result()
}

func serve(handler http.Handler, w http.ResponseWriter, req *http.Request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newAdapterError("serve", fmt.Errorf("handler panic: %v", p))
		}
	}()
	handler.ServeHTTP(w, req)
	return nil
}

func (d *Dispatcher) requestLogger(ctx context.Context) logrus.FieldLogger {
	requestID := ""
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return d.logger.WithField("request_id", requestID)
}

// completion is the single result slot of one invocation
type completion struct {
	mu    sync.Mutex
	done  bool
	reply Reply
	err   error
}

func (c *completion) complete(reply Reply, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return newAdapterError("complete", ErrCompletedTwice)
	}
	c.done = true
	c.reply = reply
	c.err = err
	return nil
}

func (c *completion) result() (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.done {
		return nil, newAdapterError("complete", errors.New("invocation finished without a reply"))
	}
	return c.reply, c.err
}
