package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"scandium/pkg/lambda"
)

// Collector records invocation outcomes. It satisfies lambda.Observer.
type Collector struct {
	registry *prom.Registry

	invocations *prom.CounterVec
	failures    *prom.CounterVec
	duration    *prom.HistogramVec
	replies     *prom.CounterVec
}

var _ lambda.Observer = (*Collector)(nil)

// NewCollector registers the invocation metrics on a private registry
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prom.NewRegistry(),
		invocations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Function invocations by event kind",
		}, []string{"kind"}),
		failures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "invocation_errors_total",
			Help:      "Invocations that completed with an error, by event kind and error class",
		}, []string{"kind", "class"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Invocation latency",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		replies: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Reply envelopes by origin, status code and body encoding",
		}, []string{"origin", "code", "encoding"}),
	}

	c.registry.MustRegister(
		c.invocations,
		c.failures,
		c.duration,
		c.replies,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveInvocation counts the invocation and its latency
func (c *Collector) ObserveInvocation(kind lambda.EventKind, elapsed time.Duration, err error) {
	c.invocations.WithLabelValues(string(kind)).Inc()
	c.duration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	if err != nil {
		c.failures.WithLabelValues(string(kind), errorClass(err)).Inc()
	}
}

// ObserveReply counts the rendered envelope
func (c *Collector) ObserveReply(origin lambda.Origin, reply lambda.Reply) {
	encoding := "text"
	if reply.Base64Encoded() {
		encoding = "base64"
	}
	c.replies.WithLabelValues(origin.String(), strconv.Itoa(reply.Status()), encoding).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prom.Registry {
	return c.registry
}

func errorClass(err error) string {
	switch {
	case lambda.IsTranslationError(err):
		return "translation"
	case lambda.IsConfigurationError(err):
		return "configuration"
	case errors.Is(err, lambda.ErrHookNotFound):
		return "hook_not_found"
	default:
		return "application"
	}
}
