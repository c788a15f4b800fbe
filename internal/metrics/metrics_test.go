package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scandium/pkg/lambda"
)

// sample finds the metric in name carrying exactly the given labels
func sample(t *testing.T, c *Collector, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			got := map[string]string{}
			for _, pair := range metric.GetLabel() {
				got[pair.GetName()] = pair.GetValue()
			}
			if assert.ObjectsAreEqual(labels, got) {
				return metric
			}
		}
	}
	return nil
}

func TestCollectorObserveInvocation(t *testing.T) {
	c := NewCollector("test")

	c.ObserveInvocation(lambda.KindRest, 20*time.Millisecond, nil)
	c.ObserveInvocation(lambda.KindRest, 30*time.Millisecond, nil)
	c.ObserveInvocation(lambda.KindHook, time.Millisecond, errors.New("hook exploded"))
	c.ObserveInvocation(lambda.KindUnknown, 0, fmt.Errorf("decode: %w", lambda.ErrMalformedEvent))

	rest := sample(t, c, "test_invocations_total", map[string]string{"kind": "rest"})
	require.NotNil(t, rest)
	assert.Equal(t, 2.0, rest.GetCounter().GetValue())

	hookFailure := sample(t, c, "test_invocation_errors_total", map[string]string{"kind": "hook", "class": "application"})
	require.NotNil(t, hookFailure)
	assert.Equal(t, 1.0, hookFailure.GetCounter().GetValue())

	parseFailure := sample(t, c, "test_invocation_errors_total", map[string]string{"kind": "unknown", "class": "translation"})
	require.NotNil(t, parseFailure)

	latency := sample(t, c, "test_invocation_duration_seconds", map[string]string{"kind": "rest"})
	require.NotNil(t, latency)
	assert.Equal(t, uint64(2), latency.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.05, latency.GetHistogram().GetSampleSum(), 1e-9)
}

func TestCollectorObserveReply(t *testing.T) {
	c := NewCollector("test")

	c.ObserveReply(lambda.OriginLoadBalancer, &lambda.LoadBalancerReply{StatusCode: 404})
	c.ObserveReply(lambda.OriginAPIGateway, &lambda.RestReply{StatusCode: 200, IsBase64Encoded: true})

	notFound := sample(t, c, "test_replies_total", map[string]string{"origin": "LOAD_BALANCER", "code": "404", "encoding": "text"})
	require.NotNil(t, notFound)
	assert.Equal(t, 1.0, notFound.GetCounter().GetValue())

	binary := sample(t, c, "test_replies_total", map[string]string{"origin": "API_GATEWAY", "code": "200", "encoding": "base64"})
	require.NotNil(t, binary)
}

func TestErrorClass(t *testing.T) {
	assert.Equal(t, "translation", errorClass(lambda.ErrUnknownEvent))
	assert.Equal(t, "configuration", errorClass(lambda.ErrCompletedTwice))
	assert.Equal(t, "hook_not_found", errorClass(fmt.Errorf("lookup: %w", lambda.ErrHookNotFound)))
	assert.Equal(t, "application", errorClass(errors.New("boom")))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector("test")
	c.ObserveInvocation(lambda.KindHTTPAPI, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_invocations_total{kind="http_api"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
