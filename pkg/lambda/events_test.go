package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		kind    EventKind
	}{
		{
			name:    "rest proxy event",
			payload: `{"path":"/x","httpMethod":"GET","headers":{"Accept":"text/plain"},"body":null,"requestContext":{"identity":{"sourceIp":"1.2.3.4"}}}`,
			kind:    KindRest,
		},
		{
			name:    "load balancer event",
			payload: `{"path":"/","httpMethod":"GET","requestContext":{"elb":{"targetGroupArn":"arn:aws:elasticloadbalancing:eu-west-1:123:targetgroup/app/1"}}}`,
			kind:    KindLoadBalancer,
		},
		{
			name:    "null elb falls back to rest",
			payload: `{"path":"/","httpMethod":"GET","requestContext":{"elb":null}}`,
			kind:    KindRest,
		},
		{
			name:    "http api event",
			payload: `{"version":"2.0","rawPath":"/p","rawQueryString":"a=1","requestContext":{"http":{"method":"POST","sourceIp":"::1"}}}`,
			kind:    KindHTTPAPI,
		},
		{
			name:    "version 2.0 without http context is rest",
			payload: `{"version":"2.0","path":"/p","httpMethod":"GET","requestContext":{}}`,
			kind:    KindRest,
		},
		{
			name:    "hook directive",
			payload: `{"scandiumInvokeHook":{"file":"hooks","hook":"warm"}}`,
			kind:    KindHook,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ParseEvent([]byte(tc.payload))
			require.NoError(t, err)
			assert.Equal(t, tc.kind, event.Kind())
		})
	}
}

func TestParseEventHookFields(t *testing.T) {
	event, err := ParseEvent([]byte(`{"scandiumInvokeHook":{"file":"db/migrate","hook":"up"}}`))
	require.NoError(t, err)

	hook, ok := event.(*HookInvocation)
	require.True(t, ok)
	assert.Equal(t, "db/migrate", hook.ScandiumInvokeHook.File)
	assert.Equal(t, "up", hook.ScandiumInvokeHook.Hook)
}

func TestParseEventErrors(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		target  error
	}{
		{name: "not json", payload: `{`, target: ErrUnknownEvent},
		{name: "array payload", payload: `[1,2]`, target: ErrUnknownEvent},
		{name: "missing path", payload: `{"httpMethod":"GET"}`, target: ErrMalformedEvent},
		{name: "missing method", payload: `{"path":"/x"}`, target: ErrMalformedEvent},
		{name: "alb missing method", payload: `{"path":"/x","requestContext":{"elb":{}}}`, target: ErrMalformedEvent},
		{name: "http api missing path", payload: `{"version":"2.0","requestContext":{"http":{"method":"GET"}}}`, target: ErrMalformedEvent},
		{name: "hook without name", payload: `{"scandiumInvokeHook":{"file":"hooks"}}`, target: ErrMalformedEvent},
		{name: "hook of wrong type", payload: `{"scandiumInvokeHook":"hooks#warm"}`, target: ErrMalformedEvent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ParseEvent([]byte(tc.payload))
			require.Error(t, err)
			assert.Nil(t, event)
			assert.ErrorIs(t, err, tc.target)
			assert.True(t, IsTranslationError(err))
		})
	}
}

func TestMalformedEventNamesMissingFields(t *testing.T) {
	_, err := ParseEvent([]byte(`{"requestContext":{"identity":{}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method is required")
	assert.Contains(t, err.Error(), "path is required")
}

func TestHeaderFieldsPreservesRepeatedValues(t *testing.T) {
	fields := headerFields(
		map[string]string{"Ignored": "yes"},
		map[string][]string{
			"X-Forwarded-For": {"10.0.0.1", "10.0.0.2", "10.0.0.1"},
			"Accept":          {"text/html"},
		},
	)

	assert.Equal(t, []headerField{
		{Name: "Accept", Value: "text/html"},
		{Name: "X-Forwarded-For", Value: "10.0.0.1"},
		{Name: "X-Forwarded-For", Value: "10.0.0.2"},
		{Name: "X-Forwarded-For", Value: "10.0.0.1"},
	}, fields)
}

func TestHeaderFieldsLowercasesSingleValues(t *testing.T) {
	fields := headerFields(map[string]string{"Content-Type": "application/json", "X-Api-Key": "k"}, nil)

	assert.Equal(t, []headerField{
		{Name: "content-type", Value: "application/json"},
		{Name: "x-api-key", Value: "k"},
	}, fields)
}

func TestEncodeQuery(t *testing.T) {
	assert.Equal(t, "", encodeQuery(nil, nil, false))
	assert.Equal(t, "a=1&b=2", encodeQuery(map[string]string{"b": "2", "a": "1"}, nil, false))
	assert.Equal(t, "a=1&a=3", encodeQuery(map[string]string{"a": "2"}, map[string][]string{"a": {"1", "3"}}, false))
	assert.Equal(t, "q=hello+world", encodeQuery(map[string]string{"q": "hello%20world"}, nil, true))
	assert.Equal(t, "q=100%25", encodeQuery(map[string]string{"q": "100%"}, nil, true))
}
