package lambda

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
)

// EventKind names the variant of an InvocationEvent
type EventKind string

const (
	KindRest         EventKind = "rest"
	KindHTTPAPI      EventKind = "http_api"
	KindLoadBalancer EventKind = "load_balancer"
	KindHook         EventKind = "hook"
	KindUnknown      EventKind = "unknown"
)

// InvocationEvent is the sealed set of payloads the platform can hand to the
// entry point. The implementations are RestProxyEvent, HTTPAPIEvent,
// ALBTargetEvent and HookInvocation.
type InvocationEvent interface {
	Kind() EventKind
	sealed()
}

// HTTPEvent is an InvocationEvent that describes one inbound HTTP request
type HTTPEvent interface {
	InvocationEvent
	Origin() Origin
	shape() *httpShape
}

// RestProxyEvent is the API Gateway REST proxy integration payload
type RestProxyEvent struct {
	events.APIGatewayProxyRequest
}

// HTTPAPIEvent is the API Gateway HTTP API payload, format version 2.0
type HTTPAPIEvent struct {
	events.APIGatewayV2HTTPRequest
}

// ALBTargetEvent is the Application Load Balancer target group payload
type ALBTargetEvent struct {
	events.ALBTargetGroupRequest
}

// HookDirective names a registered hook by file and export name
type HookDirective struct {
	File string `json:"file" validate:"required"`
	Hook string `json:"hook" validate:"required"`
}

// HookInvocation asks the entry point to run a hook instead of an HTTP request
type HookInvocation struct {
	ScandiumInvokeHook HookDirective `json:"scandiumInvokeHook"`
}

func (*RestProxyEvent) Kind() EventKind { return KindRest }
func (*HTTPAPIEvent) Kind() EventKind   { return KindHTTPAPI }
func (*ALBTargetEvent) Kind() EventKind { return KindLoadBalancer }
func (*HookInvocation) Kind() EventKind { return KindHook }

func (*RestProxyEvent) sealed() {}
func (*HTTPAPIEvent) sealed()   {}
func (*ALBTargetEvent) sealed() {}
func (*HookInvocation) sealed() {}

func (*RestProxyEvent) Origin() Origin { return OriginAPIGateway }
func (*HTTPAPIEvent) Origin() Origin   { return OriginHTTPAPI }
func (*ALBTargetEvent) Origin() Origin { return OriginLoadBalancer }

var validate = validator.New()

// ParseEvent decodes a raw invocation payload into its InvocationEvent variant.
// Hook directives are recognised first, then load balancer events by their
// requestContext.elb field, then HTTP API events by version 2.0, and anything
// else is treated as a REST proxy event.
func ParseEvent(payload []byte) (InvocationEvent, error) {
	var probe struct {
		Hook           json.RawMessage `json:"scandiumInvokeHook"`
		Version        string          `json:"version"`
		RequestContext struct {
			ELB  json.RawMessage `json:"elb"`
			HTTP json.RawMessage `json:"http"`
		} `json:"requestContext"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, newAdapterError("parse", fmt.Errorf("%w: %v", ErrUnknownEvent, err))
	}

	var event InvocationEvent
	switch {
	case present(probe.Hook):
		event = &HookInvocation{}
	case present(probe.RequestContext.ELB):
		event = &ALBTargetEvent{}
	case probe.Version == "2.0" && present(probe.RequestContext.HTTP):
		event = &HTTPAPIEvent{}
	default:
		event = &RestProxyEvent{}
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, newAdapterError("parse", fmt.Errorf("%w: %v", ErrMalformedEvent, err))
	}
	if err := Validate(event); err != nil {
		return nil, err
	}
	return event, nil
}

// Validate checks that an event carries every field the adapter relies on
func Validate(event InvocationEvent) error {
	var err error
	switch e := event.(type) {
	case *HookInvocation:
		err = validate.Struct(e.ScandiumInvokeHook)
	case HTTPEvent:
		err = validate.Struct(e.shape())
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownEvent, event)
		return newAdapterError("validate", err)
	}
	if err != nil {
		return newAdapterError("validate", fmt.Errorf("%w: %s", ErrMalformedEvent, describeValidation(err)))
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(fields, ", ")
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// httpShape is the variant-independent view of an HTTP event
type httpShape struct {
	Method          string `validate:"required"`
	Path            string `validate:"required"`
	RawQuery        string
	Header          []headerField
	Body            string
	IsBase64Encoded bool
	SourceIP        string
}

type headerField struct {
	Name  string
	Value string
}

func (e *RestProxyEvent) shape() *httpShape {
	return &httpShape{
		Method:          e.HTTPMethod,
		Path:            e.Path,
		RawQuery:        encodeQuery(e.QueryStringParameters, e.MultiValueQueryStringParameters, false),
		Header:          headerFields(e.Headers, e.MultiValueHeaders),
		Body:            e.Body,
		IsBase64Encoded: e.IsBase64Encoded,
		SourceIP:        e.RequestContext.Identity.SourceIP,
	}
}

func (e *ALBTargetEvent) shape() *httpShape {
	return &httpShape{
		Method:          e.HTTPMethod,
		Path:            e.Path,
		RawQuery:        encodeQuery(e.QueryStringParameters, e.MultiValueQueryStringParameters, true),
		Header:          headerFields(e.Headers, e.MultiValueHeaders),
		Body:            e.Body,
		IsBase64Encoded: e.IsBase64Encoded,
	}
}

func (e *HTTPAPIEvent) shape() *httpShape {
	header := headerFields(e.Headers, nil)
	if len(e.Cookies) > 0 {
		header = append(header, headerField{Name: "cookie", Value: strings.Join(e.Cookies, "; ")})
	}
	return &httpShape{
		Method:          e.RequestContext.HTTP.Method,
		Path:            e.RawPath,
		RawQuery:        e.RawQueryString,
		Header:          header,
		Body:            e.Body,
		IsBase64Encoded: e.IsBase64Encoded,
		SourceIP:        e.RequestContext.HTTP.SourceIP,
	}
}

// headerFields flattens the event headers. A multi-value map wins over the
// single-value one; repeated values stay separate entries in event order.
func headerFields(single map[string]string, multi map[string][]string) []headerField {
	var fields []headerField
	if len(multi) > 0 {
		for _, name := range sortedKeys(multi) {
			for _, value := range multi[name] {
				fields = append(fields, headerField{Name: name, Value: value})
			}
		}
		return fields
	}
	for _, name := range sortedKeys(single) {
		fields = append(fields, headerField{Name: strings.ToLower(name), Value: single[name]})
	}
	return fields
}

// encodeQuery formats query parameters as a URL query string. Load balancers
// pass parameters still percent-encoded, so escaped input is decoded first.
func encodeQuery(single map[string]string, multi map[string][]string, escaped bool) string {
	values := url.Values{}
	if len(multi) > 0 {
		for key, vals := range multi {
			for _, v := range vals {
				values.Add(unescape(key, escaped), unescape(v, escaped))
			}
		}
	} else {
		for key, v := range single {
			values.Add(unescape(key, escaped), unescape(v, escaped))
		}
	}
	return values.Encode()
}

func unescape(s string, escaped bool) string {
	if !escaped {
		return s
	}
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
