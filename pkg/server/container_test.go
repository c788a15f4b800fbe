package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"scandium/internal/config"
	"scandium/pkg/lambda"
)

func testConfig(metricsEnabled bool) *config.Config {
	return &config.Config{
		Environment: "test",
		ServiceName: "orders",
		Version:     "1.0.0",
		Port:        "8080",
		Log:         config.LogConfig{Level: "error", Format: "json"},
		Metrics:     config.MetricsConfig{Enabled: metricsEnabled, Path: "/metrics", Namespace: "scandium"},
	}
}

// TestNewContainer verifies that the container can be created successfully
func TestNewContainer(t *testing.T) {
	container, err := NewContainer(testConfig(true), lambda.WithServerCell(lambda.NewServerCell()))
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	if container.Logger == nil {
		t.Error("Logger is nil")
	}
	if container.Metrics == nil {
		t.Error("Metrics is nil")
	}
	if container.Router == nil {
		t.Error("Router is nil")
	}
	if container.Dispatcher == nil {
		t.Fatal("Dispatcher is nil")
	}
	if names := container.Dispatcher.Hooks().Names(); !reflect.DeepEqual(names, []string{"app#warm"}) {
		t.Errorf("Expected hooks [app#warm], got %v", names)
	}
	if state := container.Dispatcher.Server().State(); state != lambda.StateUninitialized {
		t.Errorf("Expected uninitialized server, got %v", state)
	}
}

func TestNewContainerRequiresConfig(t *testing.T) {
	if _, err := NewContainer(nil); err == nil {
		t.Error("Expected error for nil config")
	}

	cfg := testConfig(false)
	cfg.Log.Format = "xml"
	if _, err := NewContainer(cfg, lambda.WithServerCell(lambda.NewServerCell())); err == nil {
		t.Error("Expected error for unknown log format")
	}
}

// TestContainerServesThroughDispatcher runs an invocation end to end and
// scrapes the metrics it produced through the adapter itself.
func TestContainerServesThroughDispatcher(t *testing.T) {
	container, err := NewContainer(testConfig(true), lambda.WithServerCell(lambda.NewServerCell()))
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	if err := container.Mount(); err != nil {
		t.Fatalf("Failed to mount: %v", err)
	}
	if err := container.Mount(); !errors.Is(err, lambda.ErrAlreadyListening) {
		t.Errorf("Expected ErrAlreadyListening on second mount, got %v", err)
	}

	ctx := context.Background()
	out, err := container.Dispatcher.Invoke(ctx, json.RawMessage(`{"path":"/health","httpMethod":"GET","requestContext":{"identity":{"sourceIp":"10.1.1.1"}}}`))
	if err != nil {
		t.Fatalf("Health invocation failed: %v", err)
	}
	if status := out.(lambda.Reply).Status(); status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}

	out, err = container.Dispatcher.Invoke(ctx, json.RawMessage(`{"path":"/metrics","httpMethod":"GET","requestContext":{"identity":{"sourceIp":"10.1.1.1"}}}`))
	if err != nil {
		t.Fatalf("Metrics invocation failed: %v", err)
	}
	reply := out.(*lambda.RestReply)
	if reply.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", reply.StatusCode)
	}
	for _, want := range []string{
		`scandium_invocations_total{kind="rest"} 1`,
		`scandium_replies_total{code="200",encoding="text",origin="API_GATEWAY"} 1`,
	} {
		if !strings.Contains(reply.Body, want) {
			t.Errorf("Expected metrics to contain %s", want)
		}
	}
}

func TestContainerWithoutMetrics(t *testing.T) {
	container, err := NewContainer(testConfig(false), lambda.WithServerCell(lambda.NewServerCell()))
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	if err := container.Mount(); err != nil {
		t.Fatalf("Failed to mount: %v", err)
	}
	if container.Metrics != nil {
		t.Error("Expected no metrics collector")
	}

	out, err := container.Dispatcher.Invoke(context.Background(), json.RawMessage(`{"path":"/metrics","httpMethod":"GET","requestContext":{"elb":{"targetGroupArn":"arn"}}}`))
	if err != nil {
		t.Fatalf("Invocation failed: %v", err)
	}
	if status := out.(lambda.Reply).Status(); status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", status)
	}
}
