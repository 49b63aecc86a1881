package telemetry

import (
	"context"
	"strings"
	"testing"
)

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
}

func TestInitTracingRequiresEndpoint(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, ServiceName: "contacts-server"})
	if err == nil {
		t.Fatal("expected error without an OTLP endpoint")
	}
}

func TestSamplerByRatio(t *testing.T) {
	cases := map[float64]string{
		1:    "AlwaysOnSampler",
		0:    "AlwaysOffSampler",
		0.25: "TraceIDRatioBased",
	}
	for ratio, want := range cases {
		if got := sampler(ratio).Description(); !strings.HasPrefix(got, want) {
			t.Errorf("sampler(%v) = %q, want prefix %q", ratio, got, want)
		}
	}
}
