package observability

import (
	"bytes"
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("ORBITWATCH_TRACING_ENABLED", "TRUE")
	t.Setenv("ORBITWATCH_TRACING_EXPORTER", "OTLP")
	t.Setenv("ORBITWATCH_TRACING_SERVICE_NAME", "")
	t.Setenv("ORBITWATCH_TRACING_SAMPLE_RATIO", "2.5")
	t.Setenv("ORBITWATCH_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.Endpoint != "collector:4317" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ServiceName != "orbitwatch" {
		t.Fatalf("ServiceName = %q, want default", cfg.ServiceName)
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("SampleRatio = %v, want out-of-range value ignored", cfg.SampleRatio)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingStdoutWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		ServiceName: "orbitwatch-test",
		Exporter:    "stdout",
		SampleRatio: 1,
		Writer:      &buf,
	}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, nil)
	})

	_, span := otel.Tracer("test").Start(context.Background(), "load-catalog")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, nil)

	if !bytes.Contains(buf.Bytes(), []byte("load-catalog")) {
		t.Fatalf("stdout exporter output missing span: %s", buf.String())
	}
}

func TestInitTracingNoneExporterStaysOff(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		Exporter:    ExporterNone,
		SampleRatio: 1,
		Writer:      &buf,
	}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "load-catalog")
	if span.SpanContext().IsValid() {
		t.Fatalf("span recorded with exporter %q", ExporterNone)
	}
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, nil)
	if buf.Len() != 0 {
		t.Fatalf("unexpected exporter output: %s", buf.String())
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil); err == nil {
		t.Fatalf("expected error for unsupported exporter")
	}
}
