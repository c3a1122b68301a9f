package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestNewPipelineMetricsNoop(t *testing.T) {
	metrics, err := NewPipelineMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRun(ctx, "run", StatusSuccess, 10*time.Millisecond)
	metrics.RecordProduced(ctx, "run", 3)
	metrics.RecordConsumed(ctx, "run", 3)
	metrics.RecordParticipantFailure(ctx, "run", "producer")
	metrics.RecordDisposeFailure(ctx, "run", "consumer")
}

func TestNilPipelineMetrics(t *testing.T) {
	var metrics *PipelineMetrics
	ctx := context.Background()
	// Must not panic.
	metrics.RecordRun(ctx, "run", StatusFailed, time.Second)
	metrics.RecordProduced(ctx, "run", 1)
	metrics.RecordConsumed(ctx, "run", 1)
	metrics.RecordParticipantFailure(ctx, "run", "consumer")
	metrics.RecordDisposeFailure(ctx, "run", "producer")
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestPipelineMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewPipelineMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRun(ctx, "r", StatusSuccess, time.Millisecond)
	metrics.RecordProduced(ctx, "r", 5)
	metrics.RecordProduced(ctx, "r", 0)
	metrics.RecordConsumed(ctx, "r", 4)
	metrics.RecordParticipantFailure(ctx, "r", "producer")
	metrics.RecordDisposeFailure(ctx, "r", "consumer")
	metrics.RecordDisposeFailure(ctx, "r", "consumer")

	sums := collectSums(t, reader)
	want := map[string]int64{
		"ppc.runs":                 1,
		"ppc.items.produced":       5,
		"ppc.items.consumed":       4,
		"ppc.participant.failures": 1,
		"ppc.dispose.failures":     2,
	}
	for name, v := range want {
		if sums[name] != v {
			t.Errorf("%s = %d, want %d", name, sums[name], v)
		}
	}
}

func TestStartOperation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	tracer := tp.Tracer("test")
	ctx, parent := StartOperation(context.Background(), tracer, SpanRun, attribute.String(AttrRunID, "r-1"))
	_, child := StartOperation(ctx, tracer, SpanParticipant, attribute.String(AttrRole, "producer"))
	child.End(fmt.Errorf("boom"))
	parent.End(nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	childSpan, parentSpan := spans[0], spans[1]
	if childSpan.Name != SpanParticipant || parentSpan.Name != SpanRun {
		t.Errorf("unexpected span names %q, %q", childSpan.Name, parentSpan.Name)
	}
	if childSpan.Parent.SpanID() != parentSpan.SpanContext.SpanID() {
		t.Error("participant span should be a child of the run span")
	}
	if childSpan.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", childSpan.Status.Code)
	}
	if parentSpan.Status.Code != codes.Ok {
		t.Errorf("expected ok status, got %v", parentSpan.Status.Code)
	}
	if len(childSpan.Events) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
}

func TestStartOperationNilTracer(t *testing.T) {
	ctx, op := StartOperation(context.Background(), nil, "noop")
	if trace.SpanFromContext(ctx) == nil {
		t.Fatal("expected a span from the global provider")
	}
	op.End(nil)
	if op.Duration() < 0 {
		t.Error("duration must not be negative")
	}
}

func TestTracerAndMeter(t *testing.T) {
	if Tracer("test-tracer") == nil {
		t.Fatal("expected non-nil tracer")
	}
	if Meter("test-meter") == nil {
		t.Fatal("expected non-nil meter")
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := samplerFor(tc.rate).Description(); got != tc.want {
				t.Errorf("samplerFor(%v) = %q, want %q", tc.rate, got, tc.want)
			}
		})
	}
}

func TestInitTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	cfg := DefaultTracerConfig("test-service")
	cfg.Environment = "test"

	tp, err := InitTracer(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	shutdownQuietly(t, tp.Shutdown)
}

func TestInitMeter(t *testing.T) {
	prev := otel.GetMeterProvider()
	defer otel.SetMeterProvider(prev)

	cfg := DefaultMeterConfig("test-service")
	cfg.Interval = 0

	mp, err := InitMeter(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}
	shutdownQuietly(t, mp.Shutdown)
}

// shutdownQuietly bounds provider shutdown; no collector listens in tests.
func shutdownQuietly(t *testing.T, shutdown func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}
