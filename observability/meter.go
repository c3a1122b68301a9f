package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/erisonliang/dotdotnet/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The caller shuts it down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Run statuses recorded on ppc.runs.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// PipelineMetrics holds the instruments recorded by the orchestrator.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	runs                metric.Int64Counter
	runDuration         metric.Float64Histogram
	itemsProduced       metric.Int64Counter
	itemsConsumed       metric.Int64Counter
	participantFailures metric.Int64Counter
	disposeFailures     metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runs, err := meter.Int64Counter("ppc.runs",
		metric.WithDescription("Completed orchestrator runs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ppc.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("ppc.run.duration",
		metric.WithDescription("Duration of orchestrator runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ppc.run.duration histogram: %w", err)
	}

	itemsProduced, err := meter.Int64Counter("ppc.items.produced",
		metric.WithDescription("Items accepted into the feed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ppc.items.produced counter: %w", err)
	}

	itemsConsumed, err := meter.Int64Counter("ppc.items.consumed",
		metric.WithDescription("Elements taken from the feed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ppc.items.consumed counter: %w", err)
	}

	participantFailures, err := meter.Int64Counter("ppc.participant.failures",
		metric.WithDescription("Participant failures by role"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ppc.participant.failures counter: %w", err)
	}

	disposeFailures, err := meter.Int64Counter("ppc.dispose.failures",
		metric.WithDescription("Dispose failures by role"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ppc.dispose.failures counter: %w", err)
	}

	return &PipelineMetrics{
		runs:                runs,
		runDuration:         runDuration,
		itemsProduced:       itemsProduced,
		itemsConsumed:       itemsConsumed,
		participantFailures: participantFailures,
		disposeFailures:     disposeFailures,
	}, nil
}

// RecordRun records a finished run.
func (m *PipelineMetrics) RecordRun(ctx context.Context, name, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("run", name),
		attribute.String("status", status),
	))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("run", name),
	))
}

// RecordProduced adds n items accepted from producers.
func (m *PipelineMetrics) RecordProduced(ctx context.Context, name string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.itemsProduced.Add(ctx, n, metric.WithAttributes(attribute.String("run", name)))
}

// RecordConsumed adds n elements delivered to consumers.
func (m *PipelineMetrics) RecordConsumed(ctx context.Context, name string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.itemsConsumed.Add(ctx, n, metric.WithAttributes(attribute.String("run", name)))
}

// RecordParticipantFailure records a failed producer or consumer.
func (m *PipelineMetrics) RecordParticipantFailure(ctx context.Context, name, role string) {
	if m == nil {
		return
	}
	m.participantFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("run", name),
		attribute.String("role", role),
	))
}

// RecordDisposeFailure records a failed Dispose.
func (m *PipelineMetrics) RecordDisposeFailure(ctx context.Context, name, role string) {
	if m == nil {
		return
	}
	m.disposeFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("run", name),
		attribute.String("role", role),
	))
}
