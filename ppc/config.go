package ppc

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/erisonliang/dotdotnet/logger"
	"github.com/erisonliang/dotdotnet/observability"
	"github.com/erisonliang/dotdotnet/validation"
)

const (
	DefaultName           = "ppc"
	DefaultCapacity       = 64
	DefaultDisposeTimeout = 10 * time.Second
	// DefaultPollInterval bounds each TryGet issued by Drain.
	DefaultPollInterval = 100 * time.Millisecond
)

// Config holds the tunable settings of an Orchestrator.
type Config struct {
	// Name labels the run in logs, spans, and metrics.
	Name string `mapstructure:"name"`
	// Capacity is the maximum number of elements buffered in the feed.
	Capacity int `mapstructure:"capacity" validate:"gte=1"`
	// BatchSize is the Listed batch size used by RunBatched.
	BatchSize int `mapstructure:"batch_size" validate:"gte=0"`
	// DisposeTimeout bounds each Dispose call. Zero means no bound.
	DisposeTimeout time.Duration `mapstructure:"dispose_timeout" validate:"gte=0"`
}

// DefaultConfig returns the settings used when no option overrides them.
func DefaultConfig() Config {
	return Config{
		Name:           DefaultName,
		Capacity:       DefaultCapacity,
		DisposeTimeout: DefaultDisposeTimeout,
	}
}

// ApplyDefaults fills unset fields. It is meant for configs loaded from
// files, where zero means absent.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.DisposeTimeout == 0 {
		c.DisposeTimeout = DefaultDisposeTimeout
	}
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Option configures an Orchestrator.
type Option func(*options)

type options struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.PipelineMetrics
	tracer  trace.Tracer
}

func buildOptions(opts []Option) options {
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("ppc")
	}
	if o.cfg.Name == "" {
		o.cfg.Name = DefaultName
	}
	return o
}

// WithConfig replaces every setting with cfg.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithCapacity sets the feed capacity.
func WithCapacity(n int) Option {
	return func(o *options) { o.cfg.Capacity = n }
}

// WithBatchSize sets the batch size used by RunBatched.
func WithBatchSize(n int) Option {
	return func(o *options) { o.cfg.BatchSize = n }
}

// WithDisposeTimeout bounds each participant's Dispose.
func WithDisposeTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.DisposeTimeout = d }
}

// WithName labels runs in logs, spans, and metrics.
func WithName(name string) Option {
	return func(o *options) { o.cfg.Name = name }
}

// WithLogger sets the logger. The default is the global logger tagged
// with component "ppc".
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records run metrics on m.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider sets where run spans go. The default is the global
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp.Tracer(observability.InstrumentationName) }
}
