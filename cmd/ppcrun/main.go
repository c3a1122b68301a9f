// Command ppcrun counts words across files with one producer per file and
// a pool of consumers.
//
//	ppcrun [file ...]
//	ppcrun version
//
// Settings come from cmd/ppcrun/config.yml and PPCRUN_* variables. When
// ppc.batch_size is positive, lines travel through the feed in batches.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erisonliang/dotdotnet/config"
	apperrors "github.com/erisonliang/dotdotnet/errors"
	"github.com/erisonliang/dotdotnet/logger"
	"github.com/erisonliang/dotdotnet/observability"
	"github.com/erisonliang/dotdotnet/ppc"
	"github.com/erisonliang/dotdotnet/version"
)

const serviceName = "ppcrun"

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger.Error("ppcrun failed", logger.ErrorFields("run", err))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 1 && args[0] == "version" {
		fmt.Println(version.Get())
		return nil
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return err
	}
	logger.Init(&cfg.Logging)
	log := logger.WithComponent("main")
	log.Debug("starting", logger.Fields(
		"version", cfg.Version,
		"release", version.Get().IsRelease(),
		"environment", cfg.Environment,
	))

	inputs := cfg.Inputs
	if len(args) > 0 {
		inputs = args
	}
	if len(inputs) == 0 {
		return apperrors.MissingField("inputs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics, shutdown, err := initTelemetry(ctx, &cfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}()

	t := newTally()
	err = count(ctx, &cfg, inputs, t, metrics)

	lines, distinct := t.totals()
	log.Info("word count finished", logger.Fields(
		"files", len(inputs),
		"lines", lines,
		"distinct_words", distinct,
	))
	for i, wc := range t.top(cfg.Top) {
		fmt.Printf("%3d. %-24s %d\n", i+1, wc.Word, wc.Count)
	}
	return err
}

// count runs one producer per input and cfg.Consumers consumers.
func count(ctx context.Context, cfg *Config, inputs []string, t *tally, metrics *observability.PipelineMetrics) error {
	producers := make([]ppc.Producer[string], len(inputs))
	for i, path := range inputs {
		producers[i] = newLineProducer(path)
	}

	opts := []ppc.Option{
		ppc.WithConfig(cfg.PPC),
		ppc.WithMetrics(metrics),
		ppc.WithLogger(logger.WithComponent("ppc")),
	}

	if cfg.PPC.BatchSize > 0 {
		consumers := make([]ppc.Consumer[[]string], cfg.Consumers)
		for i := range consumers {
			consumers[i] = batchConsumer(fmt.Sprintf("words-%d", i), t)
		}
		return ppc.RunBatched(ctx, producers, consumers, opts...)
	}

	consumers := make([]ppc.Consumer[string], cfg.Consumers)
	for i := range consumers {
		consumers[i] = lineConsumer(fmt.Sprintf("words-%d", i), t)
	}
	return ppc.Run(ctx, producers, consumers, opts...)
}

// initTelemetry installs OTLP tracer and meter providers when enabled. The
// returned shutdown is always safe to call.
func initTelemetry(ctx context.Context, cfg *Config) (*observability.PipelineMetrics, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Telemetry.Enabled {
		return nil, noop, nil
	}

	tcfg := observability.DefaultTracerConfig(cfg.Name)
	tcfg.ServiceVersion = cfg.Version
	tcfg.Environment = cfg.Environment
	tcfg.Endpoint = cfg.Telemetry.Endpoint
	tcfg.Insecure = cfg.Telemetry.Insecure
	tcfg.SampleRate = cfg.Telemetry.SampleRate
	tp, err := observability.InitTracer(ctx, &tcfg)
	if err != nil {
		return nil, noop, err
	}

	mcfg := observability.DefaultMeterConfig(cfg.Name)
	mcfg.ServiceVersion = cfg.Version
	mcfg.Environment = cfg.Environment
	mcfg.Endpoint = cfg.Telemetry.Endpoint
	mcfg.Insecure = cfg.Telemetry.Insecure
	mcfg.Interval = cfg.Telemetry.MetricInterval
	mp, err := observability.InitMeter(ctx, &mcfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, noop, err
	}

	metrics, err := observability.NewPipelineMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, noop, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return metrics, shutdown, nil
}
