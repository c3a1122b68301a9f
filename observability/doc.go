// Package observability provides OpenTelemetry tracing and metrics for
// orchestrator runs.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("ppcrun")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, op := observability.StartOperation(ctx, nil, observability.SpanRun)
//	defer op.End(err)
//
// Metrics:
//
//	mcfg := observability.DefaultMeterConfig("ppcrun")
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewPipelineMetrics(observability.Meter(observability.InstrumentationName))
//	metrics.RecordRun(ctx, "ingest", observability.StatusSuccess, elapsed)
package observability
