package ppc

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/erisonliang/dotdotnet/errors"
	"github.com/erisonliang/dotdotnet/feed"
	"github.com/erisonliang/dotdotnet/logger"
	"github.com/erisonliang/dotdotnet/observability"
	"github.com/erisonliang/dotdotnet/validation"
)

const (
	roleProducer = "producer"
	roleConsumer = "consumer"
	roleFeed     = "feed"
)

// Orchestrator runs producers of T and consumers of E through one feed.
// An Orchestrator may run several times, concurrently or not; each Run
// gets its own feed and state.
type Orchestrator[T, E any] struct {
	dist Distributor[T, E]
	opts options
	log  *logger.Logger

	mu   sync.Mutex
	last *Stats
}

// New validates dist and opts and returns an Orchestrator.
func New[T, E any](dist Distributor[T, E], opts ...Option) (*Orchestrator[T, E], error) {
	if dist == nil {
		return nil, errors.MissingField("distributor")
	}
	o := buildOptions(opts)
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator[T, E]{dist: dist, opts: o, log: o.log}, nil
}

// Run executes one full run and blocks until every participant has been
// disposed. It returns nil on success and a *RunError otherwise.
// Configuration errors are returned before any goroutine starts.
func (o *Orchestrator[T, E]) Run(ctx context.Context, producers []Producer[T], consumers []Consumer[E]) error {
	if err := validateParticipants(producers, consumers); err != nil {
		return err
	}
	f, err := feed.New[E](o.opts.cfg.Capacity)
	if err != nil {
		return err
	}

	start := time.Now()
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	st := newRunState(cancel)
	name := o.opts.cfg.Name
	log := o.log.WithRun(st.id)

	runCtx, op := observability.StartOperation(runCtx, o.opts.tracer, observability.SpanRun,
		attribute.String(observability.AttrRunID, st.id),
		attribute.String(observability.AttrRunName, name),
		attribute.String(observability.AttrDistributor, o.dist.Name()),
		attribute.Int(observability.AttrCapacity, f.Cap()),
	)

	log.Info("run started", logger.Fields(
		"name", name,
		"distributor", o.dist.Name(),
		"producers", len(producers),
		"consumers", len(consumers),
		"capacity", f.Cap(),
	))

	src := &countingSource[E]{src: f, st: st}
	var cg errgroup.Group
	for i, c := range consumers {
		cg.Go(func() error {
			return o.runConsumer(runCtx, st, log, participantName(c, roleConsumer, i), c, src)
		})
	}

	var pg errgroup.Group
	for i, p := range producers {
		pg.Go(func() error {
			return o.runProducer(runCtx, st, log, participantName(p, roleProducer, i), p, f)
		})
	}

	producersDone := make(chan struct{})
	go func() {
		defer close(producersDone)
		perr := pg.Wait()
		f.Close()
		fields := logger.Fields("produced", st.produced.Load())
		if perr != nil {
			fields = logger.MergeWithError(fields, perr)
		}
		log.Debug("feed closed", fields)
	}()

	cerr := cg.Wait()
	if cerr != nil {
		log.Debug("consumers stopped", logger.ErrorFields("consume", cerr))
	}
	select {
	case <-producersDone:
	default:
		if cerr == nil && runCtx.Err() == nil && !f.IsClosed() {
			// Every consumer returned while producers may still block on a
			// full feed.
			st.fail(runCtx, errors.New(errors.ErrCodeInternal, "all consumers returned before the feed finished"))
		}
		<-producersDone
	}
	if cerr == nil && runCtx.Err() == nil && !f.IsFinished() {
		st.fail(runCtx, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("consumers returned with %d undelivered elements", f.Len())))
	}

	o.teardown(runCtx, st, log, producers, consumers, f)

	var result error
	if runErr := st.result(runCtx); runErr != nil {
		result = runErr
	}
	o.finish(ctx, st, log, op, name, time.Since(start), result)
	return result
}

func (o *Orchestrator[T, E]) runProducer(runCtx context.Context, st *runState, log *logger.Logger, name string, p Producer[T], f *feed.Feed[E]) error {
	ctx, op := observability.StartOperation(runCtx, o.opts.tracer, observability.SpanParticipant,
		attribute.String(observability.AttrRole, roleProducer),
		attribute.String(observability.AttrParticipant, name),
	)

	err := safeCall(func() error { return p.Init(ctx) })
	if err == nil {
		w := &countingWriter[T]{w: o.dist.Writer(f), st: st}
		err = safeCall(func() error { return p.Produce(ctx, w) })
		if err == nil {
			err = safeCall(func() error { return w.Flush(ctx) })
		}
	}
	op.End(err)

	if err != nil {
		return o.participantFailed(runCtx, st, log, roleProducer, name, err)
	}
	log.Debug("producer finished", logger.Fields(logger.FieldParticipant, name))
	return nil
}

func (o *Orchestrator[T, E]) runConsumer(runCtx context.Context, st *runState, log *logger.Logger, name string, c Consumer[E], src Source[E]) error {
	ctx, op := observability.StartOperation(runCtx, o.opts.tracer, observability.SpanParticipant,
		attribute.String(observability.AttrRole, roleConsumer),
		attribute.String(observability.AttrParticipant, name),
	)

	err := safeCall(func() error { return c.Init(ctx) })
	if err == nil {
		err = safeCall(func() error { return c.Consume(ctx, src) })
	}
	op.End(err)

	if err != nil {
		return o.participantFailed(runCtx, st, log, roleConsumer, name, err)
	}
	log.Debug("consumer finished", logger.Fields(logger.FieldParticipant, name))
	return nil
}

func (o *Orchestrator[T, E]) participantFailed(runCtx context.Context, st *runState, log *logger.Logger, role, name string, cause error) error {
	err := errors.ParticipantFailed(role, name, cause)
	plog := log.WithParticipant(role, name).WithError(cause)
	if st.fail(runCtx, err) {
		o.opts.metrics.RecordParticipantFailure(runCtx, o.opts.cfg.Name, role)
		plog.Error("participant failed, cancelling run")
	} else if errors.IsCancelled(cause) && runCtx.Err() != nil {
		plog.Debug("participant cancelled")
	} else {
		o.opts.metrics.RecordParticipantFailure(runCtx, o.opts.cfg.Name, role)
		plog.Warn("participant failed after run was cancelled")
	}
	return err
}

// teardown disposes consumers, then producers, each in reverse order, and
// finally the feed. It runs on a context detached from the run's
// cancellation.
func (o *Orchestrator[T, E]) teardown(runCtx context.Context, st *runState, log *logger.Logger, producers []Producer[T], consumers []Consumer[E], f *feed.Feed[E]) {
	base := context.WithoutCancel(runCtx)
	log.Debug("teardown started")

	for i, c := range slices.Backward(consumers) {
		o.dispose(base, st, log, roleConsumer, participantName(c, roleConsumer, i), c.Dispose)
	}
	for i, p := range slices.Backward(producers) {
		o.dispose(base, st, log, roleProducer, participantName(p, roleProducer, i), p.Dispose)
	}
	o.dispose(base, st, log, roleFeed, roleFeed, f.Dispose)
}

func (o *Orchestrator[T, E]) dispose(base context.Context, st *runState, log *logger.Logger, role, name string, fn func(context.Context) error) {
	ctx, cancel := base, context.CancelFunc(func() {})
	if d := o.opts.cfg.DisposeTimeout; d > 0 {
		ctx, cancel = context.WithTimeout(base, d)
	}
	defer cancel()

	start := time.Now()
	if err := callBounded(ctx, role+".dispose", fn); err != nil {
		st.disposalFailed(errors.DisposalFailed(role, name, err))
		o.opts.metrics.RecordDisposeFailure(base, o.opts.cfg.Name, role)
		log.WithParticipant(role, name).WithError(err).Warn("dispose failed")
		return
	}
	log.Debug("disposed", logger.DurationFields(role+".dispose", time.Since(start),
		logger.FieldRole, role, logger.FieldParticipant, name))
}

func (o *Orchestrator[T, E]) finish(ctx context.Context, st *runState, log *logger.Logger, op *observability.Operation, name string, d time.Duration, result error) {
	stats := st.stats(name, d, result)
	o.mu.Lock()
	o.last = &stats
	o.mu.Unlock()

	mctx := context.WithoutCancel(ctx)
	status := observability.StatusSuccess
	if result != nil {
		status = observability.StatusFailed
	}
	o.opts.metrics.RecordProduced(mctx, name, stats.Produced)
	o.opts.metrics.RecordConsumed(mctx, name, stats.Consumed)
	o.opts.metrics.RecordRun(mctx, name, status, d)

	op.SetAttributes(
		attribute.Int64("ppc.produced", stats.Produced),
		attribute.Int64("ppc.consumed", stats.Consumed),
	)
	op.End(result)

	fields := logger.DurationFields("run", d,
		logger.FieldStatus, status,
		"produced", stats.Produced,
		"consumed", stats.Consumed,
	)
	if result != nil {
		log.Error("run failed", logger.MergeWithError(fields, result))
		return
	}
	log.Info("run finished", fields)
}

// LastStats returns the statistics of the most recently finished run.
func (o *Orchestrator[T, E]) LastStats() (Stats, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return Stats{}, false
	}
	return *o.last, true
}

// Run runs producers and consumers with the Identity distributor.
func Run[T any](ctx context.Context, producers []Producer[T], consumers []Consumer[T], opts ...Option) error {
	o, err := New[T, T](Identity[T]{}, opts...)
	if err != nil {
		return err
	}
	return o.Run(ctx, producers, consumers)
}

// RunBatched runs producers and consumers with a Listed distributor whose
// size comes from WithBatchSize or Config.BatchSize.
func RunBatched[T any](ctx context.Context, producers []Producer[T], consumers []Consumer[[]T], opts ...Option) error {
	size := buildOptions(opts).cfg.BatchSize
	o, err := New[T, []T](Listed[T]{Size: size}, opts...)
	if err != nil {
		return err
	}
	return o.Run(ctx, producers, consumers)
}

func validateParticipants[T, E any](producers []Producer[T], consumers []Consumer[E]) error {
	v := validation.New().
		Check(len(producers) > 0, "producers", "at least one producer is required").
		Check(len(consumers) > 0, "consumers", "at least one consumer is required")
	for i, p := range producers {
		v.Check(p != nil, fmt.Sprintf("producers[%d]", i), "must not be nil")
	}
	for i, c := range consumers {
		v.Check(c != nil, fmt.Sprintf("consumers[%d]", i), "must not be nil")
	}
	return v.Validate()
}

func participantName(p any, role string, i int) string {
	if n, ok := p.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("%s-%d", role, i)
}

// safeCall turns a panic in fn into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}

// callBounded runs fn and gives up once ctx is done, even if fn ignores ctx.
func callBounded(ctx context.Context, op string, fn func(context.Context) error) error {
	done := make(chan error, 1)
	go func() { done <- safeCall(func() error { return fn(ctx) }) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Timeout(op).WithCause(context.Cause(ctx))
	}
}

type countingWriter[T any] struct {
	w  Writer[T]
	st *runState
}

func (c *countingWriter[T]) Add(ctx context.Context, item T) error {
	err := c.w.Add(ctx, item)
	if err == nil {
		c.st.produced.Add(1)
	}
	return err
}

func (c *countingWriter[T]) TryAdd(ctx context.Context, item T, timeout time.Duration) (bool, error) {
	ok, err := c.w.TryAdd(ctx, item, timeout)
	if ok && err == nil {
		c.st.produced.Add(1)
	}
	return ok, err
}

func (c *countingWriter[T]) Flush(ctx context.Context) error {
	return c.w.Flush(ctx)
}

type countingSource[E any] struct {
	src Source[E]
	st  *runState
}

func (c *countingSource[E]) TryGet(ctx context.Context, timeout time.Duration) (E, bool, error) {
	v, ok, err := c.src.TryGet(ctx, timeout)
	if ok {
		c.st.consumed.Add(1)
	}
	return v, ok, err
}

func (c *countingSource[E]) IsFinished() bool {
	return c.src.IsFinished()
}
