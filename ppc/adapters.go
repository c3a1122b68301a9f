package ppc

import (
	"context"
	"time"

	"github.com/erisonliang/dotdotnet/resilience"
)

// Drain pulls from src until it is finished, calling fn for each element.
// poll bounds each wait; zero means DefaultPollInterval and a negative value
// waits without a bound. The first error from src or fn stops the loop.
func Drain[E any](ctx context.Context, src Source[E], poll time.Duration, fn func(ctx context.Context, v E) error) error {
	if poll == 0 {
		poll = DefaultPollInterval
	}
	for !src.IsFinished() {
		v, ok, err := src.TryGet(ctx, poll)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// SliceProducer adds a fixed list of items in order.
type SliceProducer[T any] struct {
	name  string
	items []T
}

// NewSliceProducer returns a producer of items.
func NewSliceProducer[T any](name string, items ...T) *SliceProducer[T] {
	return &SliceProducer[T]{name: name, items: items}
}

func (p *SliceProducer[T]) Name() string { return p.name }

func (p *SliceProducer[T]) Init(context.Context) error { return nil }

func (p *SliceProducer[T]) Produce(ctx context.Context, sink Sink[T]) error {
	for _, item := range p.items {
		if err := sink.Add(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (p *SliceProducer[T]) Dispose(context.Context) error { return nil }

// HandlerConsumer drains its source through a per-element handler.
type HandlerConsumer[E any] struct {
	name    string
	handler func(ctx context.Context, v E) error
	poll    time.Duration
	retry   *resilience.RetryConfig
}

// HandlerOption configures a HandlerConsumer.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	poll  time.Duration
	retry *resilience.RetryConfig
}

// WithPollInterval sets the wait bound of each TryGet.
func WithPollInterval(d time.Duration) HandlerOption {
	return func(o *handlerOptions) { o.poll = d }
}

// WithRetry retries the handler per element with cfg.
func WithRetry(cfg resilience.RetryConfig) HandlerOption {
	return func(o *handlerOptions) { o.retry = &cfg }
}

// NewHandlerConsumer returns a consumer that calls handler for every
// element.
func NewHandlerConsumer[E any](name string, handler func(ctx context.Context, v E) error, opts ...HandlerOption) *HandlerConsumer[E] {
	o := handlerOptions{poll: DefaultPollInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return &HandlerConsumer[E]{name: name, handler: handler, poll: o.poll, retry: o.retry}
}

func (c *HandlerConsumer[E]) Name() string { return c.name }

func (c *HandlerConsumer[E]) Init(context.Context) error { return nil }

func (c *HandlerConsumer[E]) Consume(ctx context.Context, source Source[E]) error {
	return Drain(ctx, source, c.poll, c.handle)
}

func (c *HandlerConsumer[E]) Dispose(context.Context) error { return nil }

func (c *HandlerConsumer[E]) handle(ctx context.Context, v E) error {
	if c.retry == nil {
		return c.handler(ctx, v)
	}
	return resilience.RetryFunc(ctx, *c.retry, func(ctx context.Context) error {
		return c.handler(ctx, v)
	})
}
