package ppc

import (
	"context"
	"time"
)

// Sink accepts items from a producer.
type Sink[T any] interface {
	// Add inserts item, blocking until it is accepted or ctx is done.
	Add(ctx context.Context, item T) error
	// TryAdd inserts item, waiting at most timeout. It reports whether the
	// item was accepted; an error may accompany an accepted item.
	TryAdd(ctx context.Context, item T, timeout time.Duration) (bool, error)
}

// Source hands elements to a consumer.
type Source[E any] interface {
	// TryGet takes the next element, waiting at most timeout.
	TryGet(ctx context.Context, timeout time.Duration) (E, bool, error)
	// IsFinished reports whether no element will ever arrive again.
	IsFinished() bool
}

// Producer generates items into a Sink.
//
// Init runs once before Produce. Produce runs exactly once. Dispose runs
// exactly once at teardown, whatever happened before.
type Producer[T any] interface {
	Init(ctx context.Context) error
	Produce(ctx context.Context, sink Sink[T]) error
	Dispose(ctx context.Context) error
}

// Consumer processes elements from a Source until it is finished.
type Consumer[E any] interface {
	Init(ctx context.Context) error
	Consume(ctx context.Context, source Source[E]) error
	Dispose(ctx context.Context) error
}

// Named participants are logged and traced under their own name.
type Named interface {
	Name() string
}

// ProducerFunc adapts a function to a Producer with no-op Init and Dispose.
type ProducerFunc[T any] func(ctx context.Context, sink Sink[T]) error

func (f ProducerFunc[T]) Init(context.Context) error { return nil }

func (f ProducerFunc[T]) Produce(ctx context.Context, sink Sink[T]) error { return f(ctx, sink) }

func (f ProducerFunc[T]) Dispose(context.Context) error { return nil }

// ConsumerFunc adapts a function to a Consumer with no-op Init and Dispose.
type ConsumerFunc[E any] func(ctx context.Context, source Source[E]) error

func (f ConsumerFunc[E]) Init(context.Context) error { return nil }

func (f ConsumerFunc[E]) Consume(ctx context.Context, source Source[E]) error { return f(ctx, source) }

func (f ConsumerFunc[E]) Dispose(context.Context) error { return nil }
