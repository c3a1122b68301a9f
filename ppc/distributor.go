package ppc

import (
	"context"
	"fmt"
	"time"

	"github.com/erisonliang/dotdotnet/feed"
	"github.com/erisonliang/dotdotnet/validation"
)

// Distributor decides how producer items of type T become feed elements
// of type E.
type Distributor[T, E any] interface {
	// Name identifies the strategy in logs and spans.
	Name() string
	// Validate reports configuration errors before a run starts.
	Validate() error
	// Writer returns a fresh writer for one producer.
	Writer(dst Sink[E]) Writer[T]
}

// Writer is the sink handed to a producer. Flush pushes anything the
// writer still holds.
type Writer[T any] interface {
	Sink[T]
	Flush(ctx context.Context) error
}

// Identity inserts every item verbatim.
type Identity[T any] struct{}

func (Identity[T]) Name() string { return "identity" }

func (Identity[T]) Validate() error { return nil }

func (Identity[T]) Writer(dst Sink[T]) Writer[T] {
	return identityWriter[T]{dst: dst}
}

type identityWriter[T any] struct {
	dst Sink[T]
}

func (w identityWriter[T]) Add(ctx context.Context, item T) error {
	return w.dst.Add(ctx, item)
}

func (w identityWriter[T]) TryAdd(ctx context.Context, item T, timeout time.Duration) (bool, error) {
	return w.dst.TryAdd(ctx, item, timeout)
}

func (identityWriter[T]) Flush(context.Context) error { return nil }

// Listed groups each producer's items into batches of Size.
//
// Only the batch flushed after a producer returns may be shorter than
// Size. A producer that emits nothing emits no batch.
type Listed[T any] struct {
	Size int
}

func (l Listed[T]) Name() string { return fmt.Sprintf("listed(%d)", l.Size) }

func (l Listed[T]) Validate() error {
	return validation.New().Positive("batch_size", l.Size).Validate()
}

func (l Listed[T]) Writer(dst Sink[[]T]) Writer[T] {
	return &listedWriter[T]{dst: dst, size: l.Size, buf: make([]T, 0, l.Size)}
}

// listedWriter belongs to a single producer and is not safe for concurrent
// use. A full buffer is a batch whose insertion has not succeeded yet.
type listedWriter[T any] struct {
	dst  Sink[[]T]
	size int
	buf  []T
}

func (w *listedWriter[T]) Add(ctx context.Context, item T) error {
	_, err := w.TryAdd(ctx, item, feed.Infinite)
	return err
}

// TryAdd reports whether item was accepted into the current batch. A
// pending full batch is inserted first; if that times out, item is
// rejected. Both insertions share one timeout. Once item is buffered the
// result is true, even when inserting the batch it completed failed.
func (w *listedWriter[T]) TryAdd(ctx context.Context, item T, timeout time.Duration) (bool, error) {
	start := time.Now()
	if len(w.buf) == w.size {
		ok, err := w.emit(ctx, timeout)
		if err != nil || !ok {
			return false, err
		}
	}

	w.buf = append(w.buf, item)
	if len(w.buf) == w.size {
		if _, err := w.emit(ctx, remaining(timeout, start)); err != nil {
			return true, err
		}
	}
	return true, nil
}

// remaining is what is left of timeout since start. Zero and Infinite pass
// through unchanged.
func remaining(timeout time.Duration, start time.Time) time.Duration {
	if timeout <= 0 {
		return timeout
	}
	return max(timeout-time.Since(start), 0)
}

func (w *listedWriter[T]) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.emit(ctx, feed.Infinite)
	return err
}

// emit hands the buffer off as one batch. The handed-off slice is never
// touched again; a new buffer is allocated only after success.
func (w *listedWriter[T]) emit(ctx context.Context, timeout time.Duration) (bool, error) {
	ok, err := w.dst.TryAdd(ctx, w.buf, timeout)
	if ok {
		w.buf = make([]T, 0, w.size)
	}
	return ok, err
}
