package feed

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erisonliang/dotdotnet/errors"
	"github.com/erisonliang/dotdotnet/validation"
)

// Infinite makes TryAdd and TryGet wait without a deadline.
const Infinite time.Duration = -1

// Feed is a bounded, thread-safe FIFO buffer with a one-way close.
//
// The zero value is not usable; create feeds with New.
type Feed[T any] struct {
	items chan T

	// mu orders admission against Close. It is never held while waiting.
	mu       sync.RWMutex
	closed   atomic.Bool
	closedCh chan struct{}
	// pending counts TryAdd calls between admission and return.
	pending atomic.Int64
	// quiesced is closed once the feed is closed and no insert is in flight.
	quiesced chan struct{}

	closeOnce    sync.Once
	quiesceOnce  sync.Once
	disposeOnce  sync.Once
	disposeError error
}

// New creates a Feed holding at most capacity items.
func New[T any](capacity int) (*Feed[T], error) {
	if err := validation.New().Positive("capacity", capacity).Validate(); err != nil {
		return nil, err
	}
	return &Feed[T]{
		items:    make(chan T, capacity),
		closedCh: make(chan struct{}),
		quiesced: make(chan struct{}),
	}, nil
}

// TryAdd inserts item, waiting up to timeout for a free slot.
//
// It returns (true, nil) on insertion and (false, nil) when the timeout
// elapses. A closed feed yields a FEED_CLOSED error and a done ctx yields
// a CANCELLED error.
func (f *Feed[T]) TryAdd(ctx context.Context, item T, timeout time.Duration) (bool, error) {
	if ctx.Err() != nil {
		return false, errors.Cancelled("feed.add", context.Cause(ctx))
	}

	if !f.admit() {
		return false, errors.FeedClosed()
	}
	defer f.release()

	select {
	case f.items <- item:
		return true, nil
	default:
	}
	if timeout == 0 {
		return false, nil
	}

	timer, stop := after(timeout)
	defer stop()

	select {
	case f.items <- item:
		return true, nil
	case <-f.closedCh:
		return false, errors.FeedClosed()
	case <-timer:
		return false, nil
	case <-ctx.Done():
		return false, errors.Cancelled("feed.add", context.Cause(ctx))
	}
}

// Add inserts item, waiting as long as it takes.
func (f *Feed[T]) Add(ctx context.Context, item T) error {
	_, err := f.TryAdd(ctx, item, Infinite)
	return err
}

// TryGet removes the oldest available item, waiting up to timeout.
//
// It returns (item, true, nil) on success and (zero, false, nil) when the
// timeout elapses or the feed is finished. A done ctx yields a CANCELLED
// error. Each item is delivered to exactly one caller.
func (f *Feed[T]) TryGet(ctx context.Context, timeout time.Duration) (T, bool, error) {
	var zero T
	if ctx.Err() != nil {
		return zero, false, errors.Cancelled("feed.get", context.Cause(ctx))
	}

	if v, ok := f.poll(); ok {
		return v, true, nil
	}
	if timeout == 0 || f.IsFinished() {
		return zero, false, nil
	}

	timer, stop := after(timeout)
	defer stop()

	select {
	case v := <-f.items:
		return v, true, nil
	case <-f.quiesced:
		// No more inserts; whatever is left can be taken without waiting.
		if v, ok := f.poll(); ok {
			return v, true, nil
		}
		if ctx.Err() != nil {
			return zero, false, errors.Cancelled("feed.get", context.Cause(ctx))
		}
		return zero, false, nil
	case <-timer:
		return zero, false, nil
	case <-ctx.Done():
		return zero, false, errors.Cancelled("feed.get", context.Cause(ctx))
	}
}

// IsFinished reports whether the feed is closed, has no insert in flight,
// and is empty. Once true it stays true.
func (f *Feed[T]) IsFinished() bool {
	select {
	case <-f.quiesced:
		// No insert can start after quiescence, so the queue only shrinks.
		return len(f.items) == 0
	default:
		return false
	}
}

// IsClosed reports whether Close has been called.
func (f *Feed[T]) IsClosed() bool {
	return f.closed.Load()
}

// Close marks the feed complete for writing. Blocked adders fail with
// FEED_CLOSED. Calling Close more than once is a no-op.
func (f *Feed[T]) Close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed.Store(true)
		idle := f.pending.Load() == 0
		f.mu.Unlock()

		close(f.closedCh)
		if idle {
			f.quiesce()
		}
	})
}

// Dispose closes the feed and discards undelivered items. Leftover items
// implementing io.Closer are closed and their errors joined. If ctx ends
// first, the items not yet released stay buffered and a CANCELLED error is
// reported.
func (f *Feed[T]) Dispose(ctx context.Context) error {
	f.disposeOnce.Do(func() {
		f.Close()
		var errs []error
		for {
			if ctx.Err() != nil {
				if len(f.items) > 0 {
					errs = append(errs, errors.Cancelled("feed.dispose", context.Cause(ctx)))
				}
				break
			}
			v, ok := f.poll()
			if !ok {
				break
			}
			if c, isCloser := any(v).(io.Closer); isCloser {
				if err := c.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
		f.disposeError = stderrors.Join(errs...)
	})
	return f.disposeError
}

// Len returns the number of buffered items.
func (f *Feed[T]) Len() int {
	return len(f.items)
}

// Cap returns the feed's capacity.
func (f *Feed[T]) Cap() int {
	return cap(f.items)
}

func (f *Feed[T]) poll() (T, bool) {
	select {
	case v := <-f.items:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// admit registers an insert in flight unless the feed is closed.
func (f *Feed[T]) admit() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed.Load() {
		return false
	}
	f.pending.Add(1)
	return true
}

func (f *Feed[T]) release() {
	f.mu.RLock()
	last := f.pending.Add(-1) == 0 && f.closed.Load()
	f.mu.RUnlock()
	if last {
		f.quiesce()
	}
}

func (f *Feed[T]) quiesce() {
	f.quiesceOnce.Do(func() { close(f.quiesced) })
}

// after returns a channel that fires once d elapses. A negative d never
// fires.
func after(d time.Duration) (<-chan time.Time, func()) {
	if d < 0 {
		return nil, func() {}
	}
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}
