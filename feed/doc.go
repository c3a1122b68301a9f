// Package feed provides Feed, a bounded FIFO hand-off buffer shared by
// concurrent producers and consumers.
//
// A Feed is written until Close is called and read until IsFinished
// reports true. Every blocking call takes a context and a timeout:
//
//	f, _ := feed.New[string](64)
//
//	// producer side
//	if err := f.Add(ctx, "line"); err != nil {
//	    return err
//	}
//	f.Close()
//
//	// consumer side
//	for !f.IsFinished() {
//	    v, ok, err := f.TryGet(ctx, 100*time.Millisecond)
//	    if err != nil {
//	        return err
//	    }
//	    if ok {
//	        handle(v)
//	    }
//	}
//
// Timeouts follow one convention: Infinite waits forever, zero makes a
// single non-blocking attempt, and a positive duration bounds the wait.
// Cancellation of ctx surfaces as a CANCELLED *errors.AppError, never as
// a timeout.
package feed
