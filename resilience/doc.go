// Package resilience retries failing work with exponential backoff.
//
// The orchestration engine never retries on its own; consumers that want
// per-item retries wrap their handler:
//
//	err := resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
//	    return store.Put(ctx, item)
//	})
//
// Cancellation is never retried and ends the loop with a CANCELLED error.
package resilience
