// Package ppc runs producers and consumers in parallel around one bounded
// feed.
//
// An Orchestrator starts one goroutine per participant, closes the feed
// once every producer has returned, lets consumers drain it, then disposes
// every participant and reports the outcome. The first failure cancels
// the whole run; later failures and disposal errors are attached to the
// returned *RunError.
//
//	producers := []ppc.Producer[string]{ppc.NewSliceProducer("words", "a", "b", "c")}
//	consumers := []ppc.Consumer[string]{ppc.NewHandlerConsumer("print", func(ctx context.Context, s string) error {
//	    fmt.Println(s)
//	    return nil
//	})}
//	err := ppc.Run(ctx, producers, consumers, ppc.WithCapacity(16))
//
// Items pass through a Distributor on their way into the feed. Identity
// inserts them one by one; Listed groups them into batches of a fixed size
// per producer (see RunBatched).
package ppc
