// Package errors provides the structured error type shared by the feed and
// the orchestration engine.
//
// Every failure a run can report is an *AppError carrying a machine-readable
// code: configuration problems (INVALID_INPUT), cancellation (CANCELLED),
// inserts into a closed feed (FEED_CLOSED), participant failures
// (PARTICIPANT_FAILED) and disposal failures (DISPOSAL_FAILED). The underlying
// error is kept as Cause, so errors.Is and errors.As from the standard library
// still reach it.
//
//	if errors.IsCancelled(err) {
//	    // the run was aborted; not a participant bug
//	}
package errors
