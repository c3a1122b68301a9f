package ppc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/erisonliang/dotdotnet/errors"
)

// RunError reports a failed run. Primary is the first failure; Secondary
// holds every later participant error and every disposal error.
type RunError struct {
	RunID     string
	Primary   error
	Secondary []error
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s failed: %v", e.RunID, e.Primary)
	if n := len(e.Secondary); n > 0 {
		fmt.Fprintf(&b, " (+%d more)", n)
	}
	return b.String()
}

// Unwrap exposes the primary and secondary errors to errors.Is and
// errors.As.
func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, 1+len(e.Secondary))
	errs = append(errs, e.Primary)
	return append(errs, e.Secondary...)
}

// Stats summarizes one run.
type Stats struct {
	RunID string
	Name  string
	// Produced counts items accepted from producers.
	Produced int64
	// Consumed counts elements handed to consumers; batches in listed mode.
	Consumed            int64
	ParticipantFailures int64
	DisposalFailures    int64
	Duration            time.Duration
	Err                 error
}

type failure struct {
	err error
	// consequence marks a cancellation caused by the run being cancelled.
	consequence bool
}

// runState is shared by every task of one run.
type runState struct {
	id     string
	cancel context.CancelCauseFunc

	mu        sync.Mutex
	primary   error
	secondary []failure

	produced            atomic.Int64
	consumed            atomic.Int64
	participantFailures atomic.Int64
	disposalFailures    atomic.Int64
}

func newRunState(cancel context.CancelCauseFunc) *runState {
	return &runState{id: uuid.NewString(), cancel: cancel}
}

// fail records a participant error. The first genuine failure becomes
// primary and cancels the run; everything else is secondary.
// Cancellations observed after the run context is done are consequences,
// never primary.
func (s *runState) fail(runCtx context.Context, err error) (primary bool) {
	consequence := runCtx.Err() != nil && errors.IsCancelled(err)
	if !consequence {
		s.participantFailures.Add(1)
	}

	s.mu.Lock()
	if consequence || s.primary != nil {
		s.secondary = append(s.secondary, failure{err: err, consequence: consequence})
		s.mu.Unlock()
		return false
	}
	s.primary = err
	s.mu.Unlock()

	s.cancel(err)
	return true
}

// disposalFailed records a disposal error. It never cancels the run.
func (s *runState) disposalFailed(err error) {
	s.disposalFailures.Add(1)
	s.mu.Lock()
	s.secondary = append(s.secondary, failure{err: err})
	s.mu.Unlock()
}

// result builds the run outcome. Without a recorded primary, the first
// genuine secondary error is promoted; if only cancellations were seen,
// the run itself is reported as cancelled with runCtx's cause.
func (s *runState) result(runCtx context.Context) *RunError {
	s.mu.Lock()
	defer s.mu.Unlock()

	primary := s.primary
	secondary := make([]error, 0, len(s.secondary))
	for _, f := range s.secondary {
		if primary == nil && !f.consequence {
			primary = f.err
			continue
		}
		secondary = append(secondary, f.err)
	}
	if primary == nil && len(secondary) > 0 {
		primary = errors.Cancelled("run", context.Cause(runCtx))
	}
	if primary == nil {
		return nil
	}
	return &RunError{RunID: s.id, Primary: primary, Secondary: secondary}
}

func (s *runState) stats(name string, d time.Duration, err error) Stats {
	return Stats{
		RunID:               s.id,
		Name:                name,
		Produced:            s.produced.Load(),
		Consumed:            s.consumed.Load(),
		ParticipantFailures: s.participantFailures.Load(),
		DisposalFailures:    s.disposalFailures.Load(),
		Duration:            d,
		Err:                 err,
	}
}
