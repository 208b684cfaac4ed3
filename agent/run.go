package agent

import (
	"context"

	"github.com/droverhq/drover"
)

// Run is a handle to an in-flight run started with Agent.Start.
type Run struct {
	cancel context.CancelFunc
	done   chan struct{}
	result *Result
}

// Start begins a run and returns immediately with a handle. The run
// proceeds in its own goroutine; use Wait for the result and Cancel to
// stop it early.
func (a *Agent) Start(ctx context.Context, messages []drover.Message, opts ...Option) *Run {
	ctx, cancel := context.WithCancel(ctx)
	r := &Run{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		defer cancel()
		r.result = a.run(ctx, messages, ApplyOptions(opts...))
	}()

	return r
}

// Wait blocks until the run reaches a terminal state or ctx is done.
// A ctx error abandons the wait, not the run; the run keeps executing
// and Wait may be called again.
func (r *Run) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-r.done:
		return r.result, r.result.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel requests cooperative cancellation. The run drains any in-flight
// tool batch, then terminates with TerminationCancelled. Cancel returns
// immediately; use Wait to observe the terminal state.
func (r *Run) Cancel() {
	r.cancel()
}

// Done returns a channel closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}
