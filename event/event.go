// Package event provides the execution audit stream: every model call,
// tool dispatch, and stop decision taken by the orchestrator is recorded
// as an ordered event. The stream is a superset of the conversation
// transcript: it carries timing and outcome metadata for debugging and
// replay.
package event

import (
	"sync"
	"time"

	"github.com/droverhq/drover"
)

// Type identifies the kind of audit event.
type Type string

const (
	// RunStarted fires once when a run begins.
	RunStarted Type = "run_started"

	// RunFinished fires once when a run reaches a terminal state.
	RunFinished Type = "run_finished"

	// ModelCallStarted fires before each model client call.
	ModelCallStarted Type = "model_call_started"

	// ModelCallFinished fires after each model client call, with duration
	// and outcome.
	ModelCallFinished Type = "model_call_finished"

	// ToolDispatchStarted fires before a turn's batch of tool calls is
	// dispatched.
	ToolDispatchStarted Type = "tool_dispatch_started"

	// ToolDispatchFinished fires after every call in the batch has
	// resolved.
	ToolDispatchFinished Type = "tool_dispatch_finished"

	// ToolCallStarted fires before one tool handler executes.
	ToolCallStarted Type = "tool_call_started"

	// ToolCallFinished fires with the tool's result.
	ToolCallFinished Type = "tool_call_finished"

	// StopDecision fires each time the stop condition is evaluated.
	StopDecision Type = "stop_decision"
)

// Event is one entry in the audit stream. Seq is strictly increasing per
// run, which preserves causal ordering even when a sink interleaves
// events from concurrent runs.
type Event struct {
	Type  Type   `json:"type"`
	RunID string `json:"runId"`
	Seq   uint64 `json:"seq"`
	// Iteration is the loop iteration the event belongs to, 1-indexed.
	// Zero for run-level events.
	Iteration int `json:"iteration,omitempty"`

	ToolCall   *drover.ToolCall   `json:"toolCall,omitempty"`
	ToolResult *drover.ToolResult `json:"toolResult,omitempty"`

	// Decision carries the stop-condition outcome ("continue" or the
	// termination reason) for StopDecision events, and the termination
	// reason for RunFinished events.
	Decision string `json:"decision,omitempty"`

	// Err describes a failure for ModelCallFinished and RunFinished
	// events. Empty on success.
	Err string `json:"error,omitempty"`

	// Elapsed is the wall time of the operation for *Finished events.
	Elapsed time.Duration `json:"elapsed,omitempty"`

	// Calls is the batch size for ToolDispatch* events.
	Calls int `json:"calls,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Sink consumes audit events. Implementations must tolerate concurrent
// Publish calls from different runs; events from one run always arrive
// in Seq order. Publish errors are advisory; the orchestrator never
// fails a run because its audit sink does.
type Sink interface {
	Publish(e Event) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(Event) error { return nil }

// Recorder stamps run identity, sequence, and timestamp onto events
// before forwarding them to a sink. One Recorder belongs to one run; it
// is safe for the run's parallel tool goroutines to share.
type Recorder struct {
	runID string
	sink  Sink

	mu  sync.Mutex
	seq uint64
}

// NewRecorder creates a recorder for the given run. A nil sink is
// replaced with NopSink.
func NewRecorder(runID string, sink Sink) *Recorder {
	if sink == nil {
		sink = NopSink{}
	}
	return &Recorder{runID: runID, sink: sink}
}

// Emit stamps and publishes the event. Stamping and publishing happen
// under one lock so Seq order and publish order agree. Sink errors are
// dropped.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.RunID = r.runID
	e.Seq = r.seq
	e.Timestamp = time.Now()
	_ = r.sink.Publish(e)
}
