package agent

import (
	"github.com/droverhq/drover"
	"github.com/droverhq/drover/transcript"
)

// Termination indicates why a run stopped.
type Termination string

const (
	// TerminationComplete indicates normal completion: the model answered
	// without requesting tool calls.
	TerminationComplete Termination = "complete"

	// TerminationToolStop indicates the model invoked the terminate tool.
	TerminationToolStop Termination = "tool_stop"

	// TerminationMaxIterations indicates the iteration ceiling was reached.
	TerminationMaxIterations Termination = "max_iterations"

	// TerminationTimeout indicates the run deadline was exceeded.
	TerminationTimeout Termination = "timeout"

	// TerminationCancelled indicates the run was cancelled by its caller.
	TerminationCancelled Termination = "cancelled"

	// TerminationError indicates an unrecoverable error ended the run.
	TerminationError Termination = "error"
)

// LoopState is the per-run mutable state advanced by the loop driver.
// It is owned by exactly one run and never shared.
type LoopState struct {
	// Iteration counts model calls made so far, 1-indexed once the first
	// call completes. It never decreases.
	Iteration int

	// Transcript is the run's conversation log.
	Transcript *transcript.Transcript

	// TerminateRequested is set when the model invokes the terminate tool.
	TerminateRequested bool

	// Err holds the unrecoverable error that should end the run, if any.
	Err error

	// Terminal is set exactly once, by markTerminal.
	Terminal bool

	// FinalAnswer is the run's answer text. Only meaningful once Terminal.
	FinalAnswer string

	// Reason records why the run ended. Only meaningful once Terminal.
	Reason Termination
}

// NewLoopState creates run state seeded with the initial messages.
func NewLoopState(messages []drover.Message) *LoopState {
	return &LoopState{Transcript: transcript.From(messages)}
}

// markTerminal transitions the state to terminal and seals the
// transcript. The first transition wins; later calls are no-ops.
func (s *LoopState) markTerminal(reason Termination, answer string) {
	if s.Terminal {
		return
	}
	s.Terminal = true
	s.Reason = reason
	s.FinalAnswer = answer
	s.Transcript.Seal()
}

// Decision is the outcome of evaluating the stop condition.
type Decision struct {
	Stop   bool
	Reason Termination
}

// Continue is the decision to keep looping.
var Continue = Decision{}

// EvaluateStop decides whether the loop should stop, purely from the
// given state and iteration ceiling. It has no side effects and returns
// the same decision for the same inputs every time.
//
// Cancellation and deadlines are not its concern; the loop driver maps
// context errors to TerminationCancelled or TerminationTimeout itself.
func EvaluateStop(s *LoopState, maxIterations int) Decision {
	if s.Err != nil {
		return Decision{Stop: true, Reason: TerminationError}
	}
	if s.TerminateRequested {
		return Decision{Stop: true, Reason: TerminationToolStop}
	}
	if maxIterations > 0 && s.Iteration >= maxIterations {
		return Decision{Stop: true, Reason: TerminationMaxIterations}
	}
	return Continue
}
