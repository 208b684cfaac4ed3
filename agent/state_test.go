package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/droverhq/drover"
)

func TestEvaluateStop(t *testing.T) {
	tests := []struct {
		name  string
		state *LoopState
		max   int
		want  Decision
	}{
		{
			name:  "fresh state continues",
			state: NewLoopState(nil),
			max:   10,
			want:  Continue,
		},
		{
			name:  "under the ceiling continues",
			state: &LoopState{Iteration: 2},
			max:   3,
			want:  Continue,
		},
		{
			name:  "at the ceiling stops",
			state: &LoopState{Iteration: 3},
			max:   3,
			want:  Decision{Stop: true, Reason: TerminationMaxIterations},
		},
		{
			name:  "zero ceiling means unlimited",
			state: &LoopState{Iteration: 10000},
			max:   0,
			want:  Continue,
		},
		{
			name:  "terminate tool stops",
			state: &LoopState{Iteration: 1, TerminateRequested: true},
			max:   10,
			want:  Decision{Stop: true, Reason: TerminationToolStop},
		},
		{
			name:  "error stops",
			state: &LoopState{Iteration: 1, Err: errors.New("boom")},
			max:   10,
			want:  Decision{Stop: true, Reason: TerminationError},
		},
		{
			name:  "error outranks terminate tool",
			state: &LoopState{Iteration: 1, TerminateRequested: true, Err: errors.New("boom")},
			max:   10,
			want:  Decision{Stop: true, Reason: TerminationError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateStop(tt.state, tt.max))
		})
	}
}

func TestEvaluateStopDeterministic(t *testing.T) {
	state := &LoopState{Iteration: 3, TerminateRequested: true}
	first := EvaluateStop(state, 5)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, EvaluateStop(state, 5))
	}
}

func TestMarkTerminalOnce(t *testing.T) {
	state := NewLoopState([]drover.Message{drover.NewUserMessage("hi")})

	state.markTerminal(TerminationComplete, "first")
	state.markTerminal(TerminationError, "second")

	assert.True(t, state.Terminal)
	assert.Equal(t, TerminationComplete, state.Reason)
	assert.Equal(t, "first", state.FinalAnswer)

	// The transcript is sealed with the state.
	err := state.Transcript.Append(drover.NewUserMessage("late"))
	assert.Error(t, err)
}
