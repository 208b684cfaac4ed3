package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover/agent"
)

func TestRunStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewRunStore(NewMemoryAdapter())

	rec, err := s.Begin(ctx, "run-1", "proj-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, rec.Status)

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", got.ProjectID)
	assert.Equal(t, StatusRunning, got.Status)

	result := &agent.Result{
		FinalAnswer: "42",
		Termination: agent.TerminationComplete,
		Iterations:  2,
	}
	rec, err = s.Finish(ctx, "run-1", result)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, "42", rec.FinalAnswer)
	assert.Equal(t, 2, rec.Iterations)

	got, err = s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestRunStoreFinishMapsTermination(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		result *agent.Result
		want   Status
	}{
		{"complete", &agent.Result{Termination: agent.TerminationComplete}, StatusCompleted},
		{"tool stop", &agent.Result{Termination: agent.TerminationToolStop}, StatusCompleted},
		{"max iterations", &agent.Result{Termination: agent.TerminationMaxIterations}, StatusCompleted},
		{"cancelled", &agent.Result{Termination: agent.TerminationCancelled}, StatusCancelled},
		{"error", &agent.Result{Termination: agent.TerminationError, Error: errors.New("boom")}, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRunStore(NewMemoryAdapter())
			_, err := s.Begin(ctx, "r", "")
			require.NoError(t, err)

			rec, err := s.Finish(ctx, "r", tt.result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Status)
			if tt.want == StatusFailed {
				assert.Equal(t, "boom", rec.Error)
			}
		})
	}
}

func TestRunStoreNotFound(t *testing.T) {
	s := NewRunStore(NewMemoryAdapter())
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.Finish(context.Background(), "nope", &agent.Result{})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewRunStore(NewMemoryAdapter())

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Begin(ctx, id, "")
		require.NoError(t, err)
	}
	require.NoError(t, s.Delete(ctx, "b"))

	recs, err := s.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)
}
