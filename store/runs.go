package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/agent"
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("store: run not found")

// Status describes where a run is in its lifecycle.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// RunRecord is the persisted outcome of a run.
type RunRecord struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"projectId,omitempty"`
	Status      Status            `json:"status"`
	Termination agent.Termination `json:"termination,omitempty"`
	FinalAnswer string            `json:"finalAnswer,omitempty"`
	Iterations  int               `json:"iterations"`
	Usage       drover.Usage      `json:"usage"`
	Messages    []drover.Message  `json:"messages,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// RunStore records runs on top of any Adapter.
type RunStore struct {
	adapter Adapter
}

func NewRunStore(adapter Adapter) *RunStore {
	return &RunStore{adapter: adapter}
}

// Begin records a freshly started run.
func (s *RunStore) Begin(ctx context.Context, id, projectID string) (*RunRecord, error) {
	now := time.Now()
	rec := &RunRecord{
		ID:        id,
		ProjectID: projectID,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return rec, s.put(ctx, rec)
}

// Finish updates a run record with its terminal outcome.
func (s *RunStore) Finish(ctx context.Context, id string, result *agent.Result) (*RunRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rec.Termination = result.Termination
	rec.FinalAnswer = result.FinalAnswer
	rec.Iterations = result.Iterations
	rec.Usage = result.Usage
	rec.Messages = result.Messages()
	rec.UpdatedAt = time.Now()

	switch result.Termination {
	case agent.TerminationError:
		rec.Status = StatusFailed
		if result.Error != nil {
			rec.Error = result.Error.Error()
		}
	case agent.TerminationCancelled:
		rec.Status = StatusCancelled
	default:
		rec.Status = StatusCompleted
	}

	return rec, s.put(ctx, rec)
}

// Get loads one run record.
func (s *RunStore) Get(ctx context.Context, id string) (*RunRecord, error) {
	raw, ok, err := s.adapter.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRunNotFound
	}
	var rec RunRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List loads every run record.
func (s *RunStore) List(ctx context.Context) ([]*RunRecord, error) {
	keys, err := s.adapter.Keys(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]*RunRecord, 0, len(keys))
	for _, k := range keys {
		rec, err := s.Get(ctx, k)
		if errors.Is(err, ErrRunNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Delete removes one run record.
func (s *RunStore) Delete(ctx context.Context, id string) error {
	return s.adapter.Delete(ctx, id)
}

func (s *RunStore) put(ctx context.Context, rec *RunRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.adapter.Set(ctx, rec.ID, raw)
}
