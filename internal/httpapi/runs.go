package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/agent"
	"github.com/droverhq/drover/event"
	"github.com/droverhq/drover/store"
)

type createRunRequest struct {
	Message   string `json:"message"`
	System    string `json:"system,omitempty"`
	ProjectID string `json:"projectId,omitempty"`

	// Wait blocks the request until the run finishes and returns the
	// final record instead of the initial one.
	Wait bool `json:"wait,omitempty"`
}

func (s *Server) createRun(c echo.Context) error {
	var req createRunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	id := uuid.NewString()
	rec, err := s.runs.Begin(c.Request().Context(), id, req.ProjectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var messages []drover.Message
	if req.System != "" {
		messages = append(messages, drover.NewSystemMessage(req.System))
	}
	messages = append(messages, drover.NewUserMessage(req.Message))

	opts := s.runOpts
	if s.sink != nil {
		opts = append(opts[:len(opts):len(opts)], agent.WithSink(s.sink))
	}

	// Runs outlive the request that started them.
	ctx := agent.WithRunInfo(context.Background(), agent.RunInfo{RunID: id, ProjectID: req.ProjectID})
	run := s.agent.Start(ctx, messages, opts...)
	h := &runHandle{run: run, saved: make(chan struct{})}
	s.track(id, h)

	go func() {
		defer close(h.saved)
		defer s.untrack(id)
		result, _ := run.Wait(context.Background())
		if _, err := s.runs.Finish(context.Background(), id, result); err != nil {
			s.log.Error("persisting run outcome failed", zap.String("run_id", id), zap.Error(err))
			return
		}
		s.log.Info("run finished",
			zap.String("run_id", id),
			zap.String("termination", string(result.Termination)),
			zap.Int("iterations", result.Iterations))
	}()

	if req.Wait {
		select {
		case <-h.saved:
			final, err := s.runs.Get(c.Request().Context(), id)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			return c.JSON(http.StatusOK, final)
		case <-c.Request().Context().Done():
			// Fall through: the run keeps going without the caller.
		}
	}
	return c.JSON(http.StatusAccepted, rec)
}

func (s *Server) listRuns(c echo.Context) error {
	records, err := s.runs.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) getRun(c echo.Context) error {
	rec, err := s.runs.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) cancelRun(c echo.Context) error {
	id := c.Param("id")
	if h, ok := s.handle(id); ok {
		h.run.Cancel()
		return c.JSON(http.StatusAccepted, map[string]string{"id": id, "status": "cancelling"})
	}

	rec, err := s.runs.Get(c.Request().Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return echo.NewHTTPError(http.StatusConflict, "run already "+string(rec.Status))
}

func (s *Server) runEvents(c echo.Context) error {
	if s.events == nil {
		return echo.NewHTTPError(http.StatusNotFound, "event log not configured")
	}
	id := c.Param("id")
	events, err := s.events.ForRun(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if events == nil {
		events = []event.Event{}
	}
	return c.JSON(http.StatusOK, map[string]any{"runId": id, "events": events})
}
