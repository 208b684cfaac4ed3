// Package httpapi exposes run orchestration over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/droverhq/drover/agent"
	"github.com/droverhq/drover/event"
	"github.com/droverhq/drover/store"
)

// EventSource serves a run's recorded audit trail. Both event.MemorySink
// and event.BoltSink satisfy it.
type EventSource interface {
	ForRun(runID string) ([]event.Event, error)
}

// Options configures a Server.
type Options struct {
	Agent  *agent.Agent
	Runs   *store.RunStore
	Logger *zap.Logger

	// Sink, when set, receives audit events from every run started
	// through the API.
	Sink event.Sink

	// Events, when set, backs GET /v1/runs/:id/events. Usually the same
	// object as Sink.
	Events EventSource

	// RunOptions apply to every run started through the API.
	RunOptions []agent.Option
}

// Server is the HTTP front end. It starts runs, tracks the live ones so
// they can be cancelled, and persists outcomes through the run store.
type Server struct {
	e       *echo.Echo
	agent   *agent.Agent
	runs    *store.RunStore
	sink    event.Sink
	events  EventSource
	log     *zap.Logger
	runOpts []agent.Option

	mu     sync.Mutex
	active map[string]*runHandle
}

// runHandle pairs a live run with a channel that closes once its
// outcome has been persisted.
type runHandle struct {
	run   *agent.Run
	saved chan struct{}
}

func New(o Options) *Server {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		agent:   o.Agent,
		runs:    o.Runs,
		sink:    o.Sink,
		events:  o.Events,
		log:     log,
		runOpts: o.RunOptions,
		active:  make(map[string]*runHandle),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	v1 := e.Group("/v1")
	v1.POST("/runs", s.createRun)
	v1.GET("/runs", s.listRuns)
	v1.GET("/runs/:id", s.getRun)
	v1.POST("/runs/:id/cancel", s.cancelRun)
	v1.GET("/runs/:id/events", s.runEvents)

	s.e = e
	return s
}

// Start blocks serving on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.log.Info("http server starting", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// ServeHTTP implements http.Handler, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func (s *Server) track(id string, h *runHandle) {
	s.mu.Lock()
	s.active[id] = h
	s.mu.Unlock()
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}

func (s *Server) handle(id string) (*runHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.active[id]
	return h, ok
}
