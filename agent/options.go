package agent

import (
	"time"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/event"
	"github.com/droverhq/drover/retry"
)

// DefaultTerminateTool is the reserved tool name whose invocation ends
// the run. Override with WithTerminateTool.
const DefaultTerminateTool = "task_complete"

// Options contains configuration for a run.
type Options struct {
	// MaxIterations limits the number of model calls per run.
	// Set to 0 for unlimited (not recommended). Default is 10.
	MaxIterations int

	// Timeout sets a deadline for the entire run.
	// A value of 0 means no timeout (context deadline applies).
	Timeout time.Duration

	// ModelTimeout sets the timeout for each individual model call.
	// A value of 0 means no per-call timeout.
	ModelTimeout time.Duration

	// HandlerTimeout sets the timeout for each individual tool handler.
	// A timed-out handler produces a failed tool result; it never hangs
	// the batch. A value of 0 means no per-handler timeout. Default is
	// 30 seconds.
	HandlerTimeout time.Duration

	// ParallelToolCalls enables concurrent execution when one turn
	// requests multiple tool calls. Default is true.
	ParallelToolCalls bool

	// Retry governs retries of transient model errors.
	Retry retry.Config

	// Sink receives the run's audit events. Nil means no auditing.
	Sink event.Sink

	// TerminateTool is the reserved tool name that ends the run when
	// invoked. Default is DefaultTerminateTool.
	TerminateTool string

	// ChatOptions are passed through to the underlying model client.
	ChatOptions []drover.Option
}

// Option is a functional option for configuring a run.
type Option func(*Options)

// WithMaxIterations sets the maximum number of model calls per run.
// Default is 10. Set to 0 for unlimited (not recommended).
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		o.MaxIterations = n
	}
}

// WithTimeout sets a deadline for the entire run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithModelTimeout sets the timeout for each individual model call.
func WithModelTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ModelTimeout = d
	}
}

// WithHandlerTimeout sets the timeout for each individual tool handler.
// Default is 30 seconds. Set to 0 for no per-handler timeout.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandlerTimeout = d
	}
}

// WithParallelToolCalls enables or disables concurrent tool execution.
// Default is true.
func WithParallelToolCalls(enabled bool) Option {
	return func(o *Options) {
		o.ParallelToolCalls = enabled
	}
}

// WithRetry sets the retry policy for transient model errors.
func WithRetry(cfg retry.Config) Option {
	return func(o *Options) {
		o.Retry = cfg
	}
}

// WithSink routes the run's audit events to the given sink.
func WithSink(s event.Sink) Option {
	return func(o *Options) {
		o.Sink = s
	}
}

// WithTerminateTool overrides the reserved terminate tool name.
func WithTerminateTool(name string) Option {
	return func(o *Options) {
		o.TerminateTool = name
	}
}

// WithChatOptions passes options through to the model client.
// These options are applied to every model call made by the run.
func WithChatOptions(opts ...drover.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithModel is a convenience option to set the model for chat calls.
func WithModel(model string) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, drover.WithModel(model))
	}
}

// WithMaxTokens is a convenience option to set max tokens for chat calls.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, drover.WithMaxTokens(n))
	}
}

// WithTemperature is a convenience option to set temperature for chat calls.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, drover.WithTemperature(t))
	}
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxIterations:     10,
		HandlerTimeout:    30 * time.Second,
		ParallelToolCalls: true,
		Retry:             retry.DefaultConfig(),
		TerminateTool:     DefaultTerminateTool,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
