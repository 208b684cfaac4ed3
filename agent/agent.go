package agent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/event"
	"github.com/droverhq/drover/retry"
)

// ToolSource is the registry surface the agent dispatches against.
// Both tool.Registry and mcp.RemoteRegistry satisfy it.
type ToolSource interface {
	Tools() []drover.Tool
	Has(name string) bool
	Execute(ctx context.Context, call drover.ToolCall) (drover.ToolResult, error)
}

// Agent orchestrates autonomous tool-calling runs.
type Agent struct {
	model    drover.ModelClient
	registry ToolSource
}

// New creates an Agent with the given model client and tool registry.
// The registry is read-only for the agent's lifetime and may be shared
// across concurrent runs.
func New(model drover.ModelClient, registry ToolSource) *Agent {
	return &Agent{
		model:    model,
		registry: registry,
	}
}

// Result is the terminal outcome of a run. Callers always receive one:
// an answer, a taxonomy-tagged failure, or a cancellation, never a hang.
type Result struct {
	// FinalAnswer is the run's answer text. Empty when the run failed.
	FinalAnswer string

	// Termination indicates why the run stopped.
	Termination Termination

	// Iterations is the number of model calls made.
	Iterations int

	// Usage aggregates token usage across all model calls.
	Usage drover.Usage

	// Error is the unrecoverable error that ended the run, if any.
	Error error

	messages []drover.Message
}

// Messages returns the run's full transcript in append order, including
// the initial messages.
func (r *Result) Messages() []drover.Message {
	return r.messages
}

// Run executes a run to completion and returns its result. This is a
// blocking call; use Start for a cancellable handle.
//
// The returned error is non-nil only for unrecoverable failures
// (Termination == TerminationError). Cancellation and timeout are
// reported through Result.Termination with a nil error.
func (a *Agent) Run(ctx context.Context, messages []drover.Message, opts ...Option) (*Result, error) {
	result := a.run(ctx, messages, ApplyOptions(opts...))
	return result, result.Error
}

func (a *Agent) run(ctx context.Context, messages []drover.Message, options *Options) *Result {
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	// Reuse the caller's run identity when present so tool side effects
	// and audit events correlate; otherwise mint one.
	info, ok := RunInfoFromContext(ctx)
	if !ok {
		info = RunInfo{RunID: "run-" + uuid.NewString()}
		ctx = WithRunInfo(ctx, info)
	}

	rec := event.NewRecorder(info.RunID, options.Sink)
	state := NewLoopState(messages)
	started := time.Now()
	var usage drover.Usage

	rec.Emit(event.Event{Type: event.RunStarted})

	chatOpts := append([]drover.Option{drover.WithTools(a.registry.Tools())}, options.ChatOptions...)

	for !state.Terminal {
		// Safe point: cancellation and deadline are checked between tool
		// dispatch and the next model call.
		if reason, stopped := ctxTermination(ctx); stopped {
			rec.Emit(event.Event{Type: event.StopDecision, Iteration: state.Iteration, Decision: string(reason)})
			state.markTerminal(reason, state.FinalAnswer)
			break
		}

		decision := EvaluateStop(state, options.MaxIterations)
		rec.Emit(event.Event{
			Type:      event.StopDecision,
			Iteration: state.Iteration,
			Decision:  decisionLabel(decision),
		})
		if decision.Stop {
			state.markTerminal(decision.Reason, state.FinalAnswer)
			break
		}

		state.Iteration++
		rec.Emit(event.Event{Type: event.ModelCallStarted, Iteration: state.Iteration})

		callStart := time.Now()
		response, err := a.callModel(ctx, state.Transcript.Snapshot(), chatOpts, options)
		rec.Emit(event.Event{
			Type:      event.ModelCallFinished,
			Iteration: state.Iteration,
			Elapsed:   time.Since(callStart),
			Err:       errString(err),
		})
		if err != nil {
			if reason, stopped := ctxTermination(ctx); stopped {
				state.markTerminal(reason, state.FinalAnswer)
				break
			}
			state.Err = err
			continue
		}

		usage.Add(response.Usage)

		if err := state.Transcript.Append(drover.NewAssistantMessage(response.Content, response.ToolCalls...)); err != nil {
			state.Err = err
			continue
		}

		if len(response.ToolCalls) == 0 {
			state.markTerminal(TerminationComplete, response.Content)
			break
		}

		// Every call in the turn gets a result before anything else
		// happens, the terminate tool included.
		results := a.dispatch(ctx, response.ToolCalls, options, state.Iteration, rec)
		if err := state.Transcript.Append(drover.NewToolResultMessage(results...)); err != nil {
			state.Err = err
			continue
		}

		if tc, invoked := findCall(response.ToolCalls, options.TerminateTool); invoked {
			state.TerminateRequested = true
			state.FinalAnswer = terminateAnswer(tc, response.Content)
		} else if response.Content != "" {
			state.FinalAnswer = response.Content
		}
	}

	rec.Emit(event.Event{
		Type:     event.RunFinished,
		Decision: string(state.Reason),
		Elapsed:  time.Since(started),
		Err:      errString(state.Err),
	})

	result := &Result{
		FinalAnswer: state.FinalAnswer,
		Termination: state.Reason,
		Iterations:  state.Iteration,
		Usage:       usage,
		messages:    state.Transcript.Snapshot(),
	}
	if state.Reason == TerminationError {
		result.Error = state.Err
		result.FinalAnswer = ""
	}
	return result
}

func (a *Agent) callModel(ctx context.Context, messages []drover.Message, chatOpts []drover.Option, options *Options) (*drover.Response, error) {
	return retry.Do(ctx, options.Retry, func() (*drover.Response, error) {
		callCtx := ctx
		if options.ModelTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, options.ModelTimeout)
			defer cancel()
		}
		return a.model.Chat(callCtx, messages, chatOpts...)
	})
}

// dispatch resolves one turn's batch of tool calls. It always joins on
// the full batch: a cancelled context still drains in-flight handlers so
// no side effect is orphaned, and partial results are never returned.
func (a *Agent) dispatch(ctx context.Context, calls []drover.ToolCall, options *Options, iteration int, rec *event.Recorder) []drover.ToolResult {
	rec.Emit(event.Event{Type: event.ToolDispatchStarted, Iteration: iteration, Calls: len(calls)})
	started := time.Now()

	results := make([]drover.ToolResult, len(calls))
	if options.ParallelToolCalls && len(calls) > 1 {
		var wg sync.WaitGroup
		for i, tc := range calls {
			wg.Add(1)
			go func(idx int, call drover.ToolCall) {
				defer wg.Done()
				results[idx] = a.executeCall(ctx, call, options, iteration, rec)
			}(i, tc)
		}
		wg.Wait()
	} else {
		for i, tc := range calls {
			results[i] = a.executeCall(ctx, tc, options, iteration, rec)
		}
	}

	rec.Emit(event.Event{
		Type:      event.ToolDispatchFinished,
		Iteration: iteration,
		Calls:     len(calls),
		Elapsed:   time.Since(started),
	})
	return results
}

func (a *Agent) executeCall(ctx context.Context, tc drover.ToolCall, options *Options, iteration int, rec *event.Recorder) drover.ToolResult {
	rec.Emit(event.Event{Type: event.ToolCallStarted, Iteration: iteration, ToolCall: &tc})
	started := time.Now()

	var result drover.ToolResult
	if tc.Name == options.TerminateTool && !a.registry.Has(tc.Name) {
		// The terminate tool works without a registered handler.
		result = drover.ToolResult{ToolCallID: tc.ID, Content: "task complete"}
	} else {
		execCtx := ctx
		if options.HandlerTimeout > 0 {
			var cancel context.CancelFunc
			execCtx, cancel = context.WithTimeout(ctx, options.HandlerTimeout)
			defer cancel()
		}

		var err error
		result, err = a.registry.Execute(execCtx, tc)
		if err != nil {
			// Unknown tool or other registry error: fed back to the
			// model, never fatal to the run.
			result = drover.ToolResult{
				ToolCallID: tc.ID,
				Content:    err.Error(),
				IsError:    true,
			}
		}
	}

	rec.Emit(event.Event{
		Type:       event.ToolCallFinished,
		Iteration:  iteration,
		ToolCall:   &tc,
		ToolResult: &result,
		Elapsed:    time.Since(started),
	})
	return result
}

func ctxTermination(ctx context.Context) (Termination, bool) {
	switch ctx.Err() {
	case nil:
		return "", false
	case context.DeadlineExceeded:
		return TerminationTimeout, true
	default:
		return TerminationCancelled, true
	}
}

func findCall(calls []drover.ToolCall, name string) (drover.ToolCall, bool) {
	for _, tc := range calls {
		if tc.Name == name {
			return tc, true
		}
	}
	return drover.ToolCall{}, false
}

// terminateAnswer extracts the run's answer when the terminate tool is
// invoked: the tool's "answer" argument when present, otherwise the
// assistant's text from the same turn.
func terminateAnswer(tc drover.ToolCall, content string) string {
	var args struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err == nil && args.Answer != "" {
		return args.Answer
	}
	return content
}

func decisionLabel(d Decision) string {
	if !d.Stop {
		return "continue"
	}
	return string(d.Reason)
}

func errString(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
