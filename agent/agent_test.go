package agent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/event"
	"github.com/droverhq/drover/retry"
	"github.com/droverhq/drover/tool"
)

// mockClient implements drover.ModelClient with a scripted sequence of
// responses. It records every request so tests can assert on what the
// loop sent.
type mockClient struct {
	mu        sync.Mutex
	responses []mockResponse
	calls     int
	requests  [][]drover.Message
}

type mockResponse struct {
	content   string
	toolCalls []drover.ToolCall
	err       error
}

func (m *mockClient) Chat(ctx context.Context, messages []drover.Message, opts ...drover.Option) (*drover.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make([]drover.Message, len(messages))
	copy(snapshot, messages)
	m.requests = append(m.requests, snapshot)

	if m.calls >= len(m.responses) {
		return &drover.Response{Content: "no more responses"}, nil
	}
	resp := m.responses[m.calls]
	m.calls++
	if resp.err != nil {
		return nil, resp.err
	}
	return &drover.Response{
		Content:   resp.content,
		ToolCalls: resp.toolCalls,
		Usage:     drover.Usage{InputTokens: 10, OutputTokens: 20},
	}, nil
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type echoArgs struct {
	Text string `json:"text" desc:"Text to echo"`
}

func newEchoRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "echo", "Echo the input",
		func(ctx context.Context, args echoArgs) (string, error) {
			return args.Text, nil
		},
	)
	return registry
}

func userMessages(text string) []drover.Message {
	return []drover.Message{drover.NewUserMessage(text)}
}

func TestRunPlainAnswer(t *testing.T) {
	client := &mockClient{responses: []mockResponse{
		{content: "Paris is the capital of France."},
	}}
	a := New(client, newEchoRegistry(t))

	result, err := a.Run(context.Background(), userMessages("Capital of France?"))
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, result.Termination)
	assert.Equal(t, "Paris is the capital of France.", result.FinalAnswer)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 30, result.Usage.InputTokens+result.Usage.OutputTokens)
}

func TestRunToolThenAnswer(t *testing.T) {
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "read_document", "Read a document",
		func(ctx context.Context, args struct {
			ID string `json:"id"`
		}) (string, error) {
			return "doc contents", nil
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "read_document", Arguments: `{"id":"x"}`}}},
		{content: "Summary: it is about birds."},
	}}
	a := New(client, registry)

	result, err := a.Run(context.Background(), userMessages("Summarize doc X"))
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, result.Termination)
	assert.Equal(t, "Summary: it is about birds.", result.FinalAnswer)
	assert.Equal(t, 2, result.Iterations)

	// The second model call must carry the paired tool result.
	require.Len(t, client.requests, 2)
	second := client.requests[1]
	last := second[len(second)-1]
	require.Equal(t, drover.RoleTool, last.Role)
	require.Len(t, last.ToolResults, 1)
	assert.Equal(t, "t1", last.ToolResults[0].ToolCallID)
	assert.Equal(t, "doc contents", last.ToolResults[0].Content)
	assert.False(t, last.ToolResults[0].IsError)
}

func TestRunUnknownToolContinues(t *testing.T) {
	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "does_not_exist", Arguments: `{}`}}},
		{content: "recovered"},
	}}
	a := New(client, newEchoRegistry(t))

	result, err := a.Run(context.Background(), userMessages("go"))
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, result.Termination)
	assert.Equal(t, 2, result.Iterations)

	// The failure was fed back, not fatal.
	second := client.requests[1]
	last := second[len(second)-1]
	require.Len(t, last.ToolResults, 1)
	assert.True(t, last.ToolResults[0].IsError)
	assert.Contains(t, last.ToolResults[0].Content, "unknown tool")
}

func TestRunSchemaViolationContinues(t *testing.T) {
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "lookup", "Look something up",
		func(ctx context.Context, args struct {
			Key string `json:"key" required:"true"`
		}) (string, error) {
			return "value", nil
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "lookup", Arguments: `{"wrong":"field"}`}}},
		{content: "done"},
	}}
	a := New(client, registry)

	result, err := a.Run(context.Background(), userMessages("go"))
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, result.Termination)

	second := client.requests[1]
	last := second[len(second)-1]
	require.Len(t, last.ToolResults, 1)
	assert.True(t, last.ToolResults[0].IsError)
	assert.Contains(t, last.ToolResults[0].Content, "invalid arguments")
}

func TestRunMaxIterations(t *testing.T) {
	loop := mockResponse{toolCalls: []drover.ToolCall{{ID: "t", Name: "echo", Arguments: `{"text":"again"}`}}}
	client := &mockClient{responses: []mockResponse{loop, loop, loop, loop, loop}}
	a := New(client, newEchoRegistry(t))

	result, err := a.Run(context.Background(), userMessages("go"), WithMaxIterations(3))
	require.NoError(t, err)
	assert.Equal(t, TerminationMaxIterations, result.Termination)
	assert.Equal(t, 3, result.Iterations)
	// Never a fourth model call.
	assert.Equal(t, 3, client.callCount())
}

func TestRunTerminateTool(t *testing.T) {
	var executed atomic.Int32
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "echo", "Echo the input",
		func(ctx context.Context, args echoArgs) (string, error) {
			executed.Add(1)
			return args.Text, nil
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{
			{ID: "t1", Name: "echo", Arguments: `{"text":"a"}`},
			{ID: "t2", Name: "task_complete", Arguments: `{"answer":"all done"}`},
			{ID: "t3", Name: "echo", Arguments: `{"text":"b"}`},
		}},
		{content: "should never be requested"},
	}}
	a := New(client, registry)

	sink := event.NewMemorySink()
	result, err := a.Run(context.Background(), userMessages("go"), WithSink(sink))
	require.NoError(t, err)

	assert.Equal(t, TerminationToolStop, result.Termination)
	assert.Equal(t, "all done", result.FinalAnswer)
	assert.Equal(t, 1, result.Iterations)
	// The whole turn was dispatched and resolved, terminate included.
	assert.Equal(t, int32(2), executed.Load())
	assert.Equal(t, 1, client.callCount())

	msgs := result.Messages()
	last := msgs[len(msgs)-1]
	require.Equal(t, drover.RoleTool, last.Role)
	assert.Len(t, last.ToolResults, 3)
}

func TestRunTerminateToolUnregistered(t *testing.T) {
	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "task_complete", Arguments: `{}`}}, content: "finished the task"},
	}}
	a := New(client, newEchoRegistry(t))

	result, err := a.Run(context.Background(), userMessages("go"))
	require.NoError(t, err)
	assert.Equal(t, TerminationToolStop, result.Termination)
	assert.Equal(t, "finished the task", result.FinalAnswer)

	// A synthesized success result keeps the pairing invariant.
	msgs := result.Messages()
	last := msgs[len(msgs)-1]
	require.Len(t, last.ToolResults, 1)
	assert.Equal(t, "t1", last.ToolResults[0].ToolCallID)
	assert.False(t, last.ToolResults[0].IsError)
}

func TestRunCancelMidDispatchDrainsBatch(t *testing.T) {
	var completed atomic.Int32
	release := make(chan struct{})

	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "slow", "Slow tool",
		func(ctx context.Context, args struct{}) (string, error) {
			<-release
			completed.Add(1)
			return "ok", nil
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{
			{ID: "t1", Name: "slow", Arguments: `{}`},
			{ID: "t2", Name: "slow", Arguments: `{}`},
			{ID: "t3", Name: "slow", Arguments: `{}`},
		}},
		{content: "should never be requested"},
	}}
	a := New(client, registry)

	run := a.Start(context.Background(), userMessages("go"))

	// Let the batch get in flight, cancel, then release the handlers.
	time.Sleep(20 * time.Millisecond)
	run.Cancel()
	close(release)

	result, err := run.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TerminationCancelled, result.Termination)
	// All three handlers were drained, and no second model call happened.
	assert.Equal(t, int32(3), completed.Load())
	assert.Equal(t, 1, client.callCount())

	msgs := result.Messages()
	last := msgs[len(msgs)-1]
	require.Equal(t, drover.RoleTool, last.Role)
	assert.Len(t, last.ToolResults, 3)
}

func TestRunTransientErrorRetried(t *testing.T) {
	client := &mockClient{responses: []mockResponse{
		{err: drover.NewTransientError("rate limited", 429, nil)},
		{err: drover.NewTransientError("rate limited", 429, nil)},
		{content: "finally"},
	}}
	a := New(client, newEchoRegistry(t))

	cfg := retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	result, err := a.Run(context.Background(), userMessages("go"), WithRetry(cfg))
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, result.Termination)
	assert.Equal(t, "finally", result.FinalAnswer)
	// Retries do not count as iterations.
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 3, client.callCount())
}

func TestRunFatalModelError(t *testing.T) {
	fatal := drover.NewPermanentError("invalid api key", 401, nil)
	client := &mockClient{responses: []mockResponse{{err: fatal}}}
	a := New(client, newEchoRegistry(t))

	result, err := a.Run(context.Background(), userMessages("go"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, TerminationError, result.Termination)
	assert.Empty(t, result.FinalAnswer)
	// No retry for permanent errors.
	assert.Equal(t, 1, client.callCount())
}

func TestRunTransientExhaustionFails(t *testing.T) {
	transient := mockResponse{err: drover.NewTransientError("overloaded", 529, nil)}
	client := &mockClient{responses: []mockResponse{transient, transient, transient}}
	a := New(client, newEchoRegistry(t))

	cfg := retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	result, err := a.Run(context.Background(), userMessages("go"), WithRetry(cfg))
	require.Error(t, err)
	assert.Equal(t, TerminationError, result.Termination)
	assert.Equal(t, 2, client.callCount())
}

func TestRunHandlerTimeout(t *testing.T) {
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "hang", "Hangs until cancelled",
		func(ctx context.Context, args struct{}) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "hang", Arguments: `{}`}}},
		{content: "recovered"},
	}}
	a := New(client, registry)

	result, err := a.Run(context.Background(), userMessages("go"), WithHandlerTimeout(10*time.Millisecond))
	require.NoError(t, err)
	// The timed-out handler became a failed result; the run continued.
	assert.Equal(t, TerminationComplete, result.Termination)

	second := client.requests[1]
	last := second[len(second)-1]
	require.Len(t, last.ToolResults, 1)
	assert.True(t, last.ToolResults[0].IsError)
}

func TestRunTimeout(t *testing.T) {
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "slow", "Slow tool",
		func(ctx context.Context, args struct{}) (string, error) {
			select {
			case <-time.After(time.Second):
				return "ok", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "slow", Arguments: `{}`}}},
	}}
	a := New(client, registry)

	result, err := a.Run(context.Background(), userMessages("go"), WithTimeout(30*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, TerminationTimeout, result.Termination)
}

func TestRunParallelToolCalls(t *testing.T) {
	var inFlight, peak atomic.Int32

	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "probe", "Concurrency probe",
		func(ctx context.Context, args struct{}) (string, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			return "ok", nil
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{
			{ID: "t1", Name: "probe", Arguments: `{}`},
			{ID: "t2", Name: "probe", Arguments: `{}`},
			{ID: "t3", Name: "probe", Arguments: `{}`},
		}},
		{content: "done"},
	}}
	a := New(client, registry)

	result, err := a.Run(context.Background(), userMessages("go"))
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, result.Termination)
	assert.GreaterOrEqual(t, peak.Load(), int32(2))

	// Results arrive in request order regardless of completion order.
	second := client.requests[1]
	last := second[len(second)-1]
	require.Len(t, last.ToolResults, 3)
	assert.Equal(t, "t1", last.ToolResults[0].ToolCallID)
	assert.Equal(t, "t2", last.ToolResults[1].ToolCallID)
	assert.Equal(t, "t3", last.ToolResults[2].ToolCallID)
}

func TestRunAuditTrailOrdering(t *testing.T) {
	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "echo", Arguments: `{"text":"hi"}`}}},
		{content: "done"},
	}}
	a := New(client, newEchoRegistry(t))

	sink := event.NewMemorySink()
	result, err := a.Run(context.Background(), userMessages("go"), WithSink(sink))
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, result.Termination)

	events := sink.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, event.RunStarted, events[0].Type)
	assert.Equal(t, event.RunFinished, events[len(events)-1].Type)

	// Seq is strictly increasing and all events share the run ID.
	for i, e := range events {
		assert.Equal(t, uint64(i+1), e.Seq)
		assert.Equal(t, events[0].RunID, e.RunID)
	}

	// A model call wraps the dispatch, and the dispatch wraps its calls.
	types := make([]event.Type, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	assert.Subset(t, types, []event.Type{
		event.ModelCallStarted, event.ModelCallFinished,
		event.ToolDispatchStarted, event.ToolCallStarted,
		event.ToolCallFinished, event.ToolDispatchFinished,
		event.StopDecision,
	})
}

func TestRunInfoReachesHandlers(t *testing.T) {
	var seen RunInfo
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "whoami", "Report run identity",
		func(ctx context.Context, args struct{}) (string, error) {
			seen, _ = RunInfoFromContext(ctx)
			return "ok", nil
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "whoami", Arguments: `{}`}}},
		{content: "done"},
	}}
	a := New(client, registry)

	ctx := WithRunInfo(context.Background(), RunInfo{RunID: "run-42", ProjectID: "proj-7"})
	_, err := a.Run(ctx, userMessages("go"))
	require.NoError(t, err)
	assert.Equal(t, "run-42", seen.RunID)
	assert.Equal(t, "proj-7", seen.ProjectID)
}

func TestStartAndWait(t *testing.T) {
	client := &mockClient{responses: []mockResponse{{content: "done"}}}
	a := New(client, newEchoRegistry(t))

	run := a.Start(context.Background(), userMessages("go"))
	result, err := run.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", result.FinalAnswer)

	select {
	case <-run.Done():
	default:
		t.Fatal("Done channel should be closed")
	}
}

func TestWaitContextExpiry(t *testing.T) {
	release := make(chan struct{})
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "block", "Blocks until released",
		func(ctx context.Context, args struct{}) (string, error) {
			<-release
			return "ok", nil
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "block", Arguments: `{}`}}},
		{content: "done"},
	}}
	a := New(client, registry)

	run := a.Start(context.Background(), userMessages("go"))

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := run.Wait(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The run itself was not abandoned.
	close(release)
	result, err := run.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", result.FinalAnswer)
}

func TestRunDoesNotMutateInput(t *testing.T) {
	client := &mockClient{responses: []mockResponse{{content: "done"}}}
	a := New(client, newEchoRegistry(t))

	messages := userMessages("go")
	result, err := a.Run(context.Background(), messages)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Len(t, result.Messages(), 2)
}

func TestRunHandlerErrorFedBack(t *testing.T) {
	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "flaky", "Always fails",
		func(ctx context.Context, args struct{}) (string, error) {
			return "", errors.New("disk on fire")
		},
	)

	client := &mockClient{responses: []mockResponse{
		{toolCalls: []drover.ToolCall{{ID: "t1", Name: "flaky", Arguments: `{}`}}},
		{content: "noted"},
	}}
	a := New(client, registry)

	result, err := a.Run(context.Background(), userMessages("go"))
	require.NoError(t, err)
	assert.Equal(t, TerminationComplete, result.Termination)

	second := client.requests[1]
	last := second[len(second)-1]
	require.Len(t, last.ToolResults, 1)
	assert.True(t, last.ToolResults[0].IsError)
	assert.Contains(t, last.ToolResults[0].Content, "disk on fire")
}
