package tool

import (
	"context"

	"github.com/droverhq/drover"
)

// Handler executes one tool call. The context carries cancellation, the
// per-handler timeout, and run identifiers (see agent.RunInfoFromContext).
// Returning an error does not abort the run: the registry converts it into
// a failed result so the model can react.
type Handler func(ctx context.Context, call drover.ToolCall) (string, error)

// TypedHandler executes a tool call whose JSON arguments have already been
// unmarshaled into T.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)
