package drover

import "context"

// ModelClient is the boundary to a language model. Given the ordered
// conversation and the available tool descriptors (via WithTools), it
// returns either a textual answer, tool invocation requests, or both.
//
// Implementations must classify failures using the error constructors in
// this package so callers can distinguish retryable from fatal errors.
type ModelClient interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}
