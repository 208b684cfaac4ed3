package agent

import "context"

// RunInfo carries run identity into tool handlers. Handlers that perform
// side effects can tag them with the run and project they belong to.
// RunInfo never carries mutable orchestration state.
type RunInfo struct {
	RunID     string
	ProjectID string
}

type runInfoKey struct{}

// WithRunInfo returns a context carrying the given run identity.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunInfoFromContext extracts run identity placed by WithRunInfo.
func RunInfoFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}
