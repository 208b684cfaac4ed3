package event

import (
	"go.uber.org/zap"
)

// ZapSink writes each event as a structured log entry. Model and tool
// failures log at warn, everything else at debug, so a production logger
// at info level stays quiet unless something goes wrong.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log.Named("audit")}
}

func (s *ZapSink) Publish(e Event) error {
	fields := []zap.Field{
		zap.String("run_id", e.RunID),
		zap.Uint64("seq", e.Seq),
	}
	if e.Iteration > 0 {
		fields = append(fields, zap.Int("iteration", e.Iteration))
	}
	if e.ToolCall != nil {
		fields = append(fields, zap.String("tool", e.ToolCall.Name), zap.String("tool_call_id", e.ToolCall.ID))
	}
	if e.ToolResult != nil {
		fields = append(fields, zap.Bool("tool_error", e.ToolResult.IsError))
	}
	if e.Decision != "" {
		fields = append(fields, zap.String("decision", e.Decision))
	}
	if e.Calls > 0 {
		fields = append(fields, zap.Int("calls", e.Calls))
	}
	if e.Elapsed > 0 {
		fields = append(fields, zap.Duration("elapsed", e.Elapsed))
	}
	if e.Err != "" {
		fields = append(fields, zap.String("error", e.Err))
		s.log.Warn(string(e.Type), fields...)
		return nil
	}
	s.log.Debug(string(e.Type), fields...)
	return nil
}
