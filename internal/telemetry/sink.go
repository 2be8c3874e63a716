package telemetry

import "go.uber.org/zap"

// LogSink forwards records as structured log lines. It stands in for an
// external telemetry backend, which is out of scope here.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink over the given logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Forward emits one record.
func (s *LogSink) Forward(rec Record) {
	if s.logger == nil {
		return
	}
	s.logger.Info("llm call completed",
		zap.String("request_id", rec.RequestID),
		zap.String("endpoint", rec.Endpoint),
		zap.String("provider", rec.Provider),
		zap.String("model", rec.Model),
		zap.Duration("latency", rec.Latency),
		zap.Int("prompt_tokens", rec.PromptTokens),
		zap.Int("completion_tokens", rec.CompletionTokens),
		zap.Int("retries", rec.Retries),
		zap.Bool("success", rec.Success),
		zap.String("error", rec.ErrorText),
	)
}
