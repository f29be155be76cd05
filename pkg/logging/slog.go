// Package logging provides a structured telephony.Logger implementation
// backed by log/slog, for processes that want real log output instead of
// telephony.NoOpLogger.
package logging

import (
	"log/slog"
	"os"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/telephony"
)

// SlogLogger adapts a *slog.Logger to the telephony.Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger constructs a SlogLogger writing JSON lines to stdout at the
// given minimum level.
func NewSlogLogger(level slog.Level) *SlogLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &SlogLogger{logger: slog.New(handler)}
}

// NewSlogLoggerWith wraps an already-constructed *slog.Logger, for callers
// that want a text handler, a different level, or additional fields bound
// via With.
func NewSlogLoggerWith(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(msg string, args ...interface{}) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...interface{})  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...interface{})  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...interface{}) { l.logger.Error(msg, args...) }

// WithCallID returns a SlogLogger that attaches call_id to every record it
// emits, for per-call log correlation.
func (l *SlogLogger) WithCallID(callID string) *SlogLogger {
	return &SlogLogger{logger: l.logger.With("call_id", callID)}
}

var _ telephony.Logger = (*SlogLogger)(nil)
