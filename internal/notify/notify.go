// Package notify is the outcome-message sink: every lifecycle operation
// emits exactly one human-readable success or error message through it.
// The core only calls the Sink interface; retention and display policy
// belong to whatever sits behind it.
package notify

import "log/slog"

// Level classifies an outcome message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Sink receives one outcome message per operation, fire and forget.
type Sink interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// SlogSink writes outcome messages to the structured log. It is the default
// sink when no broker is configured.
type SlogSink struct {
	log *slog.Logger
}

func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log}
}

func (s *SlogSink) Success(msg string) {
	s.log.Info(msg, slog.String("outcome", string(LevelSuccess)))
}

func (s *SlogSink) Error(msg string) {
	s.log.Warn(msg, slog.String("outcome", string(LevelError)))
}

func (s *SlogSink) Info(msg string) {
	s.log.Info(msg, slog.String("outcome", string(LevelInfo)))
}
