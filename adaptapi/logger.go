package adaptapi

import (
	"fmt"
	"log/slog"
)

// Logger interface for logging (can be implemented by any logger)
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
}

// NoOpLogger is a no-operation logger
type NoOpLogger struct{}

func (n NoOpLogger) Debug(args ...interface{}) {}
func (n NoOpLogger) Info(args ...interface{})  {}
func (n NoOpLogger) Warn(args ...interface{})  {}
func (n NoOpLogger) Error(args ...interface{}) {}

// SlogLogger adapts a *slog.Logger to Logger. Arguments are joined with
// fmt.Sprint into the message.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger wraps log; a nil log uses slog.Default().
func NewSlogLogger(log *slog.Logger) *SlogLogger {
	if log == nil {
		log = slog.Default()
	}
	return &SlogLogger{log: log.With("component", "adaptapi")}
}

func (l *SlogLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l *SlogLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l *SlogLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l *SlogLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
