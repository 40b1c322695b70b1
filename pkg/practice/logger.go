package practice

import (
	"fmt"
	"log/slog"
)

// Logger is the interface for logging in practice.
type Logger interface {
	InfoPrintf(format string, args ...any)
	DebugPrintf(format string, args ...any)
	Errorf(format string, args ...any) error
}

// DefaultLogger returns a Logger backed by slog.Default.
func DefaultLogger() Logger {
	return SlogLogger(slog.Default())
}

// SlogLogger returns a Logger that writes to l with a component=practice
// attribute. A nil l uses slog.Default.
func SlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l.With(slog.String("component", "practice"))}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) InfoPrintf(format string, args ...any) {
	s.l.Info(fmt.Sprintf(format, args...))
}

func (s slogLogger) DebugPrintf(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

func (s slogLogger) Errorf(format string, args ...any) error {
	return fmt.Errorf("practice: "+format, args...)
}
