package logging

import (
	"log/slog"
)

// NewDispatcherLogger returns the logger the command dispatcher writes to.
// *slog.Logger already satisfies dispatcher.Logger; records are tagged with
// the dispatcher component.
func NewDispatcherLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", "dispatcher"))
}
