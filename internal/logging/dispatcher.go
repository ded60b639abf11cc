package logging

import "log/slog"

// DispatcherLogger adapts slog.Logger to the dispatcher.Logger interface.
type DispatcherLogger struct {
	*slog.Logger
}

// NewDispatcherLogger tags every record with component=dispatcher.
func NewDispatcherLogger(logger *slog.Logger) DispatcherLogger {
	return DispatcherLogger{Logger: logger.With("component", "dispatcher")}
}
