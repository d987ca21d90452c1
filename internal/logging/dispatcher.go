package logging

import "log/slog"

// DispatcherLogger routes command dispatch events through the manager's
// current slog pipeline, so failed and panicking commands land in the
// diagnostic log next to everything else the session reports.
type DispatcherLogger struct {
	m *SlogManager
}

// DispatcherLogger returns a dispatcher.Logger bound to m. The logger is
// looked up per call and follows later Setup calls.
func (m *SlogManager) DispatcherLogger() *DispatcherLogger {
	return &DispatcherLogger{m: m}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.logger().Debug(msg, keysAndValues...)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.logger().Info(msg, keysAndValues...)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.logger().Error(msg, keysAndValues...)
}

func (l *DispatcherLogger) logger() *slog.Logger {
	return l.m.Logger().With("component", "dispatcher")
}
