// Package audit records authentication events with the client address,
// implementing the user.AuthObserver hook.
package audit

import "log/slog"

type Logger struct {
	log *slog.Logger
}

func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{log: l}
}

func (a *Logger) LoginSucceeded(username, ip string) {
	a.log.Info("user logged in", "user", username, "ip", ip)
}

func (a *Logger) LoginFailed(username, ip string) {
	a.log.Warn("failed login", "user", username, "ip", ip)
}

func (a *Logger) LoggedOut(username, ip string) {
	a.log.Info("user logged out", "user", username, "ip", ip)
}
