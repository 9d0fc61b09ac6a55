package logger

import (
	"log/slog"
	"os"
	"time"
)

// SecurityLogger provides methods for logging security-related events.
// It ensures sensitive data is never logged.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new SecurityLogger with JSON output.
func NewSecurityLogger() *SecurityLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SecurityLogger{
		logger: slog.New(handler),
	}
}

// NewSecurityLoggerWithHandler creates a SecurityLogger with a custom handler.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{
		logger: slog.New(handler),
	}
}

// AuthFailure logs a failed session authentication attempt.
// Never logs the actual token.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.logger.Warn("authentication_failure",
		slog.String("event_type", "auth_failure"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// CronAuthFailure logs a rejected call to a cron trigger endpoint.
func (s *SecurityLogger) CronAuthFailure(ip, path, reason string) {
	s.logger.Warn("cron_authentication_failure",
		slog.String("event_type", "cron_auth_failure"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitExceeded logs when a client exceeds rate limits.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.logger.Warn("rate_limit_exceeded",
		slog.String("event_type", "rate_limit"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// AccountAccessDenied logs a request for an account the user does not own.
func (s *SecurityLogger) AccountAccessDenied(ip, userID, accountID string) {
	s.logger.Warn("account_access_denied",
		slog.String("event_type", "account_access_denied"),
		slog.String("ip", ip),
		slog.String("user_id", userID),
		slog.String("account_id", accountID),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// InvalidOrigin logs a rejected WebSocket connection due to invalid origin.
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.logger.Warn("invalid_origin",
		slog.String("event_type", "invalid_origin"),
		slog.String("ip", ip),
		slog.String("origin", origin),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// SecurityEvent logs a generic security event.
func (s *SecurityLogger) SecurityEvent(eventType, ip string, details map[string]string) {
	attrs := []any{
		slog.String("event_type", eventType),
		slog.String("ip", ip),
		slog.Time("timestamp", time.Now().UTC()),
	}

	for k, v := range details {
		// Filter out sensitive keys
		if isSensitiveKey(k) {
			continue
		}
		attrs = append(attrs, slog.String(k, v))
	}

	s.logger.Warn("security_event", attrs...)
}

// isSensitiveKey checks if a key might contain sensitive data.
func isSensitiveKey(key string) bool {
	sensitiveKeys := map[string]bool{
		"password":      true,
		"api_key":       true,
		"apikey":        true,
		"token":         true,
		"access_token":  true,
		"refresh_token": true,
		"grant_id":      true,
		"secret":        true,
		"authorization": true,
		"auth":          true,
		"credential":    true,
		"credentials":   true,
		"session":       true,
		"cookie":        true,
	}
	return sensitiveKeys[key]
}
