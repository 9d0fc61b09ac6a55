package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/easemail/easemail-backend/internal/logger"
)

// ParseOrigins splits a comma separated origin list, dropping blanks.
// An empty list falls back to the local frontend.
func ParseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

// NewSecureUpgrader creates a WebSocket upgrader with origin validation.
// Rejected origins are reported to security when it is non-nil.
func NewSecureUpgrader(allowedOrigins []string, security *logger.SecurityLogger) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Allow same-origin requests (empty Origin)
			if origin == "" {
				return true
			}

			for _, allowed := range allowedOrigins {
				if allowed == origin {
					return true
				}
			}

			if security != nil {
				security.InvalidOrigin(r.RemoteAddr, origin)
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
