// Package middleware provides HTTP middleware for the EaseMail API.
package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/easemail/easemail-backend/internal/logger"
)

// UserIDKey is the echo context key holding the authenticated user id.
const UserIDKey = "user_id"

// SessionClaims are the claims of a session token issued by the auth backend.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SessionAuth verifies the HS256 session token in the Authorization header
// and stores its subject as the user id. Websocket upgrades may pass the
// token as the "token" query parameter since browsers cannot set headers there.
func SessionAuth(secret string, security *logger.SecurityLogger) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request())
			if raw == "" && isWebsocketUpgrade(c.Request()) {
				raw = c.QueryParam("token")
			}
			if raw == "" {
				security.AuthFailure(c.RealIP(), c.Path(), "missing token")
				return unauthorized("missing authorization header")
			}
			if len(key) == 0 {
				security.AuthFailure(c.RealIP(), c.Path(), "session secret not configured")
				return unauthorized("authentication is not configured")
			}

			claims := &SessionClaims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil {
				reason := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					reason = "token expired"
				}
				security.AuthFailure(c.RealIP(), c.Path(), reason)
				return unauthorized(reason)
			}
			if claims.Subject == "" {
				security.AuthFailure(c.RealIP(), c.Path(), "token without subject")
				return unauthorized("invalid token")
			}

			c.Set(UserIDKey, claims.Subject)
			return next(c)
		}
	}
}

// CronAuth protects the delivery endpoints with a shared bearer secret.
// Uses constant-time comparison to prevent timing attacks.
func CronAuth(secret string, security *logger.SecurityLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				security.CronAuthFailure(c.RealIP(), c.Path(), "cron secret not configured")
				return unauthorized("cron is not configured")
			}

			token := bearerToken(c.Request())
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				security.CronAuthFailure(c.RealIP(), c.Path(), "invalid cron secret")
				return unauthorized("invalid cron secret")
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or "" outside SessionAuth.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(echo.HeaderUpgrade), "websocket")
}

func unauthorized(msg string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
		"error": msg,
		"code":  "UNAUTHORIZED",
	})
}
