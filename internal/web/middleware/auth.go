// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/localwise/directory/internal/config"
)

// AdminTokenAuth returns middleware that validates the X-Admin-Token header
// against the configured shared token. Admin routes are rejected outright
// when no token is configured. onSuccess (optional) runs after each
// authenticated request, letting the caller track admin activity.
func AdminTokenAuth(cfg *config.SecurityConfig, onSuccess func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.AdminToken == "" {
				slog.Warn("auth: admin route hit with no admin token configured",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, `{"error":"admin access disabled","code":"AUTH_DISABLED"}`, http.StatusForbidden)
				return
			}

			token := r.Header.Get("X-Admin-Token")
			if token == "" {
				slog.Warn("auth: missing admin token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, `{"error":"missing admin token","code":"AUTH_MISSING_TOKEN"}`, http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AdminToken)) != 1 {
				slog.Warn("auth: invalid admin token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, `{"error":"invalid admin token","code":"AUTH_INVALID_TOKEN"}`, http.StatusForbidden)
				return
			}

			if onSuccess != nil {
				onSuccess()
			}
			next.ServeHTTP(w, r)
		})
	}
}
