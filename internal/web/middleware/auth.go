package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/ordersync/internal/config"
	"github.com/JonMunkholm/ordersync/internal/logging"
)

// APIKeyAuth checks the X-API-Key header against the configured keys.
// With RequireAPIKey off every request passes; with it on and no keys
// configured every request is rejected.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			logger := logging.WithFields(r.Context(),
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
			)

			key := r.Header.Get("X-API-Key")
			if key == "" {
				logger.Warn("auth: missing API key")
				writeJSONError(w, http.StatusUnauthorized, "AUTH001", "missing API key")
				return
			}
			if !validAPIKey(key, cfg.APIKeys) {
				logger.Warn("auth: invalid API key")
				writeJSONError(w, http.StatusForbidden, "AUTH002", "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validAPIKey compares against every key in constant time.
func validAPIKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
