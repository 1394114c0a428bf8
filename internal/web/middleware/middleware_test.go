package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ordersync/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.RemoteAddr))
})

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted proxy keeps socket address",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.9:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "203.0.113.9:5000",
		},
		{
			name:    "trusted proxy with X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			want:    "198.51.100.7",
		},
		{
			name:    "trusted proxy with X-Forwarded-For chain",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"},
			want:    "198.51.100.7",
		},
		{
			name:    "garbage header is ignored",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "127.0.0.1:5000",
		},
		{
			name:    "ipv6 proxy",
			trusted: []string{"::1/128"},
			remote:  "[::1]:5000",
			headers: map[string]string{"X-Real-IP": "2001:db8::1"},
			want:    "2001:db8::1",
		},
		{
			name:    "invalid trusted entries are skipped",
			trusted: []string{"bogus", " "},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "127.0.0.1:5000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			TrustedRealIP(tt.trusted)(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SecurityConfig
		key        string
		wantStatus int
		wantCode   string
	}{
		{name: "disabled", cfg: config.SecurityConfig{}, wantStatus: http.StatusOK},
		{name: "missing key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, wantStatus: http.StatusUnauthorized, wantCode: "AUTH001"},
		{name: "wrong key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, key: "nope", wantStatus: http.StatusForbidden, wantCode: "AUTH002"},
		{name: "second key matches", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, key: "k2", wantStatus: http.StatusOK},
		{name: "required without keys", cfg: config.SecurityConfig{RequireAPIKey: true}, key: "k1", wantStatus: http.StatusForbidden, wantCode: "AUTH002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.cfg)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				var body errorBody
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body.Code)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Stop()
	defer rl.Stop()

	h := rl.Middleware(okHandler)
	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("192.0.2.1:1001").Code, "ports share a bucket")

	limited := do("192.0.2.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("192.0.2.2:1000").Code, "other clients are unaffected")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Logger)
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/missing", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}
