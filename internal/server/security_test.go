package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkitlanka/devkit/internal/config"
)

func securedHandler(t *testing.T, sc *SecurityConfig) http.Handler {
	t.Helper()
	s := newTestServer(t, config.Default())
	s.security = sc

	return s.SecurityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestSecurityMiddleware_DefaultHeaders(t *testing.T) {
	handler := securedHandler(t, DefaultSecurityConfig())

	req := httptest.NewRequest(http.MethodGet, "/regex", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "same-origin", w.Header().Get("Cross-Origin-Opener-Policy"))
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS is only sent over TLS")

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "https://cdn.tailwindcss.com")
	assert.Contains(t, csp, "img-src 'self' data:")
	assert.Contains(t, csp, "connect-src 'self' ws: wss:")
	assert.Contains(t, csp, "object-src 'none'")
}

func TestSecurityMiddleware_HSTSOverTLS(t *testing.T) {
	handler := securedHandler(t, ProductionSecurityConfig())

	req := httptest.NewRequest(http.MethodGet, "https://devkit.lk/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.NotNil(t, req.TLS)
	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", w.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "upgrade-insecure-requests")
}

func TestBuildCSPHeader(t *testing.T) {
	tests := []struct {
		name     string
		csp      *CSPConfig
		expected string
	}{
		{
			name: "basic",
			csp: &CSPConfig{
				DefaultSrc: []string{"'self'"},
				ScriptSrc:  []string{"'self'", "'unsafe-inline'"},
				ObjectSrc:  []string{"'none'"},
			},
			expected: "default-src 'self'; script-src 'self' 'unsafe-inline'; object-src 'none'",
		},
		{
			name:     "upgrade",
			csp:      &CSPConfig{DefaultSrc: []string{"'self'"}, UpgradeInsecureRequests: true},
			expected: "default-src 'self'; upgrade-insecure-requests",
		},
		{
			name:     "empty",
			csp:      &CSPConfig{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildCSPHeader(tt.csp))
		})
	}
}

func TestBuildHSTSHeader(t *testing.T) {
	tests := []struct {
		name     string
		hsts     *HSTSConfig
		expected string
	}{
		{"basic", &HSTSConfig{MaxAge: 31536000}, "max-age=31536000"},
		{"subdomains", &HSTSConfig{MaxAge: 600, IncludeSubDomains: true}, "max-age=600; includeSubDomains"},
		{"preload", &HSTSConfig{MaxAge: 600, IncludeSubDomains: true, Preload: true}, "max-age=600; includeSubDomains; preload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildHSTSHeader(tt.hsts))
		})
	}
}

func TestSecurityMiddleware_OriginValidation(t *testing.T) {
	sc := DefaultSecurityConfig()
	sc.AllowedOrigins = []string{"https://tools.devkit.lk", "http://localhost:3000"}
	handler := securedHandler(t, sc)

	tests := []struct {
		name     string
		method   string
		origin   string
		referer  string
		expected int
	}{
		{"GET is not checked", http.MethodGet, "https://malicious.com", "", http.StatusOK},
		{"POST from an allowed origin", http.MethodPost, "https://tools.devkit.lk", "", http.StatusOK},
		{"POST from the same host", http.MethodPost, "http://example.com", "", http.StatusOK},
		{"POST from another site", http.MethodPost, "https://malicious.com", "", http.StatusForbidden},
		{"POST with an allowed referer", http.MethodPost, "", "http://localhost:3000/regex", http.StatusOK},
		{"POST with a foreign referer", http.MethodPost, "", "https://malicious.com/page", http.StatusForbidden},
		{"POST without origin or referer", http.MethodPost, "", "", http.StatusOK},
		{"POST from a file origin", http.MethodPost, "file://", "", http.StatusForbidden},
		{"OPTIONS is not checked", http.MethodOptions, "https://malicious.com", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/format", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
			if tt.expected == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "cross-origin request rejected")
			}
		})
	}
}

func TestSecurityConfigs(t *testing.T) {
	dev := DevelopmentSecurityConfig()
	assert.Nil(t, dev.HSTS)
	assert.True(t, dev.AllowAnyOrigin)
	assert.Contains(t, dev.AllowedOrigins, "http://localhost:8080")

	prod := ProductionSecurityConfig()
	assert.False(t, prod.AllowAnyOrigin)
	assert.True(t, prod.HSTS.Preload)
	assert.True(t, prod.CSP.UpgradeInsecureRequests)
}

func TestSecurityConfigFromAppConfig(t *testing.T) {
	tests := []struct {
		environment string
		anyOrigin   bool
		hsts        bool
	}{
		{"development", true, false},
		{"production", false, true},
		{"staging", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := config.Default()
			cfg.Server.Environment = tt.environment
			cfg.Server.AllowedOrigins = []string{"https://tools.devkit.lk"}

			sc := SecurityConfigFromAppConfig(cfg)
			assert.Equal(t, tt.anyOrigin, sc.AllowAnyOrigin)
			assert.Equal(t, tt.hsts, sc.HSTS != nil)
			assert.Contains(t, sc.AllowedOrigins, "https://tools.devkit.lk")
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Forwarded-For header",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 198.51.100.1, 192.0.2.1"},
			remoteAddr: "127.0.0.1:8080",
			expected:   "203.0.113.1",
		},
		{
			name:       "X-Real-IP header",
			headers:    map[string]string{"X-Real-IP": "203.0.113.1"},
			remoteAddr: "127.0.0.1:8080",
			expected:   "203.0.113.1",
		},
		{
			name:       "RemoteAddr fallback",
			remoteAddr: "203.0.113.1:8080",
			expected:   "203.0.113.1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "203.0.113.1",
			expected:   "203.0.113.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}

			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}
