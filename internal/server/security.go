package server

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/devkitlanka/devkit/internal/config"
	"github.com/devkitlanka/devkit/internal/errors"
	"github.com/devkitlanka/devkit/internal/validation"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	CSP                 *CSPConfig
	HSTS                *HSTSConfig
	XFrameOptions       string
	XContentTypeNoSniff bool
	ReferrerPolicy      string
	PermissionsPolicy   []string
	// AllowedOrigins may post to the server and read its APIs cross-origin.
	AllowedOrigins []string
	// AllowAnyOrigin answers CORS requests from every origin (development).
	AllowAnyOrigin bool
}

// CSPConfig holds Content Security Policy configuration
type CSPConfig struct {
	DefaultSrc     []string
	ScriptSrc      []string
	StyleSrc       []string
	ImgSrc         []string
	ConnectSrc     []string
	FontSrc        []string
	ObjectSrc      []string
	FrameAncestors []string
	BaseURI        []string
	FormAction     []string
	// UpgradeInsecureRequests should only be set behind HTTPS.
	UpgradeInsecureRequests bool
}

// HSTSConfig holds HTTP Strict Transport Security configuration
type HSTSConfig struct {
	MaxAge            int
	IncludeSubDomains bool
	Preload           bool
}

// DefaultSecurityConfig returns the policy the pages need: inline scripts,
// the Tailwind CDN, data: downloads and websocket connections back to the
// server.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		CSP: &CSPConfig{
			DefaultSrc:     []string{"'self'"},
			ScriptSrc:      []string{"'self'", "'unsafe-inline'", "https://cdn.tailwindcss.com"},
			StyleSrc:       []string{"'self'", "'unsafe-inline'"},
			ImgSrc:         []string{"'self'", "data:"},
			ConnectSrc:     []string{"'self'", "ws:", "wss:"},
			FontSrc:        []string{"'self'"},
			ObjectSrc:      []string{"'none'"},
			FrameAncestors: []string{"'none'"},
			BaseURI:        []string{"'self'"},
			FormAction:     []string{"'self'"},
		},
		HSTS: &HSTSConfig{
			MaxAge:            31536000, // 1 year
			IncludeSubDomains: true,
		},
		XFrameOptions:       "DENY",
		XContentTypeNoSniff: true,
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   []string{"geolocation=()", "camera=()", "microphone=()", "payment=()", "usb=()"},
	}
}

// DevelopmentSecurityConfig relaxes CORS and drops HSTS.
func DevelopmentSecurityConfig() *SecurityConfig {
	config := DefaultSecurityConfig()
	config.HSTS = nil
	config.AllowAnyOrigin = true
	config.AllowedOrigins = []string{
		"http://localhost:3000", "http://127.0.0.1:3000",
		"http://localhost:8080", "http://127.0.0.1:8080",
	}

	return config
}

// ProductionSecurityConfig upgrades insecure requests and preloads HSTS.
func ProductionSecurityConfig() *SecurityConfig {
	config := DefaultSecurityConfig()
	config.CSP.UpgradeInsecureRequests = true
	config.HSTS.Preload = true

	return config
}

// SecurityConfigFromAppConfig creates security config from application config
func SecurityConfigFromAppConfig(cfg *config.Config) *SecurityConfig {
	var sc *SecurityConfig
	switch cfg.Server.Environment {
	case "production":
		sc = ProductionSecurityConfig()
	case "development":
		sc = DevelopmentSecurityConfig()
	default:
		sc = DefaultSecurityConfig()
	}
	sc.AllowedOrigins = append(sc.AllowedOrigins, cfg.Server.AllowedOrigins...)

	return sc
}

// SecurityMiddleware sets the security headers and rejects cross-site
// state-changing requests.
func (s *Server) SecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		applySecurityHeaders(w, r, s.security)

		if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Method != http.MethodOptions {
			if err := checkOrigin(r, s.security.AllowedOrigins); err != nil {
				s.logger.Warn(r.Context(), err, "Security: rejected cross-origin request",
					"origin", r.Header.Get("Origin"),
					"ip", getClientIP(r))
				s.writeErrorStatus(w, r, http.StatusForbidden,
					errors.NewValidationError(errors.ErrCodeValidationFailed, "cross-origin request rejected"))

				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func applySecurityHeaders(w http.ResponseWriter, r *http.Request, config *SecurityConfig) {
	h := w.Header()
	if config.CSP != nil {
		h.Set("Content-Security-Policy", buildCSPHeader(config.CSP))
	}
	if config.HSTS != nil && r.TLS != nil {
		h.Set("Strict-Transport-Security", buildHSTSHeader(config.HSTS))
	}
	if config.XFrameOptions != "" {
		h.Set("X-Frame-Options", config.XFrameOptions)
	}
	if config.XContentTypeNoSniff {
		h.Set("X-Content-Type-Options", "nosniff")
	}
	if config.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", config.ReferrerPolicy)
	}
	if len(config.PermissionsPolicy) > 0 {
		h.Set("Permissions-Policy", strings.Join(config.PermissionsPolicy, ", "))
	}
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
}

func buildCSPHeader(csp *CSPConfig) string {
	var directives []string

	addDirective := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, fmt.Sprintf("%s %s", name, strings.Join(values, " ")))
		}
	}

	addDirective("default-src", csp.DefaultSrc)
	addDirective("script-src", csp.ScriptSrc)
	addDirective("style-src", csp.StyleSrc)
	addDirective("img-src", csp.ImgSrc)
	addDirective("connect-src", csp.ConnectSrc)
	addDirective("font-src", csp.FontSrc)
	addDirective("object-src", csp.ObjectSrc)
	addDirective("frame-ancestors", csp.FrameAncestors)
	addDirective("base-uri", csp.BaseURI)
	addDirective("form-action", csp.FormAction)

	if csp.UpgradeInsecureRequests {
		directives = append(directives, "upgrade-insecure-requests")
	}

	return strings.Join(directives, "; ")
}

func buildHSTSHeader(hsts *HSTSConfig) string {
	header := fmt.Sprintf("max-age=%d", hsts.MaxAge)
	if hsts.IncludeSubDomains {
		header += "; includeSubDomains"
	}
	if hsts.Preload {
		header += "; preload"
	}

	return header
}

// checkOrigin accepts requests from the server's own host, from allowed
// origins, and from non-browser clients that send neither Origin nor
// Referer.
func checkOrigin(r *http.Request, allowedOrigins []string) error {
	origin := r.Header.Get("Origin")
	if origin == "" {
		if referer := r.Header.Get("Referer"); referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}
	}
	if origin == "" {
		return nil
	}

	allowed := append([]string{r.Host}, allowedOrigins...)

	return validation.ValidateOrigin(origin, allowed)
}

// originAllowed reports whether origin may read responses cross-origin.
func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if s.security.AllowAnyOrigin {
		return true
	}
	for _, allowed := range s.security.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")

		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
