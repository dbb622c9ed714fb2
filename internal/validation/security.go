// Package validation holds the input checks shared by the HTTP handlers,
// the CLI and the configuration loader.
package validation

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ValidatePath validates a file path to prevent path traversal attacks
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(p)

	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return fmt.Errorf("path traversal detected: %s", p)
		}
	}

	restrictedPaths := []string{
		"/etc/",
		"/proc/",
		"/sys/",
		"/dev/",
		"/boot/",
	}

	cleanPathLower := strings.ToLower(filepath.ToSlash(cleanPath))
	for _, restricted := range restrictedPaths {
		if strings.HasPrefix(cleanPathLower+"/", restricted) {
			return fmt.Errorf("access to restricted path denied: %s", p)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\x00"}
	for _, char := range dangerousChars {
		if strings.Contains(p, char) {
			return fmt.Errorf("path contains dangerous character: %q", char)
		}
	}

	return nil
}

// ValidateRelativePath checks a slash-separated path that will be joined under
// an output directory or written into an archive. It must stay inside that root.
func ValidateRelativePath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(p, "\\") {
		return fmt.Errorf("path must use forward slashes: %s", p)
	}
	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("path contains NUL byte")
	}
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return fmt.Errorf("path must be relative: %s", p)
	}

	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return fmt.Errorf("path traversal detected: %s", p)
		}
		if part == "" || part == "." {
			return fmt.Errorf("path has an empty segment: %s", p)
		}
	}

	return nil
}

// ValidateOrigin validates a request origin for CSRF protection
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// ValidateFileExtension validates file extensions against an allowlist
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed", ext)
}

// SanitizeInput removes NUL and control characters other than common whitespace
func SanitizeInput(input string) string {
	var sanitized strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}

	return sanitized.String()
}
