package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ValidateRemoteURL checks a user-supplied document URL before it is fetched.
// Only absolute http/https URLs with a host are accepted; query strings are
// allowed since API endpoints commonly carry them.
func ValidateRemoteURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	for _, r := range rawURL {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("URL contains whitespace or control characters")
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only allow http/https schemes to prevent protocol handlers
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	if parsed.User != nil {
		return fmt.Errorf("URL must not embed credentials")
	}

	return nil
}

// ValidateRepoSlug checks an owner or repository name used in a GitHub API path.
func ValidateRepoSlug(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if len(value) > 100 {
		return fmt.Errorf("%s is too long", kind)
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%s contains invalid character %q", kind, r)
		}
	}
	if value == "." || value == ".." {
		return fmt.Errorf("%s is not a valid name", kind)
	}

	return nil
}
