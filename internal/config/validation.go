package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/devkitlanka/devkit/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("❌ Validation Errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("⚠️  Validation Warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, message string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServerConfigDetails(&config.Server, result)
	validateLoggingConfigDetails(&config.Logging, result)
	validateRegexConfigDetails(&config.Regex, result)
	validateFormatterConfigDetails(&config.Formatter, result)
	validateCheatsheetsConfigDetails(&config.Cheatsheets, result)
	validateGitHubConfigDetails(&config.GitHub, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.addError("server.port", config.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			"Use a port between 1024-65535 for non-privileged access",
			"Common development ports: 3000, 8080, 8000, 3001",
		)
	} else if config.Port > 0 && config.Port < 1024 {
		result.addWarning("server.port", config.Port,
			"port below 1024 requires elevated privileges",
			"Consider using a port above 1024 for development",
		)
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.addError("server.host", config.Host, err.Error(),
				"Use 'localhost' for local development",
				"Use '0.0.0.0' to bind to all interfaces",
			)
		}
	}

	validEnvs := []string{"development", "production", "testing"}
	if config.Environment != "" && !slices.Contains(validEnvs, config.Environment) {
		result.addWarning("server.environment", config.Environment,
			"unknown environment type",
			"Use one of: "+strings.Join(validEnvs, ", "),
		)
	}

	for _, origin := range config.AllowedOrigins {
		if strings.ContainsAny(origin, " \t\n\r") {
			result.addError("server.allowed_origins", origin, "origin contains whitespace")
		}
	}

	if config.RateLimit < 0 {
		result.addError("server.rate_limit", config.RateLimit, "rate limit cannot be negative")
	}
}

func validateLoggingConfigDetails(config *LoggingConfig, result *ValidationResult) {
	levels := []string{"debug", "info", "warn", "warning", "error"}
	if config.Level != "" && !slices.Contains(levels, strings.ToLower(config.Level)) {
		result.addError("logging.level", config.Level, "unknown log level",
			"Use one of: debug, info, warn, error")
	}
	if config.Format != "" && config.Format != "text" && config.Format != "json" {
		result.addError("logging.format", config.Format, "unknown log format",
			"Use 'text' for terminals or 'json' for log collectors")
	}
}

func validateRegexConfigDetails(config *RegexConfig, result *ValidationResult) {
	if config.MaxMatches < 0 {
		result.addError("regex.max_matches", config.MaxMatches, "max_matches cannot be negative")
	}
	if config.MaxSubjectLen < 0 {
		result.addError("regex.max_subject_bytes", config.MaxSubjectLen, "max_subject_bytes cannot be negative")
	}
}

func validateFormatterConfigDetails(config *FormatterConfig, result *ValidationResult) {
	if config.DefaultIndent < 1 || config.DefaultIndent > 8 {
		result.addError("formatter.default_indent", config.DefaultIndent,
			"indent must be between 1 and 8",
			"2 is the standard indent; 4 and 8 are also common")
	}
	if config.MaxInputBytes < 0 {
		result.addError("formatter.max_input_bytes", config.MaxInputBytes, "limit cannot be negative")
	}
	if config.MaxFetchBytes < 0 {
		result.addError("formatter.max_fetch_bytes", config.MaxFetchBytes, "limit cannot be negative")
	}
	if config.FetchTimeout < 0 {
		result.addError("formatter.fetch_timeout", config.FetchTimeout, "timeout cannot be negative")
	}
}

func validateCheatsheetsConfigDetails(config *CheatsheetsConfig, result *ValidationResult) {
	if config.Dir != "" {
		if err := validation.ValidatePath(config.Dir); err != nil {
			result.addError("cheatsheets.dir", config.Dir, err.Error(),
				"Point cheatsheets.dir at a directory of .yaml sheets")
		} else if !pathExists(config.Dir) {
			result.addWarning("cheatsheets.dir", config.Dir, "directory does not exist",
				"Create the directory or remove the setting")
		}
	}
	if config.Watch && config.Dir == "" {
		result.addWarning("cheatsheets.watch", config.Watch, "watch has no effect without cheatsheets.dir")
	}

	languages := []string{"en", "si"}
	if config.Language != "" && !slices.Contains(languages, config.Language) {
		result.addError("cheatsheets.language", config.Language, "unsupported language",
			"Use 'en' for English or 'si' for Sinhala")
	}
}

func validateGitHubConfigDetails(config *GitHubConfig, result *ValidationResult) {
	if config.Owner != "" {
		if err := validation.ValidateRepoSlug("owner", config.Owner); err != nil {
			result.addError("github.owner", config.Owner, err.Error())
		}
	}
	if config.Repo != "" {
		if err := validation.ValidateRepoSlug("repo", config.Repo); err != nil {
			result.addError("github.repo", config.Repo, err.Error())
		}
	}
	if config.APIURL != "" {
		if err := validation.ValidateRemoteURL(config.APIURL); err != nil {
			result.addError("github.api_url", config.APIURL, err.Error(),
				"The default is https://api.github.com")
		}
	}
	if config.CacheTTL < 0 {
		result.addError("github.cache_ttl", config.CacheTTL, "cache ttl cannot be negative")
	}
}

// Helper validation functions

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
