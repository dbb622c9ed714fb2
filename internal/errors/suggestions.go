package errors

import (
	"fmt"
	"strings"
)

// ErrorSuggestion represents a suggestion for fixing an error
type ErrorSuggestion struct {
	Title       string
	Description string
	Command     string
	Example     string
}

// SuggestionContext provides context for generating suggestions
type SuggestionContext struct {
	ConfigPath         string
	AvailableTemplates []string
	AvailableSheets    []string
}

// TemplateNotFoundError generates suggestions for an unknown template id
func TemplateNotFoundError(id string, ctx *SuggestionContext) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "List available templates",
			Description: "See every template and its add-ons",
			Command:     "devkit generate --list",
		},
	}

	if ctx == nil || len(ctx.AvailableTemplates) == 0 {
		return suggestions
	}

	suggestions = append(suggestions, ErrorSuggestion{
		Title:       "Available templates",
		Description: strings.Join(ctx.AvailableTemplates, ", "),
	})

	needle := strings.ToLower(id)
	for _, candidate := range ctx.AvailableTemplates {
		lower := strings.ToLower(candidate)
		if needle != "" && (strings.Contains(lower, needle) || strings.Contains(needle, lower)) {
			suggestions = append(suggestions, ErrorSuggestion{
				Title:       "Did you mean '" + candidate + "'?",
				Description: "Similar template found",
				Command:     "devkit generate " + candidate,
			})

			break
		}
	}

	return suggestions
}

// SheetNotFoundError generates suggestions for an unknown cheat sheet id
func SheetNotFoundError(id string, ctx *SuggestionContext) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "List cheat sheets",
			Description: "Show the built-in and user cheat sheets",
			Command:     "devkit cheatsheet --list",
		},
	}

	if ctx != nil && len(ctx.AvailableSheets) > 0 {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Available sheets",
			Description: strings.Join(ctx.AvailableSheets, ", "),
		})
	}

	return suggestions
}

// ServerStartError generates suggestions for server startup failures
func ServerStartError(err error, port int, ctx *SuggestionContext) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{}

	errStr := err.Error()

	if strings.Contains(errStr, "address already in use") || strings.Contains(errStr, "bind") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Port already in use",
			Description: fmt.Sprintf("Port %d is already being used by another process", port),
			Command:     fmt.Sprintf("lsof -i :%d", port),
		})

		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use a different port",
			Description: "Start the server on a different port",
			Command:     fmt.Sprintf("devkit serve --port %d", port+1000),
		})
	}

	if strings.Contains(errStr, "permission denied") && port < 1024 {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Use unprivileged port",
			Description: "Ports below 1024 require root privileges",
			Command:     "devkit serve --port 8080",
		})
	}

	return suggestions
}

// ConfigurationError generates suggestions for configuration issues
func ConfigurationError(configError string, configPath string, ctx *SuggestionContext) []ErrorSuggestion {
	suggestions := []ErrorSuggestion{
		{
			Title:       "Check configuration file",
			Description: "Verify your .devkit.yml file exists and has valid syntax",
			Command:     "cat " + configPath,
		},
		{
			Title:       "Validate configuration",
			Description: "Use the config validate command to check for issues",
			Command:     "devkit config validate",
		},
	}

	if strings.Contains(configError, "yaml") || strings.Contains(configError, "unmarshal") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Fix YAML syntax",
			Description: "There's a syntax error in your YAML configuration",
			Example:     "Use proper indentation and avoid tabs",
		})
	}

	if strings.Contains(configError, "cheatsheets") {
		suggestions = append(suggestions, ErrorSuggestion{
			Title:       "Check the cheat sheet directory",
			Description: "cheatsheets.dir must be a readable directory of .yaml files",
			Example:     "cheatsheets:\n  dir: \"./sheets\"\n  watch: true",
		})
	}

	return suggestions
}

// FormatSuggestions formats suggestions into a user-friendly string
func FormatSuggestions(title string, suggestions []ErrorSuggestion) string {
	if len(suggestions) == 0 {
		return title
	}

	var output strings.Builder
	output.WriteString(title + "\n\n")
	output.WriteString("Suggestions:\n")

	for i, suggestion := range suggestions {
		output.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion.Title))
		if suggestion.Description != "" {
			output.WriteString(fmt.Sprintf("     %s\n", suggestion.Description))
		}
		if suggestion.Command != "" {
			output.WriteString(fmt.Sprintf("     Run: %s\n", suggestion.Command))
		}
		if suggestion.Example != "" {
			output.WriteString(fmt.Sprintf("     Example: %s\n", suggestion.Example))
		}
		output.WriteString("\n")
	}

	return output.String()
}

// EnhancedError wraps an error with suggestions
type EnhancedError struct {
	OriginalError error
	Title         string
	Suggestions   []ErrorSuggestion
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	title := e.Title
	if e.OriginalError != nil {
		title += ": " + e.OriginalError.Error()
	}

	return FormatSuggestions(title, e.Suggestions)
}

// Unwrap returns the original error
func (e *EnhancedError) Unwrap() error {
	return e.OriginalError
}

// NewEnhancedError creates a new enhanced error with suggestions
func NewEnhancedError(title string, originalError error, suggestions []ErrorSuggestion) *EnhancedError {
	return &EnhancedError{
		OriginalError: originalError,
		Title:         title,
		Suggestions:   suggestions,
	}
}
