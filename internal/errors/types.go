// Package errors defines the structured error taxonomy shared by the DevKit
// engines, the HTTP server and the CLI.
//
// Every failure the tools can surface to a user is a *DevkitError carrying a
// type, a stable code and, for parse failures, the line and column of the
// offending input. All tool errors are recoverable at the point of use: the
// caller keeps its previous state and shows the message inline.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypePatternSyntax ErrorType = "pattern_syntax"
	ErrorTypeFormatParse   ErrorType = "format_parse"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeIO            ErrorType = "io"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeInternal      ErrorType = "internal"
)

// DevkitError is a structured error type with context.
type DevkitError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	Source      string
	Line        int
	Column      int
	Recoverable bool
	Hints       []string
}

// Error implements the error interface.
func (e *DevkitError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.Source != "" || e.Line > 0 {
		var location []string
		if e.Source != "" {
			location = append(location, e.Source)
		}
		if e.Line > 0 {
			location = append(location, fmt.Sprintf("line %d", e.Line))
			if e.Column > 0 {
				location = append(location, fmt.Sprintf("column %d", e.Column))
			}
		}
		parts = append(parts, strings.Join(location, ", ")+":")
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DevkitError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *DevkitError) Is(target error) bool {
	var t *DevkitError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *DevkitError) WithContext(key string, value interface{}) *DevkitError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation records where in the user's input the error occurred.
func (e *DevkitError) WithLocation(line, column int) *DevkitError {
	e.Line = line
	e.Column = column

	return e
}

// WithSource names the input the error refers to (a file or URL).
func (e *DevkitError) WithSource(source string) *DevkitError {
	e.Source = source

	return e
}

// WithComponent adds component context.
func (e *DevkitError) WithComponent(component string) *DevkitError {
	e.Component = component

	return e
}

// WithHints attaches user-facing hints.
func (e *DevkitError) WithHints(hints ...string) *DevkitError {
	e.Hints = append(e.Hints, hints...)

	return e
}

// Error creation functions

// NewPatternSyntaxError reports a regular expression that failed to compile.
// The message is the engine's own diagnostic, unmodified.
func NewPatternSyntaxError(message string, cause error) *DevkitError {
	return &DevkitError{
		Type:        ErrorTypePatternSyntax,
		Code:        ErrCodePatternSyntax,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewFormatParseError reports malformed JSON or YAML input.
func NewFormatParseError(message string, line, column int, cause error) *DevkitError {
	return &DevkitError{
		Type:        ErrorTypeFormatParse,
		Code:        ErrCodeFormatParse,
		Message:     message,
		Cause:       cause,
		Line:        line,
		Column:      column,
		Recoverable: true,
	}
}

// NewNetworkError reports a failed outbound request.
func NewNetworkError(code, message string, cause error) *DevkitError {
	return &DevkitError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *DevkitError {
	return &DevkitError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewNotFoundError creates an error for an unknown template, sheet or resource.
func NewNotFoundError(code, message string) *DevkitError {
	return &DevkitError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *DevkitError {
	return &DevkitError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *DevkitError {
	return &DevkitError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *DevkitError {
	return &DevkitError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var de *DevkitError
	if errors.As(err, &de) {
		return de.Recoverable
	}

	return false
}

// IsPatternSyntaxError reports whether err is a regex compile failure.
func IsPatternSyntaxError(err error) bool {
	return HasErrorType(err, ErrorTypePatternSyntax)
}

// IsFormatParseError reports whether err is a JSON/YAML parse failure.
func IsFormatParseError(err error) bool {
	return HasErrorType(err, ErrorTypeFormatParse)
}

// IsNetworkError reports whether err came from an outbound request.
func IsNetworkError(err error) bool {
	return HasErrorType(err, ErrorTypeNetwork)
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return HasErrorType(err, ErrorTypeNotFound)
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its type. User-input failures
// are warnings; everything else is an error.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var de *DevkitError
	if !errors.As(err, &de) {
		h.logger.Error(ctx, err, "Unhandled error occurred")

		return
	}

	switch de.Type {
	case ErrorTypePatternSyntax, ErrorTypeFormatParse, ErrorTypeValidation, ErrorTypeNotFound:
		h.logger.Warn(ctx, err, "Rejected user input",
			"type", de.Type,
			"code", de.Code,
			"component", de.Component)
	case ErrorTypeNetwork:
		h.logger.Warn(ctx, err, "Outbound request failed",
			"type", de.Type,
			"code", de.Code,
			"source", de.Source)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", de.Type,
			"code", de.Code,
			"component", de.Component,
			"cause", ExtractCause(err).Error(),
			"context", GetErrorContext(err))
	}
}

// Common error codes.
const (
	ErrCodePatternSyntax     = "ERR_PATTERN_SYNTAX"
	ErrCodeFormatParse       = "ERR_FORMAT_PARSE"
	ErrCodeUnsupportedValue  = "ERR_UNSUPPORTED_VALUE"
	ErrCodeInputTooLarge     = "ERR_INPUT_TOO_LARGE"
	ErrCodeFetchFailed       = "ERR_FETCH_FAILED"
	ErrCodeFetchStatus       = "ERR_FETCH_STATUS"
	ErrCodeFetchCanceled     = "ERR_FETCH_CANCELED"
	ErrCodeInvalidURL        = "ERR_INVALID_URL"
	ErrCodeInvalidPath       = "ERR_INVALID_PATH"
	ErrCodePathTraversal     = "ERR_PATH_TRAVERSAL"
	ErrCodeTemplateNotFound  = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeAddonNotFound     = "ERR_ADDON_NOT_FOUND"
	ErrCodeSheetNotFound     = "ERR_SHEET_NOT_FOUND"
	ErrCodeInvalidFlags      = "ERR_INVALID_FLAGS"
	ErrCodeInvalidOption     = "ERR_INVALID_OPTION"
	ErrCodeFileExists        = "ERR_FILE_EXISTS"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeInternalError     = "ERR_INTERNAL"
	ErrCodeValidationFailed  = "ERR_VALIDATION_FAILED"
	ErrCodeMalformedSheet    = "ERR_MALFORMED_SHEET"
	ErrCodeOverlappingMatch  = "ERR_OVERLAPPING_MATCH"
	ErrCodeUnsupportedFormat = "ERR_UNSUPPORTED_FORMAT"
	ErrCodeRateLimited       = "ERR_RATE_LIMITED"
	ErrCodeMethodNotAllowed  = "ERR_METHOD_NOT_ALLOWED"
	ErrCodeRouteNotFound     = "ERR_ROUTE_NOT_FOUND"
)

// ValidationError interface for field-specific validation errors.
type ValidationError interface {
	error
	Field() string
	Value() interface{}
	Suggestions() []string
}

// FieldValidationError implements ValidationError for specific field errors.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// Field returns the field name that failed validation.
func (fve *FieldValidationError) Field() string {
	return fve.FieldName
}

// Value returns the invalid value.
func (fve *FieldValidationError) Value() interface{} {
	return fve.FieldValue
}

// Suggestions returns helpful suggestions for fixing the error.
func (fve *FieldValidationError) Suggestions() []string {
	return fve.HelpText
}

// ToDevkitError converts the field validation error to a DevkitError.
func (fve *FieldValidationError) ToDevkitError() *DevkitError {
	return NewValidationError(
		"ERR_FIELD_"+strings.ToUpper(fve.FieldName),
		fve.ErrorMessage,
	).WithContext("field", fve.FieldName).WithContext("value", fve.FieldValue).WithHints(fve.HelpText...)
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// Add adds a validation error to the collection.
func (vec *ValidationErrorCollection) Add(err ValidationError) {
	vec.Errors = append(vec.Errors, err)
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Add(NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToDevkitError converts the validation collection to a DevkitError.
func (vec *ValidationErrorCollection) ToDevkitError() *DevkitError {
	if !vec.HasErrors() {
		return nil
	}

	var messages []string
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.Field()] = map[string]interface{}{
			"value":       err.Value(),
			"suggestions": err.Suggestions(),
		}
	}

	return &DevkitError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeValidationFailed,
		Message:     strings.Join(messages, "; "),
		Context:     context,
		Recoverable: true,
	}
}

// Helper functions for common errors

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path string) *DevkitError {
	return NewValidationError(ErrCodeInvalidPath, "invalid path: "+path)
}

// ErrPathTraversal rejects a path that escapes its output directory.
func ErrPathTraversal(path string) *DevkitError {
	return NewValidationError(ErrCodePathTraversal, "path escapes output directory: "+path)
}

// ErrTemplateNotFound reports an unknown project template id.
func ErrTemplateNotFound(id string) *DevkitError {
	return NewNotFoundError(ErrCodeTemplateNotFound, "template not found: "+id)
}

// ErrSheetNotFound reports an unknown cheat sheet id.
func ErrSheetNotFound(id string) *DevkitError {
	return NewNotFoundError(ErrCodeSheetNotFound, "cheat sheet not found: "+id)
}
