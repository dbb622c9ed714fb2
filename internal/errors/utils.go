package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a DevkitError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *DevkitError {
	if err == nil {
		return nil
	}

	// Keep location and hints from an inner DevkitError
	var de *DevkitError
	if errors.As(err, &de) {
		return &DevkitError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       de,
			Context:     de.Context,
			Component:   de.Component,
			Source:      de.Source,
			Line:        de.Line,
			Column:      de.Column,
			Recoverable: de.Recoverable,
			Hints:       de.Hints,
		}
	}

	return &DevkitError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
		Recoverable: errType == ErrorTypeValidation ||
			errType == ErrorTypeNetwork ||
			errType == ErrorTypeFormatParse ||
			errType == ErrorTypePatternSyntax,
	}
}

// WrapWithContext wraps an error with context information
func WrapWithContext(err error, errType ErrorType, code, message string, context map[string]interface{}) *DevkitError {
	wrapped := Wrap(err, errType, code, message)
	if wrapped != nil {
		wrapped.Context = context
	}

	return wrapped
}

// WrapValidation wraps an error as a validation error
func WrapValidation(err error, code, message string) *DevkitError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *DevkitError {
	wrapped := Wrap(err, ErrorTypeIO, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}

	return wrapped
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *DevkitError {
	wrapped := Wrap(err, ErrorTypeConfig, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}

	return wrapped
}

// WrapInternal wraps an error as an internal error
func WrapInternal(err error, code, message string) *DevkitError {
	wrapped := Wrap(err, ErrorTypeInternal, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}

	return wrapped
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var de *DevkitError
	if errors.As(err, &de) {
		return de.Error()
	}

	return err.Error()
}

// FormatErrorWithSuggestions formats an error with its hints or field suggestions
func FormatErrorWithSuggestions(err error) string {
	if err == nil {
		return ""
	}

	var hints []string
	result := FormatError(err)

	var ve ValidationError
	var de *DevkitError
	switch {
	case errors.As(err, &ve):
		result = ve.Error()
		hints = ve.Suggestions()
	case errors.As(err, &de):
		hints = de.Hints
	}

	if len(hints) > 0 {
		result += "\n\nSuggestions:"
		for _, hint := range hints {
			result += fmt.Sprintf("\n  • %s", hint)
		}
	}

	return result
}

// GetErrorContext extracts context information from a DevkitError
func GetErrorContext(err error) map[string]interface{} {
	var de *DevkitError
	if errors.As(err, &de) {
		context := make(map[string]interface{})
		for k, v := range de.Context {
			context[k] = v
		}
		if de.Component != "" {
			context["component"] = de.Component
		}
		if de.Source != "" {
			context["source"] = de.Source
		}
		if de.Line > 0 {
			context["line"] = de.Line
			if de.Column > 0 {
				context["column"] = de.Column
			}
		}
		context["type"] = string(de.Type)
		context["code"] = de.Code
		context["recoverable"] = de.Recoverable

		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// ExtractCause extracts the root cause from a wrapped error
func ExtractCause(err error) error {
	for err != nil {
		var de *DevkitError
		if !errors.As(err, &de) {
			return err
		}
		if de.Cause == nil {
			return de
		}
		err = de.Cause
	}

	return nil
}

// CombineErrors combines multiple errors into a single error with context
func CombineErrors(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	if len(nonNil) == 1 {
		return nonNil[0]
	}

	var messages []string
	for _, err := range nonNil {
		messages = append(messages, err.Error())
	}

	return &DevkitError{
		Type:    ErrorTypeInternal,
		Code:    "ERR_MULTIPLE_ERRORS",
		Message: fmt.Sprintf("multiple errors occurred: %d errors", len(nonNil)),
		Context: map[string]interface{}{
			"error_count": len(nonNil),
			"errors":      messages,
		},
		Cause: errors.Join(nonNil...),
	}
}
