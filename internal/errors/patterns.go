package errors

import (
	"errors"
	"fmt"
)

// Domain error patterns used by the tool engines.

// FetchError reports a failed remote document fetch.
func FetchError(url string, cause error) *DevkitError {
	return NewNetworkError(ErrCodeFetchFailed, "fetch failed", cause).WithSource(url)
}

// FetchStatusError reports a non-success HTTP status from a remote endpoint.
// The message mirrors the "<service>: <status>" shape shown to users.
func FetchStatusError(service string, status int, url string) *DevkitError {
	return NewNetworkError(ErrCodeFetchStatus, fmt.Sprintf("%s: %d", service, status), nil).
		WithSource(url).
		WithContext("status", status)
}

// InputTooLarge rejects documents above the configured size limit.
func InputTooLarge(size, limit int64) *DevkitError {
	return NewValidationError(
		ErrCodeInputTooLarge,
		fmt.Sprintf("input is %d bytes, limit is %d", size, limit),
	).WithContext("size", size).WithContext("limit", limit)
}

// InvalidOption rejects an unsupported option value.
func InvalidOption(option string, value interface{}, allowed ...string) *DevkitError {
	err := NewValidationError(
		ErrCodeInvalidOption,
		fmt.Sprintf("invalid %s: %v", option, value),
	).WithContext("option", option).WithContext("value", value)
	if len(allowed) > 0 {
		err.WithHints(fmt.Sprintf("allowed values: %v", allowed))
	}

	return err
}

// PathValidationError creates a path validation error with a reason.
func PathValidationError(path, reason string) *DevkitError {
	return NewValidationError(ErrCodeInvalidPath, fmt.Sprintf("invalid path %q: %s", path, reason)).
		WithContext("path", path)
}

// Error chain utilities

// GetErrorChain returns all errors in the chain from outermost to innermost
func GetErrorChain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		err = errors.Unwrap(err)
	}

	return chain
}

// HasErrorCode checks if any error in the chain has the specified code
func HasErrorCode(err error, code string) bool {
	for _, e := range GetErrorChain(err) {
		if de, ok := e.(*DevkitError); ok && de.Code == code {
			return true
		}
	}

	return false
}

// HasErrorType checks if any error in the chain has the specified type
func HasErrorType(err error, errType ErrorType) bool {
	for _, e := range GetErrorChain(err) {
		if de, ok := e.(*DevkitError); ok && de.Type == errType {
			return true
		}
	}

	return false
}
