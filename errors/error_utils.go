// Package errors provides the error codes and utilities for categorizing and handling errors
// in the header verifier.
package errors

import (
	"context"
	"errors"
	"strings"
)

// IsRetryableError determines if an error is transient and the operation should be retried.
// This includes network timeouts, temporary unavailability, and other transient conditions.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check if context was cancelled - not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_NETWORK_TIMEOUT,
			ERR_NETWORK_ERROR,
			ERR_SERVICE_UNAVAILABLE:
			return true
		case ERR_NETWORK_CONNECTION_REFUSED:
			// Connection refused might be retryable if the node is starting up
			return true
		case ERR_NETWORK_INVALID_RESPONSE:
			return false
		}
	}

	return false
}

// IsNetworkError determines if an error is network-related.
// This includes timeouts, connection failures, and invalid responses.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error is network-related
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_NETWORK_ERROR,
			ERR_NETWORK_TIMEOUT,
			ERR_NETWORK_CONNECTION_REFUSED,
			ERR_NETWORK_INVALID_RESPONSE:
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	networkStrings := []string{
		"network",
		"connection",
		"timeout",
		"dial tcp",
		"no such host",
		"connection refused",
		"connection reset",
		"broken pipe",
		"eof",
		"http",
	}

	for _, s := range networkStrings {
		if strings.Contains(errStr, s) {
			return true
		}
	}

	return false
}

// IsContextError determines if an error is related to context cancellation or deadline.
func IsContextError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var tErr *Error
	if As(err, &tErr) {
		if tErr.Code() == ERR_CONTEXT_CANCELED || tErr.Code() == ERR_CONTEXT {
			return true
		}
	}

	return false
}

// IsChainError reports whether err was raised while validating header contents,
// as opposed to a caller or transport problem.
func IsChainError(err error) bool {
	var tErr *Error
	if !As(err, &tErr) {
		return false
	}

	code := tErr.Code()

	return code >= 10 && code <= 19
}

// GetErrorCategory returns a string representing the category of the error.
// This is used as the reason label on verifier metrics.
//
// Parameters:
//   - err: Error to categorize
//
// Returns:
//   - string: Error category (e.g., "context", "chain", "network", "argument", "unknown")
func GetErrorCategory(err error) string {
	if err == nil {
		return "none"
	}

	if IsContextError(err) {
		return "context"
	}

	var tErr *Error
	if As(err, &tErr) {
		code := tErr.Code()

		switch {
		case code == ERR_INVALID_ARGUMENT:
			return "argument"
		case code >= 10 && code <= 19:
			return strings.ToLower(code.String())
		case code >= 50 && code <= 59:
			return "service"
		case code >= 110 && code <= 119:
			return "network"
		}
	}

	if IsNetworkError(err) {
		return "network"
	}

	return "unknown"
}
