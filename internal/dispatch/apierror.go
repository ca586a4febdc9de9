package dispatch

import (
	"errors"
	"strings"
)

// APIError wraps a remote API failure with classification metadata.
type APIError struct {
	// StatusCode is the HTTP status code from the API, 0 on transport failure.
	StatusCode int
	// Message is the error description, usually the response body.
	Message string
	// Permanent indicates the request would not succeed if reissued.
	Permanent bool
}

func (e *APIError) Error() string {
	return "api: " + e.Message
}

// IsPermanent reports whether the error is a permanent failure.
func IsPermanent(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Permanent
	}
	return false
}

// ClassifyHTTPError creates an APIError from a non-2xx status code and
// response body. The classification is diagnostic only; this client never
// retries.
func ClassifyHTTPError(statusCode int, body string) *APIError {
	ae := &APIError{
		StatusCode: statusCode,
		Message:    body,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		// Not an error.
		return nil

	case statusCode == 400:
		ae.Permanent = containsPermanentIndicator(body)

	case statusCode == 401, statusCode == 403, statusCode == 404:
		ae.Permanent = true

	case statusCode == 429:
		// Rate limited - transient.
		ae.Permanent = false

	case statusCode >= 500:
		ae.Permanent = containsPermanentServerIndicator(body)

	default:
		ae.Permanent = statusCode >= 400 && statusCode < 500
	}

	return ae
}

// containsPermanentIndicator checks if a 400 response body indicates a
// failure that will not change on a later attempt.
func containsPermanentIndicator(body string) bool {
	lower := strings.ToLower(body)
	permanentPatterns := []string{
		"invalid recipient",
		"invalid email",
		"does not exist",
		"unknown template",
		"bad request",
		"validation error",
		"invalid address",
	}
	for _, pattern := range permanentPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// containsPermanentServerIndicator checks if a 5xx response body indicates
// a permanent server-side failure.
func containsPermanentServerIndicator(body string) bool {
	lower := strings.ToLower(body)
	permanentPatterns := []string{
		"invalid api key",
		"authentication failed",
		"account suspended",
		"account disabled",
		"unauthorized",
	}
	for _, pattern := range permanentPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
