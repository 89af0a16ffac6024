package resource

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	msgUnableToConnect = "Unable to connect to the server. Please check your internet connection."
	msgNetworkFailed   = "Network connection failed. Please check your internet connection."
)

// connectHints mark transport errors where the server could not be reached at all.
var connectHints = []string{"fetch", "network", "connection", "connect", "dial", "refused", "no such host"}

// NetworkError means the backend never answered.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string { return e.Message }
func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError wraps a non-2xx response.
type BackendError struct {
	Message    string
	StatusCode int
	StatusText string
	Detail     string // message field of the response body, if any
}

func (e *BackendError) Error() string { return e.Message }

// NotFoundError is a 404 on a lookup that requires the record to exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func newNetworkError(err error) *NetworkError {
	msg := msgNetworkFailed
	lower := strings.ToLower(err.Error())
	for _, hint := range connectHints {
		if strings.Contains(lower, hint) {
			msg = msgUnableToConnect
			break
		}
	}
	return &NetworkError{Message: msg, Err: err}
}

func newBackendError(errorContext string, status int, statusText, detail string) *BackendError {
	msg := fmt.Sprintf("Request failed: %s", statusText)
	if errorContext != "" {
		msg = fmt.Sprintf("Failed to %s: %s", errorContext, statusText)
	}
	return &BackendError{Message: msg, StatusCode: status, StatusText: statusText, Detail: detail}
}

func newNotFoundError(opts Options) *NotFoundError {
	subject := opts.Resource
	if subject == "" {
		subject = opts.ErrorContext
	}
	if subject == "" {
		subject = "Resource"
	}
	return &NotFoundError{Message: fmt.Sprintf("%s not found", subject)}
}

// IsNotFound reports whether err is a NotFoundError or a 404 BackendError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict reports whether the backend refused a write because of a unique
// index (409) or a stale version (412).
func IsConflict(err error) bool {
	code := StatusCode(err)
	return code == http.StatusConflict || code == http.StatusPreconditionFailed
}

// IsStale reports whether a conditional write lost against a concurrent update.
func IsStale(err error) bool {
	return StatusCode(err) == http.StatusPreconditionFailed
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusCode returns the HTTP status of a BackendError, 0 otherwise.
func StatusCode(err error) int {
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}
