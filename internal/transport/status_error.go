package transport

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/trustblock/trustblock-cli/internal/failures"
)

const (
	statusErrorTemplateConstant          = "%s: %s returned status %d: %s"
	statusErrorEmptyBodyTemplateConstant = "%s: %s returned status %d"
)

// StatusError reports an unexpected HTTP status together with the verbatim response body.
type StatusError struct {
	Operation  string
	Endpoint   string
	StatusCode int
	Body       string
}

// NewStatusError constructs a StatusError from a raw body.
func NewStatusError(operation string, endpoint string, statusCode int, body []byte) StatusError {
	return StatusError{Operation: operation, Endpoint: endpoint, StatusCode: statusCode, Body: strings.TrimSpace(string(body))}
}

// Error describes the unexpected status.
func (statusError StatusError) Error() string {
	if len(statusError.Body) == 0 {
		return fmt.Sprintf(statusErrorEmptyBodyTemplateConstant, statusError.Operation, statusError.Endpoint, statusError.StatusCode)
	}
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.Operation, statusError.Endpoint, statusError.StatusCode, statusError.Body)
}

// Unwrap maps 401 and 403 to an authorization failure, 409 to a conflict and
// every other status to an upstream failure.
func (statusError StatusError) Unwrap() error {
	switch statusError.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return failures.ErrAuthFailure
	case http.StatusConflict:
		return failures.ErrConflict
	default:
		return failures.ErrUpstreamFailure
	}
}
