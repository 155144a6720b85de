package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrCircuitOpen is returned without invoking the wrapped operation when the
// named circuit is open and its recovery window has not elapsed.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// StatusError carries an HTTP status code from the external service so the
// retry layer can classify it.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("external service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("external service returned %d", e.StatusCode)
}

// NewStatusError creates a StatusError for the given HTTP status code.
func NewStatusError(statusCode int, message string) *StatusError {
	return &StatusError{StatusCode: statusCode, Message: message}
}

// retryableStatusCodes are always retried.
var retryableStatusCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// permanentStatusCodes are never retried.
var permanentStatusCodes = map[int]bool{
	400: true,
	401: true,
	403: true,
	404: true,
	422: true,
}

// IsRetryable classifies an error. Network resets and timeouts and HTTP
// 429/5xx are retryable; 4xx (other than 429) are permanent; unknown errors
// default to retryable unless an explicit allow-list restricts them.
func IsRetryable(err error, allowedCodes []int) bool {
	if err == nil {
		return false
	}

	// An aborted context is never worth retrying.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if permanentStatusCodes[statusErr.StatusCode] {
			return false
		}
		if retryableStatusCodes[statusErr.StatusCode] {
			return true
		}
		if len(allowedCodes) > 0 {
			for _, code := range allowedCodes {
				if code == statusErr.StatusCode {
					return true
				}
			}
			return false
		}
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	return true
}
