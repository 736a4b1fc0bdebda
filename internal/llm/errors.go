package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Reasons reported by ServiceError.
const (
	ReasonAuthentication    = "authentication"
	ReasonRejected          = "rejected"
	ReasonContextLength     = "context_length_exceeded"
	ReasonMalformedResponse = "malformed_response"
)

// ServiceError is a non-retryable rejection by the completion service.
type ServiceError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion service rejected request (%s, HTTP %d): %s", e.Reason, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion service rejected request (%s): %s", e.Reason, e.Message)
}

// TransportError reports a failure that persisted across every attempt.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// statusError is a retryable HTTP status.
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// classifyStatus maps a non-2xx status to a retryable *statusError or a
// permanent *ServiceError.
func classifyStatus(code int, body string) error {
	body = truncate(strings.TrimSpace(body), 300)

	if isContextLengthError(body) {
		return &ServiceError{StatusCode: code, Reason: ReasonContextLength, Message: body}
	}

	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return &statusError{StatusCode: code, Body: body}
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return &ServiceError{StatusCode: code, Reason: ReasonAuthentication, Message: body}
	default:
		return &ServiceError{StatusCode: code, Reason: ReasonRejected, Message: body}
	}
}

func isContextLengthError(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "context_length_exceeded") ||
		strings.Contains(lower, "maximum context length")
}

// isRetryableTransport reports whether a transport-level error is worth
// another attempt.
func isRetryableTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		// per-attempt timeout; the caller checks the parent context separately
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection reset")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
