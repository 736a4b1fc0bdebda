package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code      int
		body      string
		retryable bool
		reason    string
	}{
		{code: http.StatusRequestTimeout, retryable: true},
		{code: http.StatusTooManyRequests, retryable: true},
		{code: http.StatusInternalServerError, retryable: true},
		{code: http.StatusServiceUnavailable, retryable: true},
		{code: http.StatusUnauthorized, reason: ReasonAuthentication},
		{code: http.StatusForbidden, reason: ReasonAuthentication},
		{code: http.StatusNotFound, reason: ReasonRejected},
		{code: http.StatusBadRequest, body: "This model's maximum context length is 8192 tokens", reason: ReasonContextLength},
		{code: http.StatusInternalServerError, body: "context_length_exceeded", reason: ReasonContextLength},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", tt.code, tt.reason), func(t *testing.T) {
			err := classifyStatus(tt.code, tt.body)
			var svcErr *ServiceError
			if tt.retryable {
				assert.False(t, errors.As(err, &svcErr))
				return
			}
			if assert.ErrorAs(t, err, &svcErr) {
				assert.Equal(t, tt.reason, svcErr.Reason)
				assert.Equal(t, tt.code, svcErr.StatusCode)
			}
		})
	}
}

func TestIsRetryableTransport(t *testing.T) {
	assert.True(t, isRetryableTransport(io.EOF))
	assert.True(t, isRetryableTransport(fmt.Errorf("read: %w", io.ErrUnexpectedEOF)))
	assert.True(t, isRetryableTransport(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)))
	assert.True(t, isRetryableTransport(fmt.Errorf("read: %w", syscall.ECONNRESET)))
	assert.True(t, isRetryableTransport(context.DeadlineExceeded))
	assert.False(t, isRetryableTransport(errors.New("unsupported protocol scheme")))
}

func TestErrorMessages(t *testing.T) {
	svc := &ServiceError{StatusCode: 401, Reason: ReasonAuthentication, Message: "bad key"}
	assert.Contains(t, svc.Error(), "HTTP 401")
	assert.Contains(t, svc.Error(), "bad key")

	tErr := &TransportError{Attempts: 3, Err: io.EOF}
	assert.Contains(t, tErr.Error(), "3 attempt")
	assert.ErrorIs(t, tErr, io.EOF)
}
