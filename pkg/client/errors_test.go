package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestTranslateStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{
			name:     "401 maps to unauthenticated",
			status:   http.StatusUnauthorized,
			body:     `{"detail": "token expired"}`,
			wantKind: KindUnauthenticated,
			wantMsg:  "token expired",
		},
		{
			name:     "404 maps to not found",
			status:   http.StatusNotFound,
			body:     `{"detail": "business not found"}`,
			wantKind: KindNotFound,
			wantMsg:  "business not found",
		},
		{
			name:     "408 maps to timeout",
			status:   http.StatusRequestTimeout,
			wantKind: KindTimeout,
		},
		{
			name:     "400 maps to invalid request",
			status:   http.StatusBadRequest,
			body:     `{"detail": "missing business_id"}`,
			wantKind: KindInvalidRequest,
			wantMsg:  "missing business_id",
		},
		{
			name:     "422 maps to invalid request",
			status:   http.StatusUnprocessableEntity,
			wantKind: KindInvalidRequest,
		},
		{
			name:     "500 maps to upstream unavailable",
			status:   http.StatusInternalServerError,
			wantKind: KindUpstreamUnavailable,
		},
		{
			name:     "503 maps to upstream unavailable",
			status:   http.StatusServiceUnavailable,
			wantKind: KindUpstreamUnavailable,
		},
		{
			name:     "message field is accepted",
			status:   http.StatusBadRequest,
			body:     `{"message": "bad input"}`,
			wantKind: KindInvalidRequest,
			wantMsg:  "bad input",
		},
		{
			name:     "non-JSON body falls back to default message",
			status:   http.StatusInternalServerError,
			body:     "<html>gateway error</html>",
			wantKind: KindUpstreamUnavailable,
			wantMsg:  "upstream error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := translateStatus(tt.status, []byte(tt.body))
			if apiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", apiErr.Kind, tt.wantKind)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if tt.wantMsg != "" && apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestTranslateTransport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
	}{
		{
			name:     "deadline exceeded maps to timeout",
			err:      fmt.Errorf("request: %w", context.DeadlineExceeded),
			wantKind: KindTimeout,
		},
		{
			name:     "cancellation maps to unknown",
			err:      fmt.Errorf("request: %w", context.Canceled),
			wantKind: KindUnknown,
		},
		{
			name:     "connection refused maps to upstream unavailable",
			err:      errors.New("dial tcp 127.0.0.1:9999: connect: connection refused"),
			wantKind: KindUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := translateTransport(tt.err)
			if apiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", apiErr.Kind, tt.wantKind)
			}
			if !errors.Is(apiErr, tt.err) {
				t.Error("translated error should wrap the transport error")
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	apiErr := &APIError{Kind: KindNotFound, StatusCode: 404, Message: "business not found"}
	msg := apiErr.Error()

	if !strings.Contains(msg, "not_found") {
		t.Errorf("Error() = %q, want kind in message", msg)
	}
	if !strings.Contains(msg, "404") {
		t.Errorf("Error() = %q, want status code in message", msg)
	}

	noStatus := &APIError{Kind: KindTimeout, Message: "request deadline exceeded"}
	if strings.Contains(noStatus.Error(), "status") {
		t.Errorf("Error() = %q, should omit status when unset", noStatus.Error())
	}
}

func TestIsKind(t *testing.T) {
	apiErr := &APIError{Kind: KindTimeout, Message: "slow upstream"}
	wrapped := fmt.Errorf("invoke: %w", apiErr)

	if !IsKind(wrapped, KindTimeout) {
		t.Error("IsKind should see through wrapping")
	}
	if IsKind(wrapped, KindNotFound) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(errors.New("plain"), KindUnknown) {
		t.Error("IsKind should reject non-APIError values")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout is retryable", &APIError{Kind: KindTimeout}, true},
		{"upstream unavailable is retryable", &APIError{Kind: KindUpstreamUnavailable}, true},
		{"unauthenticated is not retryable", &APIError{Kind: KindUnauthenticated}, false},
		{"not found is not retryable", &APIError{Kind: KindNotFound}, false},
		{"invalid request is not retryable", &APIError{Kind: KindInvalidRequest}, false},
		{"unknown is not retryable", &APIError{Kind: KindUnknown}, false},
		{"plain error is not retryable", errors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
