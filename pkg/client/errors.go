package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// Kind classifies an upstream failure into the stable taxonomy callers
// branch on.
type Kind string

const (
	// KindUnauthenticated means the upstream rejected the service token.
	KindUnauthenticated Kind = "unauthenticated"

	// KindNotFound means the requested resource does not exist.
	KindNotFound Kind = "not_found"

	// KindInvalidRequest means the upstream rejected the request as malformed (4xx).
	KindInvalidRequest Kind = "invalid_request"

	// KindUpstreamUnavailable means a 5xx response or exhausted retries.
	KindUpstreamUnavailable Kind = "upstream_unavailable"

	// KindTimeout means the transport or deadline timed out.
	KindTimeout Kind = "timeout"

	// KindUnknown means an unexpected or unparseable failure.
	KindUnknown Kind = "unknown"
)

// APIError is the typed error surfaced to callers. It preserves the
// upstream status code and message but never internal exception text.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("voicebot %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("voicebot %s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// translateStatus maps an upstream HTTP status and body to a typed error.
func translateStatus(status int, body []byte) *APIError {
	message := upstreamMessage(body)

	switch {
	case status == http.StatusUnauthorized:
		if message == "" {
			message = "authentication rejected"
		}
		return &APIError{Kind: KindUnauthenticated, StatusCode: status, Message: message}
	case status == http.StatusNotFound:
		if message == "" {
			message = "resource not found"
		}
		return &APIError{Kind: KindNotFound, StatusCode: status, Message: message}
	case status == http.StatusRequestTimeout:
		if message == "" {
			message = "upstream request timeout"
		}
		return &APIError{Kind: KindTimeout, StatusCode: status, Message: message}
	case status >= 400 && status < 500:
		if message == "" {
			message = "request rejected"
		}
		return &APIError{Kind: KindInvalidRequest, StatusCode: status, Message: message}
	case status >= 500:
		if message == "" {
			message = "upstream error"
		}
		return &APIError{Kind: KindUpstreamUnavailable, StatusCode: status, Message: message}
	default:
		return &APIError{Kind: KindUnknown, StatusCode: status, Message: "unexpected response"}
	}
}

// translateTransport maps a transport-level failure to a typed error.
func translateTransport(err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Message: "request deadline exceeded", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Message: "transport timeout", Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return &APIError{Kind: KindUnknown, Message: "request cancelled", Err: err}
	}

	return &APIError{Kind: KindUpstreamUnavailable, Message: "upstream unreachable", Err: err}
}

// upstreamMessage extracts a human-readable message from an upstream
// error body. The Voice Bot API reports errors as {"detail": ...} or
// {"message": ...}.
func upstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Message
}

// isRetryable reports whether a failure class is worth retrying.
// Timeouts, transport failures and 5xx responses are transient; 4xx
// responses (auth included) will deterministically fail again, so
// retrying them only wastes budget. Authentication failures are handled
// by the single renewal retry layered above the backoff loop.
func isRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.Kind {
	case KindTimeout, KindUpstreamUnavailable:
		return true
	default:
		return false
	}
}
