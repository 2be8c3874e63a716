package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind is the closed taxonomy every provider error is normalized into.
// Callers branch on kinds, never on provider-specific fields.
type ErrorKind string

const (
	// KindInvalidRequest covers malformed input: missing prompt, empty
	// messages, bad key format. Never retried.
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindAuth covers invalid or missing credentials (401/403). Never retried.
	KindAuth ErrorKind = "auth_error"

	// KindNotFound covers a missing resource or model (404). Never retried.
	KindNotFound ErrorKind = "not_found"

	// KindRateLimited covers provider 429s and local admission-gate
	// rejections. Provider 429s are retried with backoff; local rejections
	// are surfaced immediately.
	KindRateLimited ErrorKind = "rate_limited"

	// KindServiceUnavailable covers provider 5xx responses. Retried.
	KindServiceUnavailable ErrorKind = "service_unavailable"

	// KindNetwork covers connection resets and transport timeouts. Retried.
	KindNetwork ErrorKind = "network_error"

	// KindAborted covers caller cancellation and the client-side wall-clock
	// timeout. Never retried.
	KindAborted ErrorKind = "aborted"

	// KindUnknown covers everything else. Logged with the original message,
	// not retried.
	KindUnknown ErrorKind = "unknown"
)

// Error is the single error type surfaced by the LLM client and its
// provider adapters.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the retry engine may attempt the call again.
// Local admission-gate rejections carry KindRateLimited but are surfaced
// before any attempt, so they never reach the retry loop.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindServiceUnavailable, KindNetwork:
		return true
	default:
		return false
	}
}

// NewError builds a taxonomy error with a human-readable message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a taxonomy error preserving the underlying cause.
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the taxonomy kind from any error. Non-taxonomy errors
// report KindUnknown.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// Normalize maps an arbitrary error into the closed taxonomy. It is pure
// and idempotent: normalizing an already-normalized error returns it
// unchanged.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		return de
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindAborted, Message: "request aborted", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: KindNetwork, Message: "network failure: " + err.Error(), Err: err}
	}

	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}

// FromStatusCode maps a provider HTTP status into the taxonomy. Adapters
// call this after extracting the status from their SDK's error shape.
func FromStatusCode(status int, message string) *Error {
	var kind ErrorKind
	switch {
	case status == http.StatusBadRequest:
		kind = KindInvalidRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= http.StatusInternalServerError:
		kind = KindServiceUnavailable
	default:
		kind = KindUnknown
	}
	return &Error{Kind: kind, Message: message}
}

// HTTPStatus maps a taxonomy kind to the status code this service returns
// to its own clients. Provider internals never leak through.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindAborted:
		return http.StatusRequestTimeout
	case KindServiceUnavailable, KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
