package contracts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies aggregation failures so callers can branch without string matching
type ErrorKind string

const (
	KindInput             ErrorKind = "INPUT"              // required input missing, no network call made
	KindAuthExpired       ErrorKind = "AUTH_EXPIRED"       // session cookie rejected upstream
	KindUpstreamTransport ErrorKind = "UPSTREAM_TRANSPORT" // non-2xx or network failure
	KindUpstreamShape     ErrorKind = "UPSTREAM_SHAPE"     // 2xx body matched no known envelope
	KindCanceled          ErrorKind = "CANCELED"           // caller context canceled or timed out
)

// Error is the aggregation error taxonomy
// ⭐ SSOT: 집계 에러 분류는 여기서만
type Error struct {
	Kind       ErrorKind
	Message    string // user-facing
	Status     int    // upstream HTTP status (transport errors), 0 if none
	StatusText string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to the status returned by the inbound trigger
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInput:
		return http.StatusBadRequest
	case KindAuthExpired:
		return http.StatusUnauthorized
	case KindUpstreamTransport:
		return http.StatusBadGateway
	case KindCanceled:
		if errors.Is(e.Err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewInputError reports a missing or invalid caller input
func NewInputError(message string) *Error {
	return &Error{Kind: KindInput, Message: message}
}

// NewAuthExpiredError reports an upstream login page instead of data
func NewAuthExpiredError() *Error {
	return &Error{Kind: KindAuthExpired, Message: "session cookie is invalid or expired, please log in again"}
}

// NewTransportError reports a non-2xx status (status>0) or a network failure (status=0)
func NewTransportError(status int, statusText string, err error) *Error {
	msg := "upstream network error"
	if status > 0 {
		msg = fmt.Sprintf("upstream network error: %d %s", status, statusText)
	}
	return &Error{Kind: KindUpstreamTransport, Message: msg, Status: status, StatusText: statusText, Err: err}
}

// NewShapeError reports a 2xx body that matched no known envelope
func NewShapeError(detail string) *Error {
	return &Error{Kind: KindUpstreamShape, Message: "upstream returned an unexpected format", Err: errors.New(detail)}
}

// NewCanceledError wraps a context error
func NewCanceledError(err error) *Error {
	return &Error{Kind: KindCanceled, Message: "aggregation canceled", Err: err}
}

// KindOf extracts the kind of err, or "" for errors outside the taxonomy
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// AsCanceled converts a bare context error into the taxonomy; other errors pass through
func AsCanceled(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCanceledError(err)
	}
	return err
}
