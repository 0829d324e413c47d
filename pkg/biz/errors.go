package biz

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a business error.
type Kind string

// Error kinds.
const (
	KindAuthentication Kind = "AuthenticationError"
	KindPermission     Kind = "PermissionError"
	KindNotFound       Kind = "NotFoundError"
	KindConflict       Kind = "ConflictError"
	KindValidation     Kind = "ValidationError"
	KindRateLimit      Kind = "RateLimitError"
	KindServer         Kind = "ServerError"
	KindAI             Kind = "AiError"
	KindBusiness       Kind = "BizError"
)

// Error is a business error that maps to an HTTP status and an envelope code.
type Error struct {
	Kind    Kind
	Code    Code
	Status  int
	Message string
	ResetAt *time.Time
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Envelope converts the error into a failed response envelope.
func (e *Error) Envelope() Result[any] {
	r := Fail(e.Code, e.Message)
	if e.ResetAt != nil {
		r.Data = map[string]any{"resetAt": e.ResetAt}
	}
	return r
}

func newError(kind Kind, status int, code Code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Message: msg}
}

// Unauthorized returns a 401 error.
func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "Unauthorized"
	}
	return newError(KindAuthentication, http.StatusUnauthorized, Code(http.StatusUnauthorized), msg)
}

// Forbidden returns a 403 error.
func Forbidden(msg string) *Error {
	return newError(KindPermission, http.StatusForbidden, Code(http.StatusForbidden), msg)
}

// NotFound returns a 404 error.
func NotFound(msg string) *Error {
	return newError(KindNotFound, http.StatusNotFound, Code(http.StatusNotFound), msg)
}

// Conflict returns a 409 error.
func Conflict(msg string) *Error {
	return newError(KindConflict, http.StatusConflict, Code(http.StatusConflict), msg)
}

// Invalid returns a validation error. It is answered with HTTP 400 and the
// ValidateError envelope code.
func Invalid(msg string) *Error {
	if msg == "" {
		msg = "validateError"
	}
	return newError(KindValidation, http.StatusBadRequest, ValidateError, msg)
}

// RateLimited returns a 429 error that clears at resetAt.
func RateLimited(msg string, resetAt time.Time) *Error {
	e := newError(KindRateLimit, http.StatusTooManyRequests, Code(http.StatusTooManyRequests), msg)
	e.ResetAt = &resetAt
	return e
}

// Internal returns a 500 error wrapping cause.
func Internal(msg string, cause error) *Error {
	if msg == "" {
		msg = "Internal Server Error"
	}
	e := newError(KindServer, http.StatusInternalServerError, SysError, msg)
	e.Cause = cause
	return e
}

// Business returns a generic business error answered with HTTP 200.
func Business(msg string) *Error {
	return newError(KindBusiness, http.StatusOK, BizError, msg)
}

// AI returns an AI subsystem error with one of the 3000x codes.
func AI(code Code, cause error) *Error {
	msg := "ai error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindAI, Code: code, Status: http.StatusInternalServerError, Message: msg, Cause: cause}
}

// StatusKind maps an HTTP-like status to its error kind.
func StatusKind(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindPermission
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusTooManyRequests:
		return KindRateLimit
	case int(AIError), int(AIAgentToolError), int(AIChatError):
		return KindAI
	case http.StatusInternalServerError:
		return KindServer
	default:
		return KindBusiness
	}
}

// From extracts a *Error from err, wrapping unknown errors as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return Internal("", err)
}
