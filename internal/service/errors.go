package service

import (
	"errors"
	"net/http"
)

// Kind classifies a failure returned by the service layer.
type Kind string

const (
	KindDuplicateUser      Kind = "DUPLICATE_USER"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindNotAuthenticated   Kind = "NOT_AUTHENTICATED"
	KindUserNotFound       Kind = "USER_NOT_FOUND"
	KindInvalidToken       Kind = "INVALID_TOKEN" // never leaves Identify
	KindOperationFailed    Kind = "OPERATION_FAILED"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindForbidden          Kind = "FORBIDDEN"
	KindSkillNotFound      Kind = "SKILL_NOT_FOUND"
	KindDuplicateSkill     Kind = "DUPLICATE_SKILL"
)

var messages = map[Kind]string{
	KindDuplicateUser:      "user already exists",
	KindInvalidCredentials: "invalid credentials",
	KindNotAuthenticated:   "not authenticated",
	KindUserNotFound:       "user not found",
	KindInvalidToken:       "invalid token",
	KindOperationFailed:    "operation failed",
	KindInvalidInput:       "invalid input",
	KindForbidden:          "forbidden",
	KindSkillNotFound:      "skill not found",
	KindDuplicateSkill:     "skill already exists",
}

var statuses = map[Kind]int{
	KindDuplicateUser:      http.StatusConflict,
	KindInvalidCredentials: http.StatusUnauthorized,
	KindNotAuthenticated:   http.StatusUnauthorized,
	KindUserNotFound:       http.StatusNotFound,
	KindInvalidToken:       http.StatusUnauthorized,
	KindOperationFailed:    http.StatusInternalServerError,
	KindInvalidInput:       http.StatusBadRequest,
	KindForbidden:          http.StatusForbidden,
	KindSkillNotFound:      http.StatusNotFound,
	KindDuplicateSkill:     http.StatusConflict,
}

// Error is the only error type the service layer returns.  Its message is
// fixed per Kind, so callers can render it without leaking the underlying
// cause; Detail optionally narrows an InvalidInput error to the offending
// field.  The cause stays reachable through Unwrap for logging.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg, ok := messages[e.Kind]
	if !ok {
		msg = messages[KindOperationFailed]
	}
	if e.Detail != "" {
		return msg + ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Extensions is picked up by the GraphQL engine and rendered under
// "extensions" in the error payload.
func (e *Error) Extensions() map[string]any {
	return map[string]any{"code": string(e.Kind)}
}

// HTTPStatus maps the kind onto a REST status code.
func (e *Error) HTTPStatus() int {
	if s, ok := statuses[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

func invalidInput(detail string) *Error {
	return &Error{Kind: KindInvalidInput, Detail: detail}
}

// KindOf returns the Kind of err, or KindOperationFailed for errors that
// did not originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOperationFailed
}

// IsKind reports whether err is a service Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
