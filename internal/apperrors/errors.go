// Package apperrors classifies failures into the small set of kinds the API
// surfaces to clients.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindNotFound        Kind = "NOT_FOUND"
	KindPermission      Kind = "FORBIDDEN"
	KindConflict        Kind = "CONFLICT"
	KindTransient       Kind = "TRANSIENT_ERROR"
	KindUnauthenticated Kind = "UNAUTHORIZED"
)

// Error carries a kind, an i18n message key and optional data for the
// client. Message is the developer-facing description used in logs.
type Error struct {
	Kind    Kind
	Key     string
	Message string
	Data    interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithData attaches a payload returned alongside the error.
func (e *Error) WithData(data interface{}) *Error {
	e.Data = data
	return e
}

func newError(kind Kind, key, message string, cause error) *Error {
	return &Error{Kind: kind, Key: key, Message: message, cause: cause}
}

func Validation(key, message string) *Error {
	return newError(KindValidation, key, message, nil)
}

func NotFound(key, message string) *Error {
	return newError(KindNotFound, key, message, nil)
}

func Permission(key, message string) *Error {
	return newError(KindPermission, key, message, nil)
}

func Conflict(key, message string) *Error {
	return newError(KindConflict, key, message, nil)
}

func Unauthenticated(key, message string) *Error {
	return newError(KindUnauthenticated, key, message, nil)
}

// Transient wraps an infrastructure failure that is safe to retry.
func Transient(key, message string, cause error) *Error {
	return newError(KindTransient, key, message, cause)
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind Kind, key, message string, cause error) *Error {
	return newError(kind, key, message, cause)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf classifies err. Anything unclassified is treated as transient.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindTransient
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err came from a unique constraint, on
// either postgres driver or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
