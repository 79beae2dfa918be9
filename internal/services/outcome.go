// internal/services/outcome.go
package services

import (
	"github.com/javajoker/ideamarket-backend/internal/apperrors"
)

// outcomeOf turns an error into a metrics label.
func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return "validation"
	case apperrors.KindNotFound:
		return "not_found"
	case apperrors.KindPermission:
		return "permission"
	case apperrors.KindConflict:
		return "conflict"
	case apperrors.KindUnauthenticated:
		return "unauthenticated"
	default:
		return "error"
	}
}
