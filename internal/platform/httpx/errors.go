// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. The
// response carries the stable error code and a user-safe message; the raw
// cause stays server-side.
func RespondError(w http.ResponseWriter, err error) {
	var vErr *shared.ValidationErrors
	var refErr *shared.ReferentialConflictError
	switch {
	case errors.As(err, &vErr):
		Problem(w, http.StatusUnprocessableEntity, shared.CodeValidation, vErr.Error())
	case errors.As(err, &refErr):
		Problem(w, http.StatusConflict, shared.CodeReferential, refErr.Error())
	case errors.Is(err, shared.ErrInvalidStateTransition):
		Problem(w, http.StatusConflict, shared.CodeInvalidState, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidStatus):
		Problem(w, http.StatusBadRequest, shared.CodeInvalidStatus, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrDuplicateKey), errors.Is(err, shared.ErrSequenceExhausted):
		Problem(w, http.StatusConflict, shared.CodeDuplicate, shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, shared.CodeNotFound, shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, shared.CodePersistence, shared.UserSafeMessage(err))
	}
}
