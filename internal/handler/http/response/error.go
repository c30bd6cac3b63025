package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/apperr"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/validator"
)

// HandleError maps classified domain errors to HTTP responses. Field-level
// validation failures carry their details; anything unclassified is logged
// and hidden behind a 500.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	code := apperr.CodeOf(err)
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		writeError(w, http.StatusUnprocessableEntity, code, err.Error(), nil)
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, code, err.Error(), nil)
	case apperr.KindConflict, apperr.KindState:
		writeError(w, http.StatusConflict, code, err.Error(), nil)
	case apperr.KindStorageUnavailable:
		slog.Warn("Storage unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, code, apperr.ErrStorageUnavailable.Message, nil)
	case apperr.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, code, err.Error(), nil)
	case apperr.KindForbidden:
		writeError(w, http.StatusForbidden, code, err.Error(), nil)
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
