package httpx

import (
	"errors"
	"net/http"

	"github.com/lyceum-sms/lyceum-sms/internal/shared"
)

// RespondError maps domain errors to failure envelopes.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, shared.ErrDuplicate):
		Fail(w, http.StatusConflict, "duplicate", "duplicate entry")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, http.StatusBadRequest, "invalid_credentials", "invalid email or password")
	default:
		Fail(w, http.StatusInternalServerError, "internal_error", "")
	}
}

// RespondValidation reports a payload validation failure.
func RespondValidation(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, "validation_failed", message)
}
