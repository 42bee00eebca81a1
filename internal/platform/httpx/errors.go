package httpx

import (
	"errors"
	"net/http"

	"github.com/atlas-plan/atlas-plan/internal/shared"
)

// ErrDuplicate is returned by repositories on uniqueness violations.
var ErrDuplicate = errors.New("duplicate entry")

// RespondError maps domain errors to HTTP responses using RFC7807.
// Upstream fetch failures fall through to a 502 so the UI sees them
// unchanged rather than reinterpreted.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrNotReady):
		Problem(w, http.StatusServiceUnavailable, "Not Ready", err.Error())
	case errors.Is(err, shared.ErrInvalidInput):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
