package response

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "storefront/internal/errors"
)

// PathID parses the named chi URL parameter as a positive integer id. It
// writes a validation error and returns false when the value is malformed.
func (w *Writer) PathID(rw http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		w.Validation(rw, r, "invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}
