package response

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "storefront/internal/errors"
	"storefront/internal/infrastructure/logger"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"

	genericInternalMessage = "an unexpected error occurred"
)

// ErrorBody is the payload of every non-2xx response.
type ErrorBody struct {
	Error   string                       `json:"error"`
	Code    string                       `json:"code"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
	TraceID string                       `json:"traceId,omitempty"`
}

type Writer struct {
	logger         *zap.Logger
	exposeInternal bool
}

// NewWriter builds the shared response writer. exposeInternal keeps the
// underlying message of internal errors, which is only wanted outside production.
func NewWriter(logger *zap.Logger, exposeInternal bool) *Writer {
	return &Writer{logger: logger, exposeInternal: exposeInternal}
}

func (w *Writer) JSON(rw http.ResponseWriter, status int, data any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(rw).Encode(data); err != nil {
		w.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (w *Writer) Validation(rw http.ResponseWriter, r *http.Request, message string, details ...apperrors.ValidationDetail) {
	w.JSON(rw, http.StatusBadRequest, ErrorBody{
		Error:   message,
		Code:    CodeValidation,
		Details: details,
		TraceID: TraceID(r.Context()),
	})
}

func (w *Writer) Fail(rw http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.JSON(rw, status, ErrorBody{Error: message, Code: code, TraceID: TraceID(r.Context())})
}

// Error maps a typed application error onto its HTTP status.
func (w *Writer) Error(rw http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), w.logger)

	if ve, ok := apperrors.IsValidationError(err); ok {
		w.Validation(rw, r, ve.Message, ve.Details...)
		return
	}
	if nfe, ok := apperrors.IsNotFoundError(err); ok {
		w.Fail(rw, r, http.StatusNotFound, CodeNotFound, nfe.Message)
		return
	}
	if ce, ok := apperrors.IsConflictError(err); ok {
		w.Fail(rw, r, http.StatusConflict, codeOr(ce.Code, CodeConflict), ce.Message)
		return
	}
	if ue, ok := apperrors.IsUnauthorizedError(err); ok {
		w.Fail(rw, r, http.StatusUnauthorized, codeOr(ue.Code, CodeUnauthorized), ue.Message)
		return
	}
	if fe, ok := apperrors.IsForbiddenError(err); ok {
		w.Fail(rw, r, http.StatusForbidden, CodeForbidden, fe.Message)
		return
	}

	log.Error("unexpected error", zap.Error(err))
	message := genericInternalMessage
	if ie, ok := apperrors.IsInternalError(err); ok && w.exposeInternal {
		message = ie.Error()
	}
	w.Fail(rw, r, http.StatusInternalServerError, CodeInternal, message)
}

// DecodeJSON decodes the request body into dst and writes a validation
// error when the body is malformed. It reports whether decoding succeeded.
func (w *Writer) DecodeJSON(rw http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.FromContext(r.Context(), w.logger).Warn("invalid JSON body", zap.Error(err))
		w.Validation(rw, r, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return true
}

func codeOr(code, fallback string) string {
	if code == "" {
		return fallback
	}
	return code
}
