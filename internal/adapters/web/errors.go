package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"order-backoffice/internal/core"
	"order-backoffice/internal/logging"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Message:   message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps engine errors onto HTTP statuses. Only the caller-safe
// message leaves the process; causes are logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	message := "an unexpected error occurred"
	var ee *core.EngineError
	if errors.As(err, &ee) {
		message = ee.Message
	}

	switch {
	case errors.Is(err, core.ErrValidation):
		writeError(w, r, message, "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, "not found", "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrAllocationConflict):
		writeError(w, r, message, "ALLOCATION_CONFLICT", http.StatusConflict)
	case errors.Is(err, core.ErrPersistence):
		writeError(w, r, message, "PERSISTENCE_FAILURE", http.StatusInternalServerError)
	default:
		logging.LogError(h.logger.WithField("request_id", requestIDFromContext(r.Context())),
			"web", "writeServiceError", r.Method+" "+r.URL.Path, nil, err)
		writeError(w, r, message, "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
