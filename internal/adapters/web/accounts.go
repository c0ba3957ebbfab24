package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"order-backoffice/internal/app"
)

// apiCreateAccount handles POST /api/accounts.
func (h *Handler) apiCreateAccount(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())
	if id == nil {
		writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	var req app.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.CreateCustomerAccount(r.Context(), req, *id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	type response struct {
		Success bool `json:"success"`
		*app.AccountResult
	}
	writeJSON(w, response{Success: true, AccountResult: res})
}

// apiGetAccount handles GET /api/accounts/{code}, where code is dotted, e.g. 1.3.12.
func (h *Handler) apiGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.svc.GetCustomerAccount(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, acc)
}
