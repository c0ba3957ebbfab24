package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"order-backoffice/internal/app"
	"order-backoffice/internal/core"
)

type createQuotationResponse struct {
	Success                       bool            `json:"success"`
	DocumentNumber                int64           `json:"document_number,omitempty"`
	RequiresInventoryConfirmation bool            `json:"requires_inventory_confirmation,omitempty"`
	Shortfall                     *core.Shortfall `json:"shortfall,omitempty"`
	Message                       string          `json:"message"`
}

// apiCreateQuotation handles POST /api/quotations.
// An inventory shortfall is answered with 200 and success=false so the client can
// ask the user and resubmit with override_inventory_check.
func (h *Handler) apiCreateQuotation(w http.ResponseWriter, r *http.Request) {
	id := identityFromContext(r.Context())
	if id == nil {
		writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	var req app.CreateQuotationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.CreateQuotation(r.Context(), req, *id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, createQuotationResponse{
		Success:                       !res.RequiresInventoryConfirmation,
		DocumentNumber:                res.DocumentNumber,
		RequiresInventoryConfirmation: res.RequiresInventoryConfirmation,
		Shortfall:                     res.Shortfall,
		Message:                       res.Message,
	})
}

// apiGetQuotation handles GET /api/quotations/{number}?tag=N.
func (h *Handler) apiGetQuotation(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil || number <= 0 {
		writeError(w, r, "quotation number must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	tag := 0
	if raw := r.URL.Query().Get("tag"); raw != "" {
		tag, err = strconv.Atoi(raw)
		if err != nil || tag <= 0 {
			writeError(w, r, "tag must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}

	q, err := h.svc.GetQuotation(r.Context(), tag, number)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, q)
}
