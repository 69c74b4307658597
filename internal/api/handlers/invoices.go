package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joshyycmechanical/fieldserve/internal/invoice"
)

type InvoiceHandler struct {
	svc *invoice.Service
}

func NewInvoiceHandler(svc *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	if woParam := r.URL.Query().Get("work_order_id"); woParam != "" {
		workOrderID, err := uuid.Parse(woParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid work_order_id")
			return
		}
		invoices, err := h.svc.ListByWorkOrder(r.Context(), companyID, workOrderID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"invoices": invoices, "count": len(invoices)})
		return
	}

	invoices, err := h.svc.ListByCompany(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invoices": invoices, "count": len(invoices)})
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice ID")
		return
	}

	inv, err := h.svc.Get(r.Context(), companyID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
