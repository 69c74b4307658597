package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joshyycmechanical/fieldserve/internal/audit"
	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/tenant"
	"github.com/joshyycmechanical/fieldserve/internal/workorder"
)

type WorkOrderHandler struct {
	svc   *workorder.Service
	audit *audit.Service
}

func NewWorkOrderHandler(svc *workorder.Service, auditSvc *audit.Service) *WorkOrderHandler {
	return &WorkOrderHandler{svc: svc, audit: auditSvc}
}

type workOrderRequest struct {
	Summary         string `json:"summary"`
	Description     string `json:"description"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	LocationAddress string `json:"location_address"`
	Status          string `json:"status"`
}

func (h *WorkOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	var req workOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Summary == "" || req.CustomerName == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "summary, customer_name and status required")
		return
	}

	wo := &models.WorkOrder{
		CompanyID:       companyID,
		Summary:         req.Summary,
		Description:     req.Description,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		LocationAddress: req.LocationAddress,
		Status:          req.Status,
	}
	if user := tenant.UserFromContext(r.Context()); user != nil {
		wo.CreatedBy = &user.ID
	}

	created, err := h.svc.Create(r.Context(), wo)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "work_order.create", &created.ID, nil)
	writeJSON(w, http.StatusCreated, created)
}

func (h *WorkOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.ListByCompany(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"work_orders": orders, "count": len(orders)})
}

func (h *WorkOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid work order ID")
		return
	}

	wo, err := h.svc.Get(r.Context(), companyID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (h *WorkOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid work order ID")
		return
	}

	wo, err := h.svc.Get(r.Context(), companyID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req workOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != "" && req.Status != wo.Status {
		writeError(w, http.StatusBadRequest, "status changes go through PATCH /{id}/status")
		return
	}
	if req.Summary != "" {
		wo.Summary = req.Summary
	}
	if req.Description != "" {
		wo.Description = req.Description
	}
	if req.CustomerName != "" {
		wo.CustomerName = req.CustomerName
	}
	if req.CustomerEmail != "" {
		wo.CustomerEmail = req.CustomerEmail
	}
	if req.LocationAddress != "" {
		wo.LocationAddress = req.LocationAddress
	}

	if err := h.svc.Update(r.Context(), wo); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "work_order.update", &id, nil)
	writeJSON(w, http.StatusOK, wo)
}

type statusChangeRequest struct {
	Status string `json:"status"`
}

// UpdateStatus is the only path that changes a work order's status, so every
// transition flows through the workflow engine.
func (h *WorkOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid work order ID")
		return
	}

	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "status required")
		return
	}

	wo, err := h.svc.UpdateStatus(r.Context(), companyID, id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "work_order.status_change", &id, map[string]interface{}{"status": req.Status})
	writeJSON(w, http.StatusOK, wo)
}

func (h *WorkOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid work order ID")
		return
	}

	if err := h.svc.Delete(r.Context(), companyID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "work_order.delete", &id, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *WorkOrderHandler) auditLog(r *http.Request, action string, resourceID *uuid.UUID, details map[string]interface{}) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(r.Context(), audit.LogEntry{
		Action:       action,
		ResourceType: "work_order",
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    remoteIP(r),
	})
}
