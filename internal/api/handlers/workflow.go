package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joshyycmechanical/fieldserve/internal/audit"
	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/tenant"
	"github.com/joshyycmechanical/fieldserve/internal/workflow"
)

// requireCompany resolves the caller's company id. Workflow configuration is
// tenant-owned, so platform identities without a company get a 400.
func requireCompany(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	companyID := tenant.CompanyIDFromContext(r.Context())
	if companyID == nil {
		writeError(w, http.StatusBadRequest, "company context required")
		return uuid.Nil, false
	}
	return *companyID, true
}

type WorkflowStatusHandler struct {
	registry *workflow.Registry
	audit    *audit.Service
}

func NewWorkflowStatusHandler(registry *workflow.Registry, auditSvc *audit.Service) *WorkflowStatusHandler {
	return &WorkflowStatusHandler{registry: registry, audit: auditSvc}
}

type statusRequest struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Group       string `json:"group"`
	IsFinalStep bool   `json:"is_final_step"`
	SortOrder   int    `json:"sort_order"`
}

func (h *WorkflowStatusHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	statuses, err := h.registry.List(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"statuses": statuses, "count": len(statuses)})
}

func (h *WorkflowStatusHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	created, err := h.registry.Create(r.Context(), &models.WorkflowStatus{
		CompanyID:   companyID,
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
		Group:       req.Group,
		IsFinalStep: req.IsFinalStep,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "workflow_status.create", &created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *WorkflowStatusHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid status ID")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := &models.WorkflowStatus{
		ID:          id,
		CompanyID:   companyID,
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
		Group:       req.Group,
		IsFinalStep: req.IsFinalStep,
		SortOrder:   req.SortOrder,
	}
	if err := h.registry.Update(r.Context(), status); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "workflow_status.update", &id)
	writeJSON(w, http.StatusOK, status)
}

func (h *WorkflowStatusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid status ID")
		return
	}

	if err := h.registry.Delete(r.Context(), companyID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "workflow_status.delete", &id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *WorkflowStatusHandler) auditLog(r *http.Request, action string, resourceID *uuid.UUID) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(r.Context(), audit.LogEntry{
		Action:       action,
		ResourceType: "workflow_status",
		ResourceID:   resourceID,
		IPAddress:    remoteIP(r),
	})
}

type WorkflowTriggerHandler struct {
	store *workflow.TriggerStore
	audit *audit.Service
}

func NewWorkflowTriggerHandler(store *workflow.TriggerStore, auditSvc *audit.Service) *WorkflowTriggerHandler {
	return &WorkflowTriggerHandler{store: store, audit: auditSvc}
}

type triggerRequest struct {
	Name               string               `json:"name"`
	WorkflowStatusName string               `json:"workflow_status_name"`
	TriggerEvent       models.TriggerEvent  `json:"trigger_event"`
	Action             models.TriggerAction `json:"action"`
}

func (h *WorkflowTriggerHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	triggers, err := h.store.ListByCompany(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"triggers": triggers, "count": len(triggers)})
}

func (h *WorkflowTriggerHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trigger ID")
		return
	}

	trigger, err := h.store.Get(r.Context(), companyID, id)
	if err != nil {
		writeError(w, http.StatusNotFound, "trigger not found")
		return
	}
	writeJSON(w, http.StatusOK, trigger)
}

func (h *WorkflowTriggerHandler) Create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.WorkflowStatusName == "" {
		writeError(w, http.StatusBadRequest, "name and workflow_status_name required")
		return
	}

	trigger := &models.WorkflowTrigger{
		CompanyID:          companyID,
		Name:               req.Name,
		WorkflowStatusName: req.WorkflowStatusName,
		TriggerEvent:       req.TriggerEvent,
		Action:             req.Action,
	}
	if user := tenant.UserFromContext(r.Context()); user != nil {
		trigger.CreatedBy = &user.ID
	}

	created, err := h.store.Create(r.Context(), trigger)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "workflow_trigger.create", &created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *WorkflowTriggerHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trigger ID")
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trigger := &models.WorkflowTrigger{
		ID:                 id,
		CompanyID:          companyID,
		Name:               req.Name,
		WorkflowStatusName: req.WorkflowStatusName,
		TriggerEvent:       req.TriggerEvent,
		Action:             req.Action,
	}
	if err := h.store.Update(r.Context(), trigger); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "workflow_trigger.update", &id)
	writeJSON(w, http.StatusOK, trigger)
}

func (h *WorkflowTriggerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := requireCompany(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trigger ID")
		return
	}

	if err := h.store.Delete(r.Context(), companyID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "workflow_trigger.delete", &id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *WorkflowTriggerHandler) auditLog(r *http.Request, action string, resourceID *uuid.UUID) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(r.Context(), audit.LogEntry{
		Action:       action,
		ResourceType: "workflow_trigger",
		ResourceID:   resourceID,
		IPAddress:    remoteIP(r),
	})
}
