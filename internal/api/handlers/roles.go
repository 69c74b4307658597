package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joshyycmechanical/fieldserve/internal/audit"
	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/roles"
	"github.com/joshyycmechanical/fieldserve/internal/tenant"
)

type RoleHandler struct {
	svc   *roles.Service
	audit *audit.Service
}

func NewRoleHandler(svc *roles.Service, auditSvc *audit.Service) *RoleHandler {
	return &RoleHandler{svc: svc, audit: auditSvc}
}

type createRoleRequest struct {
	Name        string               `json:"name"`
	Permissions models.PermissionMap `json:"permissions"`
}

// Create makes a role in the caller's tenant scope. Platform identities
// create platform roles; the request cannot choose another company.
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	role := &models.Role{
		CompanyID:   tenant.CompanyIDFromContext(r.Context()),
		Name:        req.Name,
		Permissions: req.Permissions,
	}
	created, err := h.svc.Create(r.Context(), role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.auditLog(r, "role.create", &created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListByCompany(r.Context(), tenant.CompanyIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": list, "count": len(list)})
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != "" {
		role.Name = req.Name
	}
	if req.Permissions != nil {
		role.Permissions = req.Permissions
	}

	if err := h.svc.Update(r.Context(), role); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "role.update", &role.ID)
	writeJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), role.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "role.delete", &role.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type assignRoleRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

func (h *RoleHandler) Assign(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	if err := h.svc.Assign(r.Context(), req.UserID, role.ID); err != nil {
		if errors.Is(err, roles.ErrScopeMismatch) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "role.assign", &role.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (h *RoleHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	role, ok := h.loadScoped(w, r)
	if !ok {
		return
	}

	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	if err := h.svc.Unassign(r.Context(), req.UserID, role.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	h.auditLog(r, "role.unassign", &role.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "unassigned"})
}

// loadScoped fetches the role from the URL and rejects ids outside the
// caller's tenant scope without revealing whether they exist.
func (h *RoleHandler) loadScoped(w http.ResponseWriter, r *http.Request) (*models.Role, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid role ID")
		return nil, false
	}

	role, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "role not found")
		return nil, false
	}

	scope := tenant.CompanyIDFromContext(r.Context())
	if !sameTenant(role.CompanyID, scope) {
		writeError(w, http.StatusNotFound, "role not found")
		return nil, false
	}
	return role, true
}

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (h *RoleHandler) auditLog(r *http.Request, action string, resourceID *uuid.UUID) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(r.Context(), audit.LogEntry{
		Action:       action,
		ResourceType: "role",
		ResourceID:   resourceID,
		IPAddress:    remoteIP(r),
	})
}
