package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joshyycmechanical/fieldserve/internal/audit"
	"github.com/joshyycmechanical/fieldserve/internal/auth"
	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/tenant"
)

// CompanyStore is the slice of the tenant service the company surface needs.
type CompanyStore interface {
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetCompanyBySlug(ctx context.Context, slug string) (*models.Company, error)
	CreateCompany(ctx context.Context, name, slug string) (*models.Company, error)
}

// CompanyHandler is the platform-side tenant management surface.
type CompanyHandler struct {
	svc   CompanyStore
	audit *audit.Service
}

func NewCompanyHandler(svc CompanyStore, auditSvc *audit.Service) *CompanyHandler {
	return &CompanyHandler{svc: svc, audit: auditSvc}
}

type createCompanyRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug required")
		return
	}

	company, err := h.svc.CreateCompany(r.Context(), req.Name, req.Slug)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Log(r.Context(), audit.LogEntry{
			Action:       "company.create",
			ResourceType: "company",
			ResourceID:   &company.ID,
			IPAddress:    remoteIP(r),
		})
	}
	writeJSON(w, http.StatusCreated, company)
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "id")

	if id, err := uuid.Parse(param); err == nil {
		company, err := h.svc.GetCompanyByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, company)
		return
	}

	// non-uuid path segments are treated as slugs; the target company is only
	// known after the lookup, so the tenant check happens here
	company, err := h.svc.GetCompanyBySlug(r.Context(), param)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if user := tenant.UserFromContext(r.Context()); user != nil && !user.IsPlatform() && *user.CompanyID != company.ID {
		writeError(w, http.StatusForbidden, auth.ErrCrossTenant.Error())
		return
	}
	writeJSON(w, http.StatusOK, company)
}
