package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joshyycmechanical/fieldserve/internal/metrics"
	"github.com/joshyycmechanical/fieldserve/internal/tenant"
)

// DenialRecorder receives denied authorization attempts, for the audit trail.
type DenialRecorder interface {
	RecordDenial(ctx context.Context, required, reason, ip string)
}

// RecordDenials registers a recorder for denied requests. Recording is best
// effort and never changes the response.
func (a *Authorizer) RecordDenials(r DenialRecorder) {
	a.denials = r
}

// RequirePermission gates a route on the given permission string. The full
// authorization pipeline runs once per request; on success the resolved
// identity is attached to the request context for downstream tenant scoping.
func (a *Authorizer) RequirePermission(required string) func(http.Handler) http.Handler {
	return a.requirePermission(required, nil)
}

// RequireCompanyPermission gates a route whose URL parameter names the company
// the operation targets. The parsed id is fed into the cross-tenant check, so
// a tenant-scoped identity is rejected before its permissions are evaluated.
// A parameter that is not a UUID leaves the target unset; the handler is then
// responsible for scoping whatever it resolves.
func (a *Authorizer) RequireCompanyPermission(required, param string) func(http.Handler) http.Handler {
	return a.requirePermission(required, func(r *http.Request) *uuid.UUID {
		id, err := uuid.Parse(chi.URLParam(r, param))
		if err != nil {
			return nil
		}
		return &id
	})
}

func (a *Authorizer) requirePermission(required string, target func(*http.Request) *uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var targetCompany *uuid.UUID
			if target != nil {
				targetCompany = target(r)
			}
			res, err := a.Authorize(r.Context(), extractBearerToken(r), required, targetCompany)
			if err != nil {
				metrics.AuthDecisions.WithLabelValues("deny").Inc()
				if a.denials != nil {
					a.denials.RecordDenial(r.Context(), required, err.Error(), r.RemoteAddr)
				}
				writeError(w, HTTPStatus(err), err.Error())
				return
			}
			metrics.AuthDecisions.WithLabelValues("allow").Inc()

			ctx := tenant.WithUser(r.Context(), res.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthenticated admits any identity with a valid token and profile.
func (a *Authorizer) RequireAuthenticated(next http.Handler) http.Handler {
	return a.RequirePermission(Wildcard)(next)
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
