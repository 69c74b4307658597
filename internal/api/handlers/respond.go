package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/joshyycmechanical/fieldserve/internal/invoice"
	"github.com/joshyycmechanical/fieldserve/internal/roles"
	"github.com/joshyycmechanical/fieldserve/internal/workflow"
	"github.com/joshyycmechanical/fieldserve/internal/workorder"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses. Unrecognized
// errors become opaque 500s so internals do not leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workorder.ErrNotFound), errors.Is(err, invoice.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pgx.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, workflow.ErrUnknownStatus), errors.Is(err, roles.ErrScopeMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrStatusInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
