package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshyycmechanical/fieldserve/internal/tenant"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type LogEntry struct {
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
	IPAddress    string
}

// Log records a mutation against the acting identity's tenant context.
// Platform identities log with a null company_id.
func (s *Service) Log(ctx context.Context, entry LogEntry) error {
	companyID := tenant.CompanyIDFromContext(ctx)
	user := tenant.UserFromContext(ctx)

	var userID *uuid.UUID
	if user != nil {
		userID = &user.ID
	}

	details, _ := json.Marshal(entry.Details)

	var ip *netip.Addr
	if entry.IPAddress != "" {
		addr := entry.IPAddress
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}
		if parsed, err := netip.ParseAddr(addr); err == nil {
			ip = &parsed
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (company_id, user_id, action, resource_type, resource_id, details, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		companyID, userID, entry.Action, entry.ResourceType, entry.ResourceID, details, ip,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// RecordDenial writes a denied authorization attempt. There is no resolved
// identity on a denial, so the row carries only the request evidence.
func (s *Service) RecordDenial(ctx context.Context, required, reason, ip string) {
	if err := s.Log(ctx, LogEntry{
		Action:       "authorization.denied",
		ResourceType: "permission",
		Details:      map[string]interface{}{"required": required, "reason": reason},
		IPAddress:    ip,
	}); err != nil {
		slog.Warn("failed to record authorization denial", "error", err)
	}
}
