package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

// ErrScopeMismatch is returned when a role assignment would cross scopes:
// company roles go to company users, platform roles to platform users.
var ErrScopeMismatch = errors.New("role scope does not match user tenant context")

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// ListForUser loads every role assigned to the user within its tenant
// context. Platform roles are only visible to platform users, company roles
// only to users of that company.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) ([]models.Role, error) {
	query := `SELECT r.id, r.company_id, r.name, r.permissions, r.is_super_admin, r.created_at, r.updated_at
	          FROM roles r
	          JOIN user_roles ur ON ur.role_id = r.id
	          WHERE ur.user_id = $1 AND `
	args := []interface{}{userID}
	if companyID == nil {
		query += "r.company_id IS NULL"
	} else {
		query += "r.company_id = $2"
		args = append(args, *companyID)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles for user: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var r models.Role
	var permJSON []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, company_id, name, permissions, is_super_admin, created_at, updated_at
		 FROM roles WHERE id = $1`, id,
	).Scan(&r.ID, &r.CompanyID, &r.Name, &permJSON, &r.IsSuperAdmin, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	if err := json.Unmarshal(permJSON, &r.Permissions); err != nil {
		return nil, fmt.Errorf("decode role permissions: %w", err)
	}
	return &r, nil
}

// ListByCompany returns the roles visible in one tenant context; a nil
// companyID lists platform roles.
func (s *Service) ListByCompany(ctx context.Context, companyID *uuid.UUID) ([]models.Role, error) {
	query := `SELECT id, company_id, name, permissions, is_super_admin, created_at, updated_at
	          FROM roles WHERE `
	var args []interface{}
	if companyID == nil {
		query += "company_id IS NULL"
	} else {
		query += "company_id = $1"
		args = append(args, *companyID)
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

func (s *Service) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	if role.Name == "" {
		return nil, fmt.Errorf("role name required")
	}
	if role.Permissions == nil {
		role.Permissions = models.PermissionMap{}
	}
	permJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return nil, fmt.Errorf("encode permissions: %w", err)
	}

	var created models.Role
	created.Permissions = role.Permissions
	err = s.db.QueryRow(ctx,
		`INSERT INTO roles (company_id, name, permissions, is_super_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, company_id, name, is_super_admin, created_at, updated_at`,
		role.CompanyID, role.Name, permJSON, role.IsSuperAdmin,
	).Scan(&created.ID, &created.CompanyID, &created.Name, &created.IsSuperAdmin, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return &created, nil
}

func (s *Service) Update(ctx context.Context, role *models.Role) error {
	permJSON, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE roles SET name = $1, permissions = $2, updated_at = now() WHERE id = $3`,
		role.Name, permJSON, role.ID,
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, "DELETE FROM roles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

// Assign links a user to a role after verifying the scopes match exactly.
func (s *Service) Assign(ctx context.Context, userID, roleID uuid.UUID) error {
	var userCompany, roleCompany *uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT company_id FROM users WHERE id = $1", userID).Scan(&userCompany)
	if err != nil {
		return fmt.Errorf("load user for assignment: %w", err)
	}
	err = s.db.QueryRow(ctx, "SELECT company_id FROM roles WHERE id = $1", roleID).Scan(&roleCompany)
	if err != nil {
		return fmt.Errorf("load role for assignment: %w", err)
	}

	if !sameScope(userCompany, roleCompany) {
		return ErrScopeMismatch
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID,
	)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (s *Service) Unassign(ctx context.Context, userID, roleID uuid.UUID) error {
	_, err := s.db.Exec(ctx, "DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2", userID, roleID)
	if err != nil {
		return fmt.Errorf("unassign role: %w", err)
	}
	return nil
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func scanRoles(rows pgx.Rows) ([]models.Role, error) {
	var out []models.Role
	for rows.Next() {
		var r models.Role
		var permJSON []byte
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Name, &permJSON, &r.IsSuperAdmin, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		if err := json.Unmarshal(permJSON, &r.Permissions); err != nil {
			// malformed permission documents are skipped, not fatal
			r.Permissions = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
