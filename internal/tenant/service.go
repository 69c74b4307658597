package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

// Service resolves identity profiles and companies. Lookups are performed
// fresh on every authorization call so role and membership changes take
// effect immediately.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) GetCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	err := s.db.QueryRow(ctx,
		"SELECT id, name, slug, settings, created_at, updated_at FROM companies WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Settings, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

func (s *Service) GetCompanyBySlug(ctx context.Context, slug string) (*models.Company, error) {
	var c models.Company
	err := s.db.QueryRow(ctx,
		"SELECT id, name, slug, settings, created_at, updated_at FROM companies WHERE slug = $1", slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Settings, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get company by slug: %w", err)
	}
	return &c, nil
}

func (s *Service) CreateCompany(ctx context.Context, name, slug string) (*models.Company, error) {
	var c models.Company
	err := s.db.QueryRow(ctx,
		`INSERT INTO companies (name, slug) VALUES ($1, $2)
		 RETURNING id, name, slug, settings, created_at, updated_at`,
		name, slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Settings, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return &c, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		"SELECT id, company_id, email, full_name, created_at FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.CompanyID, &u.Email, &u.FullName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
