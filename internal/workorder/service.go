package workorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/workflow"
)

// ErrNotFound is returned when a work order does not exist in the tenant
// scope.
var ErrNotFound = errors.New("work order not found")

// Service owns work-order persistence. Status transitions go through
// UpdateStatus so the workflow engine sees every change.
type Service struct {
	db       *pgxpool.Pool
	statuses *workflow.Registry
	engine   *workflow.Engine
}

func NewService(db *pgxpool.Pool, statuses *workflow.Registry, engine *workflow.Engine) *Service {
	return &Service{db: db, statuses: statuses, engine: engine}
}

// Create inserts a work order after validating the initial status against the
// tenant's registry. Creation is not a transition, so no triggers fire.
func (s *Service) Create(ctx context.Context, wo *models.WorkOrder) (*models.WorkOrder, error) {
	if err := s.validateStatus(ctx, wo.CompanyID, wo.Status); err != nil {
		return nil, err
	}

	created := *wo
	err := s.db.QueryRow(ctx,
		`INSERT INTO work_orders (company_id, summary, description, customer_name, customer_email, location_address, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		wo.CompanyID, wo.Summary, wo.Description, wo.CustomerName, wo.CustomerEmail,
		wo.LocationAddress, wo.Status, wo.CreatedBy,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}
	return &created, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	err := s.db.QueryRow(ctx,
		`SELECT id, company_id, summary, description, customer_name, customer_email, location_address, status, created_by, created_at, updated_at
		 FROM work_orders WHERE id = $1 AND company_id = $2`, id, companyID,
	).Scan(&wo.ID, &wo.CompanyID, &wo.Summary, &wo.Description, &wo.CustomerName, &wo.CustomerEmail,
		&wo.LocationAddress, &wo.Status, &wo.CreatedBy, &wo.CreatedAt, &wo.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get work order: %w", err)
	}
	return &wo, nil
}

func (s *Service) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.WorkOrder, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, company_id, summary, description, customer_name, customer_email, location_address, status, created_by, created_at, updated_at
		 FROM work_orders WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	defer rows.Close()

	var orders []models.WorkOrder
	for rows.Next() {
		var wo models.WorkOrder
		if err := rows.Scan(&wo.ID, &wo.CompanyID, &wo.Summary, &wo.Description, &wo.CustomerName, &wo.CustomerEmail,
			&wo.LocationAddress, &wo.Status, &wo.CreatedBy, &wo.CreatedAt, &wo.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		orders = append(orders, wo)
	}
	return orders, rows.Err()
}

// Update writes the mutable descriptive fields. Status is not touched here;
// use UpdateStatus for transitions.
func (s *Service) Update(ctx context.Context, wo *models.WorkOrder) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE work_orders
		 SET summary = $1, description = $2, customer_name = $3, customer_email = $4, location_address = $5, updated_at = now()
		 WHERE id = $6 AND company_id = $7`,
		wo.Summary, wo.Description, wo.CustomerName, wo.CustomerEmail, wo.LocationAddress,
		wo.ID, wo.CompanyID)
	if err != nil {
		return fmt.Errorf("update work order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus moves a work order to newStatus and hands the transition to
// the workflow engine. The previous status is read in the same statement as
// the update; concurrent writers can still interleave, and the engine treats
// each observed (old, new) pair independently.
func (s *Service) UpdateStatus(ctx context.Context, companyID, id uuid.UUID, newStatus string) (*models.WorkOrder, error) {
	if err := s.validateStatus(ctx, companyID, newStatus); err != nil {
		return nil, err
	}

	var oldStatus string
	err := s.db.QueryRow(ctx,
		`WITH old AS (
		   SELECT status FROM work_orders WHERE id = $2 AND company_id = $3
		 )
		 UPDATE work_orders SET status = $1, updated_at = now()
		 WHERE id = $2 AND company_id = $3
		 RETURNING (SELECT status FROM old)`,
		newStatus, id, companyID,
	).Scan(&oldStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update work order status: %w", err)
	}

	if s.engine != nil {
		// Trigger matching runs off the request path; the caller's deadline
		// must not cancel automation mid-flight.
		go s.engine.StatusChanged(context.Background(), workflow.StatusChange{
			WorkOrderID: id,
			CompanyID:   companyID,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
		})
	}

	return s.Get(ctx, companyID, id)
}

func (s *Service) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM work_orders WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("delete work order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) validateStatus(ctx context.Context, companyID uuid.UUID, name string) error {
	ok, err := s.statuses.Exists(ctx, companyID, name)
	if err != nil {
		return fmt.Errorf("check workflow status: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %q", workflow.ErrUnknownStatus, name)
	}
	return nil
}
