package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

// ErrNotFound is returned when an invoice does not exist in the tenant scope.
var ErrNotFound = errors.New("invoice not found")

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// CreateDraftForWorkOrder creates a stub draft invoice for the work order,
// copying the customer fields. The unique index on (company_id,
// work_order_id, source_trigger_id) makes retried trigger tasks converge on a
// single draft: on conflict the existing row is returned.
func (s *Service) CreateDraftForWorkOrder(ctx context.Context, companyID, workOrderID, triggerID uuid.UUID) (*models.Invoice, error) {
	var wo models.WorkOrder
	err := s.db.QueryRow(ctx,
		`SELECT id, company_id, customer_name, customer_email, location_address
		 FROM work_orders WHERE id = $1 AND company_id = $2`, workOrderID, companyID,
	).Scan(&wo.ID, &wo.CompanyID, &wo.CustomerName, &wo.CustomerEmail, &wo.LocationAddress)
	if err != nil {
		return nil, fmt.Errorf("load work order for invoice draft: %w", err)
	}

	inv := models.Invoice{
		CompanyID:       companyID,
		WorkOrderID:     workOrderID,
		CustomerName:    wo.CustomerName,
		CustomerEmail:   wo.CustomerEmail,
		LocationAddress: wo.LocationAddress,
		Status:          models.InvoiceStatusDraft,
		LineItems:       []byte("[]"),
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO invoices (company_id, work_order_id, customer_name, customer_email, location_address, status, line_items, source_trigger_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (company_id, work_order_id, source_trigger_id) WHERE source_trigger_id IS NOT NULL DO NOTHING
		 RETURNING id, created_at`,
		inv.CompanyID, inv.WorkOrderID, inv.CustomerName, inv.CustomerEmail,
		inv.LocationAddress, inv.Status, inv.LineItems, triggerID,
	).Scan(&inv.ID, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict: a previous run of this trigger already created the draft.
		return s.getByTrigger(ctx, companyID, workOrderID, triggerID)
	}
	if err != nil {
		return nil, fmt.Errorf("create invoice draft: %w", err)
	}
	inv.SourceTriggerID = &triggerID
	return &inv, nil
}

func (s *Service) getByTrigger(ctx context.Context, companyID, workOrderID, triggerID uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.QueryRow(ctx,
		`SELECT id, company_id, work_order_id, customer_name, customer_email, location_address, status, line_items, source_trigger_id, created_at
		 FROM invoices
		 WHERE company_id = $1 AND work_order_id = $2 AND source_trigger_id = $3`,
		companyID, workOrderID, triggerID,
	).Scan(&inv.ID, &inv.CompanyID, &inv.WorkOrderID, &inv.CustomerName, &inv.CustomerEmail,
		&inv.LocationAddress, &inv.Status, &inv.LineItems, &inv.SourceTriggerID, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load existing invoice draft: %w", err)
	}
	return &inv, nil
}

func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.QueryRow(ctx,
		`SELECT id, company_id, work_order_id, customer_name, customer_email, location_address, status, line_items, source_trigger_id, created_at
		 FROM invoices WHERE id = $1 AND company_id = $2`, id, companyID,
	).Scan(&inv.ID, &inv.CompanyID, &inv.WorkOrderID, &inv.CustomerName, &inv.CustomerEmail,
		&inv.LocationAddress, &inv.Status, &inv.LineItems, &inv.SourceTriggerID, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

func (s *Service) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Invoice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, company_id, work_order_id, customer_name, customer_email, location_address, status, line_items, source_trigger_id, created_at
		 FROM invoices WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.WorkOrderID, &inv.CustomerName, &inv.CustomerEmail,
			&inv.LocationAddress, &inv.Status, &inv.LineItems, &inv.SourceTriggerID, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (s *Service) ListByWorkOrder(ctx context.Context, companyID, workOrderID uuid.UUID) ([]models.Invoice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, company_id, work_order_id, customer_name, customer_email, location_address, status, line_items, source_trigger_id, created_at
		 FROM invoices WHERE company_id = $1 AND work_order_id = $2 ORDER BY created_at DESC`,
		companyID, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list invoices for work order: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.WorkOrderID, &inv.CustomerName, &inv.CustomerEmail,
			&inv.LocationAddress, &inv.Status, &inv.LineItems, &inv.SourceTriggerID, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}
