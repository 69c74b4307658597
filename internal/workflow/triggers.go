package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

// StatusChecker verifies a status name exists for a tenant.
type StatusChecker interface {
	Exists(ctx context.Context, companyID uuid.UUID, name string) (bool, error)
}

// TriggerStore persists workflow triggers. Triggers reference statuses by
// name; creation and update reject names the tenant's registry does not hold,
// so orphaned triggers cannot be configured.
type TriggerStore struct {
	db       *pgxpool.Pool
	statuses StatusChecker
}

func NewTriggerStore(db *pgxpool.Pool, statuses StatusChecker) *TriggerStore {
	return &TriggerStore{db: db, statuses: statuses}
}

func (t *TriggerStore) Create(ctx context.Context, trigger *models.WorkflowTrigger) (*models.WorkflowTrigger, error) {
	if err := t.validate(ctx, trigger); err != nil {
		return nil, err
	}

	actionJSON, err := json.Marshal(trigger.Action)
	if err != nil {
		return nil, fmt.Errorf("encode trigger action: %w", err)
	}

	var created models.WorkflowTrigger
	var rawAction []byte
	err = t.db.QueryRow(ctx,
		`INSERT INTO workflow_triggers (company_id, name, workflow_status_name, trigger_event, action, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, company_id, name, workflow_status_name, trigger_event, action, created_by, created_at`,
		trigger.CompanyID, trigger.Name, trigger.WorkflowStatusName, trigger.TriggerEvent, actionJSON, trigger.CreatedBy,
	).Scan(&created.ID, &created.CompanyID, &created.Name, &created.WorkflowStatusName,
		&created.TriggerEvent, &rawAction, &created.CreatedBy, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert trigger: %w", err)
	}
	if err := json.Unmarshal(rawAction, &created.Action); err != nil {
		return nil, fmt.Errorf("decode trigger action: %w", err)
	}
	return &created, nil
}

func (t *TriggerStore) Update(ctx context.Context, trigger *models.WorkflowTrigger) error {
	if err := t.validate(ctx, trigger); err != nil {
		return err
	}

	actionJSON, err := json.Marshal(trigger.Action)
	if err != nil {
		return fmt.Errorf("encode trigger action: %w", err)
	}

	tag, err := t.db.Exec(ctx,
		`UPDATE workflow_triggers
		 SET name = $1, workflow_status_name = $2, trigger_event = $3, action = $4
		 WHERE id = $5 AND company_id = $6`,
		trigger.Name, trigger.WorkflowStatusName, trigger.TriggerEvent, actionJSON,
		trigger.ID, trigger.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("update trigger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (t *TriggerStore) Get(ctx context.Context, companyID, id uuid.UUID) (*models.WorkflowTrigger, error) {
	row := t.db.QueryRow(ctx,
		`SELECT id, company_id, name, workflow_status_name, trigger_event, action, created_by, created_at
		 FROM workflow_triggers WHERE id = $1 AND company_id = $2`,
		id, companyID,
	)
	return scanTrigger(row)
}

func (t *TriggerStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.WorkflowTrigger, error) {
	rows, err := t.db.Query(ctx,
		`SELECT id, company_id, name, workflow_status_name, trigger_event, action, created_by, created_at
		 FROM workflow_triggers WHERE company_id = $1 ORDER BY created_at ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}
	defer rows.Close()

	return collectTriggers(rows)
}

// ListMatching returns every trigger watching the given status and event.
// Matched triggers are independent; callers must not rely on any ordering.
func (t *TriggerStore) ListMatching(ctx context.Context, companyID uuid.UUID, statusName string, event models.TriggerEvent) ([]models.WorkflowTrigger, error) {
	rows, err := t.db.Query(ctx,
		`SELECT id, company_id, name, workflow_status_name, trigger_event, action, created_by, created_at
		 FROM workflow_triggers
		 WHERE company_id = $1 AND workflow_status_name = $2 AND trigger_event = $3`,
		companyID, statusName, event,
	)
	if err != nil {
		return nil, fmt.Errorf("match triggers: %w", err)
	}
	defer rows.Close()

	return collectTriggers(rows)
}

func (t *TriggerStore) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	_, err := t.db.Exec(ctx,
		"DELETE FROM workflow_triggers WHERE id = $1 AND company_id = $2", id, companyID)
	if err != nil {
		return fmt.Errorf("delete trigger: %w", err)
	}
	return nil
}

func (t *TriggerStore) validate(ctx context.Context, trigger *models.WorkflowTrigger) error {
	if !trigger.TriggerEvent.Valid() {
		return fmt.Errorf("invalid trigger event %q", trigger.TriggerEvent)
	}
	if trigger.Action.Type == "" {
		return fmt.Errorf("trigger action type required")
	}

	ok, err := t.statuses.Exists(ctx, trigger.CompanyID, trigger.WorkflowStatusName)
	if err != nil {
		return fmt.Errorf("check status name: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, trigger.WorkflowStatusName)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrigger(row rowScanner) (*models.WorkflowTrigger, error) {
	var tr models.WorkflowTrigger
	var rawAction []byte
	if err := row.Scan(&tr.ID, &tr.CompanyID, &tr.Name, &tr.WorkflowStatusName,
		&tr.TriggerEvent, &rawAction, &tr.CreatedBy, &tr.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan trigger: %w", err)
	}
	if err := json.Unmarshal(rawAction, &tr.Action); err != nil {
		return nil, fmt.Errorf("decode trigger action: %w", err)
	}
	return &tr, nil
}

func collectTriggers(rows pgx.Rows) ([]models.WorkflowTrigger, error) {
	var out []models.WorkflowTrigger
	for rows.Next() {
		tr, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tr)
	}
	return out, rows.Err()
}
