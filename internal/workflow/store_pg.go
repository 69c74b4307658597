package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

type pgStatusStore struct {
	db *pgxpool.Pool
}

// NewStatusStore returns the postgres-backed StatusStore.
func NewStatusStore(db *pgxpool.Pool) StatusStore {
	return &pgStatusStore{db: db}
}

func (s *pgStatusStore) List(ctx context.Context, companyID uuid.UUID) ([]models.WorkflowStatus, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, company_id, name, color, description, status_group, is_final_step, sort_order, created_at
		 FROM workflow_statuses
		 WHERE company_id = $1
		 ORDER BY sort_order ASC, created_at ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list workflow statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.WorkflowStatus
	for rows.Next() {
		var st models.WorkflowStatus
		if err := rows.Scan(&st.ID, &st.CompanyID, &st.Name, &st.Color, &st.Description,
			&st.Group, &st.IsFinalStep, &st.SortOrder, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow status: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

func (s *pgStatusStore) Get(ctx context.Context, companyID, id uuid.UUID) (*models.WorkflowStatus, error) {
	var st models.WorkflowStatus
	err := s.db.QueryRow(ctx,
		`SELECT id, company_id, name, color, description, status_group, is_final_step, sort_order, created_at
		 FROM workflow_statuses WHERE id = $1 AND company_id = $2`,
		id, companyID,
	).Scan(&st.ID, &st.CompanyID, &st.Name, &st.Color, &st.Description,
		&st.Group, &st.IsFinalStep, &st.SortOrder, &st.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get workflow status: %w", err)
	}
	return &st, nil
}

func (s *pgStatusStore) Create(ctx context.Context, status *models.WorkflowStatus) (*models.WorkflowStatus, error) {
	var created models.WorkflowStatus
	err := s.db.QueryRow(ctx,
		`INSERT INTO workflow_statuses (company_id, name, color, description, status_group, is_final_step, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, company_id, name, color, description, status_group, is_final_step, sort_order, created_at`,
		status.CompanyID, status.Name, status.Color, status.Description,
		status.Group, status.IsFinalStep, status.SortOrder,
	).Scan(&created.ID, &created.CompanyID, &created.Name, &created.Color, &created.Description,
		&created.Group, &created.IsFinalStep, &created.SortOrder, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert workflow status: %w", err)
	}
	return &created, nil
}

func (s *pgStatusStore) Update(ctx context.Context, status *models.WorkflowStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workflow_statuses
		 SET name = $1, color = $2, description = $3, status_group = $4, is_final_step = $5, sort_order = $6
		 WHERE id = $7 AND company_id = $8`,
		status.Name, status.Color, status.Description, status.Group,
		status.IsFinalStep, status.SortOrder, status.ID, status.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("update workflow status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *pgStatusStore) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		"DELETE FROM workflow_statuses WHERE id = $1 AND company_id = $2", id, companyID)
	if err != nil {
		return fmt.Errorf("delete workflow status: %w", err)
	}
	return nil
}

func (s *pgStatusStore) CountTriggersForStatus(ctx context.Context, companyID uuid.UUID, name string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM workflow_triggers WHERE company_id = $1 AND workflow_status_name = $2",
		companyID, name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count triggers for status: %w", err)
	}
	return n, nil
}
