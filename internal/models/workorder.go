package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkOrder is a job at a customer location. Status holds the name of one of
// the company's workflow statuses; status changes drive the trigger engine.
type WorkOrder struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	CompanyID       uuid.UUID  `json:"company_id" db:"company_id"`
	Summary         string     `json:"summary" db:"summary"`
	Description     string     `json:"description,omitempty" db:"description"`
	CustomerName    string     `json:"customer_name" db:"customer_name"`
	CustomerEmail   string     `json:"customer_email,omitempty" db:"customer_email"`
	LocationAddress string     `json:"location_address,omitempty" db:"location_address"`
	Status          string     `json:"status" db:"status"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

const InvoiceStatusDraft = "draft"

// Invoice is a billing document for a work order. Drafts created by workflow
// triggers carry the originating trigger id so retried action tasks stay
// idempotent.
type Invoice struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CompanyID       uuid.UUID       `json:"company_id" db:"company_id"`
	WorkOrderID     uuid.UUID       `json:"work_order_id" db:"work_order_id"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerEmail   string          `json:"customer_email,omitempty" db:"customer_email"`
	LocationAddress string          `json:"location_address,omitempty" db:"location_address"`
	Status          string          `json:"status" db:"status"`
	LineItems       json.RawMessage `json:"line_items" db:"line_items"`
	SourceTriggerID *uuid.UUID      `json:"source_trigger_id,omitempty" db:"source_trigger_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
