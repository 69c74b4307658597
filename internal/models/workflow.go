package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TriggerEvent is one of the two observable moments around a status change.
type TriggerEvent string

const (
	TriggerOnEnter TriggerEvent = "on_enter"
	TriggerOnExit  TriggerEvent = "on_exit"
)

// Valid reports whether the event is one of the recognized values.
func (e TriggerEvent) Valid() bool {
	return e == TriggerOnEnter || e == TriggerOnExit
}

// ActionType identifies a workflow action executor.
type ActionType string

const (
	ActionCreateInvoiceDraft ActionType = "create_invoice_draft"
	ActionNotifyCustomer     ActionType = "notify_customer"
)

// TriggerAction is the configured side effect of a trigger. Params are opaque
// to the engine and passed through to the executor.
type TriggerAction struct {
	Type   ActionType      `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// WorkflowStatus is a tenant-defined state a work order can occupy. Names are
// unique per company and referenced by name from triggers and work orders.
type WorkflowStatus struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CompanyID   uuid.UUID `json:"company_id" db:"company_id"`
	Name        string    `json:"name" db:"name"`
	Color       string    `json:"color" db:"color"`
	Description string    `json:"description,omitempty" db:"description"`
	Group       string    `json:"group,omitempty" db:"status_group"`
	IsFinalStep bool      `json:"is_final_step" db:"is_final_step"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// WorkflowTrigger fires an action when a work order enters or exits the
// watched status.
type WorkflowTrigger struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	CompanyID          uuid.UUID     `json:"company_id" db:"company_id"`
	Name               string        `json:"name" db:"name"`
	WorkflowStatusName string        `json:"workflow_status_name" db:"workflow_status_name"`
	TriggerEvent       TriggerEvent  `json:"trigger_event" db:"trigger_event"`
	Action             TriggerAction `json:"action" db:"action"`
	CreatedBy          *uuid.UUID    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
}
