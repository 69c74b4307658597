package queue

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

const TypeWorkflowAction = "workflow:action"

// WorkflowActionPayload is one matched trigger action, snapshotted at
// transition time so a retried task runs the configuration that matched, not
// whatever the trigger looks like later.
type WorkflowActionPayload struct {
	TriggerID   uuid.UUID           `json:"trigger_id"`
	CompanyID   uuid.UUID           `json:"company_id"`
	WorkOrderID uuid.UUID           `json:"work_order_id"`
	StatusName  string              `json:"status_name"`
	Event       models.TriggerEvent `json:"event"`
	ActionType  models.ActionType   `json:"action_type"`
	Params      json.RawMessage     `json:"params,omitempty"`
}
