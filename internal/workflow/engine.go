package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joshyycmechanical/fieldserve/internal/metrics"
	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/queue"
)

// StatusChange is the event emitted when a work order's status is written.
type StatusChange struct {
	WorkOrderID uuid.UUID
	CompanyID   uuid.UUID
	OldStatus   string
	NewStatus   string
}

// TriggerMatcher finds the triggers watching a (status, event) pair.
type TriggerMatcher interface {
	ListMatching(ctx context.Context, companyID uuid.UUID, statusName string, event models.TriggerEvent) ([]models.WorkflowTrigger, error)
}

// ActionEnqueuer hands a matched action to the background queue.
type ActionEnqueuer interface {
	EnqueueWorkflowAction(payload queue.WorkflowActionPayload) error
}

// Engine reacts to work-order status transitions. A transition observes
// exactly two events, on_exit of the old status and on_enter of the new one,
// and fans each matched trigger out as its own queued task. The whole pass is
// best effort: nothing here may fail the status update that caused it.
type Engine struct {
	triggers TriggerMatcher
	queue    ActionEnqueuer
}

func NewEngine(triggers TriggerMatcher, q ActionEnqueuer) *Engine {
	return &Engine{triggers: triggers, queue: q}
}

// StatusChanged matches and dispatches triggers for one transition. A write
// that leaves the status unchanged fires nothing.
func (e *Engine) StatusChanged(ctx context.Context, change StatusChange) {
	if change.OldStatus == change.NewStatus {
		return
	}
	metrics.WorkflowTransitions.Inc()

	e.dispatch(ctx, change, change.OldStatus, models.TriggerOnExit)
	e.dispatch(ctx, change, change.NewStatus, models.TriggerOnEnter)
}

func (e *Engine) dispatch(ctx context.Context, change StatusChange, statusName string, event models.TriggerEvent) {
	if statusName == "" {
		return
	}

	matched, err := e.triggers.ListMatching(ctx, change.CompanyID, statusName, event)
	if err != nil {
		slog.Error("trigger lookup failed, skipping automation pass",
			"company_id", change.CompanyID, "work_order_id", change.WorkOrderID,
			"status", statusName, "event", event, "error", err)
		return
	}

	for _, trigger := range matched {
		payload := queue.WorkflowActionPayload{
			TriggerID:   trigger.ID,
			CompanyID:   change.CompanyID,
			WorkOrderID: change.WorkOrderID,
			StatusName:  statusName,
			Event:       event,
			ActionType:  trigger.Action.Type,
			Params:      trigger.Action.Params,
		}
		if err := e.queue.EnqueueWorkflowAction(payload); err != nil {
			// one trigger failing to enqueue must not stop the rest
			slog.Error("failed to enqueue workflow action",
				"trigger_id", trigger.ID, "work_order_id", change.WorkOrderID,
				"action", trigger.Action.Type, "error", err)
			continue
		}
		slog.Info("workflow action enqueued",
			"trigger_id", trigger.ID, "work_order_id", change.WorkOrderID,
			"status", statusName, "event", event, "action", trigger.Action.Type)
	}
}
