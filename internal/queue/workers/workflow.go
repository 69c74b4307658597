package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/joshyycmechanical/fieldserve/internal/metrics"
	"github.com/joshyycmechanical/fieldserve/internal/queue"
	"github.com/joshyycmechanical/fieldserve/internal/workflow"
)

// WorkflowActionWorker executes queued trigger actions. A returned error
// makes asynq retry the task; exhausted tasks are archived.
type WorkflowActionWorker struct {
	executors *workflow.ExecutorRegistry
}

func NewWorkflowActionWorker(executors *workflow.ExecutorRegistry) *WorkflowActionWorker {
	return &WorkflowActionWorker{executors: executors}
}

func (w *WorkflowActionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.WorkflowActionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	exec, ok := w.executors.Lookup(payload.ActionType)
	if !ok {
		// unrecognized action types are skipped, never retried
		slog.Warn("unknown workflow action type, skipping",
			"action", payload.ActionType, "trigger_id", payload.TriggerID,
			"work_order_id", payload.WorkOrderID)
		metrics.WorkflowActions.WithLabelValues(string(payload.ActionType), "skipped").Inc()
		return nil
	}

	err := exec.Execute(ctx, workflow.ActionContext{
		CompanyID:   payload.CompanyID,
		WorkOrderID: payload.WorkOrderID,
		TriggerID:   payload.TriggerID,
		StatusName:  payload.StatusName,
		Params:      payload.Params,
	})
	if err != nil {
		slog.Error("workflow action failed",
			"action", payload.ActionType, "trigger_id", payload.TriggerID,
			"work_order_id", payload.WorkOrderID, "error", err)
		metrics.WorkflowActions.WithLabelValues(string(payload.ActionType), "error").Inc()
		return fmt.Errorf("execute %s: %w", payload.ActionType, err)
	}

	slog.Info("workflow action completed",
		"action", payload.ActionType, "trigger_id", payload.TriggerID,
		"work_order_id", payload.WorkOrderID)
	metrics.WorkflowActions.WithLabelValues(string(payload.ActionType), "ok").Inc()
	return nil
}
