package workflow_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/queue"
	"github.com/joshyycmechanical/fieldserve/internal/queue/workers"
	"github.com/joshyycmechanical/fieldserve/internal/workflow"
)

// memTriggers serves trigger lookups from a fixed slice.
type memTriggers struct {
	triggers []models.WorkflowTrigger
}

func (m *memTriggers) ListMatching(ctx context.Context, companyID uuid.UUID, statusName string, event models.TriggerEvent) ([]models.WorkflowTrigger, error) {
	var out []models.WorkflowTrigger
	for _, tr := range m.triggers {
		if tr.CompanyID == companyID && tr.WorkflowStatusName == statusName && tr.TriggerEvent == event {
			out = append(out, tr)
		}
	}
	return out, nil
}

// capturingQueue collects payloads instead of hitting redis.
type capturingQueue struct {
	mu       sync.Mutex
	payloads []queue.WorkflowActionPayload
}

func (q *capturingQueue) EnqueueWorkflowAction(payload queue.WorkflowActionPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
	return nil
}

// idempotentDrafter emulates the database's uniqueness on
// (work_order_id, source_trigger_id): repeated calls return the same draft.
type idempotentDrafter struct {
	drafts map[string]*models.Invoice
}

func (d *idempotentDrafter) CreateDraftForWorkOrder(ctx context.Context, companyID, workOrderID, triggerID uuid.UUID) (*models.Invoice, error) {
	if d.drafts == nil {
		d.drafts = make(map[string]*models.Invoice)
	}
	key := workOrderID.String() + "/" + triggerID.String()
	if inv, ok := d.drafts[key]; ok {
		return inv, nil
	}
	inv := &models.Invoice{
		ID:              uuid.New(),
		CompanyID:       companyID,
		WorkOrderID:     workOrderID,
		Status:          models.InvoiceStatusDraft,
		LineItems:       json.RawMessage("[]"),
		SourceTriggerID: &triggerID,
	}
	d.drafts[key] = inv
	return inv, nil
}

// TestCompletedWorkOrderGetsOneDraftInvoice runs the full automation path: a
// work order moving to "completed" matches an on_enter trigger, the matched
// action travels through the queue payload into the worker, and exactly one
// draft invoice comes out even when the task is delivered twice.
func TestCompletedWorkOrderGetsOneDraftInvoice(t *testing.T) {
	companyID := uuid.New()
	workOrderID := uuid.New()

	trigger := models.WorkflowTrigger{
		ID:                 uuid.New(),
		CompanyID:          companyID,
		Name:               "invoice on completion",
		WorkflowStatusName: "completed",
		TriggerEvent:       models.TriggerOnEnter,
		Action:             models.TriggerAction{Type: models.ActionCreateInvoiceDraft},
	}

	q := &capturingQueue{}
	engine := workflow.NewEngine(&memTriggers{triggers: []models.WorkflowTrigger{trigger}}, q)

	engine.StatusChanged(context.Background(), workflow.StatusChange{
		WorkOrderID: workOrderID,
		CompanyID:   companyID,
		OldStatus:   "scheduled",
		NewStatus:   "completed",
	})

	require.Len(t, q.payloads, 1)
	payload := q.payloads[0]
	assert.Equal(t, trigger.ID, payload.TriggerID)
	assert.Equal(t, models.ActionCreateInvoiceDraft, payload.ActionType)
	assert.Equal(t, models.TriggerOnEnter, payload.Event)
	assert.Equal(t, "completed", payload.StatusName)

	drafter := &idempotentDrafter{}
	executors := workflow.NewExecutorRegistry()
	executors.Register(models.ActionCreateInvoiceDraft, workflow.NewInvoiceDraftExecutor(drafter))
	worker := workers.NewWorkflowActionWorker(executors)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	task := asynq.NewTask(queue.TypeWorkflowAction, data)

	require.NoError(t, worker.ProcessTask(context.Background(), task))
	// redelivery of the same task must not add a second draft
	require.NoError(t, worker.ProcessTask(context.Background(), task))

	require.Len(t, drafter.drafts, 1)
	for _, inv := range drafter.drafts {
		assert.Equal(t, workOrderID, inv.WorkOrderID)
		assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
		assert.JSONEq(t, "[]", string(inv.LineItems))
		require.NotNil(t, inv.SourceTriggerID)
		assert.Equal(t, trigger.ID, *inv.SourceTriggerID)
	}
}

// TestUnrelatedStatusChangeFiresNothing covers a transition between statuses
// no trigger watches.
func TestUnrelatedStatusChangeFiresNothing(t *testing.T) {
	companyID := uuid.New()
	trigger := models.WorkflowTrigger{
		ID:                 uuid.New(),
		CompanyID:          companyID,
		WorkflowStatusName: "completed",
		TriggerEvent:       models.TriggerOnEnter,
		Action:             models.TriggerAction{Type: models.ActionCreateInvoiceDraft},
	}

	q := &capturingQueue{}
	engine := workflow.NewEngine(&memTriggers{triggers: []models.WorkflowTrigger{trigger}}, q)

	engine.StatusChanged(context.Background(), workflow.StatusChange{
		WorkOrderID: uuid.New(),
		CompanyID:   companyID,
		OldStatus:   "new",
		NewStatus:   "scheduled",
	})

	assert.Empty(t, q.payloads)
}

// TestTriggerIsolationBetweenTenants checks a trigger never fires for another
// company's work orders even on the same status name.
func TestTriggerIsolationBetweenTenants(t *testing.T) {
	trigger := models.WorkflowTrigger{
		ID:                 uuid.New(),
		CompanyID:          uuid.New(),
		WorkflowStatusName: "completed",
		TriggerEvent:       models.TriggerOnEnter,
		Action:             models.TriggerAction{Type: models.ActionCreateInvoiceDraft},
	}

	q := &capturingQueue{}
	engine := workflow.NewEngine(&memTriggers{triggers: []models.WorkflowTrigger{trigger}}, q)

	engine.StatusChanged(context.Background(), workflow.StatusChange{
		WorkOrderID: uuid.New(),
		CompanyID:   uuid.New(),
		OldStatus:   "scheduled",
		NewStatus:   "completed",
	})

	assert.Empty(t, q.payloads)
}
