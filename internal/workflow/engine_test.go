package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshyycmechanical/fieldserve/internal/models"
	"github.com/joshyycmechanical/fieldserve/internal/queue"
)

type fakeMatcher struct {
	triggers []models.WorkflowTrigger
	err      error
}

func (f *fakeMatcher) ListMatching(ctx context.Context, companyID uuid.UUID, statusName string, event models.TriggerEvent) ([]models.WorkflowTrigger, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.WorkflowTrigger
	for _, tr := range f.triggers {
		if tr.CompanyID == companyID && tr.WorkflowStatusName == statusName && tr.TriggerEvent == event {
			out = append(out, tr)
		}
	}
	return out, nil
}

type recordingEnqueuer struct {
	payloads []queue.WorkflowActionPayload
	failFor  uuid.UUID
}

func (r *recordingEnqueuer) EnqueueWorkflowAction(p queue.WorkflowActionPayload) error {
	if p.TriggerID == r.failFor {
		return errors.New("queue full")
	}
	r.payloads = append(r.payloads, p)
	return nil
}

func newTrigger(companyID uuid.UUID, status string, event models.TriggerEvent, action models.ActionType) models.WorkflowTrigger {
	return models.WorkflowTrigger{
		ID:                 uuid.New(),
		CompanyID:          companyID,
		Name:               string(action) + " on " + string(event),
		WorkflowStatusName: status,
		TriggerEvent:       event,
		Action:             models.TriggerAction{Type: action},
	}
}

func TestEngineFiresExitAndEnterTriggers(t *testing.T) {
	companyID := uuid.New()
	exitNew := newTrigger(companyID, "new", models.TriggerOnExit, models.ActionNotifyCustomer)
	enterScheduled := newTrigger(companyID, "scheduled", models.TriggerOnEnter, models.ActionNotifyCustomer)
	matcher := &fakeMatcher{triggers: []models.WorkflowTrigger{
		exitNew,
		enterScheduled,
		// must not fire: wrong event for the statuses involved
		newTrigger(companyID, "new", models.TriggerOnEnter, models.ActionNotifyCustomer),
		newTrigger(companyID, "scheduled", models.TriggerOnExit, models.ActionNotifyCustomer),
		// must not fire: unrelated status
		newTrigger(companyID, "completed", models.TriggerOnEnter, models.ActionCreateInvoiceDraft),
	}}
	enq := &recordingEnqueuer{}
	engine := NewEngine(matcher, enq)

	woID := uuid.New()
	engine.StatusChanged(context.Background(), StatusChange{
		WorkOrderID: woID,
		CompanyID:   companyID,
		OldStatus:   "new",
		NewStatus:   "scheduled",
	})

	require.Len(t, enq.payloads, 2)
	fired := map[uuid.UUID]models.TriggerEvent{}
	for _, p := range enq.payloads {
		fired[p.TriggerID] = p.Event
		assert.Equal(t, woID, p.WorkOrderID)
		assert.Equal(t, companyID, p.CompanyID)
	}
	assert.Equal(t, models.TriggerOnExit, fired[exitNew.ID])
	assert.Equal(t, models.TriggerOnEnter, fired[enterScheduled.ID])
}

func TestEngineSameStatusFiresNothing(t *testing.T) {
	companyID := uuid.New()
	matcher := &fakeMatcher{triggers: []models.WorkflowTrigger{
		newTrigger(companyID, "scheduled", models.TriggerOnEnter, models.ActionNotifyCustomer),
		newTrigger(companyID, "scheduled", models.TriggerOnExit, models.ActionNotifyCustomer),
	}}
	enq := &recordingEnqueuer{}
	engine := NewEngine(matcher, enq)

	engine.StatusChanged(context.Background(), StatusChange{
		WorkOrderID: uuid.New(),
		CompanyID:   companyID,
		OldStatus:   "scheduled",
		NewStatus:   "scheduled",
	})

	assert.Empty(t, enq.payloads)
}

func TestEngineEnqueueFailureDoesNotStopOthers(t *testing.T) {
	companyID := uuid.New()
	failing := newTrigger(companyID, "completed", models.TriggerOnEnter, models.ActionNotifyCustomer)
	surviving := newTrigger(companyID, "completed", models.TriggerOnEnter, models.ActionCreateInvoiceDraft)
	matcher := &fakeMatcher{triggers: []models.WorkflowTrigger{failing, surviving}}
	enq := &recordingEnqueuer{failFor: failing.ID}
	engine := NewEngine(matcher, enq)

	engine.StatusChanged(context.Background(), StatusChange{
		WorkOrderID: uuid.New(),
		CompanyID:   companyID,
		OldStatus:   "scheduled",
		NewStatus:   "completed",
	})

	require.Len(t, enq.payloads, 1)
	assert.Equal(t, surviving.ID, enq.payloads[0].TriggerID)
}

func TestEngineLookupFailureIsSwallowed(t *testing.T) {
	matcher := &fakeMatcher{err: errors.New("store unavailable")}
	enq := &recordingEnqueuer{}
	engine := NewEngine(matcher, enq)

	// must not panic or enqueue anything; the status update already succeeded
	engine.StatusChanged(context.Background(), StatusChange{
		WorkOrderID: uuid.New(),
		CompanyID:   uuid.New(),
		OldStatus:   "new",
		NewStatus:   "scheduled",
	})

	assert.Empty(t, enq.payloads)
}

func TestEngineEmptyOldStatusOnlyFiresEnter(t *testing.T) {
	companyID := uuid.New()
	enter := newTrigger(companyID, "new", models.TriggerOnEnter, models.ActionNotifyCustomer)
	matcher := &fakeMatcher{triggers: []models.WorkflowTrigger{enter}}
	enq := &recordingEnqueuer{}
	engine := NewEngine(matcher, enq)

	engine.StatusChanged(context.Background(), StatusChange{
		WorkOrderID: uuid.New(),
		CompanyID:   companyID,
		OldStatus:   "",
		NewStatus:   "new",
	})

	require.Len(t, enq.payloads, 1)
	assert.Equal(t, enter.ID, enq.payloads[0].TriggerID)
}
