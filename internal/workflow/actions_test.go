package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshyycmechanical/fieldserve/internal/models"
)

type fakeDrafter struct {
	created []models.Invoice
	err     error
}

func (f *fakeDrafter) CreateDraftForWorkOrder(ctx context.Context, companyID, workOrderID, triggerID uuid.UUID) (*models.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	inv := models.Invoice{
		ID:              uuid.New(),
		CompanyID:       companyID,
		WorkOrderID:     workOrderID,
		Status:          models.InvoiceStatusDraft,
		LineItems:       json.RawMessage(`[]`),
		SourceTriggerID: &triggerID,
	}
	f.created = append(f.created, inv)
	return &inv, nil
}

type fakeWorkOrderReader struct {
	wo  *models.WorkOrder
	err error
}

func (f *fakeWorkOrderReader) Get(ctx context.Context, companyID, id uuid.UUID) (*models.WorkOrder, error) {
	return f.wo, f.err
}

type fakeSender struct {
	sent []CustomerNotification
	err  error
}

func (f *fakeSender) Send(ctx context.Context, n CustomerNotification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func TestInvoiceDraftExecutor(t *testing.T) {
	drafter := &fakeDrafter{}
	exec := NewInvoiceDraftExecutor(drafter)

	action := ActionContext{
		CompanyID:   uuid.New(),
		WorkOrderID: uuid.New(),
		TriggerID:   uuid.New(),
	}
	require.NoError(t, exec.Execute(context.Background(), action))

	require.Len(t, drafter.created, 1)
	inv := drafter.created[0]
	assert.Equal(t, action.WorkOrderID, inv.WorkOrderID)
	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
	assert.JSONEq(t, `[]`, string(inv.LineItems))
}

func TestInvoiceDraftExecutorPropagatesError(t *testing.T) {
	exec := NewInvoiceDraftExecutor(&fakeDrafter{err: errors.New("db down")})
	err := exec.Execute(context.Background(), ActionContext{})
	assert.Error(t, err)
}

func TestNotifyCustomerExecutor(t *testing.T) {
	companyID := uuid.New()
	wo := &models.WorkOrder{
		ID:            uuid.New(),
		CompanyID:     companyID,
		Summary:       "Rooftop AC repair",
		CustomerName:  "Acme Corp",
		CustomerEmail: "facilities@acme.example",
		Status:        "completed",
	}
	sender := &fakeSender{}
	exec := NewNotifyCustomerExecutor(&fakeWorkOrderReader{wo: wo}, sender)

	err := exec.Execute(context.Background(), ActionContext{
		CompanyID:   companyID,
		WorkOrderID: wo.ID,
		TriggerID:   uuid.New(),
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	n := sender.sent[0]
	assert.Equal(t, "facilities@acme.example", n.Recipient)
	assert.Equal(t, wo.ID, n.WorkOrderID)
	assert.Contains(t, n.Body, "completed")
}

func TestNotifyCustomerExecutorCustomMessage(t *testing.T) {
	wo := &models.WorkOrder{
		ID:            uuid.New(),
		CompanyID:     uuid.New(),
		Summary:       "Walk-in cooler check",
		CustomerEmail: "owner@diner.example",
		Status:        "scheduled",
	}
	sender := &fakeSender{}
	exec := NewNotifyCustomerExecutor(&fakeWorkOrderReader{wo: wo}, sender)

	err := exec.Execute(context.Background(), ActionContext{
		CompanyID:   wo.CompanyID,
		WorkOrderID: wo.ID,
		Params:      json.RawMessage(`{"message": "A technician is on the way."}`),
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "A technician is on the way.", sender.sent[0].Body)
}

func TestNotifyCustomerExecutorNoContact(t *testing.T) {
	wo := &models.WorkOrder{ID: uuid.New(), CompanyID: uuid.New(), Summary: "No-contact job"}
	sender := &fakeSender{}
	exec := NewNotifyCustomerExecutor(&fakeWorkOrderReader{wo: wo}, sender)

	err := exec.Execute(context.Background(), ActionContext{CompanyID: wo.CompanyID, WorkOrderID: wo.ID})
	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}
