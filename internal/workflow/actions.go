package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

// ActionContext carries what an executor needs to run one matched action.
// Params come straight from the trigger document and are executor-specific.
type ActionContext struct {
	CompanyID   uuid.UUID
	WorkOrderID uuid.UUID
	TriggerID   uuid.UUID
	StatusName  string
	Params      json.RawMessage
}

// Executor runs one workflow action type. Executions must be safe to retry:
// the queue redelivers on failure.
type Executor interface {
	Execute(ctx context.Context, action ActionContext) error
}

// ExecutorRegistry maps action types to executors. The set of types is
// closed; lookups for anything else fail.
type ExecutorRegistry struct {
	executors map[models.ActionType]Executor
}

func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{executors: make(map[models.ActionType]Executor)}
}

func (r *ExecutorRegistry) Register(actionType models.ActionType, exec Executor) {
	r.executors[actionType] = exec
}

func (r *ExecutorRegistry) Lookup(actionType models.ActionType) (Executor, bool) {
	exec, ok := r.executors[actionType]
	return exec, ok
}

// InvoiceDrafter creates a draft invoice for a work order. Drafts are keyed
// by (work order, trigger) so repeated executions are idempotent.
type InvoiceDrafter interface {
	CreateDraftForWorkOrder(ctx context.Context, companyID, workOrderID, triggerID uuid.UUID) (*models.Invoice, error)
}

// InvoiceDraftExecutor handles create_invoice_draft: a stub invoice linked to
// the work order's customer, zero line items, left for a human to fill in.
type InvoiceDraftExecutor struct {
	invoices InvoiceDrafter
}

func NewInvoiceDraftExecutor(invoices InvoiceDrafter) *InvoiceDraftExecutor {
	return &InvoiceDraftExecutor{invoices: invoices}
}

func (e *InvoiceDraftExecutor) Execute(ctx context.Context, action ActionContext) error {
	if _, err := e.invoices.CreateDraftForWorkOrder(ctx, action.CompanyID, action.WorkOrderID, action.TriggerID); err != nil {
		return fmt.Errorf("create invoice draft: %w", err)
	}
	return nil
}

// WorkOrderReader loads a work order for its company.
type WorkOrderReader interface {
	Get(ctx context.Context, companyID, id uuid.UUID) (*models.WorkOrder, error)
}

// NotificationSender pushes a customer notification through the external
// gateway.
type NotificationSender interface {
	Send(ctx context.Context, n CustomerNotification) error
}

// CustomerNotification is the message handed to the notification gateway.
type CustomerNotification struct {
	CompanyID   uuid.UUID `json:"company_id"`
	WorkOrderID uuid.UUID `json:"work_order_id"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
}

// notifyParams is the optional params shape for notify_customer triggers.
type notifyParams struct {
	Message string `json:"message"`
}

// NotifyCustomerExecutor handles notify_customer using the work order's
// customer contact info.
type NotifyCustomerExecutor struct {
	workOrders WorkOrderReader
	sender     NotificationSender
}

func NewNotifyCustomerExecutor(workOrders WorkOrderReader, sender NotificationSender) *NotifyCustomerExecutor {
	return &NotifyCustomerExecutor{workOrders: workOrders, sender: sender}
}

func (e *NotifyCustomerExecutor) Execute(ctx context.Context, action ActionContext) error {
	wo, err := e.workOrders.Get(ctx, action.CompanyID, action.WorkOrderID)
	if err != nil {
		return fmt.Errorf("load work order: %w", err)
	}
	if wo.CustomerEmail == "" {
		return fmt.Errorf("work order %s has no customer contact", wo.ID)
	}

	body := fmt.Sprintf("Your work order %q is now %s.", wo.Summary, wo.Status)
	if len(action.Params) > 0 {
		var p notifyParams
		if err := json.Unmarshal(action.Params, &p); err == nil && p.Message != "" {
			body = p.Message
		}
	}

	return e.sender.Send(ctx, CustomerNotification{
		CompanyID:   wo.CompanyID,
		WorkOrderID: wo.ID,
		Recipient:   wo.CustomerEmail,
		Subject:     fmt.Sprintf("Update on %s", wo.Summary),
		Body:        body,
	})
}
