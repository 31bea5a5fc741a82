package finance

import (
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeDunningRecord = "DunningRecord"

// Event type constants
const (
	EventTypeDunningRecordCreated = "DunningRecordCreated"
)

// DunningRecordCreatedEvent is published after a dunning record commits.
// The notification handler sends the letter and records the outcome.
type DunningRecordCreatedEvent struct {
	shared.BaseDomainEvent
	RecordID      uuid.UUID       `json:"record_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Stage         int             `json:"stage"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	DaysOverdue   int             `json:"days_overdue"`
	Manual        bool            `json:"manual"`
}

// NewDunningRecordCreatedEvent creates a new DunningRecordCreatedEvent
func NewDunningRecordCreatedEvent(r *DunningRecord) *DunningRecordCreatedEvent {
	return &DunningRecordCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDunningRecordCreated, AggregateTypeDunningRecord, r.ID),
		RecordID:        r.ID,
		InvoiceID:       r.InvoiceID,
		InvoiceNumber:   r.InvoiceNumber,
		Stage:           r.Stage,
		AmountDue:       r.AmountDue,
		DaysOverdue:     r.DaysOverdue,
		Manual:          r.Manual,
	}
}
