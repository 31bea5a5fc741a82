package finance

import (
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SendStatus tracks delivery of a dunning letter to the client
type SendStatus string

const (
	SendStatusPending SendStatus = "pending"
	SendStatusSent    SendStatus = "sent"
	SendStatusFailed  SendStatus = "failed"
	SendStatusSkipped SendStatus = "skipped"
)

// IsValid checks if the status is known
func (s SendStatus) IsValid() bool {
	switch s {
	case SendStatusPending, SendStatusSent, SendStatusFailed, SendStatusSkipped:
		return true
	}
	return false
}

// IsFinal reports whether the status is an outcome rather than pending
func (s SendStatus) IsFinal() bool {
	return s == SendStatusSent || s == SendStatusFailed || s == SendStatusSkipped
}

// DunningRecord is one escalation step for an invoice. There is at most one record per
// (invoice, stage). Records are immutable apart from the send outcome.
type DunningRecord struct {
	shared.BaseAggregateRoot
	InvoiceID      uuid.UUID
	InvoiceNumber  string
	Stage          int
	AmountDue      decimal.Decimal
	FeeAmount      decimal.Decimal
	InterestAmount decimal.Decimal
	DaysOverdue    int
	OverrideText   string
	Manual         bool
	SendStatus     SendStatus
	SendError      string
	SentAt         *time.Time
}

// NewDunningRecord creates a pending record. Fee and interest are always zero.
func NewDunningRecord(invoiceID uuid.UUID, invoiceNumber string, stage int, amountDue decimal.Decimal, daysOverdue int) (*DunningRecord, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewValidationError("dunning record requires an invoice")
	}
	if stage < 0 {
		return nil, shared.NewValidationError("dunning stage cannot be negative")
	}
	if amountDue.IsNegative() {
		return nil, shared.NewValidationError("amount due cannot be negative")
	}
	if daysOverdue < 0 {
		return nil, shared.NewValidationError("invoice is not yet due")
	}

	r := &DunningRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceID:         invoiceID,
		InvoiceNumber:     invoiceNumber,
		Stage:             stage,
		AmountDue:         amountDue.Round(2),
		FeeAmount:         decimal.Zero,
		InterestAmount:    decimal.Zero,
		DaysOverdue:       daysOverdue,
		SendStatus:        SendStatusPending,
	}
	r.AddDomainEvent(NewDunningRecordCreatedEvent(r))
	return r, nil
}

// NewManualDunningRecord creates a record escalated by a user, optionally with custom letter text
func NewManualDunningRecord(invoiceID uuid.UUID, invoiceNumber string, stage int, amountDue decimal.Decimal, daysOverdue int, overrideText string) (*DunningRecord, error) {
	overrideText = strings.TrimSpace(overrideText)
	if len(overrideText) > 4000 {
		return nil, shared.NewValidationError("override text cannot exceed 4000 characters")
	}
	r, err := NewDunningRecord(invoiceID, invoiceNumber, stage, amountDue, daysOverdue)
	if err != nil {
		return nil, err
	}
	r.Manual = true
	r.OverrideText = overrideText
	return r, nil
}

// Total is the amount the letter asks for
func (r *DunningRecord) Total() decimal.Decimal {
	return r.AmountDue.Add(r.FeeAmount).Add(r.InterestAmount)
}

// RecordSendOutcome stores the result of sending the letter. It is the only allowed mutation.
func (r *DunningRecord) RecordSendOutcome(status SendStatus, sendErr string, at time.Time) error {
	if !status.IsFinal() {
		return shared.NewValidationError("send outcome must be sent, failed or skipped, got %q", status)
	}
	if r.SendStatus == SendStatusSent {
		return shared.NewInvalidStateError("dunning record %s was already sent", r.ID)
	}
	if status == SendStatusFailed && strings.TrimSpace(sendErr) == "" {
		sendErr = "unknown error"
	}
	if status != SendStatusFailed {
		sendErr = ""
	}

	r.SendStatus = status
	r.SendError = sendErr
	if status == SendStatusSent {
		if at.IsZero() {
			at = time.Now()
		}
		r.SentAt = &at
	}
	r.Touch()
	r.IncrementVersion()
	return nil
}
