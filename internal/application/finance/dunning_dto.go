package finance

import (
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ManualDunningRequest escalates an invoice by hand, optionally with custom letter text
type ManualDunningRequest struct {
	OverrideText string `json:"override_text" binding:"max=4000"`
}

// SendOutcomeRequest records how sending a dunning letter went
type SendOutcomeRequest struct {
	Status string     `json:"status" binding:"required,oneof=sent failed skipped"`
	Error  string     `json:"error" binding:"max=1000"`
	SentAt *time.Time `json:"sent_at"`
}

// DunningRecordResponse represents a dunning record in API responses
type DunningRecordResponse struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	Stage          int             `json:"stage"`
	StageName      string          `json:"stage_name"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	FeeAmount      decimal.Decimal `json:"fee_amount"`
	InterestAmount decimal.Decimal `json:"interest_amount"`
	Total          decimal.Decimal `json:"total"`
	DaysOverdue    int             `json:"days_overdue"`
	OverrideText   string          `json:"override_text,omitempty"`
	Manual         bool            `json:"manual"`
	SendStatus     string          `json:"send_status"`
	SendError      string          `json:"send_error,omitempty"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SweepOutcome classifies what the sweep did with one invoice
type SweepOutcome string

const (
	SweepCreated   SweepOutcome = "created"
	SweepNotDue    SweepOutcome = "not_due"
	SweepDuplicate SweepOutcome = "duplicate"
	SweepSettled   SweepOutcome = "settled"
	SweepFailed    SweepOutcome = "failed"
)

// SweepItem reports one examined invoice
type SweepItem struct {
	InvoiceID     uuid.UUID    `json:"invoice_id"`
	InvoiceNumber string       `json:"invoice_number"`
	DaysOverdue   int          `json:"days_overdue"`
	Outcome       SweepOutcome `json:"outcome"`
	Stage         *int         `json:"stage,omitempty"`
	RecordID      *uuid.UUID   `json:"record_id,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// SweepReport summarises one dunning sweep
type SweepReport struct {
	RunDate  time.Time     `json:"run_date"`
	Examined int           `json:"examined"`
	Created  int           `json:"created"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
	Items    []SweepItem   `json:"items"`
}

func (r *SweepReport) add(item SweepItem) {
	r.Examined++
	switch item.Outcome {
	case SweepCreated:
		r.Created++
	case SweepFailed:
		r.Failed++
	default:
		r.Skipped++
	}
	r.Items = append(r.Items, item)
}

// ToDunningRecordResponse converts a domain record to a response DTO
func ToDunningRecordResponse(r *finance.DunningRecord) DunningRecordResponse {
	return DunningRecordResponse{
		ID:             r.ID,
		InvoiceID:      r.InvoiceID,
		InvoiceNumber:  r.InvoiceNumber,
		Stage:          r.Stage,
		StageName:      finance.StageName(r.Stage),
		AmountDue:      r.AmountDue,
		FeeAmount:      r.FeeAmount,
		InterestAmount: r.InterestAmount,
		Total:          r.Total(),
		DaysOverdue:    r.DaysOverdue,
		OverrideText:   r.OverrideText,
		Manual:         r.Manual,
		SendStatus:     string(r.SendStatus),
		SendError:      r.SendError,
		SentAt:         r.SentAt,
		CreatedAt:      r.CreatedAt,
	}
}

// ToDunningRecordResponses converts a list of records
func ToDunningRecordResponses(records []finance.DunningRecord) []DunningRecordResponse {
	out := make([]DunningRecordResponse, len(records))
	for i := range records {
		out[i] = ToDunningRecordResponse(&records[i])
	}
	return out
}
