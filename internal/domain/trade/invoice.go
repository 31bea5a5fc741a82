package trade

import (
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusOpen    InvoiceStatus = "open"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusDunning InvoiceStatus = "dunning"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusOpen, InvoiceStatusPaid, InvoiceStatusDunning:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

const (
	// NoDunningStage marks an invoice without any dunning record
	NoDunningStage = -1

	// DefaultPaymentTermDays is the gap between issue and due date
	DefaultPaymentTermDays = 14
)

// Invoice is a bill sent to a client, created directly or converted from an offer
type Invoice struct {
	shared.BaseAggregateRoot
	pricedDocument
	InvoiceNumber    string
	ClientID         uuid.UUID
	ClientName       string
	ClientCountry    valueobject.CountryCode
	IssueDate        time.Time
	DueDate          time.Time
	Status           InvoiceStatus
	DunningStage     int
	PaymentReference string
	OriginOfferID    *uuid.UUID
	Note             string
	PaidAt           *time.Time
}

// NewInvoice creates an open invoice without a number
func NewInvoice(client ClientSnapshot, issueDate time.Time, paymentTermDays int, tax TaxDecision, note string) (*Invoice, error) {
	if err := client.validate(); err != nil {
		return nil, err
	}
	if issueDate.IsZero() {
		return nil, shared.NewValidationError("issue date is required")
	}
	if paymentTermDays < 0 {
		return nil, shared.NewValidationError("payment term cannot be negative")
	}
	doc, err := newPricedDocument(tax)
	if err != nil {
		return nil, err
	}

	issueDate = shared.DateOf(issueDate)
	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		pricedDocument:    doc,
		ClientID:          client.ID,
		ClientName:        strings.TrimSpace(client.Name),
		ClientCountry:     client.Country,
		IssueDate:         issueDate,
		DueDate:           issueDate.AddDate(0, 0, paymentTermDays),
		Status:            InvoiceStatusOpen,
		DunningStage:      NoDunningStage,
		Note:              strings.TrimSpace(note),
	}, nil
}

// NewInvoiceFromOffer builds the invoice for a converted offer. Client, tax snapshot,
// lines and totals are copied; the issue date is the conversion date.
func NewInvoiceFromOffer(offer *Offer, conversionDate time.Time, paymentTermDays int) (*Invoice, error) {
	if err := offer.CanConvert(); err != nil {
		return nil, err
	}
	inv, err := NewInvoice(offer.Snapshot(), conversionDate, paymentTermDays, offer.Tax(), offer.Note)
	if err != nil {
		return nil, err
	}

	originID := offer.ID
	inv.OriginOfferID = &originID
	inv.Lines = cloneLines(offer.Lines)
	inv.Net = offer.Net
	inv.VAT = offer.VAT
	inv.Gross = offer.Gross
	inv.Amount = offer.Gross
	return inv, nil
}

// AssignNumber sets the allocated number and derives the payment reference
func (i *Invoice) AssignNumber(number string) error {
	if i.InvoiceNumber != "" {
		return shared.NewInvalidStateError("invoice already numbered %s", i.InvoiceNumber)
	}
	if number == "" {
		return shared.NewValidationError("invoice number cannot be empty")
	}
	i.InvoiceNumber = number
	i.PaymentReference = PaymentReference(number, i.ID)
	i.AddDomainEvent(NewInvoiceCreatedEvent(i))
	return nil
}

// PaymentReference is the transfer reference printed on an invoice
func PaymentReference(number string, id uuid.UUID) string {
	return number + "-" + id.String()
}

// AddLine appends a line and recomputes totals. Only allowed while open.
func (i *Invoice) AddLine(in LineInput) (LineItem, error) {
	if err := i.ensureEditable(); err != nil {
		return LineItem{}, err
	}
	l, err := i.addLine(in)
	if err != nil {
		return LineItem{}, err
	}
	i.Touch()
	return l, nil
}

// UpdateLine replaces the line at position and recomputes totals
func (i *Invoice) UpdateLine(position int, in LineInput) (LineItem, error) {
	if err := i.ensureEditable(); err != nil {
		return LineItem{}, err
	}
	l, err := i.updateLine(position, in)
	if err != nil {
		return LineItem{}, err
	}
	i.Touch()
	return l, nil
}

// RemoveLine drops the line at position and recomputes totals
func (i *Invoice) RemoveLine(position int) error {
	if err := i.ensureEditable(); err != nil {
		return err
	}
	if err := i.removeLine(position); err != nil {
		return err
	}
	i.Touch()
	return nil
}

// MarkPaid settles the invoice
func (i *Invoice) MarkPaid(at time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return shared.NewInvalidStateError("invoice %s is already paid", i.InvoiceNumber)
	}
	if at.IsZero() {
		at = time.Now()
	}
	i.Status = InvoiceStatusPaid
	i.PaidAt = &at
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoicePaidEvent(i))
	return nil
}

// EnterDunningStage moves the invoice into dunning at stage. Stages only go up.
func (i *Invoice) EnterDunningStage(stage int) error {
	if i.Status == InvoiceStatusPaid {
		return shared.NewInvalidStateError("invoice %s is paid", i.InvoiceNumber)
	}
	if stage <= i.DunningStage {
		return shared.NewConflictError("invoice %s is already at dunning stage %d", i.InvoiceNumber, i.DunningStage)
	}
	i.Status = InvoiceStatusDunning
	i.DunningStage = stage
	i.Touch()
	i.IncrementVersion()
	return nil
}

// Outstanding is the amount still owed. Partial payments are not tracked, so it is the gross total.
func (i *Invoice) Outstanding() decimal.Decimal {
	if i.Status == InvoiceStatusPaid {
		return decimal.Zero
	}
	return i.Gross
}

// DaysOverdue returns the whole days past the due date on today. Negative if not yet due.
func (i *Invoice) DaysOverdue(today time.Time) int {
	return shared.DaysBetween(i.DueDate, today)
}

// IsDunnable reports whether the invoice is in a status the dunning sweep looks at
func (i *Invoice) IsDunnable() bool {
	return i.Status == InvoiceStatusOpen || i.Status == InvoiceStatusDunning
}

func (i *Invoice) ensureEditable() error {
	if i.Status != InvoiceStatusOpen {
		return shared.NewInvalidStateError("cannot edit invoice in %s status", i.Status)
	}
	return nil
}
