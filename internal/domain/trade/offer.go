package trade

import (
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OfferStatus represents the status of an offer
type OfferStatus string

const (
	OfferStatusOpen     OfferStatus = "open"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

// IsValid checks if the status is a valid OfferStatus
func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusOpen, OfferStatusAccepted, OfferStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of OfferStatus
func (s OfferStatus) String() string {
	return string(s)
}

// DefaultOfferValidityDays is used when no validity date is given
const DefaultOfferValidityDays = 30

// Offer is a quote sent to a client. Once accepted it can be converted into an invoice.
type Offer struct {
	shared.BaseAggregateRoot
	pricedDocument
	OfferNumber   string
	ClientID      uuid.UUID
	ClientName    string
	ClientCountry valueobject.CountryCode
	IssueDate     time.Time
	ValidUntil    time.Time
	Status        OfferStatus
	Note          string
	AcceptedAt    *time.Time
	RejectedAt    *time.Time
}

// NewOffer creates an open offer without a number. The number is assigned when it is saved.
func NewOffer(client ClientSnapshot, issueDate, validUntil time.Time, tax TaxDecision, note string) (*Offer, error) {
	if err := client.validate(); err != nil {
		return nil, err
	}
	if issueDate.IsZero() {
		return nil, shared.NewValidationError("issue date is required")
	}
	issueDate = shared.DateOf(issueDate)
	if validUntil.IsZero() {
		validUntil = issueDate.AddDate(0, 0, DefaultOfferValidityDays)
	}
	validUntil = shared.DateOf(validUntil)
	if validUntil.Before(issueDate) {
		return nil, shared.NewValidationError("valid-until date cannot be before the issue date")
	}
	doc, err := newPricedDocument(tax)
	if err != nil {
		return nil, err
	}

	return &Offer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		pricedDocument:    doc,
		ClientID:          client.ID,
		ClientName:        strings.TrimSpace(client.Name),
		ClientCountry:     client.Country,
		IssueDate:         issueDate,
		ValidUntil:        validUntil,
		Status:            OfferStatusOpen,
		Note:              strings.TrimSpace(note),
	}, nil
}

// AssignNumber sets the allocated number. It can be set only once.
func (o *Offer) AssignNumber(number string) error {
	if o.OfferNumber != "" {
		return shared.NewInvalidStateError("offer already numbered %s", o.OfferNumber)
	}
	if number == "" {
		return shared.NewValidationError("offer number cannot be empty")
	}
	o.OfferNumber = number
	o.AddDomainEvent(NewOfferCreatedEvent(o))
	return nil
}

// AddLine appends a line and recomputes totals. Only allowed while open.
func (o *Offer) AddLine(in LineInput) (LineItem, error) {
	if err := o.ensureEditable(); err != nil {
		return LineItem{}, err
	}
	l, err := o.addLine(in)
	if err != nil {
		return LineItem{}, err
	}
	o.touch()
	return l, nil
}

// UpdateLine replaces the line at position and recomputes totals
func (o *Offer) UpdateLine(position int, in LineInput) (LineItem, error) {
	if err := o.ensureEditable(); err != nil {
		return LineItem{}, err
	}
	l, err := o.updateLine(position, in)
	if err != nil {
		return LineItem{}, err
	}
	o.touch()
	return l, nil
}

// RemoveLine drops the line at position and recomputes totals
func (o *Offer) RemoveLine(position int) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if err := o.removeLine(position); err != nil {
		return err
	}
	o.touch()
	return nil
}

// ApplyTax re-snapshots the tax decision, e.g. after the client's VAT status changed
func (o *Offer) ApplyTax(tax TaxDecision) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if !tax.Mode.IsValid() {
		return shared.NewValidationError("unknown tax mode %q", tax.Mode)
	}
	o.applyTax(tax)
	o.touch()
	return nil
}

// Accept marks the offer accepted. Accepting an accepted offer is a no-op.
func (o *Offer) Accept() error {
	switch o.Status {
	case OfferStatusAccepted:
		return nil
	case OfferStatusRejected:
		return shared.NewInvalidStateError("offer %s was rejected", o.OfferNumber)
	}
	if len(o.Lines) == 0 {
		return shared.NewValidationError("cannot accept an offer without lines")
	}

	now := time.Now()
	o.Status = OfferStatusAccepted
	o.AcceptedAt = &now
	o.touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOfferAcceptedEvent(o))
	return nil
}

// Reject marks the offer rejected. Reservations must be released by the caller.
func (o *Offer) Reject() error {
	if o.Status != OfferStatusOpen {
		return shared.NewInvalidStateError("cannot reject offer in %s status", o.Status)
	}

	now := time.Now()
	o.Status = OfferStatusRejected
	o.RejectedAt = &now
	o.touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOfferRejectedEvent(o))
	return nil
}

// CanConvert checks the offer may become an invoice
func (o *Offer) CanConvert() error {
	if o.Status == OfferStatusRejected {
		return shared.NewInvalidStateError("rejected offer %s cannot be converted", o.OfferNumber)
	}
	if len(o.Lines) == 0 {
		return shared.NewValidationError("offer %s has no lines", o.OfferNumber)
	}
	return nil
}

// Snapshot returns the client snapshot stored on the offer
func (o *Offer) Snapshot() ClientSnapshot {
	return ClientSnapshot{ID: o.ClientID, Name: o.ClientName, Country: o.ClientCountry}
}

func (o *Offer) ensureEditable() error {
	if o.Status != OfferStatusOpen {
		return shared.NewInvalidStateError("cannot edit offer in %s status", o.Status)
	}
	return nil
}

func (o *Offer) touch() {
	o.Touch()
}
