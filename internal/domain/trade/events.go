package trade

import (
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeOffer        = "Offer"
	AggregateTypeInvoice      = "Invoice"
	AggregateTypeDeliveryNote = "DeliveryNote"
)

// Event type constants
const (
	EventTypeOfferCreated        = "OfferCreated"
	EventTypeOfferAccepted       = "OfferAccepted"
	EventTypeOfferRejected       = "OfferRejected"
	EventTypeInvoiceCreated      = "InvoiceCreated"
	EventTypeInvoicePaid         = "InvoicePaid"
	EventTypeDeliveryNoteCreated = "DeliveryNoteCreated"
)

// OfferCreatedEvent is published once an offer has its number
type OfferCreatedEvent struct {
	shared.BaseDomainEvent
	OfferID     uuid.UUID       `json:"offer_id"`
	OfferNumber string          `json:"offer_number"`
	ClientID    uuid.UUID       `json:"client_id"`
	Gross       decimal.Decimal `json:"gross"`
}

// NewOfferCreatedEvent creates a new OfferCreatedEvent
func NewOfferCreatedEvent(o *Offer) *OfferCreatedEvent {
	return &OfferCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOfferCreated, AggregateTypeOffer, o.ID),
		OfferID:         o.ID,
		OfferNumber:     o.OfferNumber,
		ClientID:        o.ClientID,
		Gross:           o.Gross,
	}
}

// OfferAcceptedEvent is published when an offer is accepted
type OfferAcceptedEvent struct {
	shared.BaseDomainEvent
	OfferID     uuid.UUID `json:"offer_id"`
	OfferNumber string    `json:"offer_number"`
}

// NewOfferAcceptedEvent creates a new OfferAcceptedEvent
func NewOfferAcceptedEvent(o *Offer) *OfferAcceptedEvent {
	return &OfferAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOfferAccepted, AggregateTypeOffer, o.ID),
		OfferID:         o.ID,
		OfferNumber:     o.OfferNumber,
	}
}

// OfferRejectedEvent is published when an offer is rejected
type OfferRejectedEvent struct {
	shared.BaseDomainEvent
	OfferID     uuid.UUID `json:"offer_id"`
	OfferNumber string    `json:"offer_number"`
}

// NewOfferRejectedEvent creates a new OfferRejectedEvent
func NewOfferRejectedEvent(o *Offer) *OfferRejectedEvent {
	return &OfferRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOfferRejected, AggregateTypeOffer, o.ID),
		OfferID:         o.ID,
		OfferNumber:     o.OfferNumber,
	}
}

// InvoiceCreatedEvent is published once an invoice has its number
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	OriginOfferID *uuid.UUID      `json:"origin_offer_id,omitempty"`
	Gross         decimal.Decimal `json:"gross"`
	DueDate       time.Time       `json:"due_date"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(i *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, i.ID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.InvoiceNumber,
		ClientID:        i.ClientID,
		OriginOfferID:   i.OriginOfferID,
		Gross:           i.Gross,
		DueDate:         i.DueDate,
	}
}

// InvoicePaidEvent is published when an invoice is settled
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	PaidAt        time.Time `json:"paid_at"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(i *Invoice) *InvoicePaidEvent {
	e := &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, i.ID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.InvoiceNumber,
	}
	if i.PaidAt != nil {
		e.PaidAt = *i.PaidAt
	}
	return e
}

// DeliveryNoteCreatedEvent is published once a delivery note has its number
type DeliveryNoteCreatedEvent struct {
	shared.BaseDomainEvent
	DeliveryNoteID uuid.UUID `json:"delivery_note_id"`
	NoteNumber     string    `json:"note_number"`
	ClientID       uuid.UUID `json:"client_id"`
}

// NewDeliveryNoteCreatedEvent creates a new DeliveryNoteCreatedEvent
func NewDeliveryNoteCreatedEvent(n *DeliveryNote) *DeliveryNoteCreatedEvent {
	return &DeliveryNoteCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDeliveryNoteCreated, AggregateTypeDeliveryNote, n.ID),
		DeliveryNoteID:  n.ID,
		NoteNumber:      n.NoteNumber,
		ClientID:        n.ClientID,
	}
}
