package event

import (
	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/trade"
)

// RegisterAllEvents registers every domain event type with the serializer
func RegisterAllEvents(serializer *EventSerializer) {
	// Documents
	serializer.Register(trade.EventTypeOfferCreated, &trade.OfferCreatedEvent{})
	serializer.Register(trade.EventTypeOfferAccepted, &trade.OfferAcceptedEvent{})
	serializer.Register(trade.EventTypeOfferRejected, &trade.OfferRejectedEvent{})
	serializer.Register(trade.EventTypeInvoiceCreated, &trade.InvoiceCreatedEvent{})
	serializer.Register(trade.EventTypeInvoicePaid, &trade.InvoicePaidEvent{})
	serializer.Register(trade.EventTypeDeliveryNoteCreated, &trade.DeliveryNoteCreatedEvent{})

	// Dunning
	serializer.Register(finance.EventTypeDunningRecordCreated, &finance.DunningRecordCreatedEvent{})

	// Master data
	serializer.Register(partner.EventTypeClientCreated, &partner.ClientCreatedEvent{})
	serializer.Register(partner.EventTypeClientUpdated, &partner.ClientUpdatedEvent{})
	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	serializer.Register(catalog.EventTypeProductUpdated, &catalog.ProductUpdatedEvent{})
}

// NewDefaultSerializer returns a serializer with all domain events registered
func NewDefaultSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterAllEvents(s)
	return s
}
