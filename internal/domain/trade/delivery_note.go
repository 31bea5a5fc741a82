package trade

import (
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryLine is a shipped quantity of a product. Delivery notes carry no prices.
type DeliveryLine struct {
	ID          uuid.UUID
	Position    int
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
}

// DeliveryNote documents goods handed to a client. Saving one books the stock out.
type DeliveryNote struct {
	shared.BaseAggregateRoot
	NoteNumber   string
	ClientID     uuid.UUID
	ClientName   string
	DeliveryDate time.Time
	InvoiceID    *uuid.UUID
	Note         string
	Lines        []DeliveryLine
}

// NewDeliveryNote creates a delivery note without a number
func NewDeliveryNote(client ClientSnapshot, deliveryDate time.Time, invoiceID *uuid.UUID, note string) (*DeliveryNote, error) {
	if err := client.validate(); err != nil {
		return nil, err
	}
	if deliveryDate.IsZero() {
		return nil, shared.NewValidationError("delivery date is required")
	}
	return &DeliveryNote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          client.ID,
		ClientName:        strings.TrimSpace(client.Name),
		DeliveryDate:      shared.DateOf(deliveryDate),
		InvoiceID:         invoiceID,
		Note:              strings.TrimSpace(note),
		Lines:             make([]DeliveryLine, 0),
	}, nil
}

// AddLine appends a delivered product
func (n *DeliveryNote) AddLine(productID uuid.UUID, productName string, quantity decimal.Decimal) (DeliveryLine, error) {
	if productID == uuid.Nil {
		return DeliveryLine{}, shared.NewValidationError("delivery line requires a product")
	}
	if strings.TrimSpace(productName) == "" {
		return DeliveryLine{}, shared.NewValidationError("delivery line requires a product name")
	}
	if !quantity.IsPositive() {
		return DeliveryLine{}, shared.NewValidationError("quantity must be positive")
	}
	l := DeliveryLine{
		ID:          uuid.New(),
		Position:    len(n.Lines) + 1,
		ProductID:   productID,
		ProductName: strings.TrimSpace(productName),
		Quantity:    quantity.Round(4),
	}
	n.Lines = append(n.Lines, l)
	n.Touch()
	return l, nil
}

// AssignNumber sets the allocated number
func (n *DeliveryNote) AssignNumber(number string) error {
	if n.NoteNumber != "" {
		return shared.NewInvalidStateError("delivery note already numbered %s", n.NoteNumber)
	}
	if number == "" {
		return shared.NewValidationError("delivery note number cannot be empty")
	}
	if len(n.Lines) == 0 {
		return shared.NewValidationError("delivery note has no lines")
	}
	n.NoteNumber = number
	n.AddDomainEvent(NewDeliveryNoteCreatedEvent(n))
	return nil
}
