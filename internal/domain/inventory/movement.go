package inventory

import (
	"strings"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementKind represents the kind of stock movement
type MovementKind string

const (
	MovementReserve MovementKind = "RESERVE" // stock promised to an open document
	MovementRelease MovementKind = "RELEASE" // settles a reservation without shipping
	MovementOut     MovementKind = "OUT"     // stock left the warehouse
	MovementIn      MovementKind = "IN"      // stock arrived
)

// IsValid checks if the kind is known
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementReserve, MovementRelease, MovementOut, MovementIn:
		return true
	}
	return false
}

// String returns the string representation of MovementKind
func (k MovementKind) String() string {
	return string(k)
}

// SourceType identifies the kind of document a movement belongs to
type SourceType string

const (
	SourceOffer        SourceType = "angebote"
	SourceInvoice      SourceType = "rechnungen"
	SourceDeliveryNote SourceType = "lieferscheine"
	SourceCorrection   SourceType = "korrektur"
)

// IsValid checks if the source type is known
func (s SourceType) IsValid() bool {
	switch s {
	case SourceOffer, SourceInvoice, SourceDeliveryNote, SourceCorrection:
		return true
	}
	return false
}

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// Movement is one append-only ledger entry. Corrections are new offsetting movements.
//
// Quantity is signed for IN (positive) and OUT (negative). RESERVE and RELEASE carry the
// positive magnitude and the kind decides the meaning. ReservationID links the single OUT or
// RELEASE that settles a RESERVE.
type Movement struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	Quantity      decimal.Decimal
	Kind          MovementKind
	SourceType    SourceType
	SourceID      uuid.UUID
	Note          string
	ReservationID *uuid.UUID
	CreatedAt     time.Time
}

func newMovement(productID uuid.UUID, qty decimal.Decimal, kind MovementKind, sourceType SourceType, sourceID uuid.UUID, note string) (*Movement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("movement requires a product")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("unknown movement kind %q", kind)
	}
	if !sourceType.IsValid() {
		return nil, shared.NewValidationError("unknown source type %q", sourceType)
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewValidationError("movement requires a source document")
	}
	return &Movement{
		ID:         uuid.New(),
		ProductID:  productID,
		Quantity:   qty.Round(4),
		Kind:       kind,
		SourceType: sourceType,
		SourceID:   sourceID,
		Note:       strings.TrimSpace(note),
		CreatedAt:  time.Now(),
	}, nil
}

// Magnitude returns the unsigned quantity
func (m *Movement) Magnitude() decimal.Decimal {
	return m.Quantity.Abs()
}

// IsSettlement reports whether the movement closes a reservation
func (m *Movement) IsSettlement() bool {
	return m.ReservationID != nil
}

// StockLevel summarises the ledger for one product
type StockLevel struct {
	ProductID uuid.UUID
	OnHand    decimal.Decimal // sum of IN and OUT
	Reserved  decimal.Decimal // sum of unsettled RESERVE
	Available decimal.Decimal // OnHand - Reserved
}
