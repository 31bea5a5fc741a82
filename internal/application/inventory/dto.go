package inventory

import (
	"time"

	"github.com/erp/billing/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevelResponse represents the ledger summary of one product
type StockLevelResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
}

// MovementResponse represents a ledger movement in API responses
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Kind          string          `json:"kind"`
	SourceType    string          `json:"source_type"`
	SourceID      uuid.UUID       `json:"source_id"`
	Note          string          `json:"note,omitempty"`
	ReservationID *uuid.UUID      `json:"reservation_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementQuery selects the movements of one source document
type MovementQuery struct {
	SourceType string    `form:"source_type" binding:"required,oneof=angebote rechnungen lieferscheine korrektur"`
	SourceID   uuid.UUID `form:"-"`
}

// AdjustStockRequest represents a manual stock correction. Quantity is the positive
// magnitude; Kind decides the direction.
type AdjustStockRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Kind      string          `json:"kind" binding:"required,oneof=IN OUT"`
	Note      string          `json:"note" binding:"required,min=1,max=255"`
}

// ToMovementResponse converts a domain movement to a response DTO
func ToMovementResponse(m *inventory.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Quantity:      m.Quantity,
		Kind:          string(m.Kind),
		SourceType:    string(m.SourceType),
		SourceID:      m.SourceID,
		Note:          m.Note,
		ReservationID: m.ReservationID,
		CreatedAt:     m.CreatedAt,
	}
}

// ToMovementResponses converts a list of movements
func ToMovementResponses(ms []inventory.Movement) []MovementResponse {
	out := make([]MovementResponse, len(ms))
	for i := range ms {
		out[i] = ToMovementResponse(&ms[i])
	}
	return out
}
