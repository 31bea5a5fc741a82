package models

import (
	"time"

	"github.com/erp/billing/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementModel is one row of the append-only stock ledger.
// The unique reservation_id index lets a reservation be settled only once.
type MovementModel struct {
	ID            uuid.UUID              `gorm:"type:uuid;primaryKey"`
	ProductID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	Quantity      decimal.Decimal        `gorm:"type:numeric(18,4);not null"`
	Kind          inventory.MovementKind `gorm:"type:varchar(10);not null"`
	SourceType    inventory.SourceType   `gorm:"type:varchar(20);not null;index:idx_movements_source,priority:1"`
	SourceID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_movements_source,priority:2"`
	Note          string                 `gorm:"type:varchar(500)"`
	ReservationID *uuid.UUID             `gorm:"type:uuid;uniqueIndex:idx_movements_reservation"`
	CreatedAt     time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *MovementModel) ToDomain() inventory.Movement {
	return inventory.Movement{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Quantity:      m.Quantity,
		Kind:          m.Kind,
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
		Note:          m.Note,
		ReservationID: m.ReservationID,
		CreatedAt:     m.CreatedAt,
	}
}

// MovementModelFromDomain creates a persistence model from a domain Movement
func MovementModelFromDomain(mv *inventory.Movement) *MovementModel {
	return &MovementModel{
		ID:            mv.ID,
		ProductID:     mv.ProductID,
		Quantity:      mv.Quantity,
		Kind:          mv.Kind,
		SourceType:    mv.SourceType,
		SourceID:      mv.SourceID,
		Note:          mv.Note,
		ReservationID: mv.ReservationID,
		CreatedAt:     mv.CreatedAt,
	}
}
