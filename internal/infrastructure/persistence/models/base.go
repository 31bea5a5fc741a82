package models

import (
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel extends BaseModel with the aggregate version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

// AggregateRoot rebuilds the domain root. Pending events are not persisted, so none are restored.
func (m *AggregateModel) AggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version: m.Version,
	}
}

// All returns every model in migration order, for AutoMigrate in tests and tooling
func All() []any {
	return []any{
		&ClientModel{},
		&ProductModel{},
		&OfferModel{},
		&OfferLineModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
		&DeliveryNoteModel{},
		&DeliveryNoteLineModel{},
		&MovementModel{},
		&DunningRecordModel{},
	}
}
