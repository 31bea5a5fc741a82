package persistence

import (
	"context"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDeliveryNoteRepository implements DeliveryNoteRepository using GORM
type GormDeliveryNoteRepository struct {
	db *gorm.DB
}

// NewGormDeliveryNoteRepository creates a new GormDeliveryNoteRepository
func NewGormDeliveryNoteRepository(db *gorm.DB) *GormDeliveryNoteRepository {
	return &GormDeliveryNoteRepository{db: db}
}

// FindByID finds a delivery note with its lines
func (r *GormDeliveryNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.DeliveryNote, error) {
	var m models.DeliveryNoteModel
	err := r.db.WithContext(ctx).
		Preload("Lines", orderByPosition).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "load delivery note", "delivery note", id)
	}
	return m.ToDomain(), nil
}

// FindAll lists delivery notes without lines. Filters: "client_id", "invoice_id".
func (r *GormDeliveryNoteRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.DeliveryNote, error) {
	query := r.db.WithContext(ctx).Model(&models.DeliveryNoteModel{})
	query = applySearch(query, filter.Search, "note_number", "client_name")
	for key, value := range filter.Filters {
		switch key {
		case "client_id", "invoice_id":
			query = query.Where(key+" = ?", value)
		}
	}

	var rows []models.DeliveryNoteModel
	if err := applyOrderAndPage(query, filter, DeliveryNoteSortFields, "delivery_date").Find(&rows).Error; err != nil {
		return nil, translate(err, "list delivery notes", "delivery note", nil)
	}
	notes := make([]trade.DeliveryNote, len(rows))
	for i := range rows {
		notes[i] = *rows[i].ToDomain()
	}
	return notes, nil
}

// Save creates a delivery note with its lines. Delivery notes are not edited after creation.
func (r *GormDeliveryNoteRepository) Save(ctx context.Context, note *trade.DeliveryNote) error {
	m := models.DeliveryNoteModelFromDomain(note)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		if len(m.Lines) == 0 {
			return nil
		}
		return tx.Create(&m.Lines).Error
	})
	return translate(err, "save delivery note", "delivery note", note.NoteNumber)
}

var _ trade.DeliveryNoteRepository = (*GormDeliveryNoteRepository)(nil)
