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

// GormOfferRepository implements OfferRepository using GORM
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GormOfferRepository
func NewGormOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// FindByID finds an offer with its lines
func (r *GormOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Offer, error) {
	var m models.OfferModel
	err := r.db.WithContext(ctx).
		Preload("Lines", orderByPosition).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "load offer", "offer", id)
	}
	return m.ToDomain(), nil
}

// FindAll lists offers without lines
func (r *GormOfferRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Offer, error) {
	var rows []models.OfferModel
	query := applyOrderAndPage(r.filtered(ctx, filter), filter, OfferSortFields, "issue_date")
	if err := query.Find(&rows).Error; err != nil {
		return nil, translate(err, "list offers", "offer", nil)
	}
	offers := make([]trade.Offer, len(rows))
	for i := range rows {
		offers[i] = *rows[i].ToDomain()
	}
	return offers, nil
}

// Count counts offers matching the filter
func (r *GormOfferRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, translate(err, "count offers", "offer", nil)
	}
	return count, nil
}

// Save writes the header and replaces the lines. A number clash is a conflict.
func (r *GormOfferRepository) Save(ctx context.Context, offer *trade.Offer) error {
	m := models.OfferModelFromDomain(offer)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return err
		}
		if err := tx.Where("offer_id = ?", m.ID).Delete(&models.OfferLineModel{}).Error; err != nil {
			return err
		}
		if len(m.Lines) == 0 {
			return nil
		}
		return tx.Create(&m.Lines).Error
	})
	return translate(err, "save offer", "offer", offer.OfferNumber)
}

func (r *GormOfferRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.OfferModel{})
	query = applySearch(query, filter.Search, "offer_number", "client_name")
	for key, value := range filter.Filters {
		switch key {
		case "status", "client_id":
			query = query.Where(key+" = ?", value)
		}
	}
	return query
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

var _ trade.OfferRepository = (*GormOfferRepository)(nil)
