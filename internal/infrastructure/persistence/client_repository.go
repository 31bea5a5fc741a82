package persistence

import (
	"context"

	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Client, error) {
	var m models.ClientModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err, "load client", "client", id)
	}
	return m.ToDomain(), nil
}

// FindAll lists clients. Filters: "country_code", "vat_status".
func (r *GormClientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Client, error) {
	var rows []models.ClientModel
	query := applyOrderAndPage(r.filtered(ctx, filter), filter, ClientSortFields, "display_name")
	if err := query.Find(&rows).Error; err != nil {
		return nil, translate(err, "list clients", "client", nil)
	}
	clients := make([]partner.Client, len(rows))
	for i := range rows {
		clients[i] = *rows[i].ToDomain()
	}
	return clients, nil
}

// Count counts clients matching the filter
func (r *GormClientRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, translate(err, "count clients", "client", nil)
	}
	return count, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	m := models.ClientModelFromDomain(client)
	return translate(r.db.WithContext(ctx).Save(m).Error, "save client", "client", client.ID)
}

func (r *GormClientRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ClientModel{})
	query = applySearch(query, filter.Search, "display_name", "vat_number", "city")
	for key, value := range filter.Filters {
		switch key {
		case "country_code", "vat_status":
			query = query.Where(key+" = ?", value)
		}
	}
	return query
}

var _ partner.ClientRepository = (*GormClientRepository)(nil)
