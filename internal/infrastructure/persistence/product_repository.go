package persistence

import (
	"context"
	"strings"

	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var m models.ProductModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err, "load product", "product", id)
	}
	return m.ToDomain(), nil
}

// FindBySKU finds a product by its SKU (case-insensitive)
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	var m models.ProductModel
	if err := r.db.WithContext(ctx).First(&m, "sku = ?", sku).Error; err != nil {
		return nil, translate(err, "load product", "product", sku)
	}
	return m.ToDomain(), nil
}

// FindByIDs finds multiple products by their IDs. Missing IDs are simply absent from the result.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translate(err, "load products", "product", nil)
	}
	return toProducts(rows), nil
}

// FindAll lists products. Filters: "active".
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var rows []models.ProductModel
	query := applyOrderAndPage(r.filtered(ctx, filter), filter, ProductSortFields, "name")
	if err := query.Find(&rows).Error; err != nil {
		return nil, translate(err, "list products", "product", nil)
	}
	return toProducts(rows), nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, translate(err, "count products", "product", nil)
	}
	return count, nil
}

// Save creates or updates a product. A duplicate SKU is a conflict.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	m := models.ProductModelFromDomain(product)
	return translate(r.db.WithContext(ctx).Save(m).Error, "save product", "product", product.SKU)
}

func (r *GormProductRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	query = applySearch(query, filter.Search, "sku", "name")
	if v, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", v)
	}
	return query
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	out := make([]catalog.Product, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
