package catalog

import (
	"time"

	"github.com/erp/billing/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU       string          `json:"sku" binding:"required,min=1,max=50"`
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	Unit      string          `json:"unit" binding:"max=20"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	Unit      string          `json:"unit" binding:"max=20"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	Active    *bool           `json:"active"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToProductResponse converts a domain product to a response DTO
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Unit:      p.Unit,
		UnitPrice: p.UnitPrice,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
