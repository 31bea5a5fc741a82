package models

import (
	"github.com/erp/billing/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate root
type ProductModel struct {
	AggregateModel
	SKU       string          `gorm:"column:sku;type:varchar(50);not null;uniqueIndex:idx_products_sku"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Unit      string          `gorm:"type:varchar(20);not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Active    bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.AggregateRoot(),
		SKU:               m.SKU,
		Name:              m.Name,
		Unit:              m.Unit,
		UnitPrice:         m.UnitPrice,
		Active:            m.Active,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.Unit = p.Unit
	m.UnitPrice = p.UnitPrice
	m.Active = p.Active
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
