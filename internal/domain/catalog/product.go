package catalog

import (
	"strings"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a sellable article referenced by document lines
type Product struct {
	shared.BaseAggregateRoot
	SKU       string
	Name      string
	Unit      string // e.g. "Stk", "h", "kg"
	UnitPrice decimal.Decimal
	Active    bool
}

// NewProduct creates a new active product
func NewProduct(sku, name, unit string, unitPrice decimal.Decimal) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateUnitPrice(unitPrice); err != nil {
		return nil, err
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "Stk"
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(strings.TrimSpace(sku)),
		Name:              strings.TrimSpace(name),
		Unit:              unit,
		UnitPrice:         unitPrice.Round(2),
		Active:            true,
	}

	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update changes name, unit and list price. Existing document lines keep their own price.
func (p *Product) Update(name, unit string, unitPrice decimal.Decimal) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	if err := validateUnitPrice(unitPrice); err != nil {
		return err
	}
	if strings.TrimSpace(unit) != "" {
		p.Unit = strings.TrimSpace(unit)
	}

	p.Name = strings.TrimSpace(name)
	p.UnitPrice = unitPrice.Round(2)
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// Deactivate hides the product from new documents
func (p *Product) Deactivate() error {
	if !p.Active {
		return shared.NewInvalidStateError("product %s is already inactive", p.SKU)
	}
	p.Active = false
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// Activate makes the product selectable again
func (p *Product) Activate() error {
	if p.Active {
		return shared.NewInvalidStateError("product %s is already active", p.SKU)
	}
	p.Active = true
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return shared.NewValidationError("SKU is required")
	}
	if len(sku) > 50 {
		return shared.NewValidationError("SKU cannot exceed 50 characters")
	}
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("product name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("product name cannot exceed 200 characters")
	}
	return nil
}

func validateUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidationError("unit price cannot be negative")
	}
	return nil
}
