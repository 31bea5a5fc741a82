package trade

import (
	"strings"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineKind tags a line as a catalog product or a free-text entry
type LineKind string

const (
	LineKindProduct LineKind = "product"
	LineKindManual  LineKind = "manual"
)

// LineItem is one position of an offer or invoice.
// A product line carries ProductID and ProductName; a manual line carries Description. Never both.
type LineItem struct {
	ID          uuid.UUID
	Position    int
	Kind        LineKind
	ProductID   uuid.UUID
	ProductName string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// LineInput is the caller's description of a line before validation
type LineInput struct {
	ProductID   uuid.UUID
	ProductName string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// NewProductLine creates a line referencing a catalog product
func NewProductLine(productID uuid.UUID, productName string, quantity, unitPrice decimal.Decimal) (LineItem, error) {
	if productID == uuid.Nil {
		return LineItem{}, shared.NewValidationError("product line requires a product")
	}
	name := strings.TrimSpace(productName)
	if name == "" {
		return LineItem{}, shared.NewValidationError("product line requires a product name")
	}
	if err := validateAmounts(quantity, unitPrice); err != nil {
		return LineItem{}, err
	}
	return newLine(LineItem{
		Kind:        LineKindProduct,
		ProductID:   productID,
		ProductName: name,
	}, quantity, unitPrice), nil
}

// NewManualLine creates a free-text line
func NewManualLine(description string, quantity, unitPrice decimal.Decimal) (LineItem, error) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return LineItem{}, shared.NewValidationError("manual line requires a description")
	}
	if len(desc) > 500 {
		return LineItem{}, shared.NewValidationError("description cannot exceed 500 characters")
	}
	if err := validateAmounts(quantity, unitPrice); err != nil {
		return LineItem{}, err
	}
	return newLine(LineItem{
		Kind:        LineKindManual,
		Description: desc,
	}, quantity, unitPrice), nil
}

// NewLineItem picks the variant from the input
func NewLineItem(in LineInput) (LineItem, error) {
	hasProduct := in.ProductID != uuid.Nil
	hasText := strings.TrimSpace(in.Description) != ""
	switch {
	case hasProduct && hasText:
		return LineItem{}, shared.NewValidationError("a line has either a product or a description, not both")
	case hasProduct:
		return NewProductLine(in.ProductID, in.ProductName, in.Quantity, in.UnitPrice)
	case hasText:
		return NewManualLine(in.Description, in.Quantity, in.UnitPrice)
	}
	return LineItem{}, shared.NewValidationError("a line needs a product or a description")
}

// IsProduct reports whether the line references a product
func (l LineItem) IsProduct() bool {
	return l.Kind == LineKindProduct
}

// Label is the text printed for the line
func (l LineItem) Label() string {
	if l.IsProduct() {
		return l.ProductName
	}
	return l.Description
}

func newLine(l LineItem, quantity, unitPrice decimal.Decimal) LineItem {
	l.ID = uuid.New()
	l.Quantity = quantity.Round(4)
	l.UnitPrice = unitPrice.Round(2)
	l.LineTotal = l.Quantity.Mul(l.UnitPrice).Round(2)
	return l
}

func validateAmounts(quantity, unitPrice decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewValidationError("unit price cannot be negative")
	}
	return nil
}

// appendLine adds l at the end and numbers it
func appendLine(lines []LineItem, l LineItem) []LineItem {
	l.Position = len(lines) + 1
	return append(lines, l)
}

// replaceLine swaps the line at position, keeping its ID and position
func replaceLine(lines []LineItem, position int, l LineItem) ([]LineItem, error) {
	idx, err := lineIndex(lines, position)
	if err != nil {
		return nil, err
	}
	l.ID = lines[idx].ID
	l.Position = position
	out := make([]LineItem, len(lines))
	copy(out, lines)
	out[idx] = l
	return out, nil
}

// removeLine drops the line at position and renumbers the rest
func removeLine(lines []LineItem, position int) ([]LineItem, error) {
	idx, err := lineIndex(lines, position)
	if err != nil {
		return nil, err
	}
	out := make([]LineItem, 0, len(lines)-1)
	out = append(out, lines[:idx]...)
	out = append(out, lines[idx+1:]...)
	for i := range out {
		out[i].Position = i + 1
	}
	return out, nil
}

func lineIndex(lines []LineItem, position int) (int, error) {
	for i := range lines {
		if lines[i].Position == position {
			return i, nil
		}
	}
	return -1, shared.NewNotFoundError("line", position)
}

// ProductQuantities sums quantities per product over the product lines
func ProductQuantities(lines []LineItem) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range lines {
		if !l.IsProduct() {
			continue
		}
		out[l.ProductID] = out[l.ProductID].Add(l.Quantity)
	}
	return out
}

// cloneLines copies lines with fresh IDs, e.g. when an offer becomes an invoice
func cloneLines(lines []LineItem) []LineItem {
	out := make([]LineItem, len(lines))
	for i, l := range lines {
		l.ID = uuid.New()
		out[i] = l
	}
	return out
}
