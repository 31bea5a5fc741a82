package trade

import (
	"strings"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientSnapshot is the client data a document keeps, independent of later client edits
type ClientSnapshot struct {
	ID      uuid.UUID
	Name    string
	Country valueobject.CountryCode
}

func (c ClientSnapshot) validate() error {
	if c.ID == uuid.Nil {
		return shared.NewValidationError("client is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return shared.NewValidationError("client name is required")
	}
	return nil
}

// pricedDocument holds the header amounts and lines shared by offers and invoices
type pricedDocument struct {
	TaxMode    TaxMode
	VATPercent decimal.Decimal
	Net        decimal.Decimal
	VAT        decimal.Decimal
	Gross      decimal.Decimal
	// Amount mirrors Gross for consumers of the older single-total field.
	Amount decimal.Decimal
	Lines  []LineItem
}

func newPricedDocument(tax TaxDecision) (pricedDocument, error) {
	if !tax.Mode.IsValid() {
		return pricedDocument{}, shared.NewValidationError("unknown tax mode %q", tax.Mode)
	}
	if tax.VATPercent.IsNegative() {
		return pricedDocument{}, shared.NewValidationError("VAT percent cannot be negative")
	}
	return pricedDocument{
		TaxMode:    tax.Mode,
		VATPercent: tax.VATPercent,
		Net:        decimal.Zero,
		VAT:        decimal.Zero,
		Gross:      decimal.Zero,
		Amount:     decimal.Zero,
		Lines:      make([]LineItem, 0),
	}, nil
}

// Tax returns the snapshotted tax decision
func (d *pricedDocument) Tax() TaxDecision {
	return TaxDecision{Mode: d.TaxMode, VATPercent: d.VATPercent}
}

// Totals returns the header amounts
func (d *pricedDocument) Totals() Totals {
	return Totals{Net: d.Net, VAT: d.VAT, Gross: d.Gross}
}

func (d *pricedDocument) addLine(in LineInput) (LineItem, error) {
	l, err := NewLineItem(in)
	if err != nil {
		return LineItem{}, err
	}
	d.Lines = appendLine(d.Lines, l)
	d.recalculateTotals()
	return d.Lines[len(d.Lines)-1], nil
}

func (d *pricedDocument) updateLine(position int, in LineInput) (LineItem, error) {
	l, err := NewLineItem(in)
	if err != nil {
		return LineItem{}, err
	}
	lines, err := replaceLine(d.Lines, position, l)
	if err != nil {
		return LineItem{}, err
	}
	d.Lines = lines
	d.recalculateTotals()
	return d.Lines[position-1], nil
}

func (d *pricedDocument) removeLine(position int) error {
	lines, err := removeLine(d.Lines, position)
	if err != nil {
		return err
	}
	d.Lines = lines
	d.recalculateTotals()
	return nil
}

func (d *pricedDocument) applyTax(tax TaxDecision) {
	d.TaxMode = tax.Mode
	d.VATPercent = tax.VATPercent
	d.recalculateTotals()
}

func (d *pricedDocument) recalculateTotals() {
	t := CalculateTotals(d.Lines, d.VATPercent)
	d.Net = t.Net
	d.VAT = t.VAT
	d.Gross = t.Gross
	d.Amount = t.Gross
}
