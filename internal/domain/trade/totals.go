package trade

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals are the header amounts of a document
type Totals struct {
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Gross decimal.Decimal
}

// CalculateTotals computes net, VAT and gross for lines at the given VAT percent.
// Net is rounded once over the raw products, not summed from rounded line totals.
func CalculateTotals(lines []LineItem, vatPercent decimal.Decimal) Totals {
	net := decimal.Zero
	for _, l := range lines {
		net = net.Add(l.Quantity.Mul(l.UnitPrice))
	}
	net = net.Round(2)
	vat := net.Mul(vatPercent).Div(hundred).Round(2)
	return Totals{
		Net:   net,
		VAT:   vat,
		Gross: net.Add(vat).Round(2),
	}
}
