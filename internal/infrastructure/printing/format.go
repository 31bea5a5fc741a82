package printing

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// formatter renders amounts and dates for one locale
type formatter struct {
	printer *message.Printer
}

func newFormatter(tag language.Tag) formatter {
	return formatter{printer: message.NewPrinter(tag)}
}

// money renders 1234.5 as "1.234,50 €" for German
func (f formatter) money(d decimal.Decimal) string {
	return f.amount(d) + " €"
}

func (f formatter) amount(d decimal.Decimal) string {
	v, _ := d.Round(2).Float64()
	return f.printer.Sprintf("%v", number.Decimal(v, number.Scale(2)))
}

// quantity drops trailing zeros: 2 -> "2", 1.25 -> "1,25"
func (f formatter) quantity(d decimal.Decimal) string {
	v, _ := d.Float64()
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(4)))
}

func (f formatter) percent(d decimal.Decimal) string {
	v, _ := d.Float64()
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2))) + " %"
}

func (f formatter) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}
