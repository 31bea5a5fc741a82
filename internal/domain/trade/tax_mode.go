package trade

import (
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TaxMode is the VAT treatment applied to a document
type TaxMode string

const (
	TaxModeStandard      TaxMode = "standard_vat"
	TaxModeReverseCharge TaxMode = "eu_reverse_charge"
)

// IsValid checks if the mode is known
func (m TaxMode) IsValid() bool {
	return m == TaxModeStandard || m == TaxModeReverseCharge
}

// TaxDecision is snapshotted onto a document when it is saved
type TaxDecision struct {
	Mode       TaxMode
	VATPercent decimal.Decimal
}

// TaxSubject is the part of a client the tax decision looks at
type TaxSubject interface {
	TaxCountry() valueobject.CountryCode
	HasValidatedVATNumber() bool
}

// TaxModeResolver decides between standard VAT and EU reverse charge
type TaxModeResolver struct {
	HomeCountry  valueobject.CountryCode
	StandardRate decimal.Decimal
}

// NewTaxModeResolver creates a resolver. Empty values fall back to AT and 20%.
func NewTaxModeResolver(homeCountry valueobject.CountryCode, standardRate decimal.Decimal) TaxModeResolver {
	if homeCountry == "" {
		homeCountry = "AT"
	}
	if standardRate.IsZero() {
		standardRate = decimal.NewFromInt(20)
	}
	return TaxModeResolver{HomeCountry: homeCountry, StandardRate: standardRate}
}

// Resolve returns reverse charge at 0% only for a validated VAT number from another EU member state.
// Everything else, including non-EU clients, gets the standard rate.
func (r TaxModeResolver) Resolve(subject TaxSubject) TaxDecision {
	country := subject.TaxCountry()
	if country.IsEUMember() && country != r.HomeCountry && subject.HasValidatedVATNumber() {
		return TaxDecision{Mode: TaxModeReverseCharge, VATPercent: decimal.Zero}
	}
	return TaxDecision{Mode: TaxModeStandard, VATPercent: r.StandardRate}
}
