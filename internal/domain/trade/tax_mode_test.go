package trade

import (
	"testing"

	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type stubSubject struct {
	country   valueobject.CountryCode
	validated bool
}

func (s stubSubject) TaxCountry() valueobject.CountryCode { return s.country }
func (s stubSubject) HasValidatedVATNumber() bool         { return s.validated }

func TestTaxModeResolver_Resolve(t *testing.T) {
	r := NewTaxModeResolver("AT", decimal.NewFromInt(20))

	tests := []struct {
		name     string
		subject  stubSubject
		wantMode TaxMode
		wantPct  string
	}{
		{"home country validated", stubSubject{"AT", true}, TaxModeStandard, "20"},
		{"EU validated", stubSubject{"DE", true}, TaxModeReverseCharge, "0"},
		{"EU unvalidated", stubSubject{"DE", false}, TaxModeStandard, "20"},
		{"non-EU validated", stubSubject{"CH", true}, TaxModeStandard, "20"},
		{"non-EU unvalidated", stubSubject{"US", false}, TaxModeStandard, "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Resolve(tt.subject)
			assert.Equal(t, tt.wantMode, d.Mode)
			assert.Equal(t, tt.wantPct, d.VATPercent.String())
		})
	}
}

func TestNewTaxModeResolver_Defaults(t *testing.T) {
	r := NewTaxModeResolver("", decimal.Zero)
	assert.Equal(t, valueobject.CountryCode("AT"), r.HomeCountry)
	assert.True(t, r.StandardRate.Equal(decimal.NewFromInt(20)))
}
