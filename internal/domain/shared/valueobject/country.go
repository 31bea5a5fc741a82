package valueobject

import (
	"fmt"
	"strings"
)

// CountryCode is an ISO 3166-1 alpha-2 country code, always upper-case.
type CountryCode string

// euMembers lists the current EU member states by their ISO codes.
// Greece is listed as "GR"; VAT numbers use the "EL" prefix, which is normalised on input.
var euMembers = map[CountryCode]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "CY": {}, "CZ": {}, "DE": {}, "DK": {},
	"EE": {}, "ES": {}, "FI": {}, "FR": {}, "GR": {}, "HR": {}, "HU": {},
	"IE": {}, "IT": {}, "LT": {}, "LU": {}, "LV": {}, "MT": {}, "NL": {},
	"PL": {}, "PT": {}, "RO": {}, "SE": {}, "SI": {}, "SK": {},
}

// NewCountryCode normalises and validates a two-letter code.
func NewCountryCode(code string) (CountryCode, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "EL" {
		c = "GR"
	}
	if len(c) != 2 || c[0] < 'A' || c[0] > 'Z' || c[1] < 'A' || c[1] > 'Z' {
		return "", fmt.Errorf("country code %q must be two letters", code)
	}
	return CountryCode(c), nil
}

// IsEUMember reports whether the country is an EU member state
func (c CountryCode) IsEUMember() bool {
	_, ok := euMembers[c]
	return ok
}

// String returns the code
func (c CountryCode) String() string {
	return string(c)
}
