package valueobject

import (
	"fmt"
	"strings"
)

// Address is an immutable postal address
type Address struct {
	street     string
	postalCode string
	city       string
	country    CountryCode
}

// NewAddress creates a new Address. Every part is optional except the country.
func NewAddress(street, postalCode, city string, country CountryCode) (Address, error) {
	street = strings.TrimSpace(street)
	postalCode = strings.TrimSpace(postalCode)
	city = strings.TrimSpace(city)

	if len(street) > 200 {
		return Address{}, fmt.Errorf("street cannot exceed 200 characters")
	}
	if len(postalCode) > 20 {
		return Address{}, fmt.Errorf("postal code cannot exceed 20 characters")
	}
	if len(city) > 100 {
		return Address{}, fmt.Errorf("city cannot exceed 100 characters")
	}
	if country == "" {
		return Address{}, fmt.Errorf("country is required")
	}

	return Address{
		street:     street,
		postalCode: postalCode,
		city:       city,
		country:    country,
	}, nil
}

// Street returns the street line
func (a Address) Street() string {
	return a.street
}

// PostalCode returns the postal code
func (a Address) PostalCode() string {
	return a.postalCode
}

// City returns the city
func (a Address) City() string {
	return a.city
}

// Country returns the country code
func (a Address) Country() CountryCode {
	return a.country
}

// IsEmpty returns true if no part besides the country is set
func (a Address) IsEmpty() bool {
	return a.street == "" && a.postalCode == "" && a.city == ""
}

// Lines returns the address as printable lines, e.g. for a document header.
func (a Address) Lines() []string {
	lines := make([]string, 0, 3)
	if a.street != "" {
		lines = append(lines, a.street)
	}
	locality := strings.TrimSpace(a.postalCode + " " + a.city)
	if locality != "" {
		lines = append(lines, locality)
	}
	if a.country != "" {
		lines = append(lines, a.country.String())
	}
	return lines
}

// Equals reports value equality
func (a Address) Equals(other Address) bool {
	return a == other
}
