package partner

import (
	"net/mail"
	"strings"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
)

// VATStatus is the result of the last VAT number check for a client
type VATStatus string

const (
	VATStatusUnchecked VATStatus = "unchecked"
	VATStatusValidated VATStatus = "validated"
	VATStatusInvalid   VATStatus = "invalid"
)

// IsValid reports whether s is a known status
func (s VATStatus) IsValid() bool {
	switch s {
	case VATStatusUnchecked, VATStatusValidated, VATStatusInvalid:
		return true
	}
	return false
}

// Client is a billed party, either a company or a person.
// Edits never touch documents already issued; documents keep their own snapshot.
type Client struct {
	shared.BaseAggregateRoot
	DisplayName string
	CountryCode valueobject.CountryCode
	VATNumber   string
	VATStatus   VATStatus
	Street      string
	PostalCode  string
	City        string
	Email       string
}

// ClientDetails carries the editable fields of a client
type ClientDetails struct {
	DisplayName string
	CountryCode string
	VATNumber   string
	VATStatus   VATStatus
	Street      string
	PostalCode  string
	City        string
	Email       string
}

// NewClient creates a new client
func NewClient(details ClientDetails) (*Client, error) {
	c := &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
	}
	if err := c.apply(details); err != nil {
		return nil, err
	}

	c.AddDomainEvent(NewClientCreatedEvent(c))
	return c, nil
}

// Update replaces the editable fields
func (c *Client) Update(details ClientDetails) error {
	if err := c.apply(details); err != nil {
		return err
	}

	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewClientUpdatedEvent(c))
	return nil
}

// MarkVATStatus records the outcome of a VAT number check
func (c *Client) MarkVATStatus(status VATStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("unknown VAT status %q", status)
	}
	if status == VATStatusValidated && c.VATNumber == "" {
		return shared.NewValidationError("cannot validate an empty VAT number")
	}

	c.VATStatus = status
	c.Touch()
	c.IncrementVersion()
	c.AddDomainEvent(NewClientUpdatedEvent(c))
	return nil
}

// Address returns the postal address as a value object
func (c *Client) Address() valueobject.Address {
	addr, err := valueobject.NewAddress(c.Street, c.PostalCode, c.City, c.CountryCode)
	if err != nil {
		return valueobject.Address{}
	}
	return addr
}

func (c *Client) apply(d ClientDetails) error {
	name := strings.TrimSpace(d.DisplayName)
	if name == "" {
		return shared.NewValidationError("display name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("display name cannot exceed 200 characters")
	}

	country, err := valueobject.NewCountryCode(d.CountryCode)
	if err != nil {
		return shared.NewValidationError("%s", err.Error())
	}

	if _, err := valueobject.NewAddress(d.Street, d.PostalCode, d.City, country); err != nil {
		return shared.NewValidationError("%s", err.Error())
	}

	email := strings.TrimSpace(d.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewValidationError("invalid email address %q", email)
		}
	}

	vatNumber := normalizeVATNumber(d.VATNumber)
	status := d.VATStatus
	if status == "" {
		// An unchanged number keeps its last check result.
		status = VATStatusUnchecked
		if c.VATStatus != "" && vatNumber == c.VATNumber {
			status = c.VATStatus
		}
	}
	if !status.IsValid() {
		return shared.NewValidationError("unknown VAT status %q", status)
	}
	if vatNumber == "" && status == VATStatusValidated {
		return shared.NewValidationError("cannot validate an empty VAT number")
	}

	c.DisplayName = name
	c.CountryCode = country
	c.VATNumber = vatNumber
	c.VATStatus = status
	c.Street = strings.TrimSpace(d.Street)
	c.PostalCode = strings.TrimSpace(d.PostalCode)
	c.City = strings.TrimSpace(d.City)
	c.Email = email
	return nil
}

func normalizeVATNumber(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// TaxCountry returns the country used for the tax decision
func (c *Client) TaxCountry() valueobject.CountryCode {
	return c.CountryCode
}

// HasValidatedVATNumber reports whether the client's VAT number passed a check
func (c *Client) HasValidatedVATNumber() bool {
	return c.VATNumber != "" && c.VATStatus == VATStatusValidated
}
