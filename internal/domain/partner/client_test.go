package partner

import (
	"testing"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() ClientDetails {
	return ClientDetails{
		DisplayName: "Muster GmbH",
		CountryCode: "de",
		VATNumber:   "DE 123.456.789",
		Street:      "Hauptstraße 5",
		PostalCode:  "10115",
		City:        "Berlin",
		Email:       "office@muster.example",
	}
}

func TestNewClient(t *testing.T) {
	t.Run("creates client with normalised fields", func(t *testing.T) {
		c, err := NewClient(validDetails())
		require.NoError(t, err)

		assert.Equal(t, "Muster GmbH", c.DisplayName)
		assert.Equal(t, valueobject.CountryCode("DE"), c.CountryCode)
		assert.Equal(t, "DE123456789", c.VATNumber)
		assert.Equal(t, VATStatusUnchecked, c.VATStatus)
		assert.Equal(t, 1, c.GetVersion())

		events := c.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeClientCreated, events[0].EventType())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		d := validDetails()
		d.DisplayName = "  "
		_, err := NewClient(d)
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("rejects bad country", func(t *testing.T) {
		d := validDetails()
		d.CountryCode = "Germany"
		_, err := NewClient(d)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("rejects bad email", func(t *testing.T) {
		d := validDetails()
		d.Email = "not-an-email"
		_, err := NewClient(d)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("validated status requires a VAT number", func(t *testing.T) {
		d := validDetails()
		d.VATNumber = ""
		d.VATStatus = VATStatusValidated
		_, err := NewClient(d)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})
}

func TestClient_Update(t *testing.T) {
	t.Run("keeps check result when number unchanged", func(t *testing.T) {
		d := validDetails()
		d.VATStatus = VATStatusValidated
		c, err := NewClient(d)
		require.NoError(t, err)
		c.ClearDomainEvents()

		d.VATStatus = ""
		d.City = "Hamburg"
		require.NoError(t, c.Update(d))

		assert.Equal(t, VATStatusValidated, c.VATStatus)
		assert.Equal(t, "Hamburg", c.City)
		assert.Equal(t, 2, c.GetVersion())
		require.Len(t, c.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeClientUpdated, c.GetDomainEvents()[0].EventType())
	})

	t.Run("changed number resets check", func(t *testing.T) {
		d := validDetails()
		d.VATStatus = VATStatusValidated
		c, err := NewClient(d)
		require.NoError(t, err)

		d.VATStatus = ""
		d.VATNumber = "DE999999999"
		require.NoError(t, c.Update(d))
		assert.Equal(t, VATStatusUnchecked, c.VATStatus)
	})

	t.Run("invalid update leaves client untouched", func(t *testing.T) {
		c, err := NewClient(validDetails())
		require.NoError(t, err)

		d := validDetails()
		d.DisplayName = ""
		require.Error(t, c.Update(d))
		assert.Equal(t, "Muster GmbH", c.DisplayName)
		assert.Equal(t, 1, c.GetVersion())
	})
}

func TestClient_MarkVATStatus(t *testing.T) {
	c, err := NewClient(validDetails())
	require.NoError(t, err)

	require.NoError(t, c.MarkVATStatus(VATStatusValidated))
	assert.Equal(t, VATStatusValidated, c.VATStatus)

	assert.Error(t, c.MarkVATStatus("maybe"))
}

func TestClient_Address(t *testing.T) {
	c, err := NewClient(validDetails())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hauptstraße 5", "10115 Berlin", "DE"}, c.Address().Lines())
}
