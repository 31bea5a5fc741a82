package trade

import (
	"strings"
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	issue := time.Date(2026, 1, 20, 14, 0, 0, 0, time.UTC)
	inv, err := NewInvoice(testClient(), issue, DefaultPaymentTermDays, standardTax(), "")
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusOpen, inv.Status)
	assert.Equal(t, NoDunningStage, inv.DunningStage)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), inv.DueDate)

	_, err = NewInvoice(testClient(), issue, -1, standardTax(), "")
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestNewInvoiceFromOffer(t *testing.T) {
	o := newTestOffer(t)
	require.NoError(t, o.AssignNumber("A-1510-0001"))
	_, err := o.AddLine(LineInput{Description: "Service", Quantity: d("2"), UnitPrice: d("50")})
	require.NoError(t, err)

	convDate := time.Date(2026, 10, 20, 11, 0, 0, 0, time.UTC)
	inv, err := NewInvoiceFromOffer(o, convDate, 14)
	require.NoError(t, err)

	assert.Equal(t, o.ClientID, inv.ClientID)
	assert.Equal(t, o.ClientName, inv.ClientName)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), inv.IssueDate)
	assert.Equal(t, time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC), inv.DueDate)
	assert.Equal(t, "100.00", inv.Net.StringFixed(2))
	assert.Equal(t, "120.00", inv.Gross.StringFixed(2))
	assert.Equal(t, o.TaxMode, inv.TaxMode)
	require.NotNil(t, inv.OriginOfferID)
	assert.Equal(t, o.ID, *inv.OriginOfferID)
	require.Len(t, inv.Lines, 1)
	assert.NotEqual(t, o.Lines[0].ID, inv.Lines[0].ID)
	assert.Equal(t, o.Lines[0].Description, inv.Lines[0].Description)

	require.NoError(t, inv.AssignNumber("20260001"))
	assert.Equal(t, "20260001-"+inv.ID.String(), inv.PaymentReference)
	assert.True(t, strings.HasPrefix(inv.PaymentReference, inv.InvoiceNumber+"-"))
}

func TestInvoice_PaymentAndDunning(t *testing.T) {
	issue := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inv, err := NewInvoice(testClient(), issue, 14, standardTax(), "")
	require.NoError(t, err)
	_, err = inv.AddLine(LineInput{Description: "x", Quantity: d("1"), UnitPrice: d("100")})
	require.NoError(t, err)

	assert.Equal(t, -1, inv.DaysOverdue(time.Date(2026, 1, 14, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, inv.DaysOverdue(time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, 40, inv.DaysOverdue(time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, inv.EnterDunningStage(0))
	assert.Equal(t, InvoiceStatusDunning, inv.Status)
	assert.Equal(t, shared.CodeConflict, shared.CodeOf(inv.EnterDunningStage(0)))

	_, err = inv.AddLine(LineInput{Description: "late", Quantity: d("1"), UnitPrice: d("1")})
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))

	assert.Equal(t, "120.00", inv.Outstanding().StringFixed(2))
	require.NoError(t, inv.MarkPaid(time.Time{}))
	assert.True(t, inv.Outstanding().IsZero())
	assert.False(t, inv.IsDunnable())
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(inv.MarkPaid(time.Now())))
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(inv.EnterDunningStage(1)))
}
