package printing

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleClient() trade.ClientSnapshot {
	return trade.ClientSnapshot{ID: uuid.New(), Name: "Müller & Söhne KG", Country: "AT"}
}

func sampleInvoice(t *testing.T) *trade.Invoice {
	t.Helper()
	inv, err := trade.NewInvoice(sampleClient(), time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), 14,
		trade.TaxDecision{Mode: trade.TaxModeReverseCharge, VATPercent: decimal.Zero}, "Danke für Ihren Auftrag")
	require.NoError(t, err)
	_, err = inv.AddLine(trade.LineInput{ProductID: uuid.New(), ProductName: "Größenverstellbarer Träger", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)})
	require.NoError(t, err)
	_, err = inv.AddLine(trade.LineInput{Description: "Montage", Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.NewFromInt(80)})
	require.NoError(t, err)
	require.NoError(t, inv.AssignNumber("20260001"))
	return inv
}

func TestPDFRenderer(t *testing.T) {
	r := NewPDFRenderer(Letterhead{CompanyName: "Beispiel GmbH", AddressLine: "Ring 1, 1010 Wien", IBAN: "AT00 0000 0000 0000 0000", VATNumber: "ATU12345678"})
	ctx := context.Background()

	t.Run("invoice", func(t *testing.T) {
		out, err := r.RenderInvoice(ctx, sampleInvoice(t))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	})

	t.Run("offer", func(t *testing.T) {
		o, err := trade.NewOffer(sampleClient(), time.Now(), time.Time{},
			trade.TaxDecision{Mode: trade.TaxModeStandard, VATPercent: decimal.NewFromInt(20)}, "")
		require.NoError(t, err)
		_, err = o.AddLine(trade.LineInput{Description: "Beratung", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(100)})
		require.NoError(t, err)

		out, err := r.RenderOffer(ctx, o)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	})

	t.Run("delivery note", func(t *testing.T) {
		n, err := trade.NewDeliveryNote(sampleClient(), time.Now(), nil, "")
		require.NoError(t, err)
		_, err = n.AddLine(uuid.New(), "Widget", decimal.NewFromInt(4))
		require.NoError(t, err)

		out, err := r.RenderDeliveryNote(ctx, n)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})

	t.Run("dunning letter", func(t *testing.T) {
		inv := sampleInvoice(t)
		rec, err := finance.NewDunningRecord(inv.ID, inv.InvoiceNumber, finance.StageFirstNotice, inv.Gross, 20)
		require.NoError(t, err)

		out, err := r.RenderDunningLetter(ctx, rec, inv)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})

	t.Run("nil document", func(t *testing.T) {
		_, err := r.RenderInvoice(ctx, nil)
		var re *RenderError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, ErrCodeNoDocument, re.Code)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.RenderInvoice(cctx, sampleInvoice(t))
		var re *RenderError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, ErrCodeRenderAborted, re.Code)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFormatter(t *testing.T) {
	f := NewPDFRenderer(Letterhead{}).f

	assert.Equal(t, "1.234,50 €", f.money(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0,00", f.amount(decimal.Zero))
	assert.Equal(t, "15.10.2026", f.date(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", f.date(time.Time{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
