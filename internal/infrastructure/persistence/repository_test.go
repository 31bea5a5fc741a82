package persistence_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apptrade "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var austria = trade.ClientSnapshot{Name: "Huber GmbH", Country: "AT"}

func standardTax() trade.TaxDecision {
	return trade.TaxDecision{Mode: trade.TaxModeStandard, VATPercent: decimal.NewFromInt(20)}
}

func newInvoice(t *testing.T, number string, issue time.Time) *trade.Invoice {
	t.Helper()
	client := austria
	client.ID = uuid.New()
	inv, err := trade.NewInvoice(client, issue, 14, standardTax(), "")
	require.NoError(t, err)
	_, err = inv.AddLine(trade.LineInput{Description: "Beratung", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)})
	require.NoError(t, err)
	require.NoError(t, inv.AssignNumber(number))
	return inv
}

func newOffer(t *testing.T, number string, issue time.Time) *trade.Offer {
	t.Helper()
	client := austria
	client.ID = uuid.New()
	offer, err := trade.NewOffer(client, issue, issue.AddDate(0, 0, 30), standardTax(), "")
	require.NoError(t, err)
	_, err = offer.AddLine(trade.LineInput{Description: "Montage", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(80)})
	require.NoError(t, err)
	require.NoError(t, offer.AssignNumber(number))
	return offer
}

func TestClientRepository_SaveFindList(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormClientRepository(testutil.NewTestDB(t))

	for _, d := range []partner.ClientDetails{
		{DisplayName: "Huber GmbH", CountryCode: "AT", City: "Wien"},
		{DisplayName: "Müller KG", CountryCode: "DE", VATNumber: "DE123456789", City: "München"},
		{DisplayName: "Anna Berger", CountryCode: "AT", City: "Graz"},
	} {
		c, err := partner.NewClient(d)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
	}

	all, err := repo.FindAll(ctx, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Anna Berger", all[0].DisplayName)

	austrian := shared.Filter{Filters: map[string]any{"country_code": "AT"}}
	count, err := repo.Count(ctx, austrian)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	found, err := repo.FindAll(ctx, shared.Filter{Search: "münchen"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "DE123456789", found[0].VATNumber)

	loaded, err := repo.FindByID(ctx, found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Müller KG", loaded.DisplayName)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, shared.IsNotFound(err))
}

func TestProductRepository_SKUIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormProductRepository(testutil.NewTestDB(t))

	p, err := catalog.NewProduct("lamp-01", "Stehlampe", "Stk", decimal.NewFromFloat(49.90))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	dup, err := catalog.NewProduct("LAMP-01", "Tischlampe", "Stk", decimal.NewFromInt(20))
	require.NoError(t, err)
	err = repo.Save(ctx, dup)
	assert.True(t, shared.IsConflict(err), "got %v", err)

	bySKU, err := repo.FindBySKU(ctx, "LAMP-01")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySKU.ID)
	assert.True(t, bySKU.UnitPrice.Equal(decimal.NewFromFloat(49.90)))

	several, err := repo.FindByIDs(ctx, []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, several, 1)
}

func TestOfferRepository_NumberUniquePerDay(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormOfferRepository(testutil.NewTestDB(t))
	day := testutil.Date(2026, time.March, 5)

	first := newOffer(t, "A-0503-0001", day)
	require.NoError(t, repo.Save(ctx, first))

	clash := newOffer(t, "A-0503-0001", day)
	assert.True(t, shared.IsConflict(repo.Save(ctx, clash)))

	// same number a year later is a different document
	nextYear := newOffer(t, "A-0503-0001", day.AddDate(1, 0, 0))
	assert.NoError(t, repo.Save(ctx, nextYear))

	loaded, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, 1, loaded.Lines[0].Position)
	assert.Equal(t, "80.00", loaded.Net.StringFixed(2))
	assert.Equal(t, "96.00", loaded.Gross.StringFixed(2))
}

func TestOfferRepository_SaveReplacesLines(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormOfferRepository(testutil.NewTestDB(t))
	offer := newOffer(t, "A-0503-0001", testutil.Date(2026, time.March, 5))
	require.NoError(t, repo.Save(ctx, offer))

	_, err := offer.AddLine(trade.LineInput{Description: "Anfahrt", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(20)})
	require.NoError(t, err)
	require.NoError(t, offer.RemoveLine(1))
	require.NoError(t, repo.Save(ctx, offer))

	loaded, err := repo.FindByID(ctx, offer.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, "Anfahrt", loaded.Lines[0].Description)
	assert.Equal(t, "20.00", loaded.Net.StringFixed(2))
}

func TestInvoiceRepository_NumberIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormInvoiceRepository(testutil.NewTestDB(t))

	require.NoError(t, repo.Save(ctx, newInvoice(t, "20260001", testutil.Date(2026, time.January, 2))))
	err := repo.Save(ctx, newInvoice(t, "20260001", testutil.Date(2026, time.February, 2)))
	assert.True(t, shared.IsConflict(err), "got %v", err)
}

func TestInvoiceRepository_FindOverdue(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormInvoiceRepository(testutil.NewTestDB(t))
	today := testutil.Date(2026, time.October, 15)

	// due dates are issue + 14
	late := newInvoice(t, "R-20260901-0001", testutil.Date(2026, time.September, 1))
	later := newInvoice(t, "R-20260801-0001", testutil.Date(2026, time.August, 1))
	dueToday := newInvoice(t, "R-20261001-0001", testutil.Date(2026, time.October, 1))
	paid := newInvoice(t, "R-20260802-0001", testutil.Date(2026, time.August, 2))
	require.NoError(t, paid.MarkPaid(today))
	for _, inv := range []*trade.Invoice{late, later, dueToday, paid} {
		require.NoError(t, repo.Save(ctx, inv))
	}

	overdue, err := repo.FindOverdue(ctx, today)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, later.ID, overdue[0].ID)
	assert.Equal(t, late.ID, overdue[1].ID)
}

func TestInvoiceRepository_AdvanceDunningStage(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormInvoiceRepository(testutil.NewTestDB(t))
	inv := newInvoice(t, "20260007", testutil.Date(2026, time.August, 1))
	require.NoError(t, repo.Save(ctx, inv))

	moved, err := repo.AdvanceDunningStage(ctx, inv.ID, 0)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.AdvanceDunningStage(ctx, inv.ID, 0)
	require.NoError(t, err)
	assert.False(t, moved, "same stage twice")

	moved, err = repo.AdvanceDunningStage(ctx, inv.ID, 2)
	require.NoError(t, err)
	assert.True(t, moved)

	loaded, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.InvoiceStatusDunning, loaded.Status)
	assert.Equal(t, 2, loaded.DunningStage)

	require.NoError(t, loaded.MarkPaid(testutil.Date(2026, time.October, 15)))
	require.NoError(t, repo.Save(ctx, loaded))
	moved, err = repo.AdvanceDunningStage(ctx, inv.ID, 3)
	require.NoError(t, err)
	assert.False(t, moved, "paid invoices stay paid")
}

func TestInvoiceRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormInvoiceRepository(testutil.NewTestDB(t))
	for i := 1; i <= 5; i++ {
		inv := newInvoice(t, fmt.Sprintf("2026%04d", i), testutil.Date(2026, time.March, i))
		if i%2 == 0 {
			require.NoError(t, inv.MarkPaid(testutil.Date(2026, time.April, 1)))
		}
		require.NoError(t, repo.Save(ctx, inv))
	}

	filter := shared.Filter{Filters: map[string]any{"status": trade.InvoiceStatusOpen}, OrderBy: "invoice_number", OrderDir: "asc"}
	open, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, "20260001", open[0].InvoiceNumber)
	assert.Empty(t, open[0].Lines)

	page := shared.Filter{Page: 2, PageSize: 2, OrderBy: "invoice_number", OrderDir: "asc"}
	second, err := repo.FindAll(ctx, page)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "20260003", second[0].InvoiceNumber)

	total, err := repo.Count(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestMovementRepository_ReservationSettledOnce(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewGormMovementRepository(testutil.NewTestDB(t))
	ledger := inventory.NewLedger(repo)
	productID, offerID := uuid.New(), uuid.New()

	reserve, err := ledger.Reserve(ctx, inventory.ReserveRequest{
		ProductID: productID, Quantity: decimal.NewFromInt(3),
		SourceType: inventory.SourceOffer, SourceID: offerID,
	})
	require.NoError(t, err)

	level, err := ledger.StockLevel(ctx, productID)
	require.NoError(t, err)
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(3)))

	outs, err := ledger.ConvertReservationToOut(ctx, inventory.SourceOffer, offerID)
	require.NoError(t, err)
	require.Len(t, outs, 1)

	second := &inventory.Movement{
		ID:            uuid.New(),
		ProductID:     productID,
		Quantity:      decimal.NewFromInt(3),
		Kind:          inventory.MovementRelease,
		SourceType:    inventory.SourceOffer,
		SourceID:      offerID,
		ReservationID: &reserve.ID,
		CreatedAt:     time.Now(),
	}
	assert.True(t, shared.IsConflict(repo.Append(ctx, second)))

	open, err := repo.FindOpenReservations(ctx, inventory.SourceOffer, offerID)
	require.NoError(t, err)
	assert.Empty(t, open)

	onHand, err := repo.SumOnHand(ctx, productID)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(decimal.NewFromInt(-3)), "on hand %s", onHand)

	reserved, err := repo.SumReserved(ctx, productID)
	require.NoError(t, err)
	assert.True(t, reserved.IsZero())
}

func TestMovementRepository_EmptyLedger(t *testing.T) {
	repo := persistence.NewGormMovementRepository(testutil.NewTestDB(t))
	onHand, err := repo.SumOnHand(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, onHand.IsZero())
}

func TestDunningRecordRepository_OneRecordPerStage(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	invoices := persistence.NewGormInvoiceRepository(db)
	repo := persistence.NewGormDunningRecordRepository(db)

	inv := newInvoice(t, "20260011", testutil.Date(2026, time.August, 1))
	require.NoError(t, invoices.Save(ctx, inv))

	highest, err := repo.HighestStage(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.NoDunningStage, highest)

	first, err := finance.NewDunningRecord(inv.ID, inv.InvoiceNumber, 0, inv.Gross, 60)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	again, err := finance.NewDunningRecord(inv.ID, inv.InvoiceNumber, 0, inv.Gross, 61)
	require.NoError(t, err)
	assert.True(t, shared.IsConflict(repo.Create(ctx, again)))

	exists, err := repo.ExistsForStage(ctx, inv.ID, 0)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, first.RecordSendOutcome(finance.SendStatusSent, "", time.Now()))
	require.NoError(t, repo.UpdateSendOutcome(ctx, first))

	loaded, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.SendStatusSent, loaded.SendStatus)
	assert.NotNil(t, loaded.SentAt)

	missing, err := finance.NewDunningRecord(inv.ID, inv.InvoiceNumber, 1, inv.Gross, 60)
	require.NoError(t, err)
	assert.True(t, shared.IsNotFound(repo.UpdateSendOutcome(ctx, missing)))
}

func TestNumberCounter_CountsBucket(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	invoices := persistence.NewGormInvoiceRepository(db)
	counter := persistence.NewGormNumberCounter(db)

	for _, inv := range []*trade.Invoice{
		newInvoice(t, "20260001", testutil.Date(2026, time.January, 3)),
		newInvoice(t, "20260002", testutil.Date(2026, time.June, 3)),
		newInvoice(t, "R-20260603-0001", testutil.Date(2026, time.June, 3)),
		newInvoice(t, "20250009", testutil.Date(2025, time.December, 30)),
	} {
		require.NoError(t, invoices.Save(ctx, inv))
	}

	yearFrom, yearTo := testutil.Date(2026, time.January, 1), testutil.Date(2027, time.January, 1)
	n, err := counter.CountInBucket(ctx, trade.ScopeInvoiceYear, "2026", yearFrom, yearTo)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	dayFrom := testutil.Date(2026, time.June, 3)
	n, err = counter.CountInBucket(ctx, trade.ScopeInvoiceDay, "R-20260603-", dayFrom, dayFrom.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = counter.CountInBucket(ctx, trade.ScopeDeliveryNote, "L-0306-", dayFrom, dayFrom.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = counter.CountInBucket(ctx, trade.NumberScope("bogus"), "", yearFrom, yearTo)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestTransactionScope_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	scope := persistence.NewGormTransactionScope(db).Trade()
	invoices := persistence.NewGormInvoiceRepository(db)
	inv := newInvoice(t, "20260021", testutil.Date(2026, time.May, 4))
	boom := errors.New("boom")

	err := scope.Execute(ctx, func(repos apptrade.TransactionalRepositories) error {
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = invoices.FindByID(ctx, inv.ID)
	assert.True(t, shared.IsNotFound(err))

	err = scope.Execute(ctx, func(repos apptrade.TransactionalRepositories) error {
		return repos.InvoiceRepo().Save(ctx, inv)
	})
	require.NoError(t, err)
	_, err = invoices.FindByID(ctx, inv.ID)
	assert.NoError(t, err)
}
