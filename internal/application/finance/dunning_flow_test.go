package finance_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dunningFixture struct {
	invoices  *persistence.GormInvoiceRepository
	records   *persistence.GormDunningRecordRepository
	publisher *testutil.RecordingPublisher
	service   *appfinance.DunningService
	seq       int
}

func newDunningFixture(t *testing.T) *dunningFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &dunningFixture{
		invoices:  persistence.NewGormInvoiceRepository(db),
		records:   persistence.NewGormDunningRecordRepository(db),
		publisher: testutil.NewRecordingPublisher(),
	}
	svc, err := appfinance.NewDunningService(f.invoices, f.records,
		persistence.NewGormTransactionScope(db).Finance(), finance.DefaultDunningPolicy(), zap.NewNop())
	require.NoError(t, err)
	svc.SetEventPublisher(f.publisher)
	f.service = svc
	return f
}

// invoice stores an open invoice that is daysOverdue days past due today
func (f *dunningFixture) invoice(t *testing.T, daysOverdue int) *trade.Invoice {
	t.Helper()
	f.seq++
	today := shared.DateOf(time.Now())
	client := trade.ClientSnapshot{ID: uuid.New(), Name: "Huber GmbH", Country: "AT"}
	tax := trade.TaxDecision{Mode: trade.TaxModeStandard, VATPercent: decimal.NewFromInt(20)}

	inv, err := trade.NewInvoice(client, today.AddDate(0, 0, -daysOverdue-14), 14, tax, "")
	require.NoError(t, err)
	_, err = inv.AddLine(trade.LineInput{Description: "Service", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.NoError(t, inv.AssignNumber(fmt.Sprintf("R-%s-%04d", inv.IssueDate.Format("20060102"), f.seq)))
	require.NoError(t, f.invoices.Save(context.Background(), inv))
	return inv
}

func (f *dunningFixture) stages(t *testing.T, invoiceID uuid.UUID) []int {
	t.Helper()
	records, err := f.records.FindByInvoice(context.Background(), invoiceID)
	require.NoError(t, err)
	stages := make([]int, len(records))
	for i, r := range records {
		stages[i] = r.Stage
	}
	return stages
}

func TestDunningSweep_OneStagePerRun(t *testing.T) {
	ctx := context.Background()
	f := newDunningFixture(t)
	inv := f.invoice(t, 40)

	for run, want := range [][]int{{0}, {0, 1}, {0, 1, 2}, {0, 1, 2}} {
		report, err := f.service.Sweep(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Examined)
		assert.Equal(t, want, f.stages(t, inv.ID), "run %d", run+1)
	}

	stored, err := f.invoices.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.InvoiceStatusDunning, stored.Status)
	assert.Equal(t, finance.StageFinalNotice, stored.DunningStage)

	records, err := f.records.FindByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	for _, r := range records {
		assertAmount(t, "120.00", r.AmountDue)
		assert.True(t, r.FeeAmount.IsZero())
		assert.True(t, r.InterestAmount.IsZero())
		assert.Equal(t, finance.SendStatusPending, r.SendStatus)
		assert.False(t, r.Manual)
	}
	assert.Len(t, f.publisher.OfType(finance.EventTypeDunningRecordCreated), 3)
}

func TestDunningSweep_Thresholds(t *testing.T) {
	ctx := context.Background()
	f := newDunningFixture(t)

	notYet := f.invoice(t, 4)
	reminder := f.invoice(t, 5)
	future := f.invoice(t, -3)

	report, err := f.service.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 1, report.Created)

	assert.Empty(t, f.stages(t, notYet.ID))
	assert.Equal(t, []int{0}, f.stages(t, reminder.ID))
	assert.Empty(t, f.stages(t, future.ID))
}

func TestDunningSweep_SkipsPaidInvoices(t *testing.T) {
	ctx := context.Background()
	f := newDunningFixture(t)
	inv := f.invoice(t, 20)
	require.NoError(t, inv.MarkPaid(time.Now()))
	require.NoError(t, f.invoices.Save(ctx, inv))

	report, err := f.service.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Examined)
	assert.Empty(t, f.stages(t, inv.ID))
}

func TestDunningSweep_ConcurrentRunsCreateOneRecordPerStage(t *testing.T) {
	ctx := context.Background()
	f := newDunningFixture(t)
	inv := f.invoice(t, 6)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Sweep(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{0}, f.stages(t, inv.ID))
}

func TestDunningService_CreateManual(t *testing.T) {
	ctx := context.Background()
	f := newDunningFixture(t)

	t.Run("escalates past the automatic stages", func(t *testing.T) {
		inv := f.invoice(t, 60)
		for i := 0; i < 4; i++ {
			_, err := f.service.Sweep(ctx)
			require.NoError(t, err)
		}
		require.Equal(t, []int{0, 1, 2, 3}, f.stages(t, inv.ID))

		record, err := f.service.CreateManual(ctx, inv.ID, appfinance.ManualDunningRequest{OverrideText: "Letzte Aufforderung vor Klage"})
		require.NoError(t, err)
		assert.Equal(t, 4, record.Stage)
		assert.True(t, record.Manual)
		assert.Equal(t, "Letzte Aufforderung vor Klage", record.OverrideText)
		assert.Equal(t, 60, record.DaysOverdue)

		history, err := f.service.ListForInvoice(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, history, 5)
		assert.Equal(t, finance.StageName(0), history[0].StageName)
	})

	t.Run("starts at the reminder stage", func(t *testing.T) {
		inv := f.invoice(t, 1)
		record, err := f.service.CreateManual(ctx, inv.ID, appfinance.ManualDunningRequest{})
		require.NoError(t, err)
		assert.Equal(t, finance.StageReminder, record.Stage)
	})

	t.Run("paid invoice", func(t *testing.T) {
		inv := f.invoice(t, 10)
		require.NoError(t, inv.MarkPaid(time.Now()))
		require.NoError(t, f.invoices.Save(ctx, inv))

		_, err := f.service.CreateManual(ctx, inv.ID, appfinance.ManualDunningRequest{})
		assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))
	})

	t.Run("not yet due", func(t *testing.T) {
		inv := f.invoice(t, -1)
		_, err := f.service.CreateManual(ctx, inv.ID, appfinance.ManualDunningRequest{})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := f.service.CreateManual(ctx, uuid.New(), appfinance.ManualDunningRequest{})
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestDunningService_RecordSendOutcome(t *testing.T) {
	ctx := context.Background()
	f := newDunningFixture(t)
	inv := f.invoice(t, 10)
	record, err := f.service.CreateManual(ctx, inv.ID, appfinance.ManualDunningRequest{})
	require.NoError(t, err)

	failed, err := f.service.RecordSendOutcome(ctx, record.ID, appfinance.SendOutcomeRequest{Status: "failed", Error: "smtp: 550 mailbox unavailable"})
	require.NoError(t, err)
	assert.Equal(t, "failed", failed.SendStatus)
	assert.Equal(t, "smtp: 550 mailbox unavailable", failed.SendError)

	sent, err := f.service.RecordSendOutcome(ctx, record.ID, appfinance.SendOutcomeRequest{Status: "sent"})
	require.NoError(t, err)
	assert.Equal(t, "sent", sent.SendStatus)
	assert.Empty(t, sent.SendError)
	assert.NotNil(t, sent.SentAt)

	_, err = f.service.RecordSendOutcome(ctx, record.ID, appfinance.SendOutcomeRequest{Status: "sent"})
	assert.Equal(t, shared.CodeInvalidState, shared.CodeOf(err))
}

type stubNotifier struct {
	err     error
	notices []appfinance.DunningNotice
}

func (n *stubNotifier) Notify(_ context.Context, notice appfinance.DunningNotice) error {
	n.notices = append(n.notices, notice)
	return n.err
}

func TestDunningNotificationHandler(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		notifyErr  error
		wantStatus finance.SendStatus
		wantError  string
	}{
		{"sent", nil, finance.SendStatusSent, ""},
		{"skipped", appfinance.ErrNotificationSkipped, finance.SendStatusSkipped, ""},
		{"failed", errors.New("smtp timeout"), finance.SendStatusFailed, "smtp timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDunningFixture(t)
			inv := f.invoice(t, 7)
			_, err := f.service.Sweep(ctx)
			require.NoError(t, err)

			events := f.publisher.OfType(finance.EventTypeDunningRecordCreated)
			require.Len(t, events, 1)

			notifier := &stubNotifier{err: tt.notifyErr}
			handler := appfinance.NewDunningNotificationHandler(f.records, notifier, zap.NewNop())
			require.NoError(t, handler.Handle(ctx, events[0]))

			require.Len(t, notifier.notices, 1)
			assert.Equal(t, inv.InvoiceNumber, notifier.notices[0].InvoiceNumber)
			assert.Equal(t, "Zahlungserinnerung", notifier.notices[0].StageName)

			records, err := f.records.FindByInvoice(ctx, inv.ID)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.wantStatus, records[0].SendStatus)
			assert.Equal(t, tt.wantError, records[0].SendError)
		})
	}

	t.Run("wrong event type", func(t *testing.T) {
		f := newDunningFixture(t)
		handler := appfinance.NewDunningNotificationHandler(f.records, &stubNotifier{}, zap.NewNop())
		assert.Equal(t, []string{finance.EventTypeDunningRecordCreated}, handler.EventTypes())

		inv := f.invoice(t, 1)
		err := handler.Handle(ctx, trade.NewInvoicePaidEvent(inv))
		assert.Error(t, err)
	})
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}
