package trade_test

import (
	"context"
	"testing"

	apptrade "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/locking"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// tradeFixture wires the trade services over a migrated SQLite database
type tradeFixture struct {
	db         *gorm.DB
	clients    *persistence.GormClientRepository
	products   *persistence.GormProductRepository
	offerRepo  *persistence.GormOfferRepository
	invoices   *persistence.GormInvoiceRepository
	movements  *persistence.GormMovementRepository
	publisher  *testutil.RecordingPublisher
	allocator  *apptrade.SequenceAllocator
	offers     *apptrade.OfferService
	invoiceSvc *apptrade.InvoiceService
	notes      *apptrade.DeliveryNoteService
	conversion *apptrade.ConversionService
}

func newTradeFixture(t *testing.T) *tradeFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	f := &tradeFixture{
		db:        db,
		clients:   persistence.NewGormClientRepository(db),
		products:  persistence.NewGormProductRepository(db),
		offerRepo: persistence.NewGormOfferRepository(db),
		invoices:  persistence.NewGormInvoiceRepository(db),
		movements: persistence.NewGormMovementRepository(db),
		publisher: testutil.NewRecordingPublisher(),
	}

	scope := persistence.NewGormTransactionScope(db).Trade()
	tax := trade.NewTaxModeResolver("AT", decimal.NewFromInt(20))
	logger := zap.NewNop()

	f.allocator = apptrade.NewSequenceAllocator(locking.NewMemoryLocker(), persistence.NewGormNumberCounter(db),
		apptrade.AllocatorOptions{}, logger)
	f.offers = apptrade.NewOfferService(f.offerRepo, f.clients, f.products, scope, f.allocator, tax, logger)
	f.offers.SetEventPublisher(f.publisher)
	f.invoiceSvc = apptrade.NewInvoiceService(f.invoices, f.clients, f.products, scope, f.allocator, tax, 14, logger)
	f.invoiceSvc.SetEventPublisher(f.publisher)
	f.notes = apptrade.NewDeliveryNoteService(persistence.NewGormDeliveryNoteRepository(db), f.invoices,
		f.clients, f.products, scope, f.allocator, logger)
	f.conversion = apptrade.NewConversionService(f.offerRepo, scope, f.allocator, 14, logger)
	f.conversion.SetEventPublisher(f.publisher)
	return f
}

func (f *tradeFixture) client(t *testing.T, details partner.ClientDetails) *partner.Client {
	t.Helper()
	c, err := partner.NewClient(details)
	require.NoError(t, err)
	require.NoError(t, f.clients.Save(context.Background(), c))
	return c
}

// domesticClient is billed with standard VAT
func (f *tradeFixture) domesticClient(t *testing.T) *partner.Client {
	return f.client(t, partner.ClientDetails{DisplayName: "Huber GmbH", CountryCode: "AT", City: "Wien"})
}

func (f *tradeFixture) product(t *testing.T, sku string, price string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, "pcs", decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

func (f *tradeFixture) openReservations(t *testing.T, offerID uuid.UUID) []inventory.Movement {
	t.Helper()
	open, err := f.movements.FindOpenReservations(context.Background(), inventory.SourceOffer, offerID)
	require.NoError(t, err)
	return open
}

func (f *tradeFixture) movementsOf(t *testing.T, source inventory.SourceType, id uuid.UUID) []inventory.Movement {
	t.Helper()
	moved, err := f.movements.FindBySource(context.Background(), source, id)
	require.NoError(t, err)
	return moved
}

func productLine(p *catalog.Product, qty string) apptrade.LineRequest {
	pid := p.ID
	return apptrade.LineRequest{ProductID: &pid, Quantity: decimal.RequireFromString(qty)}
}

func manualLine(description, qty, price string) apptrade.LineRequest {
	unitPrice := decimal.RequireFromString(price)
	return apptrade.LineRequest{
		Description: description,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   &unitPrice,
	}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

func assertQuantity(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want quantity %s, got %s", want, got)
}
