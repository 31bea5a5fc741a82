package persistence

import (
	"context"

	appfinance "github.com/erp/billing/internal/application/finance"
	appinventory "github.com/erp/billing/internal/application/inventory"
	apptrade "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope runs application units of work in one GORM transaction.
// The same scope satisfies the trade, finance and inventory TransactionScope ports
// through the typed views returned by Trade, Finance and Inventory.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

func (s *GormTransactionScope) run(ctx context.Context, fn func(repos *gormTransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Trade returns the scope as seen by document services
func (s *GormTransactionScope) Trade() apptrade.TransactionScope { return tradeScope{s} }

// Finance returns the scope as seen by the dunning engine
func (s *GormTransactionScope) Finance() appfinance.TransactionScope { return financeScope{s} }

// Inventory returns the scope as seen by the ledger service
func (s *GormTransactionScope) Inventory() appinventory.TransactionScope { return inventoryScope{s} }

type tradeScope struct{ s *GormTransactionScope }

func (t tradeScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return t.s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

type financeScope struct{ s *GormTransactionScope }

func (f financeScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return f.s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

type inventoryScope struct{ s *GormTransactionScope }

func (i inventoryScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return i.s.run(ctx, func(r *gormTransactionalRepositories) error { return fn(r) })
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// OfferRepo returns the offer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OfferRepo() trade.OfferRepository {
	return NewGormOfferRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() trade.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// DeliveryNoteRepo returns the delivery note repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DeliveryNoteRepo() trade.DeliveryNoteRepository {
	return NewGormDeliveryNoteRepository(r.tx)
}

// MovementRepo returns the movement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MovementRepo() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// DunningRecordRepo returns the dunning record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DunningRecordRepo() finance.DunningRecordRepository {
	return NewGormDunningRecordRepository(r.tx)
}

var (
	_ apptrade.TransactionScope              = tradeScope{}
	_ appfinance.TransactionScope            = financeScope{}
	_ appinventory.TransactionScope          = inventoryScope{}
	_ apptrade.TransactionalRepositories     = (*gormTransactionalRepositories)(nil)
	_ appfinance.TransactionalRepositories   = (*gormTransactionalRepositories)(nil)
	_ appinventory.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
