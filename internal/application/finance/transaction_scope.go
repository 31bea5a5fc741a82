package finance

import (
	"context"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/trade"
)

// TransactionScope provides transactional access to dunning records and invoices.
// A new record and the invoice stage change commit together.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction
type TransactionalRepositories interface {
	InvoiceRepo() trade.InvoiceRepository
	DunningRecordRepo() finance.DunningRecordRepository
}

// NoOpTransactionScope runs fn without a transaction, for tests
type NoOpTransactionScope struct {
	invoiceRepo trade.InvoiceRepository
	recordRepo  finance.DunningRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(invoiceRepo trade.InvoiceRepository, recordRepo finance.DunningRecordRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{invoiceRepo: invoiceRepo, recordRepo: recordRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() trade.InvoiceRepository { return s.invoiceRepo }

// DunningRecordRepo returns the dunning record repository.
func (s *NoOpTransactionScope) DunningRecordRepo() finance.DunningRecordRepository {
	return s.recordRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
