package trade

import (
	"context"

	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/trade"
)

// TransactionScope provides transactional access to document and ledger repositories.
// A document header, its lines and its ledger movements commit or roll back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction
type TransactionalRepositories interface {
	OfferRepo() trade.OfferRepository
	InvoiceRepo() trade.InvoiceRepository
	DeliveryNoteRepo() trade.DeliveryNoteRepository
	MovementRepo() inventory.MovementRepository
}
