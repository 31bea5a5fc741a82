package inventory

import (
	"context"

	"github.com/erp/billing/internal/domain/inventory"
)

// TransactionScope provides transactional access to the movement ledger.
// All movements appended inside fn commit or roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction
type TransactionalRepositories interface {
	// MovementRepo returns the movement repository scoped to the current transaction
	MovementRepo() inventory.MovementRepository
}
