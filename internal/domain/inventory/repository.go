package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementRepository defines the interface for the movement ledger.
// Implementations must run on the caller's transaction so ledger writes commit or roll back
// with the document they belong to.
type MovementRepository interface {
	// Append inserts a movement. A second settlement of the same reservation fails with a conflict.
	Append(ctx context.Context, m *Movement) error

	// FindOpenReservations returns RESERVE movements of the source without a settling movement
	FindOpenReservations(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]Movement, error)

	// FindBySource returns all movements of a source document in insertion order
	FindBySource(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]Movement, error)

	// SumOnHand returns the sum of IN and OUT quantities for a product
	SumOnHand(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)

	// SumReserved returns the sum of unsettled RESERVE quantities for a product
	SumReserved(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}
