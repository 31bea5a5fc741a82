package finance

import (
	"context"

	"github.com/google/uuid"
)

// DunningRecordRepository defines the interface for dunning record persistence
type DunningRecordRepository interface {
	// FindByID finds a record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DunningRecord, error)

	// FindByInvoice lists the records of an invoice ordered by stage
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]DunningRecord, error)

	// HighestStage returns the highest stage recorded for the invoice, or -1
	HighestStage(ctx context.Context, invoiceID uuid.UUID) (int, error)

	// ExistsForStage checks whether a record for (invoice, stage) exists
	ExistsForStage(ctx context.Context, invoiceID uuid.UUID, stage int) (bool, error)

	// Create inserts a record. A duplicate (invoice, stage) fails with a conflict.
	Create(ctx context.Context, record *DunningRecord) error

	// UpdateSendOutcome persists the send status fields only
	UpdateSendOutcome(ctx context.Context, record *DunningRecord) error
}
