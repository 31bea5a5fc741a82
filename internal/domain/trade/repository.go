package trade

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// OfferRepository defines the interface for offer persistence
type OfferRepository interface {
	// FindByID finds an offer with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Offer, error)

	// FindAll lists offers without lines. Filters: "status", "client_id".
	FindAll(ctx context.Context, filter shared.Filter) ([]Offer, error)

	// Count counts offers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save writes header totals and replaces the lines in one transaction
	Save(ctx context.Context, offer *Offer) error
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindAll lists invoices without lines. Filters: "status", "client_id", "origin_offer_id".
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindOverdue returns open or dunning invoices due before today, oldest due date first
	FindOverdue(ctx context.Context, today time.Time) ([]Invoice, error)

	// Save writes header totals and replaces the lines in one transaction
	Save(ctx context.Context, invoice *Invoice) error

	// AdvanceDunningStage sets status dunning and the stage unless the invoice is paid
	// or already at a stage >= stage. It reports whether a row changed.
	AdvanceDunningStage(ctx context.Context, id uuid.UUID, stage int) (bool, error)
}

// DeliveryNoteRepository defines the interface for delivery note persistence
type DeliveryNoteRepository interface {
	// FindByID finds a delivery note with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*DeliveryNote, error)

	// FindAll lists delivery notes without lines
	FindAll(ctx context.Context, filter shared.Filter) ([]DeliveryNote, error)

	// Save creates a delivery note with its lines
	Save(ctx context.Context, note *DeliveryNote) error
}
