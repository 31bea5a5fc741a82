package persistence

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"gorm.io/gorm"
)

// numberSource locates the committed numbers of a scope
type numberSource struct {
	table  string
	number string
	date   string
}

var numberSources = map[trade.NumberScope]numberSource{
	trade.ScopeOffer:        {table: "offers", number: "offer_number", date: "issue_date"},
	trade.ScopeInvoiceYear:  {table: "invoices", number: "invoice_number", date: "issue_date"},
	trade.ScopeInvoiceDay:   {table: "invoices", number: "invoice_number", date: "issue_date"},
	trade.ScopeDeliveryNote: {table: "delivery_notes", number: "note_number", date: "delivery_date"},
}

// GormNumberCounter counts document numbers already written to the document tables
type GormNumberCounter struct {
	db *gorm.DB
}

// NewGormNumberCounter creates a new GormNumberCounter
func NewGormNumberCounter(db *gorm.DB) *GormNumberCounter {
	return &GormNumberCounter{db: db}
}

// CountInBucket counts documents of scope dated in [from, to) whose number starts with prefix
func (c *GormNumberCounter) CountInBucket(ctx context.Context, scope trade.NumberScope, prefix string, from, to time.Time) (int64, error) {
	src, ok := numberSources[scope]
	if !ok {
		return 0, shared.NewValidationError("unknown number scope %q", scope)
	}

	var count int64
	err := c.db.WithContext(ctx).
		Table(src.table).
		Where(src.date+" >= ? AND "+src.date+" < ?", shared.DateOf(from), shared.DateOf(to)).
		Where(src.number+" LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "count document numbers", string(scope), prefix)
	}
	return count, nil
}

var _ trade.NumberCounter = (*GormNumberCounter)(nil)
