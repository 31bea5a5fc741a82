package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/billing/internal/domain/shared"
)

// NumberScope names an independent document number sequence
type NumberScope string

const (
	ScopeOffer        NumberScope = "offer"         // A-<ddmm>-<seq4>, daily
	ScopeInvoiceYear  NumberScope = "invoice-year"  // <yyyy><seq4>, yearly, used for converted offers
	ScopeInvoiceDay   NumberScope = "invoice-day"   // R-<yyyymmdd>-<seq4>, daily, used for direct invoices
	ScopeDeliveryNote NumberScope = "delivery-note" // L-<ddmm>-<seq4>, daily
)

// SequenceWidth is the zero-padded width of the running number
const SequenceWidth = 4

// IsValid checks if the scope is known
func (s NumberScope) IsValid() bool {
	switch s {
	case ScopeOffer, ScopeInvoiceYear, ScopeInvoiceDay, ScopeDeliveryNote:
		return true
	}
	return false
}

// Yearly reports whether the scope restarts every year instead of every day
func (s NumberScope) Yearly() bool {
	return s == ScopeInvoiceYear
}

// Bucket returns the half-open date range [from, to) the sequence counts in
func (s NumberScope) Bucket(date time.Time) (from, to time.Time) {
	d := shared.DateOf(date)
	if s.Yearly() {
		from = time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	return d, d.AddDate(0, 0, 1)
}

// BucketKey identifies the bucket in lock keys, e.g. "2026" or "2026-10-15"
func (s NumberScope) BucketKey(date time.Time) string {
	d := shared.DateOf(date)
	if s.Yearly() {
		return d.Format("2006")
	}
	return d.Format("2006-01-02")
}

// LockKey is the mutex name guarding the scope's bucket
func (s NumberScope) LockKey(date time.Time) string {
	return "billing:seq:" + string(s) + ":" + s.BucketKey(date)
}

// Prefix is everything in a number before the running sequence
func (s NumberScope) Prefix(date time.Time) string {
	d := shared.DateOf(date)
	switch s {
	case ScopeOffer:
		return "A-" + d.Format("0201") + "-"
	case ScopeInvoiceYear:
		return d.Format("2006")
	case ScopeInvoiceDay:
		return "R-" + d.Format("20060102") + "-"
	case ScopeDeliveryNote:
		return "L-" + d.Format("0201") + "-"
	}
	return ""
}

// Format renders the number for sequence seq
func (s NumberScope) Format(date time.Time, seq int) string {
	return fmt.Sprintf("%s%0*d", s.Prefix(date), SequenceWidth, seq)
}

// NumberCounter counts committed documents of a scope, used to derive the next sequence
type NumberCounter interface {
	// CountInBucket counts documents of scope dated in [from, to) whose number starts with prefix
	CountInBucket(ctx context.Context, scope NumberScope, prefix string, from, to time.Time) (int64, error)
}
