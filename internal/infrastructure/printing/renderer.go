package printing

import (
	"context"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/trade"
)

// Renderer produces PDF bytes for billing documents
type Renderer interface {
	RenderOffer(ctx context.Context, offer *trade.Offer) ([]byte, error)
	RenderInvoice(ctx context.Context, invoice *trade.Invoice) ([]byte, error)
	RenderDeliveryNote(ctx context.Context, note *trade.DeliveryNote) ([]byte, error)
	RenderDunningLetter(ctx context.Context, record *finance.DunningRecord, invoice *trade.Invoice) ([]byte, error)
}

// Letterhead is the sender block printed on every document
type Letterhead struct {
	CompanyName string
	AddressLine string
	VATNumber   string
	IBAN        string
	Footer      string
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeRenderAborted = "RENDER_ABORTED"
	ErrCodeNoDocument    = "NO_DOCUMENT"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
