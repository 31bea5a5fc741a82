package trade

import (
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Line DTOs ====================

// LineRequest is one offer or invoice line. A product line takes its name and, when
// unit_price is omitted, its price from the catalog. A manual line needs a description.
type LineRequest struct {
	ProductID   *uuid.UUID       `json:"product_id"`
	Description string           `json:"description" binding:"max=500"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

// LineResponse represents a document line in API responses
type LineResponse struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	Kind        string          `json:"kind"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ==================== Offer DTOs ====================

// CreateOfferRequest represents a request to create an offer
type CreateOfferRequest struct {
	ClientID   uuid.UUID     `json:"client_id" binding:"required"`
	IssueDate  *time.Time    `json:"issue_date"`
	ValidUntil *time.Time    `json:"valid_until"`
	Note       string        `json:"note" binding:"max=2000"`
	Lines      []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// OfferResponse represents an offer in API responses. Lines are omitted in lists.
type OfferResponse struct {
	ID          uuid.UUID       `json:"id"`
	OfferNumber string          `json:"offer_number"`
	ClientID    uuid.UUID       `json:"client_id"`
	ClientName  string          `json:"client_name"`
	IssueDate   time.Time       `json:"issue_date"`
	ValidUntil  time.Time       `json:"valid_until"`
	Status      string          `json:"status"`
	TaxMode     string          `json:"tax_mode"`
	VATPercent  decimal.Decimal `json:"vat_percent"`
	Net         decimal.Decimal `json:"net"`
	VAT         decimal.Decimal `json:"vat"`
	Gross       decimal.Decimal `json:"gross"`
	Note        string          `json:"note,omitempty"`
	AcceptedAt  *time.Time      `json:"accepted_at,omitempty"`
	RejectedAt  *time.Time      `json:"rejected_at,omitempty"`
	Lines       []LineResponse  `json:"lines,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OfferListFilter represents filter options for the offer list.
// ID filters are parsed from the query by the handler.
type OfferListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=open accepted rejected"`
	ClientID *uuid.UUID `form:"-"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Invoice DTOs ====================

// CreateInvoiceRequest represents a request to create a direct invoice
type CreateInvoiceRequest struct {
	ClientID        uuid.UUID     `json:"client_id" binding:"required"`
	IssueDate       *time.Time    `json:"issue_date"`
	PaymentTermDays *int          `json:"payment_term_days" binding:"omitempty,min=0,max=365"`
	Note            string        `json:"note" binding:"max=2000"`
	Lines           []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// MarkPaidRequest represents a request to settle an invoice
type MarkPaidRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

// InvoiceResponse represents an invoice in API responses. Lines are omitted in lists.
type InvoiceResponse struct {
	ID               uuid.UUID       `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	ClientID         uuid.UUID       `json:"client_id"`
	ClientName       string          `json:"client_name"`
	IssueDate        time.Time       `json:"issue_date"`
	DueDate          time.Time       `json:"due_date"`
	Status           string          `json:"status"`
	DunningStage     *int            `json:"dunning_stage,omitempty"`
	TaxMode          string          `json:"tax_mode"`
	VATPercent       decimal.Decimal `json:"vat_percent"`
	Net              decimal.Decimal `json:"net"`
	VAT              decimal.Decimal `json:"vat"`
	Gross            decimal.Decimal `json:"gross"`
	Amount           decimal.Decimal `json:"amount"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	PaymentReference string          `json:"payment_reference"`
	OriginOfferID    *uuid.UUID      `json:"origin_offer_id,omitempty"`
	Note             string          `json:"note,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	Lines            []LineResponse  `json:"lines,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	Search        string     `form:"search"`
	Status        string     `form:"status" binding:"omitempty,oneof=open paid dunning"`
	ClientID      *uuid.UUID `form:"-"`
	OriginOfferID *uuid.UUID `form:"-"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Delivery Note DTOs ====================

// DeliveryLineRequest is one delivered product
type DeliveryLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateDeliveryNoteRequest represents a request to create a delivery note
type CreateDeliveryNoteRequest struct {
	ClientID     uuid.UUID             `json:"client_id" binding:"required"`
	DeliveryDate *time.Time            `json:"delivery_date"`
	InvoiceID    *uuid.UUID            `json:"invoice_id"`
	Note         string                `json:"note" binding:"max=2000"`
	Lines        []DeliveryLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// DeliveryLineResponse represents a delivery line in API responses
type DeliveryLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	Position    int             `json:"position"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// DeliveryNoteResponse represents a delivery note in API responses
type DeliveryNoteResponse struct {
	ID           uuid.UUID              `json:"id"`
	NoteNumber   string                 `json:"note_number"`
	ClientID     uuid.UUID              `json:"client_id"`
	ClientName   string                 `json:"client_name"`
	DeliveryDate time.Time              `json:"delivery_date"`
	InvoiceID    *uuid.UUID             `json:"invoice_id,omitempty"`
	Note         string                 `json:"note,omitempty"`
	Lines        []DeliveryLineResponse `json:"lines,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// DeliveryNoteListFilter represents filter options for the delivery note list
type DeliveryNoteListFilter struct {
	Search    string     `form:"search"`
	ClientID  *uuid.UUID `form:"-"`
	InvoiceID *uuid.UUID `form:"-"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Conversion DTOs ====================

// ConvertOffersRequest lists the offers to convert in one call
type ConvertOffersRequest struct {
	OfferIDs []uuid.UUID `json:"offer_ids" binding:"required,min=1,max=100"`
}

// ConversionResult is the invoice created for an offer
type ConversionResult struct {
	OfferID       uuid.UUID `json:"offer_id"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
}

// ConversionOutcome reports one offer of a bulk conversion. Error is empty on success.
type ConversionOutcome struct {
	OfferID       uuid.UUID  `json:"offer_id"`
	InvoiceID     *uuid.UUID `json:"invoice_id,omitempty"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	Code          string     `json:"code,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Succeeded reports whether the offer was converted
func (o ConversionOutcome) Succeeded() bool {
	return o.Error == ""
}

// ==================== Mappers ====================

// ToLineResponses converts domain lines to response DTOs
func ToLineResponses(lines []trade.LineItem) []LineResponse {
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		r := LineResponse{
			ID:          l.ID,
			Position:    l.Position,
			Kind:        string(l.Kind),
			ProductName: l.ProductName,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		}
		if l.IsProduct() {
			pid := l.ProductID
			r.ProductID = &pid
		}
		out[i] = r
	}
	return out
}

// ToOfferResponse converts a domain offer to a response DTO
func ToOfferResponse(o *trade.Offer) OfferResponse {
	return OfferResponse{
		ID:          o.ID,
		OfferNumber: o.OfferNumber,
		ClientID:    o.ClientID,
		ClientName:  o.ClientName,
		IssueDate:   o.IssueDate,
		ValidUntil:  o.ValidUntil,
		Status:      string(o.Status),
		TaxMode:     string(o.TaxMode),
		VATPercent:  o.VATPercent,
		Net:         o.Net,
		VAT:         o.VAT,
		Gross:       o.Gross,
		Note:        o.Note,
		AcceptedAt:  o.AcceptedAt,
		RejectedAt:  o.RejectedAt,
		Lines:       ToLineResponses(o.Lines),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// ToOfferResponses converts a list of offers
func ToOfferResponses(offers []trade.Offer) []OfferResponse {
	out := make([]OfferResponse, len(offers))
	for i := range offers {
		out[i] = ToOfferResponse(&offers[i])
	}
	return out
}

// ToInvoiceResponse converts a domain invoice to a response DTO
func ToInvoiceResponse(i *trade.Invoice) InvoiceResponse {
	r := InvoiceResponse{
		ID:               i.ID,
		InvoiceNumber:    i.InvoiceNumber,
		ClientID:         i.ClientID,
		ClientName:       i.ClientName,
		IssueDate:        i.IssueDate,
		DueDate:          i.DueDate,
		Status:           string(i.Status),
		TaxMode:          string(i.TaxMode),
		VATPercent:       i.VATPercent,
		Net:              i.Net,
		VAT:              i.VAT,
		Gross:            i.Gross,
		Amount:           i.Amount,
		Outstanding:      i.Outstanding(),
		PaymentReference: i.PaymentReference,
		OriginOfferID:    i.OriginOfferID,
		Note:             i.Note,
		PaidAt:           i.PaidAt,
		Lines:            ToLineResponses(i.Lines),
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
	if i.DunningStage != trade.NoDunningStage {
		stage := i.DunningStage
		r.DunningStage = &stage
	}
	return r
}

// ToInvoiceResponses converts a list of invoices
func ToInvoiceResponses(invoices []trade.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}

// ToDeliveryNoteResponse converts a domain delivery note to a response DTO
func ToDeliveryNoteResponse(n *trade.DeliveryNote) DeliveryNoteResponse {
	lines := make([]DeliveryLineResponse, len(n.Lines))
	for i, l := range n.Lines {
		lines[i] = DeliveryLineResponse{
			ID:          l.ID,
			Position:    l.Position,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
		}
	}
	return DeliveryNoteResponse{
		ID:           n.ID,
		NoteNumber:   n.NoteNumber,
		ClientID:     n.ClientID,
		ClientName:   n.ClientName,
		DeliveryDate: n.DeliveryDate,
		InvoiceID:    n.InvoiceID,
		Note:         n.Note,
		Lines:        lines,
		CreatedAt:    n.CreatedAt,
	}
}

// ToDeliveryNoteResponses converts a list of delivery notes
func ToDeliveryNoteResponses(notes []trade.DeliveryNote) []DeliveryNoteResponse {
	out := make([]DeliveryNoteResponse, len(notes))
	for i := range notes {
		out[i] = ToDeliveryNoteResponse(&notes[i])
	}
	return out
}

// listFilter builds the domain filter shared by all document lists
func listFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	f.Search = search
	return f
}
