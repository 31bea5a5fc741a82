package models

import (
	"time"

	"github.com/erp/billing/internal/domain/shared/valueobject"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentAmounts are the tax snapshot and header totals shared by offers and invoices
type DocumentAmounts struct {
	TaxMode    trade.TaxMode   `gorm:"type:varchar(30);not null"`
	VATPercent decimal.Decimal `gorm:"column:vat_percent;type:numeric(5,2);not null"`
	Net        decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	VAT        decimal.Decimal `gorm:"column:vat;type:numeric(18,2);not null"`
	Gross      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Amount     decimal.Decimal `gorm:"type:numeric(18,2);not null"`
}

func amountsFromDomain(tax trade.TaxDecision, t trade.Totals, amount decimal.Decimal) DocumentAmounts {
	return DocumentAmounts{
		TaxMode:    tax.Mode,
		VATPercent: tax.VATPercent,
		Net:        t.Net,
		VAT:        t.VAT,
		Gross:      t.Gross,
		Amount:     amount,
	}
}

// LineColumns are the columns of offer_lines and invoice_lines
type LineColumns struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position    int             `gorm:"not null"`
	Kind        trade.LineKind  `gorm:"type:varchar(10);not null"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	ProductName string          `gorm:"type:varchar(200)"`
	Description string          `gorm:"type:varchar(500)"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(18,2);not null"`
}

func lineFromDomain(l trade.LineItem) LineColumns {
	c := LineColumns{
		ID:          l.ID,
		Position:    l.Position,
		Kind:        l.Kind,
		ProductName: l.ProductName,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		LineTotal:   l.LineTotal,
	}
	if l.IsProduct() {
		pid := l.ProductID
		c.ProductID = &pid
	}
	return c
}

func (c LineColumns) toDomain() trade.LineItem {
	l := trade.LineItem{
		ID:          c.ID,
		Position:    c.Position,
		Kind:        c.Kind,
		ProductName: c.ProductName,
		Description: c.Description,
		Quantity:    c.Quantity,
		UnitPrice:   c.UnitPrice,
		LineTotal:   c.LineTotal,
	}
	if c.ProductID != nil {
		l.ProductID = *c.ProductID
	}
	return l
}

// OfferModel is the persistence model for the Offer aggregate root
type OfferModel struct {
	AggregateModel
	DocumentAmounts
	OfferNumber   string            `gorm:"type:varchar(30);not null;uniqueIndex:idx_offers_number_date,priority:1"`
	ClientID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	ClientName    string            `gorm:"type:varchar(200);not null"`
	ClientCountry string            `gorm:"type:char(2);not null"`
	IssueDate     time.Time         `gorm:"type:date;not null;uniqueIndex:idx_offers_number_date,priority:2"`
	ValidUntil    time.Time         `gorm:"type:date;not null"`
	Status        trade.OfferStatus `gorm:"type:varchar(20);not null;index"`
	Note          string            `gorm:"type:text"`
	AcceptedAt    *time.Time
	RejectedAt    *time.Time
	Lines         []OfferLineModel `gorm:"foreignKey:OfferID;references:ID"`
}

// TableName returns the table name for GORM
func (OfferModel) TableName() string {
	return "offers"
}

// OfferLineModel is a line of an offer
type OfferLineModel struct {
	LineColumns
	OfferID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (OfferLineModel) TableName() string {
	return "offer_lines"
}

// ToDomain converts the persistence model to a domain Offer
func (m *OfferModel) ToDomain() *trade.Offer {
	o := &trade.Offer{
		BaseAggregateRoot: m.AggregateRoot(),
		OfferNumber:       m.OfferNumber,
		ClientID:          m.ClientID,
		ClientName:        m.ClientName,
		ClientCountry:     valueobject.CountryCode(m.ClientCountry),
		IssueDate:         m.IssueDate.UTC(),
		ValidUntil:        m.ValidUntil.UTC(),
		Status:            m.Status,
		Note:              m.Note,
		AcceptedAt:        m.AcceptedAt,
		RejectedAt:        m.RejectedAt,
	}
	o.TaxMode = m.TaxMode
	o.VATPercent = m.VATPercent
	o.Net = m.Net
	o.VAT = m.VAT
	o.Gross = m.Gross
	o.Amount = m.Amount
	o.Lines = make([]trade.LineItem, len(m.Lines))
	for i, l := range m.Lines {
		o.Lines[i] = l.toDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Offer
func (m *OfferModel) FromDomain(o *trade.Offer) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.DocumentAmounts = amountsFromDomain(o.Tax(), o.Totals(), o.Amount)
	m.OfferNumber = o.OfferNumber
	m.ClientID = o.ClientID
	m.ClientName = o.ClientName
	m.ClientCountry = o.ClientCountry.String()
	m.IssueDate = o.IssueDate
	m.ValidUntil = o.ValidUntil
	m.Status = o.Status
	m.Note = o.Note
	m.AcceptedAt = o.AcceptedAt
	m.RejectedAt = o.RejectedAt
	m.Lines = make([]OfferLineModel, len(o.Lines))
	for i, l := range o.Lines {
		m.Lines[i] = OfferLineModel{LineColumns: lineFromDomain(l), OfferID: o.ID}
	}
}

// OfferModelFromDomain creates a new persistence model from a domain Offer
func OfferModelFromDomain(o *trade.Offer) *OfferModel {
	m := &OfferModel{}
	m.FromDomain(o)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate root
type InvoiceModel struct {
	AggregateModel
	DocumentAmounts
	InvoiceNumber    string              `gorm:"type:varchar(30);not null;uniqueIndex:idx_invoices_number"`
	ClientID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	ClientName       string              `gorm:"type:varchar(200);not null"`
	ClientCountry    string              `gorm:"type:char(2);not null"`
	IssueDate        time.Time           `gorm:"type:date;not null;index"`
	DueDate          time.Time           `gorm:"type:date;not null;index"`
	Status           trade.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	DunningStage     int                 `gorm:"not null"`
	PaymentReference string              `gorm:"type:varchar(80);not null;uniqueIndex:idx_invoices_payment_reference"`
	OriginOfferID    *uuid.UUID          `gorm:"type:uuid;index"`
	Note             string              `gorm:"type:text"`
	PaidAt           *time.Time
	Lines            []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is a line of an invoice
type InvoiceLineModel struct {
	LineColumns
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *trade.Invoice {
	inv := &trade.Invoice{
		BaseAggregateRoot: m.AggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		ClientID:          m.ClientID,
		ClientName:        m.ClientName,
		ClientCountry:     valueobject.CountryCode(m.ClientCountry),
		IssueDate:         m.IssueDate.UTC(),
		DueDate:           m.DueDate.UTC(),
		Status:            m.Status,
		DunningStage:      m.DunningStage,
		PaymentReference:  m.PaymentReference,
		OriginOfferID:     m.OriginOfferID,
		Note:              m.Note,
		PaidAt:            m.PaidAt,
	}
	inv.TaxMode = m.TaxMode
	inv.VATPercent = m.VATPercent
	inv.Net = m.Net
	inv.VAT = m.VAT
	inv.Gross = m.Gross
	inv.Amount = m.Amount
	inv.Lines = make([]trade.LineItem, len(m.Lines))
	for i, l := range m.Lines {
		inv.Lines[i] = l.toDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *trade.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.DocumentAmounts = amountsFromDomain(inv.Tax(), inv.Totals(), inv.Amount)
	m.InvoiceNumber = inv.InvoiceNumber
	m.ClientID = inv.ClientID
	m.ClientName = inv.ClientName
	m.ClientCountry = inv.ClientCountry.String()
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Status = inv.Status
	m.DunningStage = inv.DunningStage
	m.PaymentReference = inv.PaymentReference
	m.OriginOfferID = inv.OriginOfferID
	m.Note = inv.Note
	m.PaidAt = inv.PaidAt
	m.Lines = make([]InvoiceLineModel, len(inv.Lines))
	for i, l := range inv.Lines {
		m.Lines[i] = InvoiceLineModel{LineColumns: lineFromDomain(l), InvoiceID: inv.ID}
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *trade.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// DeliveryNoteModel is the persistence model for the DeliveryNote aggregate root
type DeliveryNoteModel struct {
	AggregateModel
	NoteNumber   string                   `gorm:"type:varchar(30);not null;uniqueIndex:idx_delivery_notes_number_date,priority:1"`
	ClientID     uuid.UUID                `gorm:"type:uuid;not null;index"`
	ClientName   string                   `gorm:"type:varchar(200);not null"`
	DeliveryDate time.Time                `gorm:"type:date;not null;uniqueIndex:idx_delivery_notes_number_date,priority:2"`
	InvoiceID    *uuid.UUID               `gorm:"type:uuid;index"`
	Note         string                   `gorm:"type:text"`
	Lines        []DeliveryNoteLineModel `gorm:"foreignKey:DeliveryNoteID;references:ID"`
}

// TableName returns the table name for GORM
func (DeliveryNoteModel) TableName() string {
	return "delivery_notes"
}

// DeliveryNoteLineModel is a line of a delivery note
type DeliveryNoteLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DeliveryNoteID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position       int             `gorm:"not null"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName    string          `gorm:"type:varchar(200);not null"`
	Quantity       decimal.Decimal `gorm:"type:numeric(18,4);not null"`
}

// TableName returns the table name for GORM
func (DeliveryNoteLineModel) TableName() string {
	return "delivery_note_lines"
}

// ToDomain converts the persistence model to a domain DeliveryNote
func (m *DeliveryNoteModel) ToDomain() *trade.DeliveryNote {
	n := &trade.DeliveryNote{
		BaseAggregateRoot: m.AggregateRoot(),
		NoteNumber:        m.NoteNumber,
		ClientID:          m.ClientID,
		ClientName:        m.ClientName,
		DeliveryDate:      m.DeliveryDate.UTC(),
		InvoiceID:         m.InvoiceID,
		Note:              m.Note,
		Lines:             make([]trade.DeliveryLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		n.Lines[i] = trade.DeliveryLine{
			ID:          l.ID,
			Position:    l.Position,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
		}
	}
	return n
}

// FromDomain populates the persistence model from a domain DeliveryNote
func (m *DeliveryNoteModel) FromDomain(n *trade.DeliveryNote) {
	m.FromDomainAggregateRoot(n.BaseAggregateRoot)
	m.NoteNumber = n.NoteNumber
	m.ClientID = n.ClientID
	m.ClientName = n.ClientName
	m.DeliveryDate = n.DeliveryDate
	m.InvoiceID = n.InvoiceID
	m.Note = n.Note
	m.Lines = make([]DeliveryNoteLineModel, len(n.Lines))
	for i, l := range n.Lines {
		m.Lines[i] = DeliveryNoteLineModel{
			ID:             l.ID,
			DeliveryNoteID: n.ID,
			Position:       l.Position,
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
		}
	}
}

// DeliveryNoteModelFromDomain creates a new persistence model from a domain DeliveryNote
func DeliveryNoteModelFromDomain(n *trade.DeliveryNote) *DeliveryNoteModel {
	m := &DeliveryNoteModel{}
	m.FromDomain(n)
	return m
}
