package printing

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/jung-kurt/gofpdf/v2"
	"golang.org/x/text/language"
)

const (
	pageWidth  = 190.0
	fontFamily = "Arial"
)

// PDFRenderer renders documents with gofpdf using the built-in core fonts
type PDFRenderer struct {
	head Letterhead
	f    formatter
}

// NewPDFRenderer creates a renderer with German number and date formats
func NewPDFRenderer(head Letterhead) *PDFRenderer {
	return &PDFRenderer{head: head, f: newFormatter(language.German)}
}

// RenderOffer renders an offer
func (r *PDFRenderer) RenderOffer(ctx context.Context, offer *trade.Offer) ([]byte, error) {
	if offer == nil {
		return nil, NewRenderError(ErrCodeNoDocument, "no offer to render", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderAborted, "rendering aborted", err)
	}

	doc := r.newDocument()
	doc.header("Angebot", offer.OfferNumber, offer.ClientName, [][2]string{
		{"Datum", r.f.date(offer.IssueDate)},
		{"Gültig bis", r.f.date(offer.ValidUntil)},
	})
	doc.pricedLines(offer.Lines)
	doc.totals(offer.Totals(), offer.Tax())
	doc.note(offer.Note)
	return doc.output()
}

// RenderInvoice renders an invoice with its payment reference
func (r *PDFRenderer) RenderInvoice(ctx context.Context, invoice *trade.Invoice) ([]byte, error) {
	if invoice == nil {
		return nil, NewRenderError(ErrCodeNoDocument, "no invoice to render", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderAborted, "rendering aborted", err)
	}

	doc := r.newDocument()
	doc.header("Rechnung", invoice.InvoiceNumber, invoice.ClientName, [][2]string{
		{"Rechnungsdatum", r.f.date(invoice.IssueDate)},
		{"Fällig am", r.f.date(invoice.DueDate)},
	})
	doc.pricedLines(invoice.Lines)
	doc.totals(invoice.Totals(), invoice.Tax())
	doc.paragraph(fmt.Sprintf("Bitte überweisen Sie %s bis %s unter Angabe der Zahlungsreferenz %s.",
		r.f.money(invoice.Gross), r.f.date(invoice.DueDate), invoice.PaymentReference))
	if r.head.IBAN != "" {
		doc.paragraph("IBAN: " + r.head.IBAN)
	}
	doc.note(invoice.Note)
	return doc.output()
}

// RenderDeliveryNote renders a delivery note without prices
func (r *PDFRenderer) RenderDeliveryNote(ctx context.Context, note *trade.DeliveryNote) ([]byte, error) {
	if note == nil {
		return nil, NewRenderError(ErrCodeNoDocument, "no delivery note to render", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderAborted, "rendering aborted", err)
	}

	doc := r.newDocument()
	doc.header("Lieferschein", note.NoteNumber, note.ClientName, [][2]string{
		{"Lieferdatum", r.f.date(note.DeliveryDate)},
	})
	doc.deliveryLines(note.Lines)
	doc.note(note.Note)
	return doc.output()
}

// RenderDunningLetter renders the letter for a dunning record
func (r *PDFRenderer) RenderDunningLetter(ctx context.Context, record *finance.DunningRecord, invoice *trade.Invoice) ([]byte, error) {
	if record == nil || invoice == nil {
		return nil, NewRenderError(ErrCodeNoDocument, "no dunning record to render", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderAborted, "rendering aborted", err)
	}

	doc := r.newDocument()
	doc.header(finance.StageName(record.Stage), invoice.InvoiceNumber, invoice.ClientName, [][2]string{
		{"Rechnungsdatum", r.f.date(invoice.IssueDate)},
		{"Fällig seit", r.f.date(invoice.DueDate)},
		{"Tage überfällig", strconv.Itoa(record.DaysOverdue)},
	})
	text := record.OverrideText
	if text == "" {
		text = fmt.Sprintf("Unsere Rechnung %s ist seit %d Tagen fällig. Bitte begleichen Sie den offenen Betrag von %s.",
			invoice.InvoiceNumber, record.DaysOverdue, r.f.money(record.Total()))
	}
	doc.paragraph(text)
	doc.paragraph("Zahlungsreferenz: " + invoice.PaymentReference)
	return doc.output()
}

func (r *PDFRenderer) newDocument() *document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 20)
	d := &document{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		f:    r.f,
		head: r.head,
	}
	pdf.SetFooterFunc(d.footer)
	pdf.AddPage()
	return d
}

// document is one PDF being built
type document struct {
	pdf  *gofpdf.Fpdf
	tr   func(string) string
	f    formatter
	head Letterhead
}

func (d *document) header(title, number, recipient string, facts [][2]string) {
	pdf := d.pdf
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(pageWidth, 6, d.tr(d.head.CompanyName), "", 1, "R", false, 0, "")
	if d.head.AddressLine != "" {
		pdf.SetFont(fontFamily, "", 9)
		pdf.CellFormat(pageWidth, 5, d.tr(d.head.AddressLine), "", 1, "R", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont(fontFamily, "", 11)
	pdf.CellFormat(pageWidth, 6, d.tr(recipient), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(pageWidth, 10, d.tr(title+" "+number), "", 1, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	for _, fact := range facts {
		pdf.CellFormat(40, 6, d.tr(fact[0]+":"), "", 0, "L", false, 0, "")
		pdf.CellFormat(pageWidth-40, 6, d.tr(fact[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

func (d *document) pricedLines(lines []trade.LineItem) {
	pdf := d.pdf
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(12, 7, "Pos", "1", 0, "C", true, 0, "")
	pdf.CellFormat(88, 7, "Bezeichnung", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Menge", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Einzelpreis", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Gesamt", "1", 1, "R", true, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	for _, l := range lines {
		pdf.CellFormat(12, 6, strconv.Itoa(l.Position), "1", 0, "C", false, 0, "")
		pdf.CellFormat(88, 6, d.tr(truncate(l.Label(), 55)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, d.tr(d.f.quantity(l.Quantity)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, d.tr(d.f.money(l.UnitPrice)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, d.tr(d.f.money(l.LineTotal)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

func (d *document) deliveryLines(lines []trade.DeliveryLine) {
	pdf := d.pdf
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(12, 7, "Pos", "1", 0, "C", true, 0, "")
	pdf.CellFormat(148, 7, "Artikel", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Menge", "1", 1, "R", true, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	for _, l := range lines {
		pdf.CellFormat(12, 6, strconv.Itoa(l.Position), "1", 0, "C", false, 0, "")
		pdf.CellFormat(148, 6, d.tr(truncate(l.ProductName, 90)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, d.tr(d.f.quantity(l.Quantity)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
}

func (d *document) totals(t trade.Totals, tax trade.TaxDecision) {
	pdf := d.pdf
	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont(fontFamily, style, 10)
		pdf.CellFormat(125, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, d.tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, d.tr(value), "", 1, "R", false, 0, "")
	}
	row("Netto", d.f.money(t.Net), false)
	row("USt "+d.f.percent(tax.VATPercent), d.f.money(t.VAT), false)
	row("Brutto", d.f.money(t.Gross), true)
	pdf.Ln(4)

	if tax.Mode == trade.TaxModeReverseCharge {
		d.paragraph("Steuerschuldnerschaft des Leistungsempfängers (Reverse Charge).")
	}
}

func (d *document) paragraph(text string) {
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.MultiCell(pageWidth, 5, d.tr(text), "", "L", false)
	d.pdf.Ln(2)
}

func (d *document) note(text string) {
	if text == "" {
		return
	}
	d.paragraph(text)
}

func (d *document) footer() {
	pdf := d.pdf
	pdf.SetY(-15)
	pdf.SetFont(fontFamily, "", 8)
	left := d.head.Footer
	if d.head.VATNumber != "" {
		left = d.head.VATNumber + "  " + left
	}
	pdf.CellFormat(pageWidth-20, 5, d.tr(left), "T", 0, "L", false, 0, "")
	pdf.CellFormat(20, 5, fmt.Sprintf("%d", pdf.PageNo()), "T", 0, "R", false, 0, "")
}

func (d *document) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to render PDF", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
