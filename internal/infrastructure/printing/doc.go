// Package printing renders offers, invoices, delivery notes and dunning letters as PDF.
//
// Layout is deliberately plain: a header with sender and client, a line table and a
// totals block. Rendering is read-only; a failure is reported to the caller of the
// download endpoint and never affects stored documents.
//
// Example usage:
//
//	renderer := printing.NewPDFRenderer(printing.Letterhead{CompanyName: "Muster GmbH"})
//	pdf, err := renderer.RenderInvoice(ctx, invoice)
package printing
