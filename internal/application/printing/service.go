package printing

import (
	"context"
	"errors"
	"strconv"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	infra "github.com/erp/billing/internal/infrastructure/printing"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrintService loads billing documents and renders them as PDF.
// Rendering never writes; a failed render leaves every document untouched.
type PrintService struct {
	offerRepo   trade.OfferRepository
	invoiceRepo trade.InvoiceRepository
	noteRepo    trade.DeliveryNoteRepository
	dunningRepo finance.DunningRecordRepository
	renderer    infra.Renderer
	logger      *zap.Logger
}

// NewPrintService creates a new PrintService
func NewPrintService(
	offerRepo trade.OfferRepository,
	invoiceRepo trade.InvoiceRepository,
	noteRepo trade.DeliveryNoteRepository,
	dunningRepo finance.DunningRecordRepository,
	renderer infra.Renderer,
	logger *zap.Logger,
) *PrintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintService{
		offerRepo:   offerRepo,
		invoiceRepo: invoiceRepo,
		noteRepo:    noteRepo,
		dunningRepo: dunningRepo,
		renderer:    renderer,
		logger:      logger,
	}
}

// Offer renders an offer
func (s *PrintService) Offer(ctx context.Context, id uuid.UUID) (*Document, error) {
	offer, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := render(ctx, "offer", func(ctx context.Context) ([]byte, error) {
		return s.renderer.RenderOffer(ctx, offer)
	})
	if err != nil {
		return nil, s.renderFailed("offer", id, err)
	}
	return &Document{Filename: filename("offer", offer.OfferNumber), Content: content}, nil
}

// Invoice renders an invoice
func (s *PrintService) Invoice(ctx context.Context, id uuid.UUID) (*Document, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := render(ctx, "invoice", func(ctx context.Context) ([]byte, error) {
		return s.renderer.RenderInvoice(ctx, invoice)
	})
	if err != nil {
		return nil, s.renderFailed("invoice", id, err)
	}
	return &Document{Filename: filename("invoice", invoice.InvoiceNumber), Content: content}, nil
}

// DeliveryNote renders a delivery note
func (s *PrintService) DeliveryNote(ctx context.Context, id uuid.UUID) (*Document, error) {
	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := render(ctx, "delivery_note", func(ctx context.Context) ([]byte, error) {
		return s.renderer.RenderDeliveryNote(ctx, note)
	})
	if err != nil {
		return nil, s.renderFailed("delivery_note", id, err)
	}
	return &Document{Filename: filename("delivery-note", note.NoteNumber), Content: content}, nil
}

// DunningLetter renders the letter of a dunning record together with its invoice
func (s *PrintService) DunningLetter(ctx context.Context, recordID uuid.UUID) (*Document, error) {
	record, err := s.dunningRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, record.InvoiceID)
	if err != nil {
		return nil, err
	}
	content, err := render(ctx, "dunning_letter", func(ctx context.Context) ([]byte, error) {
		return s.renderer.RenderDunningLetter(ctx, record, invoice)
	})
	if err != nil {
		return nil, s.renderFailed("dunning_letter", recordID, err)
	}
	name := filename("dunning", record.InvoiceNumber+"-"+strconv.Itoa(record.Stage))
	return &Document{Filename: name, Content: content}, nil
}

// render runs fn under the render_pdf profiling label
func render(ctx context.Context, kind string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	var (
		content []byte
		err     error
	)
	labels := telemetry.OperationLabels(telemetry.OperationRenderPDF, map[string]string{"document_type": kind})
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		content, err = fn(ctx)
	})
	return content, err
}

// renderFailed logs the cause and maps a RenderError to a domain error
func (s *PrintService) renderFailed(kind string, id uuid.UUID, err error) error {
	s.logger.Error("failed to render document",
		zap.String("document_type", kind),
		zap.String("document_id", id.String()),
		zap.Error(err))

	var renderErr *infra.RenderError
	if errors.As(err, &renderErr) {
		return shared.NewDomainError(renderErr.Code, renderErr.Message).WithCause(err)
	}
	return shared.NewDomainError(infra.ErrCodeRenderFailed, "Failed to render document").WithCause(err)
}
