package trade

import (
	"context"

	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliveryNoteService creates delivery notes and books the delivered stock out
type DeliveryNoteService struct {
	documentSupport
	noteRepo    trade.DeliveryNoteRepository
	invoiceRepo trade.InvoiceRepository
	txScope     TransactionScope
	allocator   *SequenceAllocator
	metrics     *telemetry.BillingMetrics
}

// NewDeliveryNoteService creates a new DeliveryNoteService
func NewDeliveryNoteService(
	noteRepo trade.DeliveryNoteRepository,
	invoiceRepo trade.InvoiceRepository,
	clients partner.ClientRepository,
	products catalog.ProductRepository,
	txScope TransactionScope,
	allocator *SequenceAllocator,
	logger *zap.Logger,
) *DeliveryNoteService {
	return &DeliveryNoteService{
		documentSupport: newDocumentSupport(clients, products, trade.TaxModeResolver{}, logger),
		noteRepo:        noteRepo,
		invoiceRepo:     invoiceRepo,
		txScope:         txScope,
		allocator:       allocator,
		metrics:         telemetry.NewNoopBillingMetrics(),
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *DeliveryNoteService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *DeliveryNoteService) SetMetrics(m *telemetry.BillingMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// Create numbers and stores a delivery note and appends one OUT movement per line
func (s *DeliveryNoteService) Create(ctx context.Context, req CreateDeliveryNoteRequest) (*DeliveryNoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DeliveryNoteService", "Create")
	defer span.End()

	c, err := s.clients.FindByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if req.InvoiceID != nil {
		invoice, err := s.invoiceRepo.FindByID(ctx, *req.InvoiceID)
		if err != nil {
			return nil, err
		}
		if invoice.ClientID != c.ID {
			return nil, shared.NewValidationError("invoice %s belongs to another client", invoice.InvoiceNumber)
		}
	}

	lineReqs := make([]LineRequest, len(req.Lines))
	for i, l := range req.Lines {
		pid := l.ProductID
		lineReqs[i] = LineRequest{ProductID: &pid, Quantity: l.Quantity}
	}
	inputs, err := s.lineInputs(ctx, lineReqs)
	if err != nil {
		return nil, err
	}

	snap := trade.ClientSnapshot{ID: c.ID, Name: c.DisplayName, Country: c.CountryCode}
	note, err := trade.NewDeliveryNote(snap, dateOr(req.DeliveryDate, s.today()), req.InvoiceID, req.Note)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if _, err := note.AddLine(in.ProductID, in.ProductName, in.Quantity); err != nil {
			return nil, err
		}
	}

	err = s.allocator.Allocate(ctx, trade.ScopeDeliveryNote, note.DeliveryDate, func(ctx context.Context, a Allocation) error {
		if err := note.AssignNumber(a.Number); err != nil {
			return err
		}
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.DeliveryNoteRepo().Save(ctx, note); err != nil {
				return err
			}
			ledger := inventory.NewLedger(repos.MovementRepo())
			for _, l := range note.Lines {
				if _, err := ledger.AddMovement(ctx, inventory.MovementRequest{
					ProductID:  l.ProductID,
					Quantity:   l.Quantity,
					Kind:       inventory.MovementOut,
					SourceType: inventory.SourceDeliveryNote,
					SourceID:   note.ID,
					Note:       "delivery note " + note.NoteNumber,
				}); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.metrics.RecordMovements(ctx, string(inventory.MovementOut), string(inventory.SourceDeliveryNote), len(note.Lines))
	s.logger.Info("delivery note created",
		zap.String("delivery_note_id", note.ID.String()),
		zap.String("note_number", note.NoteNumber),
		zap.Int("lines", len(note.Lines)))

	s.publishDomainEvents(ctx, note)
	response := ToDeliveryNoteResponse(note)
	return &response, nil
}

// GetByID retrieves a delivery note with its lines
func (s *DeliveryNoteService) GetByID(ctx context.Context, id uuid.UUID) (*DeliveryNoteResponse, error) {
	note, err := s.noteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToDeliveryNoteResponse(note)
	return &response, nil
}

// List retrieves delivery notes with filtering and pagination
func (s *DeliveryNoteService) List(ctx context.Context, filter DeliveryNoteListFilter) ([]DeliveryNoteResponse, error) {
	f := listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.ClientID != nil {
		f.Filters["client_id"] = *filter.ClientID
	}
	if filter.InvoiceID != nil {
		f.Filters["invoice_id"] = *filter.InvoiceID
	}
	notes, err := s.noteRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	return ToDeliveryNoteResponses(notes), nil
}
