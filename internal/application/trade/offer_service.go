package trade

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfferService handles offer business operations. Every save re-syncs the offer's
// stock reservations in the same transaction.
type OfferService struct {
	documentSupport
	offerRepo trade.OfferRepository
	txScope   TransactionScope
	allocator *SequenceAllocator
}

// NewOfferService creates a new OfferService
func NewOfferService(
	offerRepo trade.OfferRepository,
	clients partner.ClientRepository,
	products catalog.ProductRepository,
	txScope TransactionScope,
	allocator *SequenceAllocator,
	tax trade.TaxModeResolver,
	logger *zap.Logger,
) *OfferService {
	return &OfferService{
		documentSupport: newDocumentSupport(clients, products, tax, logger),
		offerRepo:       offerRepo,
		txScope:         txScope,
		allocator:       allocator,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OfferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create numbers and stores a new offer and reserves stock for its product lines
func (s *OfferService) Create(ctx context.Context, req CreateOfferRequest) (*OfferResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OfferService", "Create")
	defer span.End()

	client, tax, err := s.client(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("an offer needs at least one line item")
	}
	inputs, err := s.lineInputs(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	var validUntil time.Time
	if req.ValidUntil != nil {
		validUntil = *req.ValidUntil
	}
	offer, err := trade.NewOffer(client, dateOr(req.IssueDate, s.today()), validUntil, tax, req.Note)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if _, err := offer.AddLine(in); err != nil {
			return nil, err
		}
	}

	err = s.allocator.Allocate(ctx, trade.ScopeOffer, offer.IssueDate, func(ctx context.Context, a Allocation) error {
		if err := offer.AssignNumber(a.Number); err != nil {
			return err
		}
		return s.save(ctx, offer)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOfferID, offer.ID, telemetry.SpanAttrNumber, offer.OfferNumber)
	s.logger.Info("offer created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("offer_number", offer.OfferNumber),
		zap.String("gross", offer.Gross.StringFixed(2)))

	s.publishDomainEvents(ctx, offer)
	response := ToOfferResponse(offer)
	return &response, nil
}

// GetByID retrieves an offer with its lines
func (s *OfferService) GetByID(ctx context.Context, id uuid.UUID) (*OfferResponse, error) {
	offer, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToOfferResponse(offer)
	return &response, nil
}

// Offer returns the domain offer, used by the PDF renderer
func (s *OfferService) Offer(ctx context.Context, id uuid.UUID) (*trade.Offer, error) {
	return s.offerRepo.FindByID(ctx, id)
}

// List retrieves offers with filtering and pagination
func (s *OfferService) List(ctx context.Context, filter OfferListFilter) ([]OfferResponse, int64, error) {
	f := listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.ClientID != nil {
		f.Filters["client_id"] = *filter.ClientID
	}

	offers, err := s.offerRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.offerRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToOfferResponses(offers), total, nil
}

// AddLine appends a line to an open offer
func (s *OfferService) AddLine(ctx context.Context, id uuid.UUID, req LineRequest) (*OfferResponse, error) {
	in, err := s.lineInput(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, id, func(o *trade.Offer) error {
		_, err := o.AddLine(in)
		return err
	})
}

// UpdateLine replaces the line at position
func (s *OfferService) UpdateLine(ctx context.Context, id uuid.UUID, position int, req LineRequest) (*OfferResponse, error) {
	in, err := s.lineInput(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, id, func(o *trade.Offer) error {
		_, err := o.UpdateLine(position, in)
		return err
	})
}

// RemoveLine drops the line at position
func (s *OfferService) RemoveLine(ctx context.Context, id uuid.UUID, position int) (*OfferResponse, error) {
	return s.edit(ctx, id, func(o *trade.Offer) error {
		return o.RemoveLine(position)
	})
}

// Accept marks an offer accepted and ships its reservations as OUT movements.
// A later conversion finds no open reservations and ships nothing twice.
func (s *OfferService) Accept(ctx context.Context, id uuid.UUID) (*OfferResponse, error) {
	offer, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := offer.Accept(); err != nil {
		return nil, err
	}

	var shipped int
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OfferRepo().Save(ctx, offer); err != nil {
			return err
		}
		moved, err := inventory.NewLedger(repos.MovementRepo()).ConvertReservationToOut(ctx, inventory.SourceOffer, offer.ID)
		shipped = len(moved)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("offer accepted",
		zap.String("offer_id", offer.ID.String()),
		zap.Int("shipped", shipped))

	s.publishDomainEvents(ctx, offer)
	response := ToOfferResponse(offer)
	return &response, nil
}

// Reject marks an open offer rejected and releases its reservations
func (s *OfferService) Reject(ctx context.Context, id uuid.UUID) (*OfferResponse, error) {
	offer, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := offer.Reject(); err != nil {
		return nil, err
	}

	var released int
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OfferRepo().Save(ctx, offer); err != nil {
			return err
		}
		moved, err := inventory.NewLedger(repos.MovementRepo()).ReleaseReservations(ctx, inventory.SourceOffer, offer.ID)
		released = len(moved)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("offer rejected",
		zap.String("offer_id", offer.ID.String()),
		zap.Int("released", released))

	s.publishDomainEvents(ctx, offer)
	response := ToOfferResponse(offer)
	return &response, nil
}

func (s *OfferService) edit(ctx context.Context, id uuid.UUID, mutate func(*trade.Offer) error) (*OfferResponse, error) {
	offer, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(offer); err != nil {
		return nil, err
	}
	if err := s.save(ctx, offer); err != nil {
		return nil, err
	}
	response := ToOfferResponse(offer)
	return &response, nil
}

// save writes the offer and makes its open reservations match its product lines
func (s *OfferService) save(ctx context.Context, offer *trade.Offer) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.OfferRepo().Save(ctx, offer); err != nil {
			return err
		}
		return inventory.NewLedger(repos.MovementRepo()).SyncReservations(ctx,
			inventory.SourceOffer, offer.ID, trade.ProductQuantities(offer.Lines), "offer "+offer.OfferNumber)
	})
}
