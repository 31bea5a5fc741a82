package trade

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conversion results recorded in metrics
const (
	conversionConverted = "converted"
	conversionFailed    = "failed"
)

// ConversionService turns offers into invoices. Numbering, the invoice insert, the
// reservation settlement and the offer status change share one lock and one transaction.
type ConversionService struct {
	offerRepo       trade.OfferRepository
	txScope         TransactionScope
	allocator       *SequenceAllocator
	paymentTermDays int
	eventPublisher  shared.EventPublisher
	metrics         *telemetry.BillingMetrics
	logger          *zap.Logger
	now             func() time.Time
}

// NewConversionService creates a new ConversionService
func NewConversionService(
	offerRepo trade.OfferRepository,
	txScope TransactionScope,
	allocator *SequenceAllocator,
	paymentTermDays int,
	logger *zap.Logger,
) *ConversionService {
	if paymentTermDays <= 0 {
		paymentTermDays = trade.DefaultPaymentTermDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversionService{
		offerRepo:       offerRepo,
		txScope:         txScope,
		allocator:       allocator,
		paymentTermDays: paymentTermDays,
		metrics:         telemetry.NewNoopBillingMetrics(),
		logger:          logger,
		now:             time.Now,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ConversionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *ConversionService) SetMetrics(m *telemetry.BillingMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// Convert creates an invoice numbered in the yearly scope for the offer, ships its
// reserved stock and marks the offer accepted. Converting an accepted offer again
// creates another invoice.
func (s *ConversionService) Convert(ctx context.Context, offerID uuid.UUID) (*ConversionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ConversionService", "Convert",
		telemetry.SpanAttrOfferID, offerID)
	defer span.End()

	result, err := s.convert(ctx, offerID)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordConversion(ctx, conversionFailed)
		s.logger.Warn("offer conversion failed",
			zap.String("offer_id", offerID.String()),
			zap.String("code", shared.CodeOf(err)),
			zap.Error(err))
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, result.InvoiceID,
		telemetry.SpanAttrInvoiceNumber, result.InvoiceNumber)
	s.metrics.RecordConversion(ctx, conversionConverted)
	return result, nil
}

func (s *ConversionService) convert(ctx context.Context, offerID uuid.UUID) (*ConversionResult, error) {
	offer, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if err := offer.CanConvert(); err != nil {
		return nil, err
	}

	date := shared.DateOf(s.now())
	var (
		invoice *trade.Invoice
		shipped []inventory.Movement
	)
	err = s.allocator.Allocate(ctx, trade.ScopeInvoiceYear, date, func(ctx context.Context, a Allocation) error {
		built, err := trade.NewInvoiceFromOffer(offer, date, s.paymentTermDays)
		if err != nil {
			return err
		}
		if err := built.AssignNumber(a.Number); err != nil {
			return err
		}
		if err := offer.Accept(); err != nil {
			return err
		}
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.InvoiceRepo().Save(ctx, built); err != nil {
				return err
			}
			moved, err := inventory.NewLedger(repos.MovementRepo()).
				ConvertReservationToOut(ctx, inventory.SourceOffer, offer.ID)
			if err != nil {
				return err
			}
			if err := repos.OfferRepo().Save(ctx, offer); err != nil {
				return err
			}
			invoice, shipped = built, moved
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMovements(ctx, string(inventory.MovementOut), string(inventory.SourceOffer), len(shipped))
	s.logger.Info("offer converted",
		zap.String("offer_id", offer.ID.String()),
		zap.String("offer_number", offer.OfferNumber),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int("shipped", len(shipped)))

	s.publish(ctx, invoice)
	s.publish(ctx, offer)
	return &ConversionResult{
		OfferID:       offer.ID,
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
	}, nil
}

// ConvertMany converts each offer on its own. A failed offer is reported and
// does not roll back the others.
func (s *ConversionService) ConvertMany(ctx context.Context, offerIDs []uuid.UUID) []ConversionOutcome {
	ctx, span := telemetry.StartServiceSpan(ctx, "ConversionService", "ConvertMany",
		telemetry.SpanAttrCount, len(offerIDs))
	defer span.End()

	outcomes := make([]ConversionOutcome, 0, len(offerIDs))
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationConvertOffers, nil), func(ctx context.Context) {
		for _, id := range offerIDs {
			outcome := ConversionOutcome{OfferID: id}
			result, err := s.Convert(ctx, id)
			if err != nil {
				outcome.Code = shared.CodeOf(err)
				outcome.Error = err.Error()
			} else {
				invoiceID := result.InvoiceID
				outcome.InvoiceID = &invoiceID
				outcome.InvoiceNumber = result.InvoiceNumber
			}
			outcomes = append(outcomes, outcome)
		}
	})
	return outcomes
}

func (s *ConversionService) publish(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("publish domain events", zap.String("aggregate_id", agg.GetID().String()), zap.Error(err))
		}
	}
	agg.ClearDomainEvents()
}
