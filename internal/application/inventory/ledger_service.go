package inventory

import (
	"context"

	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService exposes stock queries and manual corrections over the movement ledger
type LedgerService struct {
	movementRepo inventory.MovementRepository
	products     catalog.ProductRepository
	txScope      TransactionScope
	metrics      *telemetry.BillingMetrics
	logger       *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(movementRepo inventory.MovementRepository, products catalog.ProductRepository, txScope TransactionScope, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		movementRepo: movementRepo,
		products:     products,
		txScope:      txScope,
		metrics:      telemetry.NewNoopBillingMetrics(),
		logger:       logger,
	}
}

// SetMetrics sets the metrics recorder
func (s *LedgerService) SetMetrics(m *telemetry.BillingMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// StockLevel returns on-hand, reserved and available stock of a product
func (s *LedgerService) StockLevel(ctx context.Context, productID uuid.UUID) (*StockLevelResponse, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	level, err := inventory.NewLedger(s.movementRepo).StockLevel(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &StockLevelResponse{
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		OnHand:    level.OnHand,
		Reserved:  level.Reserved,
		Available: level.Available,
	}, nil
}

// MovementsBySource lists the movements booked for one document
func (s *LedgerService) MovementsBySource(ctx context.Context, q MovementQuery) ([]MovementResponse, error) {
	sourceType := inventory.SourceType(q.SourceType)
	if !sourceType.IsValid() {
		return nil, shared.NewValidationError("unknown source type %q", q.SourceType)
	}
	if q.SourceID == uuid.Nil {
		return nil, shared.NewValidationError("source id is required")
	}
	ms, err := s.movementRepo.FindBySource(ctx, sourceType, q.SourceID)
	if err != nil {
		return nil, err
	}
	return ToMovementResponses(ms), nil
}

// Adjust books a manual IN or OUT correction. Each adjustment is its own source document.
func (s *LedgerService) Adjust(ctx context.Context, req AdjustStockRequest) (*MovementResponse, error) {
	if _, err := s.products.FindByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	var m *inventory.Movement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		m, err = inventory.NewLedger(repos.MovementRepo()).AddMovement(ctx, inventory.MovementRequest{
			ProductID:  req.ProductID,
			Quantity:   req.Quantity,
			Kind:       inventory.MovementKind(req.Kind),
			SourceType: inventory.SourceCorrection,
			SourceID:   uuid.New(),
			Note:       req.Note,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMovements(ctx, string(m.Kind), string(m.SourceType), 1)
	s.logger.Info("stock adjusted",
		zap.String("product_id", m.ProductID.String()),
		zap.String("kind", string(m.Kind)),
		zap.String("quantity", m.Quantity.String()))

	response := ToMovementResponse(m)
	return &response, nil
}
