package trade

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// documentSupport holds the lookups every document service needs
type documentSupport struct {
	clients        partner.ClientRepository
	products       catalog.ProductRepository
	tax            trade.TaxModeResolver
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

func newDocumentSupport(clients partner.ClientRepository, products catalog.ProductRepository, tax trade.TaxModeResolver, logger *zap.Logger) documentSupport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return documentSupport{
		clients:  clients,
		products: products,
		tax:      tax,
		logger:   logger,
		now:      time.Now,
	}
}

// client loads the client and decides the tax mode for a new document
func (s *documentSupport) client(ctx context.Context, id uuid.UUID) (trade.ClientSnapshot, trade.TaxDecision, error) {
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return trade.ClientSnapshot{}, trade.TaxDecision{}, err
	}
	snap := trade.ClientSnapshot{ID: c.ID, Name: c.DisplayName, Country: c.CountryCode}
	return snap, s.tax.Resolve(c), nil
}

// lineInputs resolves catalog names and list prices for product lines
func (s *documentSupport) lineInputs(ctx context.Context, reqs []LineRequest) ([]trade.LineInput, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		if r.ProductID != nil {
			ids = append(ids, *r.ProductID)
		}
	}
	byID := make(map[uuid.UUID]catalog.Product, len(ids))
	if len(ids) > 0 {
		products, err := s.products.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			byID[p.ID] = p
		}
	}

	out := make([]trade.LineInput, len(reqs))
	for i, r := range reqs {
		in := trade.LineInput{Description: r.Description, Quantity: r.Quantity}
		if r.UnitPrice != nil {
			in.UnitPrice = *r.UnitPrice
		}
		if r.ProductID != nil {
			p, ok := byID[*r.ProductID]
			if !ok {
				return nil, shared.NewNotFoundError("product", *r.ProductID)
			}
			if !p.Active {
				return nil, shared.NewValidationError("product %s is inactive", p.SKU)
			}
			in.ProductID = p.ID
			in.ProductName = p.Name
			if r.UnitPrice == nil {
				in.UnitPrice = p.UnitPrice
			}
		}
		out[i] = in
	}
	return out, nil
}

func (s *documentSupport) lineInput(ctx context.Context, req LineRequest) (trade.LineInput, error) {
	ins, err := s.lineInputs(ctx, []LineRequest{req})
	if err != nil {
		return trade.LineInput{}, err
	}
	return ins[0], nil
}

// today returns the current date, used when a request leaves a document date empty
func (s *documentSupport) today() time.Time {
	return shared.DateOf(s.now())
}

func dateOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return *t
}

// publishDomainEvents publishes the aggregate's events after commit and clears them.
// A publish failure is logged; the committed change stands.
func (s *documentSupport) publishDomainEvents(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("publish domain events",
				zap.String("aggregate_id", agg.GetID().String()),
				zap.Int("events", len(events)),
				zap.Error(err))
		}
	}
	agg.ClearDomainEvents()
}
