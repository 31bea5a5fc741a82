package trade

import (
	"context"
	"sort"
	"time"

	"github.com/erp/billing/internal/domain/catalog"
	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService handles direct invoices. Converted invoices come from ConversionService.
type InvoiceService struct {
	documentSupport
	invoiceRepo     trade.InvoiceRepository
	txScope         TransactionScope
	allocator       *SequenceAllocator
	paymentTermDays int
	metrics         *telemetry.BillingMetrics
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo trade.InvoiceRepository,
	clients partner.ClientRepository,
	products catalog.ProductRepository,
	txScope TransactionScope,
	allocator *SequenceAllocator,
	tax trade.TaxModeResolver,
	paymentTermDays int,
	logger *zap.Logger,
) *InvoiceService {
	if paymentTermDays <= 0 {
		paymentTermDays = trade.DefaultPaymentTermDays
	}
	return &InvoiceService{
		documentSupport: newDocumentSupport(clients, products, tax, logger),
		invoiceRepo:     invoiceRepo,
		txScope:         txScope,
		allocator:       allocator,
		paymentTermDays: paymentTermDays,
		metrics:         telemetry.NewNoopBillingMetrics(),
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *InvoiceService) SetMetrics(m *telemetry.BillingMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// Create numbers and stores a direct invoice and books its product lines out of stock
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "Create")
	defer span.End()

	client, tax, err := s.client(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("an invoice needs at least one line item")
	}
	inputs, err := s.lineInputs(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	term := s.paymentTermDays
	if req.PaymentTermDays != nil {
		term = *req.PaymentTermDays
	}
	invoice, err := trade.NewInvoice(client, dateOr(req.IssueDate, s.today()), term, tax, req.Note)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if _, err := invoice.AddLine(in); err != nil {
			return nil, err
		}
	}

	err = s.allocator.Allocate(ctx, trade.ScopeInvoiceDay, invoice.IssueDate, func(ctx context.Context, a Allocation) error {
		if err := invoice.AssignNumber(a.Number); err != nil {
			return err
		}
		return s.save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoice.ID,
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber)
	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("gross", invoice.Gross.StringFixed(2)))

	s.publishDomainEvents(ctx, invoice)
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByID retrieves an invoice with its lines
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// Invoice returns the domain invoice, used by the PDF renderer
func (s *InvoiceService) Invoice(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, id)
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	f := listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.ClientID != nil {
		f.Filters["client_id"] = *filter.ClientID
	}
	if filter.OriginOfferID != nil {
		f.Filters["origin_offer_id"] = *filter.OriginOfferID
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToInvoiceResponses(invoices), total, nil
}

// AddLine appends a line to an open invoice
func (s *InvoiceService) AddLine(ctx context.Context, id uuid.UUID, req LineRequest) (*InvoiceResponse, error) {
	in, err := s.lineInput(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, id, func(i *trade.Invoice) error {
		_, err := i.AddLine(in)
		return err
	})
}

// UpdateLine replaces the line at position
func (s *InvoiceService) UpdateLine(ctx context.Context, id uuid.UUID, position int, req LineRequest) (*InvoiceResponse, error) {
	in, err := s.lineInput(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, id, func(i *trade.Invoice) error {
		_, err := i.UpdateLine(position, in)
		return err
	})
}

// RemoveLine drops the line at position
func (s *InvoiceService) RemoveLine(ctx context.Context, id uuid.UUID, position int) (*InvoiceResponse, error) {
	return s.edit(ctx, id, func(i *trade.Invoice) error {
		return i.RemoveLine(position)
	})
}

// MarkPaid settles an invoice. The dunning sweep skips it from then on.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uuid.UUID, req MarkPaidRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var at time.Time
	if req.PaidAt != nil {
		at = *req.PaidAt
	} else {
		at = s.now()
	}
	if err := invoice.MarkPaid(at); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}
	s.logger.Info("invoice paid",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber))

	s.publishDomainEvents(ctx, invoice)
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

func (s *InvoiceService) edit(ctx context.Context, id uuid.UUID, mutate func(*trade.Invoice) error) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(invoice); err != nil {
		return nil, err
	}
	if err := s.save(ctx, invoice); err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

func (s *InvoiceService) save(ctx context.Context, invoice *trade.Invoice) error {
	var booked []inventory.Movement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
			return err
		}
		var err error
		booked, err = bookInvoiceStock(ctx, repos.MovementRepo(), invoice)
		return err
	})
	if err != nil {
		return err
	}
	for _, m := range booked {
		s.metrics.RecordMovements(ctx, string(m.Kind), string(m.SourceType), 1)
	}
	return nil
}

// bookInvoiceStock books OUT or offsetting IN movements so the stock shipped under a direct
// invoice matches its product lines. Converted invoices shipped their stock through the
// offer's reservations and are left alone.
func bookInvoiceStock(ctx context.Context, repo inventory.MovementRepository, invoice *trade.Invoice) ([]inventory.Movement, error) {
	if invoice.OriginOfferID != nil {
		return nil, nil
	}
	existing, err := repo.FindBySource(ctx, inventory.SourceInvoice, invoice.ID)
	if err != nil {
		return nil, err
	}
	shipped := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range existing {
		shipped[m.ProductID] = shipped[m.ProductID].Sub(m.Quantity)
	}
	want := trade.ProductQuantities(invoice.Lines)

	ledger := inventory.NewLedger(repo)
	var booked []inventory.Movement
	for _, pid := range productIDs(want, shipped) {
		delta := want[pid].Sub(shipped[pid])
		if delta.IsZero() {
			continue
		}
		req := inventory.MovementRequest{
			ProductID:  pid,
			Quantity:   delta.Abs(),
			Kind:       inventory.MovementOut,
			SourceType: inventory.SourceInvoice,
			SourceID:   invoice.ID,
			Note:       "invoice " + invoice.InvoiceNumber,
		}
		if delta.IsNegative() {
			req.Kind = inventory.MovementIn
			req.Note = "invoice " + invoice.InvoiceNumber + " line changed"
		}
		m, err := ledger.AddMovement(ctx, req)
		if err != nil {
			return nil, err
		}
		booked = append(booked, *m)
	}
	return booked, nil
}

func productIDs(maps ...map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, m := range maps {
		for id := range m {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
