package finance

import (
	"context"
	"errors"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errInvoiceSettled rolls back a record whose invoice was paid while the sweep ran
var errInvoiceSettled = errors.New("invoice settled")

// DunningService is the dunning engine. The sweep escalates each overdue invoice by at most
// one stage per run; manual escalation may go past the last automatic stage.
type DunningService struct {
	invoiceRepo    trade.InvoiceRepository
	recordRepo     finance.DunningRecordRepository
	txScope        TransactionScope
	policy         finance.DunningPolicy
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BillingMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewDunningService creates a new DunningService. Fees and interest in the policy are
// accepted but not charged.
func NewDunningService(
	invoiceRepo trade.InvoiceRepository,
	recordRepo finance.DunningRecordRepository,
	txScope TransactionScope,
	policy finance.DunningPolicy,
	logger *zap.Logger,
) (*DunningService, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.ChargesConfigured() {
		logger.Warn("dunning fees and interest are configured but not applied",
			zap.String("fee_first", policy.FeeFirst.String()),
			zap.String("fee_final", policy.FeeFinal.String()),
			zap.Bool("interest_enabled", policy.InterestEnabled))
	}
	return &DunningService{
		invoiceRepo: invoiceRepo,
		recordRepo:  recordRepo,
		txScope:     txScope,
		policy:      policy,
		metrics:     telemetry.NewNoopBillingMetrics(),
		logger:      logger,
		now:         time.Now,
	}, nil
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *DunningService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *DunningService) SetMetrics(m *telemetry.BillingMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// Policy returns the thresholds the engine runs with
func (s *DunningService) Policy() finance.DunningPolicy {
	return s.policy
}

// Sweep examines every open or dunning invoice past its due date. Failures are
// isolated per invoice and reported; only the initial query can fail the sweep.
func (s *DunningService) Sweep(ctx context.Context) (*SweepReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DunningService", "Sweep")
	defer span.End()

	started := time.Now()
	today := shared.DateOf(s.now())
	invoices, err := s.invoiceRepo.FindOverdue(ctx, today)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := &SweepReport{RunDate: today, Items: make([]SweepItem, 0, len(invoices))}
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationDunningSweep, nil), func(ctx context.Context) {
		for i := range invoices {
			if err = ctx.Err(); err != nil {
				return
			}
			report.add(s.sweepInvoice(ctx, &invoices[i], today))
		}
	})
	if err != nil {
		return report, err
	}
	report.Duration = time.Since(started)

	telemetry.SetAttributes(span, telemetry.SpanAttrCount, report.Examined)
	s.metrics.RecordSweep(ctx, report.Duration)
	s.logger.Info("dunning sweep finished",
		zap.Time("run_date", today),
		zap.Int("examined", report.Examined),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (s *DunningService) sweepInvoice(ctx context.Context, invoice *trade.Invoice, today time.Time) SweepItem {
	days := invoice.DaysOverdue(today)
	item := SweepItem{
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		DaysOverdue:   days,
		Outcome:       SweepNotDue,
	}
	if !invoice.IsDunnable() {
		item.Outcome = SweepSettled
		return item
	}
	if days < 0 {
		return item
	}

	var record *finance.DunningRecord
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.DunningRecordRepo().HighestStage(ctx, invoice.ID)
		if err != nil {
			return err
		}
		stage, ok := s.policy.NextStage(current, days)
		if !ok {
			return nil
		}
		record, err = s.createRecord(ctx, repos, invoice, stage, days, nil)
		return err
	})

	switch {
	case err == nil && record == nil:
		return item
	case err == nil:
		stage, id := record.Stage, record.ID
		item.Outcome, item.Stage, item.RecordID = SweepCreated, &stage, &id
		s.metrics.RecordDunningRecord(ctx, record.Stage, false)
		s.logger.Info("dunning record created",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Int("stage", record.Stage),
			zap.Int("days_overdue", days))
		s.publish(ctx, record)
	case shared.IsConflict(err):
		item.Outcome = SweepDuplicate
	case errors.Is(err, errInvoiceSettled):
		item.Outcome = SweepSettled
	default:
		item.Outcome = SweepFailed
		item.Error = err.Error()
		s.logger.Error("dunning sweep failed for invoice",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err))
	}
	return item
}

// createRecord inserts the record for stage and moves the invoice to that stage.
// overrideText non-nil marks a manual escalation.
func (s *DunningService) createRecord(ctx context.Context, repos TransactionalRepositories, invoice *trade.Invoice, stage, days int, overrideText *string) (*finance.DunningRecord, error) {
	exists, err := repos.DunningRecordRepo().ExistsForStage(ctx, invoice.ID, stage)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError("invoice %s already has a dunning record at stage %d", invoice.InvoiceNumber, stage)
	}

	var record *finance.DunningRecord
	if overrideText != nil {
		record, err = finance.NewManualDunningRecord(invoice.ID, invoice.InvoiceNumber, stage, invoice.Outstanding(), days, *overrideText)
	} else {
		record, err = finance.NewDunningRecord(invoice.ID, invoice.InvoiceNumber, stage, invoice.Outstanding(), days)
	}
	if err != nil {
		return nil, err
	}
	if err := repos.DunningRecordRepo().Create(ctx, record); err != nil {
		return nil, err
	}

	advanced, err := repos.InvoiceRepo().AdvanceDunningStage(ctx, invoice.ID, stage)
	if err != nil {
		return nil, err
	}
	if !advanced {
		return nil, errInvoiceSettled
	}
	return record, nil
}

// CreateManual escalates an invoice to the stage after its highest one
func (s *DunningService) CreateManual(ctx context.Context, invoiceID uuid.UUID, req ManualDunningRequest) (*DunningRecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DunningService", "CreateManual",
		telemetry.SpanAttrInvoiceID, invoiceID)
	defer span.End()

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == trade.InvoiceStatusPaid {
		return nil, shared.NewInvalidStateError("invoice %s is paid", invoice.InvoiceNumber)
	}
	days := invoice.DaysOverdue(shared.DateOf(s.now()))
	if days < 0 {
		return nil, shared.NewValidationError("invoice %s is not due before %s",
			invoice.InvoiceNumber, invoice.DueDate.Format("2006-01-02"))
	}

	var record *finance.DunningRecord
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.DunningRecordRepo().HighestStage(ctx, invoice.ID)
		if err != nil {
			return err
		}
		record, err = s.createRecord(ctx, repos, invoice, current+1, days, &req.OverrideText)
		return err
	})
	if errors.Is(err, errInvoiceSettled) {
		err = shared.NewInvalidStateError("invoice %s is paid", invoice.InvoiceNumber)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrStage, record.Stage)
	s.metrics.RecordDunningRecord(ctx, record.Stage, true)
	s.logger.Info("manual dunning record created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int("stage", record.Stage))
	s.publish(ctx, record)

	response := ToDunningRecordResponse(record)
	return &response, nil
}

// ListForInvoice returns the dunning history of an invoice ordered by stage
func (s *DunningService) ListForInvoice(ctx context.Context, invoiceID uuid.UUID) ([]DunningRecordResponse, error) {
	if _, err := s.invoiceRepo.FindByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	records, err := s.recordRepo.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToDunningRecordResponses(records), nil
}

// RecordSendOutcome stores the delivery result of a dunning letter
func (s *DunningService) RecordSendOutcome(ctx context.Context, recordID uuid.UUID, req SendOutcomeRequest) (*DunningRecordResponse, error) {
	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if req.SentAt != nil {
		at = *req.SentAt
	}
	if err := record.RecordSendOutcome(finance.SendStatus(req.Status), req.Error, at); err != nil {
		return nil, err
	}
	if err := s.recordRepo.UpdateSendOutcome(ctx, record); err != nil {
		return nil, err
	}
	response := ToDunningRecordResponse(record)
	return &response, nil
}

func (s *DunningService) publish(ctx context.Context, record *finance.DunningRecord) {
	events := record.GetDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("publish dunning events",
				zap.String("record_id", record.ID.String()),
				zap.Error(err))
		}
	}
	record.ClearDomainEvents()
}
