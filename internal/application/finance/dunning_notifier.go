package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNotificationSkipped tells the handler the letter was deliberately not sent
var ErrNotificationSkipped = errors.New("notification skipped")

// DunningNotice is what a Notifier delivers to the client
type DunningNotice struct {
	RecordID      uuid.UUID
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Stage         int
	StageName     string
	AmountDue     decimal.Decimal
	DaysOverdue   int
	Manual        bool
}

// Notifier sends dunning letters
type Notifier interface {
	Notify(ctx context.Context, notice DunningNotice) error
}

// LogNotifier writes the notice to the log instead of sending it
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(_ context.Context, notice DunningNotice) error {
	n.logger.Info("dunning notice",
		zap.String("record_id", notice.RecordID.String()),
		zap.String("invoice_number", notice.InvoiceNumber),
		zap.Int("stage", notice.Stage),
		zap.String("stage_name", notice.StageName),
		zap.String("amount_due", notice.AmountDue.StringFixed(2)),
		zap.Int("days_overdue", notice.DaysOverdue),
		zap.Bool("manual", notice.Manual))
	return nil
}

// DunningNotificationHandler sends the letter for each new dunning record and stores
// the send outcome. A failed send is recorded on the record, never rolled back into it.
type DunningNotificationHandler struct {
	recordRepo finance.DunningRecordRepository
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

// NewDunningNotificationHandler creates a new handler for dunning record events
func NewDunningNotificationHandler(recordRepo finance.DunningRecordRepository, notifier Notifier, logger *zap.Logger) *DunningNotificationHandler {
	return &DunningNotificationHandler{
		recordRepo: recordRepo,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *DunningNotificationHandler) EventTypes() []string {
	return []string{finance.EventTypeDunningRecordCreated}
}

// Handle processes a DunningRecordCreatedEvent
func (h *DunningNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*finance.DunningRecordCreatedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", finance.EventTypeDunningRecordCreated),
			zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			finance.EventTypeDunningRecordCreated, event.EventType())
	}

	status, sendErr := finance.SendStatusSent, ""
	err := h.notifier.Notify(ctx, DunningNotice{
		RecordID:      created.RecordID,
		InvoiceID:     created.InvoiceID,
		InvoiceNumber: created.InvoiceNumber,
		Stage:         created.Stage,
		StageName:     finance.StageName(created.Stage),
		AmountDue:     created.AmountDue,
		DaysOverdue:   created.DaysOverdue,
		Manual:        created.Manual,
	})
	switch {
	case errors.Is(err, ErrNotificationSkipped):
		status = finance.SendStatusSkipped
	case err != nil:
		status, sendErr = finance.SendStatusFailed, err.Error()
		h.logger.Warn("dunning notice not sent",
			zap.String("record_id", created.RecordID.String()),
			zap.String("invoice_number", created.InvoiceNumber),
			zap.Error(err))
	}

	record, err := h.recordRepo.FindByID(ctx, created.RecordID)
	if err != nil {
		return fmt.Errorf("load dunning record %s: %w", created.RecordID, err)
	}
	if record.SendStatus.IsFinal() {
		return nil
	}
	if err := record.RecordSendOutcome(status, sendErr, h.now()); err != nil {
		return err
	}
	if err := h.recordRepo.UpdateSendOutcome(ctx, record); err != nil {
		return fmt.Errorf("store send outcome for %s: %w", created.RecordID, err)
	}
	return nil
}

var _ shared.EventHandler = (*DunningNotificationHandler)(nil)
var _ Notifier = (*LogNotifier)(nil)
