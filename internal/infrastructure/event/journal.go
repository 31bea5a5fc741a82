package event

import (
	"context"
	"encoding/json"

	"github.com/erp/billing/internal/domain/shared"
	"go.uber.org/zap"
)

// Journal is a wildcard handler that writes each domain event to the log as JSON.
// It is the audit trail for document creation, payments and dunning.
type Journal struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewJournal creates a new event journal
func NewJournal(serializer *EventSerializer, logger *zap.Logger) *Journal {
	return &Journal{
		serializer: serializer,
		logger:     logger.Named("events"),
	}
}

// EventTypes is empty so the journal sees every event
func (j *Journal) EventTypes() []string {
	return nil
}

// Handle logs event with its serialized payload
func (j *Journal) Handle(_ context.Context, event shared.DomainEvent) error {
	payload, err := j.serializer.Serialize(event)
	if err != nil {
		return err
	}
	j.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", json.RawMessage(payload)),
	)
	return nil
}

var _ shared.EventHandler = (*Journal)(nil)
