package partner

import (
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeClient = "Client"

// Event type constants
const (
	EventTypeClientCreated = "ClientCreated"
	EventTypeClientUpdated = "ClientUpdated"
)

// ClientCreatedEvent is published when a new client is created
type ClientCreatedEvent struct {
	shared.BaseDomainEvent
	ClientID    uuid.UUID `json:"client_id"`
	DisplayName string    `json:"display_name"`
	CountryCode string    `json:"country_code"`
}

// NewClientCreatedEvent creates a new ClientCreatedEvent
func NewClientCreatedEvent(c *Client) *ClientCreatedEvent {
	return &ClientCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientCreated, AggregateTypeClient, c.ID),
		ClientID:        c.ID,
		DisplayName:     c.DisplayName,
		CountryCode:     c.CountryCode.String(),
	}
}

// ClientUpdatedEvent is published when a client is updated
type ClientUpdatedEvent struct {
	shared.BaseDomainEvent
	ClientID    uuid.UUID `json:"client_id"`
	DisplayName string    `json:"display_name"`
	VATStatus   VATStatus `json:"vat_status"`
}

// NewClientUpdatedEvent creates a new ClientUpdatedEvent
func NewClientUpdatedEvent(c *Client) *ClientUpdatedEvent {
	return &ClientUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientUpdated, AggregateTypeClient, c.ID),
		ClientID:        c.ID,
		DisplayName:     c.DisplayName,
		VATStatus:       c.VATStatus,
	}
}
