package partner

import (
	"context"
	"strings"

	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientService handles client business operations. Edits never change issued
// documents, which keep their own client snapshot.
type ClientService struct {
	clientRepo     partner.ClientRepository
	eventPublisher shared.EventPublisher
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo partner.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new client
func (s *ClientService) Create(ctx context.Context, req ClientRequest) (*ClientResponse, error) {
	client, err := partner.NewClient(req.details())
	if err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, client)

	response := ToClientResponse(client)
	return &response, nil
}

// GetByID retrieves a client by ID
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToClientResponse(client)
	return &response, nil
}

// Update replaces the editable fields of a client. An unchanged VAT number keeps its check result.
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := client.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, client)

	response := ToClientResponse(client)
	return &response, nil
}

// List retrieves clients with filtering and pagination
func (s *ClientService) List(ctx context.Context, filter ClientListFilter) ([]ClientResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	f.Search = filter.Search
	if filter.Country != "" {
		f.Filters["country_code"] = strings.ToUpper(filter.Country)
	}

	clients, err := s.clientRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.clientRepo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ClientResponse, len(clients))
	for i := range clients {
		out[i] = ToClientResponse(&clients[i])
	}
	return out, total, nil
}

func (s *ClientService) publishDomainEvents(ctx context.Context, client *partner.Client) {
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, client.GetDomainEvents()...)
	}
	client.ClearDomainEvents()
}
