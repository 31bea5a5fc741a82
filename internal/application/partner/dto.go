package partner

import (
	"time"

	"github.com/erp/billing/internal/domain/partner"
	"github.com/google/uuid"
)

// ClientRequest represents a request to create or replace a client
type ClientRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=200"`
	CountryCode string `json:"country_code" binding:"required,len=2"`
	VATNumber   string `json:"vat_number" binding:"max=20"`
	VATStatus   string `json:"vat_status" binding:"omitempty,oneof=unchecked validated invalid"`
	Street      string `json:"street" binding:"max=200"`
	PostalCode  string `json:"postal_code" binding:"max=20"`
	City        string `json:"city" binding:"max=100"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	CountryCode string    `json:"country_code"`
	VATNumber   string    `json:"vat_number,omitempty"`
	VATStatus   string    `json:"vat_status"`
	Street      string    `json:"street,omitempty"`
	PostalCode  string    `json:"postal_code,omitempty"`
	City        string    `json:"city,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClientListFilter represents filter options for the client list
type ClientListFilter struct {
	Search   string `form:"search"`
	Country  string `form:"country_code" binding:"omitempty,len=2"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (r ClientRequest) details() partner.ClientDetails {
	return partner.ClientDetails{
		DisplayName: r.DisplayName,
		CountryCode: r.CountryCode,
		VATNumber:   r.VATNumber,
		VATStatus:   partner.VATStatus(r.VATStatus),
		Street:      r.Street,
		PostalCode:  r.PostalCode,
		City:        r.City,
		Email:       r.Email,
	}
}

// ToClientResponse converts a domain client to a response DTO
func ToClientResponse(c *partner.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID,
		DisplayName: c.DisplayName,
		CountryCode: string(c.CountryCode),
		VATNumber:   c.VATNumber,
		VATStatus:   string(c.VATStatus),
		Street:      c.Street,
		PostalCode:  c.PostalCode,
		City:        c.City,
		Email:       c.Email,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
