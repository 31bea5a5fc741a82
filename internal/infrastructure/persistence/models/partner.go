package models

import (
	"github.com/erp/billing/internal/domain/partner"
	"github.com/erp/billing/internal/domain/shared/valueobject"
)

// ClientModel is the persistence model for the Client aggregate root
type ClientModel struct {
	AggregateModel
	DisplayName string            `gorm:"type:varchar(200);not null;index"`
	CountryCode string            `gorm:"type:char(2);not null"`
	VATNumber   string            `gorm:"column:vat_number;type:varchar(30)"`
	VATStatus   partner.VATStatus `gorm:"column:vat_status;type:varchar(20);not null;default:'unchecked'"`
	Street      string            `gorm:"type:varchar(200)"`
	PostalCode  string            `gorm:"type:varchar(20)"`
	City        string            `gorm:"type:varchar(100)"`
	Email       string            `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client
func (m *ClientModel) ToDomain() *partner.Client {
	return &partner.Client{
		BaseAggregateRoot: m.AggregateRoot(),
		DisplayName:       m.DisplayName,
		CountryCode:       valueobject.CountryCode(m.CountryCode),
		VATNumber:         m.VATNumber,
		VATStatus:         m.VATStatus,
		Street:            m.Street,
		PostalCode:        m.PostalCode,
		City:              m.City,
		Email:             m.Email,
	}
}

// FromDomain populates the persistence model from a domain Client
func (m *ClientModel) FromDomain(c *partner.Client) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.DisplayName = c.DisplayName
	m.CountryCode = c.CountryCode.String()
	m.VATNumber = c.VATNumber
	m.VATStatus = c.VATStatus
	m.Street = c.Street
	m.PostalCode = c.PostalCode
	m.City = c.City
	m.Email = c.Email
}

// ClientModelFromDomain creates a new persistence model from a domain Client
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}
