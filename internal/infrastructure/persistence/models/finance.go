package models

import (
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DunningRecordModel is the persistence model for the DunningRecord aggregate root
type DunningRecordModel struct {
	AggregateModel
	InvoiceID      uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_dunning_invoice_stage,priority:1"`
	InvoiceNumber  string             `gorm:"type:varchar(30);not null"`
	Stage          int                `gorm:"not null;uniqueIndex:idx_dunning_invoice_stage,priority:2"`
	AmountDue      decimal.Decimal    `gorm:"type:numeric(18,2);not null"`
	FeeAmount      decimal.Decimal    `gorm:"type:numeric(18,2);not null"`
	InterestAmount decimal.Decimal    `gorm:"type:numeric(18,2);not null"`
	DaysOverdue    int                `gorm:"not null"`
	OverrideText   string             `gorm:"type:text"`
	Manual         bool               `gorm:"not null"`
	SendStatus     finance.SendStatus `gorm:"type:varchar(20);not null;index"`
	SendError      string             `gorm:"type:text"`
	SentAt         *time.Time
}

// TableName returns the table name for GORM
func (DunningRecordModel) TableName() string {
	return "dunning_records"
}

// ToDomain converts the persistence model to a domain DunningRecord
func (m *DunningRecordModel) ToDomain() *finance.DunningRecord {
	return &finance.DunningRecord{
		BaseAggregateRoot: m.AggregateRoot(),
		InvoiceID:         m.InvoiceID,
		InvoiceNumber:     m.InvoiceNumber,
		Stage:             m.Stage,
		AmountDue:         m.AmountDue,
		FeeAmount:         m.FeeAmount,
		InterestAmount:    m.InterestAmount,
		DaysOverdue:       m.DaysOverdue,
		OverrideText:      m.OverrideText,
		Manual:            m.Manual,
		SendStatus:        m.SendStatus,
		SendError:         m.SendError,
		SentAt:            m.SentAt,
	}
}

// FromDomain populates the persistence model from a domain DunningRecord
func (m *DunningRecordModel) FromDomain(r *finance.DunningRecord) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.InvoiceID = r.InvoiceID
	m.InvoiceNumber = r.InvoiceNumber
	m.Stage = r.Stage
	m.AmountDue = r.AmountDue
	m.FeeAmount = r.FeeAmount
	m.InterestAmount = r.InterestAmount
	m.DaysOverdue = r.DaysOverdue
	m.OverrideText = r.OverrideText
	m.Manual = r.Manual
	m.SendStatus = r.SendStatus
	m.SendError = r.SendError
	m.SentAt = r.SentAt
}

// DunningRecordModelFromDomain creates a new persistence model from a domain DunningRecord
func DunningRecordModelFromDomain(r *finance.DunningRecord) *DunningRecordModel {
	m := &DunningRecordModel{}
	m.FromDomain(r)
	return m
}
