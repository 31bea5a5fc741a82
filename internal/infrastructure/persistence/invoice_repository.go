package persistence

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	var m models.InvoiceModel
	err := r.db.WithContext(ctx).
		Preload("Lines", orderByPosition).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "load invoice", "invoice", id)
	}
	return m.ToDomain(), nil
}

// FindAll lists invoices without lines
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Invoice, error) {
	var rows []models.InvoiceModel
	query := applyOrderAndPage(r.filtered(ctx, filter), filter, InvoiceSortFields, "issue_date")
	if err := query.Find(&rows).Error; err != nil {
		return nil, translate(err, "list invoices", "invoice", nil)
	}
	return toInvoices(rows), nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, translate(err, "count invoices", "invoice", nil)
	}
	return count, nil
}

// FindOverdue returns open or dunning invoices due before today, oldest first
func (r *GormInvoiceRepository) FindOverdue(ctx context.Context, today time.Time) ([]trade.Invoice, error) {
	var rows []models.InvoiceModel
	err := r.db.WithContext(ctx).
		Where("status IN ? AND due_date < ?",
			[]trade.InvoiceStatus{trade.InvoiceStatusOpen, trade.InvoiceStatusDunning},
			shared.DateOf(today)).
		Order("due_date ASC, invoice_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "find overdue invoices", "invoice", nil)
	}
	return toInvoices(rows), nil
}

// Save writes the header and replaces the lines. A number clash is a conflict.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *trade.Invoice) error {
	m := models.InvoiceModelFromDomain(invoice)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", m.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		if len(m.Lines) == 0 {
			return nil
		}
		return tx.Create(&m.Lines).Error
	})
	return translate(err, "save invoice", "invoice", invoice.InvoiceNumber)
}

// AdvanceDunningStage moves the invoice into dunning at stage. Paid invoices and
// invoices already at or beyond stage are left untouched.
func (r *GormInvoiceRepository) AdvanceDunningStage(ctx context.Context, id uuid.UUID, stage int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND status <> ? AND dunning_stage < ?", id, trade.InvoiceStatusPaid, stage).
		Updates(map[string]any{
			"status":        trade.InvoiceStatusDunning,
			"dunning_stage": stage,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, translate(res.Error, "advance dunning stage", "invoice", id)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormInvoiceRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	query = applySearch(query, filter.Search, "invoice_number", "client_name", "payment_reference")
	for key, value := range filter.Filters {
		switch key {
		case "status", "client_id", "origin_offer_id":
			query = query.Where(key+" = ?", value)
		}
	}
	return query
}

func toInvoices(rows []models.InvoiceModel) []trade.Invoice {
	out := make([]trade.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)
