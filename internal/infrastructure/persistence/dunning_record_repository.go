package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDunningRecordRepository implements DunningRecordRepository using GORM
type GormDunningRecordRepository struct {
	db *gorm.DB
}

// NewGormDunningRecordRepository creates a new GormDunningRecordRepository
func NewGormDunningRecordRepository(db *gorm.DB) *GormDunningRecordRepository {
	return &GormDunningRecordRepository{db: db}
}

// FindByID finds a dunning record by ID
func (r *GormDunningRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.DunningRecord, error) {
	var m models.DunningRecordModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err, "load dunning record", "dunning record", id)
	}
	return m.ToDomain(), nil
}

// FindByInvoice lists the records of an invoice ordered by stage
func (r *GormDunningRecordRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]finance.DunningRecord, error) {
	var rows []models.DunningRecordModel
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("stage ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list dunning records", "dunning record", nil)
	}
	records := make([]finance.DunningRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// HighestStage returns the highest recorded stage, or -1 when the invoice has none
func (r *GormDunningRecordRepository) HighestStage(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	var stage sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&models.DunningRecordModel{}).
		Where("invoice_id = ?", invoiceID).
		Select("MAX(stage)").
		Row().Scan(&stage)
	if err != nil {
		return 0, translate(err, "load highest dunning stage", "dunning record", nil)
	}
	if !stage.Valid {
		return -1, nil
	}
	return int(stage.Int64), nil
}

// ExistsForStage checks whether the invoice already has a record at stage
func (r *GormDunningRecordRepository) ExistsForStage(ctx context.Context, invoiceID uuid.UUID, stage int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DunningRecordModel{}).
		Where("invoice_id = ? AND stage = ?", invoiceID, stage).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "check dunning stage", "dunning record", nil)
	}
	return count > 0, nil
}

// Create inserts a record
func (r *GormDunningRecordRepository) Create(ctx context.Context, record *finance.DunningRecord) error {
	err := r.db.WithContext(ctx).Create(models.DunningRecordModelFromDomain(record)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewConflictError("invoice %s already has a dunning record at stage %d", record.InvoiceNumber, record.Stage)
	}
	return translate(err, "create dunning record", "dunning record", record.ID)
}

// UpdateSendOutcome writes the send status columns and nothing else
func (r *GormDunningRecordRepository) UpdateSendOutcome(ctx context.Context, record *finance.DunningRecord) error {
	res := r.db.WithContext(ctx).
		Model(&models.DunningRecordModel{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"send_status": record.SendStatus,
			"send_error":  record.SendError,
			"sent_at":     record.SentAt,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error, "update dunning send outcome", "dunning record", record.ID)
	}
	if res.RowsAffected == 0 {
		return shared.NewNotFoundError("dunning record", record.ID)
	}
	return nil
}

var _ finance.DunningRecordRepository = (*GormDunningRecordRepository)(nil)
