package persistence

import (
	"context"
	"errors"

	"github.com/erp/billing/internal/domain/inventory"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// unsettled matches RESERVE rows that no OUT or RELEASE points back to
const unsettled = "NOT EXISTS (SELECT 1 FROM stock_movements s WHERE s.reservation_id = stock_movements.id)"

// GormMovementRepository implements MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts a movement row
func (r *GormMovementRepository) Append(ctx context.Context, m *inventory.Movement) error {
	err := r.db.WithContext(ctx).Create(models.MovementModelFromDomain(m)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) && m.ReservationID != nil {
		return shared.NewConflictError("reservation %s is already settled", *m.ReservationID)
	}
	return translate(err, "append movement", "movement", m.ID)
}

// FindOpenReservations returns unsettled RESERVE movements of a source document
func (r *GormMovementRepository) FindOpenReservations(ctx context.Context, sourceType inventory.SourceType, sourceID uuid.UUID) ([]inventory.Movement, error) {
	var rows []models.MovementModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND source_type = ? AND source_id = ?", inventory.MovementReserve, sourceType, sourceID).
		Where(unsettled).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "find open reservations", "movement", nil)
	}
	return toMovements(rows), nil
}

// FindBySource returns every movement of a source document in insertion order
func (r *GormMovementRepository) FindBySource(ctx context.Context, sourceType inventory.SourceType, sourceID uuid.UUID) ([]inventory.Movement, error) {
	var rows []models.MovementModel
	err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "find movements", "movement", nil)
	}
	return toMovements(rows), nil
}

// SumOnHand sums IN and OUT quantities
func (r *GormMovementRepository) SumOnHand(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MovementModel{}).
		Where("product_id = ? AND kind IN ?", productID, []inventory.MovementKind{inventory.MovementIn, inventory.MovementOut})
	return sumQuantity(query, "sum on hand")
}

// SumReserved sums RESERVE quantities that are not settled yet
func (r *GormMovementRepository) SumReserved(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MovementModel{}).
		Where("product_id = ? AND kind = ?", productID, inventory.MovementReserve).
		Where(unsettled)
	return sumQuantity(query, "sum reserved")
}

func sumQuantity(query *gorm.DB, op string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := query.Select("SUM(quantity)").Row().Scan(&total); err != nil {
		return decimal.Zero, translate(err, op, "movement", nil)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(4), nil
}

func toMovements(rows []models.MovementModel) []inventory.Movement {
	out := make([]inventory.Movement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
