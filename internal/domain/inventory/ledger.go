package inventory

import (
	"context"
	"sort"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReserveRequest asks the ledger to hold stock for a document
type ReserveRequest struct {
	ProductID  uuid.UUID
	Quantity   decimal.Decimal
	SourceType SourceType
	SourceID   uuid.UUID
	Note       string
}

// MovementRequest books a direct IN or OUT without a prior reservation
type MovementRequest struct {
	ProductID  uuid.UUID
	Quantity   decimal.Decimal // positive magnitude
	Kind       MovementKind    // OUT or IN
	SourceType SourceType
	SourceID   uuid.UUID
	Note       string
}

// Ledger is the domain service that appends movements.
// Any error it returns must abort the caller's transaction.
type Ledger struct {
	repo MovementRepository
}

// NewLedger creates a ledger over repo
func NewLedger(repo MovementRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Reserve appends a RESERVE movement. An unsettled reservation for the same source and product
// with the same quantity is returned unchanged; a different quantity is a conflict.
func (l *Ledger) Reserve(ctx context.Context, req ReserveRequest) (*Movement, error) {
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("reservation quantity must be positive")
	}
	open, err := l.repo.FindOpenReservations(ctx, req.SourceType, req.SourceID)
	if err != nil {
		return nil, err
	}
	qty := req.Quantity.Round(4)
	for i := range open {
		if open[i].ProductID != req.ProductID {
			continue
		}
		if open[i].Quantity.Equal(qty) {
			return &open[i], nil
		}
		return nil, shared.NewConflictError("product %s already reserved with quantity %s for %s %s",
			req.ProductID, open[i].Quantity.String(), req.SourceType, req.SourceID)
	}

	m, err := newMovement(req.ProductID, qty, MovementReserve, req.SourceType, req.SourceID, req.Note)
	if err != nil {
		return nil, err
	}
	if err := l.repo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ConvertReservationToOut appends one OUT per unsettled reservation of the source.
// A second call finds nothing to settle and returns no movements.
func (l *Ledger) ConvertReservationToOut(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]Movement, error) {
	return l.settle(ctx, sourceType, sourceID, MovementOut, "reservation shipped")
}

// ReleaseReservations appends one RELEASE per unsettled reservation of the source
func (l *Ledger) ReleaseReservations(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]Movement, error) {
	return l.settle(ctx, sourceType, sourceID, MovementRelease, "reservation released")
}

// SyncReservations makes the open reservations of a source match want, a quantity per product.
// Unchanged entries are kept; changed or dropped ones are released and re-reserved.
func (l *Ledger) SyncReservations(ctx context.Context, sourceType SourceType, sourceID uuid.UUID, want map[uuid.UUID]decimal.Decimal, note string) error {
	open, err := l.repo.FindOpenReservations(ctx, sourceType, sourceID)
	if err != nil {
		return err
	}

	kept := make(map[uuid.UUID]bool, len(open))
	for i := range open {
		r := open[i]
		if q, ok := want[r.ProductID]; ok && q.Round(4).Equal(r.Quantity) && !kept[r.ProductID] {
			kept[r.ProductID] = true
			continue
		}
		if _, err := l.settleOne(ctx, &r, MovementRelease, "reservation changed"); err != nil {
			return err
		}
	}

	for _, pid := range sortedProducts(want) {
		if kept[pid] || !want[pid].IsPositive() {
			continue
		}
		if _, err := l.Reserve(ctx, ReserveRequest{
			ProductID:  pid,
			Quantity:   want[pid],
			SourceType: sourceType,
			SourceID:   sourceID,
			Note:       note,
		}); err != nil {
			return err
		}
	}
	return nil
}

// AddMovement books a direct OUT or IN
func (l *Ledger) AddMovement(ctx context.Context, req MovementRequest) (*Movement, error) {
	if req.Kind != MovementOut && req.Kind != MovementIn {
		return nil, shared.NewValidationError("direct movements must be OUT or IN, got %q", req.Kind)
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("movement quantity must be positive")
	}
	qty := req.Quantity
	if req.Kind == MovementOut {
		qty = qty.Neg()
	}
	m, err := newMovement(req.ProductID, qty, req.Kind, req.SourceType, req.SourceID, req.Note)
	if err != nil {
		return nil, err
	}
	if err := l.repo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// StockLevel returns on-hand, reserved and available stock for a product
func (l *Ledger) StockLevel(ctx context.Context, productID uuid.UUID) (StockLevel, error) {
	onHand, err := l.repo.SumOnHand(ctx, productID)
	if err != nil {
		return StockLevel{}, err
	}
	reserved, err := l.repo.SumReserved(ctx, productID)
	if err != nil {
		return StockLevel{}, err
	}
	return StockLevel{
		ProductID: productID,
		OnHand:    onHand,
		Reserved:  reserved,
		Available: onHand.Sub(reserved),
	}, nil
}

func (l *Ledger) settle(ctx context.Context, sourceType SourceType, sourceID uuid.UUID, kind MovementKind, note string) ([]Movement, error) {
	open, err := l.repo.FindOpenReservations(ctx, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	out := make([]Movement, 0, len(open))
	for i := range open {
		m, err := l.settleOne(ctx, &open[i], kind, note)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

func (l *Ledger) settleOne(ctx context.Context, r *Movement, kind MovementKind, note string) (*Movement, error) {
	qty := r.Quantity
	if kind == MovementOut {
		qty = qty.Neg()
	}
	m, err := newMovement(r.ProductID, qty, kind, r.SourceType, r.SourceID, note)
	if err != nil {
		return nil, err
	}
	reservationID := r.ID
	m.ReservationID = &reservationID
	if err := l.repo.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func sortedProducts(m map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
