package inventory

import (
	"context"
	"testing"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryMovements is a MovementRepository backed by a slice, enforcing the settlement uniqueness
type memoryMovements struct {
	rows []Movement
}

func (r *memoryMovements) Append(_ context.Context, m *Movement) error {
	if m.ReservationID != nil {
		for _, row := range r.rows {
			if row.ReservationID != nil && *row.ReservationID == *m.ReservationID {
				return shared.NewConflictError("reservation %s already settled", *m.ReservationID)
			}
		}
	}
	r.rows = append(r.rows, *m)
	return nil
}

func (r *memoryMovements) settled() map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for _, row := range r.rows {
		if row.ReservationID != nil {
			out[*row.ReservationID] = true
		}
	}
	return out
}

func (r *memoryMovements) FindOpenReservations(_ context.Context, st SourceType, sid uuid.UUID) ([]Movement, error) {
	settled := r.settled()
	var out []Movement
	for _, row := range r.rows {
		if row.Kind == MovementReserve && row.SourceType == st && row.SourceID == sid && !settled[row.ID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memoryMovements) FindBySource(_ context.Context, st SourceType, sid uuid.UUID) ([]Movement, error) {
	var out []Movement
	for _, row := range r.rows {
		if row.SourceType == st && row.SourceID == sid {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memoryMovements) SumOnHand(_ context.Context, pid uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, row := range r.rows {
		if row.ProductID == pid && (row.Kind == MovementIn || row.Kind == MovementOut) {
			sum = sum.Add(row.Quantity)
		}
	}
	return sum, nil
}

func (r *memoryMovements) SumReserved(_ context.Context, pid uuid.UUID) (decimal.Decimal, error) {
	settled := r.settled()
	sum := decimal.Zero
	for _, row := range r.rows {
		if row.ProductID == pid && row.Kind == MovementReserve && !settled[row.ID] {
			sum = sum.Add(row.Quantity)
		}
	}
	return sum, nil
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestLedger_Reserve(t *testing.T) {
	ctx := context.Background()
	repo := &memoryMovements{}
	ledger := NewLedger(repo)
	pid, offerID := uuid.New(), uuid.New()

	first, err := ledger.Reserve(ctx, ReserveRequest{ProductID: pid, Quantity: qty(2), SourceType: SourceOffer, SourceID: offerID})
	require.NoError(t, err)
	assert.Equal(t, MovementReserve, first.Kind)

	t.Run("exact duplicate is ignored", func(t *testing.T) {
		again, err := ledger.Reserve(ctx, ReserveRequest{ProductID: pid, Quantity: qty(2), SourceType: SourceOffer, SourceID: offerID})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Len(t, repo.rows, 1)
	})

	t.Run("different quantity conflicts", func(t *testing.T) {
		_, err := ledger.Reserve(ctx, ReserveRequest{ProductID: pid, Quantity: qty(3), SourceType: SourceOffer, SourceID: offerID})
		assert.True(t, shared.IsConflict(err))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := ledger.Reserve(ctx, ReserveRequest{ProductID: pid, Quantity: qty(0), SourceType: SourceOffer, SourceID: offerID})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})
}

func TestLedger_ConvertReservationToOut(t *testing.T) {
	ctx := context.Background()
	repo := &memoryMovements{}
	ledger := NewLedger(repo)
	pid, offerID := uuid.New(), uuid.New()

	_, err := ledger.AddMovement(ctx, MovementRequest{ProductID: pid, Quantity: qty(10), Kind: MovementIn, SourceType: SourceCorrection, SourceID: uuid.New()})
	require.NoError(t, err)
	res, err := ledger.Reserve(ctx, ReserveRequest{ProductID: pid, Quantity: qty(2), SourceType: SourceOffer, SourceID: offerID})
	require.NoError(t, err)

	level, err := ledger.StockLevel(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, "10", level.OnHand.String())
	assert.Equal(t, "2", level.Reserved.String())
	assert.Equal(t, "8", level.Available.String())

	outs, err := ledger.ConvertReservationToOut(ctx, SourceOffer, offerID)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, MovementOut, outs[0].Kind)
	assert.Equal(t, "-2", outs[0].Quantity.String())
	require.NotNil(t, outs[0].ReservationID)
	assert.Equal(t, res.ID, *outs[0].ReservationID)

	again, err := ledger.ConvertReservationToOut(ctx, SourceOffer, offerID)
	require.NoError(t, err)
	assert.Empty(t, again)

	open, err := repo.FindOpenReservations(ctx, SourceOffer, offerID)
	require.NoError(t, err)
	assert.Empty(t, open)

	level, err = ledger.StockLevel(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, "8", level.OnHand.String())
	assert.True(t, level.Reserved.IsZero())
}

func TestLedger_ReleaseAndSync(t *testing.T) {
	ctx := context.Background()
	repo := &memoryMovements{}
	ledger := NewLedger(repo)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	offerID := uuid.New()

	require.NoError(t, ledger.SyncReservations(ctx, SourceOffer, offerID, map[uuid.UUID]decimal.Decimal{a: qty(1), b: qty(2)}, ""))
	open, _ := repo.FindOpenReservations(ctx, SourceOffer, offerID)
	assert.Len(t, open, 2)

	// a unchanged, b changed, c new
	require.NoError(t, ledger.SyncReservations(ctx, SourceOffer, offerID, map[uuid.UUID]decimal.Decimal{a: qty(1), b: qty(5), c: qty(1)}, ""))
	open, _ = repo.FindOpenReservations(ctx, SourceOffer, offerID)
	got := map[uuid.UUID]string{}
	for _, m := range open {
		got[m.ProductID] = m.Quantity.String()
	}
	assert.Equal(t, map[uuid.UUID]string{a: "1", b: "5", c: "1"}, got)

	released, err := ledger.ReleaseReservations(ctx, SourceOffer, offerID)
	require.NoError(t, err)
	assert.Len(t, released, 3)
	for _, m := range released {
		assert.Equal(t, MovementRelease, m.Kind)
	}

	reserved, _ := repo.SumReserved(ctx, b)
	assert.True(t, reserved.IsZero())
}

func TestLedger_AddMovement(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(&memoryMovements{})
	pid := uuid.New()

	m, err := ledger.AddMovement(ctx, MovementRequest{ProductID: pid, Quantity: qty(3), Kind: MovementOut, SourceType: SourceDeliveryNote, SourceID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "-3", m.Quantity.String())

	_, err = ledger.AddMovement(ctx, MovementRequest{ProductID: pid, Quantity: qty(3), Kind: MovementReserve, SourceType: SourceDeliveryNote, SourceID: uuid.New()})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	_, err = ledger.AddMovement(ctx, MovementRequest{ProductID: pid, Quantity: qty(3), Kind: MovementIn, SourceType: "lager", SourceID: uuid.New()})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}
