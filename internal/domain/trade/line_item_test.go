package trade

import (
	"testing"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLineItem(t *testing.T) {
	pid := uuid.New()

	t.Run("product variant", func(t *testing.T) {
		l, err := NewLineItem(LineInput{ProductID: pid, ProductName: "Widget", Quantity: d("2"), UnitPrice: d("9.99")})
		require.NoError(t, err)
		assert.True(t, l.IsProduct())
		assert.Equal(t, "Widget", l.Label())
		assert.Empty(t, l.Description)
		assert.Equal(t, "19.98", l.LineTotal.StringFixed(2))
	})

	t.Run("manual variant", func(t *testing.T) {
		l, err := NewLineItem(LineInput{Description: "Setup fee", Quantity: d("1"), UnitPrice: d("150")})
		require.NoError(t, err)
		assert.False(t, l.IsProduct())
		assert.Equal(t, uuid.Nil, l.ProductID)
		assert.Equal(t, "Setup fee", l.Label())
	})

	t.Run("both set is rejected", func(t *testing.T) {
		_, err := NewLineItem(LineInput{ProductID: pid, ProductName: "W", Description: "x", Quantity: d("1"), UnitPrice: d("1")})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("neither set is rejected", func(t *testing.T) {
		_, err := NewLineItem(LineInput{Quantity: d("1"), UnitPrice: d("1")})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := NewLineItem(LineInput{Description: "x", Quantity: d("0"), UnitPrice: d("1")})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := NewLineItem(LineInput{Description: "x", Quantity: d("1"), UnitPrice: d("-1")})
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})
}

func TestProductQuantities(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	l1, _ := NewProductLine(a, "A", d("2"), d("1"))
	l2, _ := NewProductLine(a, "A", d("3"), d("1"))
	l3, _ := NewProductLine(b, "B", d("1"), d("1"))
	l4, _ := NewManualLine("free", d("7"), d("1"))

	q := ProductQuantities([]LineItem{l1, l2, l3, l4})
	require.Len(t, q, 2)
	assert.Equal(t, "5", q[a].String())
	assert.Equal(t, "1", q[b].String())
}
