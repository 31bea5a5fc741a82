package trade

import (
	"testing"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryNote(t *testing.T) {
	n, err := NewDeliveryNote(testClient(), time.Now(), nil, "ramp 2")
	require.NoError(t, err)

	assert.Equal(t, shared.CodeValidation, shared.CodeOf(n.AssignNumber("L-1510-0001")), "no lines yet")

	_, err = n.AddLine(uuid.New(), "Widget", d("0"))
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	l, err := n.AddLine(uuid.New(), "Widget", d("3"))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Position)

	require.NoError(t, n.AssignNumber("L-1510-0001"))
	assert.Equal(t, EventTypeDeliveryNoteCreated, n.GetDomainEvents()[0].EventType())
}
