package migration

import (
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add dunning fees", "add_dunning_fees"},
		{"Add-Dunning-Fees", "add_dunning_fees"},
		{"invoice__index", "invoice_index"},
		{"  offers v2  ", "offers_v2"},
		{"Größe!", "gr_e"},
		{"___", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugify(tt.input))
		})
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

	p, err := Create(dir, "add dunning fees", now)
	require.NoError(t, err)
	assert.Equal(t, "20260302083000", p.Version)
	assert.Equal(t, "add_dunning_fees", p.Name)

	up, err := os.ReadFile(p.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add_dunning_fees (up)")

	down, err := os.ReadFile(p.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Reverts 20260302083000_add_dunning_fees.up.sql")

	_, err = Create(dir, "add dunning fees", now)
	assert.Error(t, err, "same version and name is not overwritten")

	_, err = Create(dir, "!!!", now)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	source := fstest.MapFS{
		"20260201000000_offers.up.sql":        {},
		"20260201000000_offers.down.sql":      {},
		"20260101000000_init_billing.up.sql":  {},
		"20260101000000_init_billing.down.sql": {},
		"README.md":                           {},
	}
	names, err := List(source)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_init_billing", "20260201000000_offers"}, names)
}

func TestList_CreatedOnDisk(t *testing.T) {
	dir := t.TempDir()
	_, err := Create(dir, "first", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	names, err := List(Dir(dir))
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_first"}, names)
}
