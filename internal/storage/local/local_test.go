package local

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahyaheni/gymtrack/internal/models"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_ReadMissingSlot(t *testing.T) {
	c := openTestCache(t)

	var customers []models.Customer
	found, err := c.Read(SlotCustomers, &customers)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, customers)
}

func TestCache_WriteThenRead(t *testing.T) {
	c := openTestCache(t)

	in := []models.Customer{{
		ID:             "c1",
		Name:           "Sami",
		Phone:          "555",
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths: 3,
		Price:          decimal.NewFromInt(10),
		PaymentStatus:  models.PaymentUnpaid,
	}}
	require.NoError(t, c.Write(SlotCustomers, in))

	var out []models.Customer
	found, err := c.Read(SlotCustomers, &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, out, 1)
	assert.Equal(t, "c1", out[0].ID)
	assert.True(t, out[0].Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, models.PaymentUnpaid, out[0].PaymentStatus)
}

func TestCache_WriteOverwritesSlot(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Write(SlotTiers, models.DefaultTiers()))
	require.NoError(t, c.Write(SlotTiers, []models.Tier{{DurationMonths: 1, Price: decimal.NewFromInt(7)}}))

	var tiers []models.Tier
	found, err := c.Read(SlotTiers, &tiers)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, tiers, 1)
	assert.True(t, tiers[0].Price.Equal(decimal.NewFromInt(7)))
}

func TestCache_SlotsAreIndependent(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Write(SlotExpenses, []models.Expense{{ID: "e1", Type: "rent"}}))

	var customers []models.Customer
	found, err := c.Read(SlotCustomers, &customers)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_CorruptSlot(t *testing.T) {
	c := openTestCache(t)

	_, err := c.db.Exec(`INSERT INTO app_cache (slot, payload) VALUES (?, ?)`,
		SlotCustomers, []byte("{not json"))
	require.NoError(t, err)

	var customers []models.Customer
	_, err = c.Read(SlotCustomers, &customers)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Write(SlotTiers, models.DefaultTiers()))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()

	var tiers []models.Tier
	found, err := c.Read(SlotTiers, &tiers)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, tiers, 4)
}
