package inventory

import (
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestBalance(t *testing.T) (*InventoryBalance, *Location) {
	t.Helper()
	loc, err := NewLocation("wh-main", "Main Warehouse", false)
	require.NoError(t, err)
	b, err := NewInventoryBalance(uuid.New(), loc.ID)
	require.NoError(t, err)
	return b, loc
}

func TestNewLocation(t *testing.T) {
	loc, err := NewLocation(" wh-1 ", "Warehouse", true)
	require.NoError(t, err)
	assert.Equal(t, "WH-1", loc.Code)
	assert.True(t, loc.AllowNegativeStock)

	_, err = NewLocation("", "x", false)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestInventoryBalance_ApplyMovement(t *testing.T) {
	b, loc := newTestBalance(t)
	op := uuid.New()

	m, err := b.ApplyMovement(loc, MovementTypeStockIn, dec("10"), dec("5"), ReferencePurchase, "PO-1", "", op, time.Now())
	require.NoError(t, err)
	assert.True(t, m.BalanceBefore.IsZero())
	assert.True(t, m.BalanceAfter.Equal(dec("10")))
	assert.True(t, b.UnitCost.Equal(dec("5")))

	_, err = b.ApplyMovement(loc, MovementTypeStockIn, dec("10"), dec("7"), ReferencePurchase, "PO-2", "", op, time.Now())
	require.NoError(t, err)
	assert.True(t, b.UnitCost.Equal(dec("6")), "weighted average %s", b.UnitCost)

	out, err := b.ApplyMovement(loc, MovementTypeStockOut, dec("-4"), decimal.Zero, ReferenceShipment, "SHP-1", "", op, time.Now())
	require.NoError(t, err)
	assert.True(t, out.UnitCost.Equal(dec("6")))
	assert.True(t, out.TotalCost().Equal(dec("24")))
	assert.True(t, b.TotalQuantity.Equal(dec("16")))
	assert.True(t, b.IsConsistent())
}

func TestInventoryBalance_ApplyMovementRejectsNegativeAvailable(t *testing.T) {
	b, loc := newTestBalance(t)
	_, err := b.ApplyMovement(loc, MovementTypeStockIn, dec("5"), dec("1"), "", "", "", uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, b.Reserve(dec("3")))

	_, err = b.ApplyMovement(loc, MovementTypeStockOut, dec("-3"), decimal.Zero, "", "", "", uuid.New(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, b.TotalQuantity.Equal(dec("5")), "balance unchanged after rejection")

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "3", de.Details["requested"])
	assert.Equal(t, "2", de.Details["available"])
}

func TestInventoryBalance_AllowNegativeStockLocation(t *testing.T) {
	loc, err := NewLocation("STORE", "Store", true)
	require.NoError(t, err)
	b, err := NewInventoryBalance(uuid.New(), loc.ID)
	require.NoError(t, err)

	_, err = b.ApplyMovement(loc, MovementTypeStockOut, dec("-2"), decimal.Zero, "", "", "", uuid.New(), time.Now())
	require.NoError(t, err)
	assert.True(t, b.TotalQuantity.Equal(dec("-2")))
	assert.True(t, b.IsConsistent())
}

func TestInventoryBalance_MovementSignChecks(t *testing.T) {
	b, loc := newTestBalance(t)
	_, err := b.ApplyMovement(loc, MovementTypeStockIn, dec("-1"), decimal.Zero, "", "", "", uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = b.ApplyMovement(loc, MovementTypeStockOut, dec("1"), decimal.Zero, "", "", "", uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = b.ApplyMovement(loc, MovementTypeAdjustment, decimal.Zero, decimal.Zero, "", "", "", uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = b.ApplyMovement(loc, MovementType("GIFT"), dec("1"), decimal.Zero, "", "", "", uuid.New(), time.Now())
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestInventoryBalance_ReserveRelease(t *testing.T) {
	b, loc := newTestBalance(t)
	_, err := b.ApplyMovement(loc, MovementTypeOpening, dec("10"), dec("2"), "", "", "", uuid.New(), time.Now())
	require.NoError(t, err)

	require.NoError(t, b.Reserve(dec("6")))
	assert.True(t, b.AvailableQuantity.Equal(dec("4")))

	assert.ErrorIs(t, b.Reserve(dec("5")), shared.ErrInsufficientStock)

	err = b.Release(dec("7"))
	assert.ErrorIs(t, err, shared.ErrOverRelease)
	assert.True(t, b.ReservedQuantity.Equal(dec("6")))

	require.NoError(t, b.Release(dec("6")))
	assert.True(t, b.ReservedQuantity.IsZero())
	assert.True(t, b.AvailableQuantity.Equal(dec("10")))
	assert.True(t, b.IsConsistent())
}

func TestInventoryBalance_LowStock(t *testing.T) {
	b, loc := newTestBalance(t)
	assert.False(t, b.IsBelowMinimum(), "no threshold means never low")

	require.NoError(t, b.SetMinQuantity(dec("5")))
	_, err := b.ApplyMovement(loc, MovementTypeStockIn, dec("5"), dec("1"), "", "", "", uuid.New(), time.Now())
	require.NoError(t, err)
	assert.True(t, b.IsBelowMinimum())

	assert.ErrorIs(t, b.SetMinQuantity(dec("-1")), shared.ErrValidation)
}

func TestSummarize(t *testing.T) {
	loc, err := NewLocation("WH", "Warehouse", false)
	require.NoError(t, err)
	a, _ := NewInventoryBalance(uuid.New(), loc.ID)
	c, _ := NewInventoryBalance(uuid.New(), loc.ID)
	other, _ := NewInventoryBalance(uuid.New(), uuid.New())
	_, err = a.ApplyMovement(loc, MovementTypeStockIn, dec("10"), dec("2"), "", "", "", uuid.New(), time.Now())
	require.NoError(t, err)
	_, err = c.ApplyMovement(loc, MovementTypeStockIn, dec("4"), dec("5"), "", "", "", uuid.New(), time.Now())
	require.NoError(t, err)
	require.NoError(t, c.Reserve(dec("1")))

	s := Summarize(loc, []InventoryBalance{*a, *c, *other})
	assert.Equal(t, 2, s.ItemCount)
	assert.True(t, s.TotalQuantity.Equal(dec("14")))
	assert.True(t, s.ReservedQuantity.Equal(dec("1")))
	assert.True(t, s.AvailableQuantity.Equal(dec("13")))
	assert.True(t, s.TotalValue.Equal(dec("40")))
}
