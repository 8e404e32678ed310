package inventory

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryBalance is the stock position of one item at one location.
// AvailableQuantity always equals TotalQuantity - ReservedQuantity.
type InventoryBalance struct {
	shared.BaseAggregateRoot
	ItemID            uuid.UUID
	LocationID        uuid.UUID
	TotalQuantity     decimal.Decimal
	ReservedQuantity  decimal.Decimal
	AvailableQuantity decimal.Decimal
	UnitCost          decimal.Decimal
	MinQuantity       decimal.Decimal
	LastMovementAt    *time.Time
}

// NewInventoryBalance creates an empty balance for an item at a location
func NewInventoryBalance(itemID, locationID uuid.UUID) (*InventoryBalance, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewValidationError("item_id", "item cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewValidationError("location_id", "location cannot be empty")
	}
	return &InventoryBalance{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: shared.NewBaseEntity()},
		ItemID:            itemID,
		LocationID:        locationID,
		TotalQuantity:     decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		AvailableQuantity: decimal.Zero,
		UnitCost:          decimal.Zero,
		MinQuantity:       decimal.Zero,
	}, nil
}

// ApplyMovement adds delta to the total and returns the movement record.
// Outbound movements may not take available stock below zero unless the
// location allows negative stock. Inbound movements with a cost update the
// moving weighted-average unit cost; outbound ones are costed at it.
func (b *InventoryBalance) ApplyMovement(loc *Location, movementType MovementType, delta, unitCost decimal.Decimal, refType, refID, reason string, operator uuid.UUID, now time.Time) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("movement_type", "unknown movement type")
	}
	if err := movementType.CheckSign(delta); err != nil {
		return nil, err
	}
	if unitCost.IsNegative() {
		return nil, shared.NewValidationError("unit_cost", "unit cost cannot be negative")
	}
	if delta.IsNegative() && !loc.AllowNegativeStock && b.AvailableQuantity.Add(delta).IsNegative() {
		return nil, shared.NewInsufficientStockError(b.ItemID, b.LocationID, delta.Neg(), b.AvailableQuantity)
	}

	before := b.TotalQuantity
	cost := b.UnitCost
	if delta.IsPositive() {
		if unitCost.IsPositive() {
			b.UnitCost = weightedAverage(b.TotalQuantity, b.UnitCost, delta, unitCost)
			cost = unitCost
		}
	}
	b.TotalQuantity = b.TotalQuantity.Add(delta)
	b.syncAvailable()
	b.LastMovementAt = &now
	b.UpdatedAt = now

	return &StockMovement{
		ID:            uuid.New(),
		ItemID:        b.ItemID,
		LocationID:    b.LocationID,
		MovementType:  movementType,
		Quantity:      delta,
		UnitCost:      cost,
		BalanceBefore: before,
		BalanceAfter:  b.TotalQuantity,
		ReferenceType: refType,
		ReferenceID:   refID,
		Reason:        reason,
		OperatorID:    operator,
		CreatedAt:     now,
	}, nil
}

// Reserve earmarks qty of available stock
func (b *InventoryBalance) Reserve(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewValidationError("quantity", "reserve quantity must be positive")
	}
	if qty.GreaterThan(b.AvailableQuantity) {
		return shared.NewInsufficientStockError(b.ItemID, b.LocationID, qty, b.AvailableQuantity)
	}
	b.ReservedQuantity = b.ReservedQuantity.Add(qty)
	b.syncAvailable()
	b.Touch()
	return nil
}

// Release returns qty of reserved stock to available
func (b *InventoryBalance) Release(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewValidationError("quantity", "release quantity must be positive")
	}
	if qty.GreaterThan(b.ReservedQuantity) {
		return shared.NewOverReleaseError(b.ItemID, b.LocationID, qty, b.ReservedQuantity)
	}
	b.ReservedQuantity = b.ReservedQuantity.Sub(qty)
	b.syncAvailable()
	b.Touch()
	return nil
}

// SetMinQuantity sets the low-stock threshold
func (b *InventoryBalance) SetMinQuantity(qty decimal.Decimal) error {
	if qty.IsNegative() {
		return shared.NewValidationError("min_quantity", "minimum quantity cannot be negative")
	}
	b.MinQuantity = qty
	b.Touch()
	return nil
}

// IsBelowMinimum reports whether available stock is at or under the threshold
func (b *InventoryBalance) IsBelowMinimum() bool {
	return b.MinQuantity.IsPositive() && b.AvailableQuantity.LessThanOrEqual(b.MinQuantity)
}

// TotalValue returns the stock value at the average cost
func (b *InventoryBalance) TotalValue() decimal.Decimal {
	return b.TotalQuantity.Mul(b.UnitCost).Round(2)
}

// IsConsistent checks the conservation invariant
func (b *InventoryBalance) IsConsistent() bool {
	return b.AvailableQuantity.Equal(b.TotalQuantity.Sub(b.ReservedQuantity)) && !b.ReservedQuantity.IsNegative()
}

func (b *InventoryBalance) syncAvailable() {
	b.AvailableQuantity = b.TotalQuantity.Sub(b.ReservedQuantity)
}

func weightedAverage(oldQty, oldCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	if !oldQty.IsPositive() {
		return inCost
	}
	totalQty := oldQty.Add(inQty)
	return oldQty.Mul(oldCost).Add(inQty.Mul(inCost)).Div(totalQty).Round(4)
}
