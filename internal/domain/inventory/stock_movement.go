package inventory

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeOpening    MovementType = "OPENING"
	MovementTypeStockIn    MovementType = "STOCK_IN"
	MovementTypeStockOut   MovementType = "STOCK_OUT"
	MovementTypeTransfer   MovementType = "TRANSFER"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeOpening, MovementTypeStockIn, MovementTypeStockOut, MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// CheckSign validates the direction of delta for the movement type
func (t MovementType) CheckSign(delta decimal.Decimal) error {
	if delta.IsZero() {
		return shared.NewValidationError("quantity", "movement quantity cannot be zero")
	}
	switch t {
	case MovementTypeOpening, MovementTypeStockIn:
		if delta.IsNegative() {
			return shared.NewValidationError("quantity", string(t)+" movements must be positive")
		}
	case MovementTypeStockOut:
		if delta.IsPositive() {
			return shared.NewValidationError("quantity", "STOCK_OUT movements must be negative")
		}
	case MovementTypeTransfer, MovementTypeAdjustment:
	default:
		return shared.NewValidationError("movement_type", "unknown movement type")
	}
	return nil
}

// Reference types for movement provenance
const (
	ReferenceShipment   = "SHIPMENT"
	ReferenceTransfer   = "TRANSFER"
	ReferenceManual     = "MANUAL"
	ReferencePurchase   = "PURCHASE"
	ReferenceStockCount = "STOCK_COUNT"
)

// StockMovement is an immutable ledger entry. Balances are the running sum
// of movements; a movement is never edited or deleted.
type StockMovement struct {
	ID            uuid.UUID
	ItemID        uuid.UUID
	LocationID    uuid.UUID
	MovementType  MovementType
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Reason        string
	OperatorID    uuid.UUID
	CreatedAt     time.Time
}

// TotalCost returns the absolute value of the movement at its unit cost
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.UnitCost).Round(2)
}
