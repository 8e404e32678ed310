package inventory

import (
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeInventoryBalance is the aggregate name used in events and audit
const AggregateTypeInventoryBalance = "InventoryBalance"

// Event type constants
const (
	EventTypeStockMoved        = "StockMoved"
	EventTypeStockReserved     = "StockReserved"
	EventTypeStockReleased     = "StockReleased"
	EventTypeStockBelowMinimum = "StockBelowMinimum"
)

// StockEvent is raised whenever a balance changes
type StockEvent struct {
	shared.BaseDomainEvent
	ItemID        uuid.UUID       `json:"item_id"`
	LocationID    uuid.UUID       `json:"location_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Total         decimal.Decimal `json:"total"`
	Reserved      decimal.Decimal `json:"reserved"`
	Available     decimal.Decimal `json:"available"`
	MinQuantity   decimal.Decimal `json:"min_quantity"`
	MovementType  string          `json:"movement_type,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ActorID       uuid.UUID       `json:"actor_id"`
}

// NewStockEvent snapshots the balance after a change of qty
func NewStockEvent(eventType string, b *InventoryBalance, qty decimal.Decimal, movementType, refType, refID string, actor uuid.UUID) *StockEvent {
	return &StockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInventoryBalance, b.ID),
		ItemID:          b.ItemID,
		LocationID:      b.LocationID,
		Quantity:        qty,
		Total:           b.TotalQuantity,
		Reserved:        b.ReservedQuantity,
		Available:       b.AvailableQuantity,
		MinQuantity:     b.MinQuantity,
		MovementType:    movementType,
		ReferenceType:   refType,
		ReferenceID:     refID,
		ActorID:         actor,
	}
}
