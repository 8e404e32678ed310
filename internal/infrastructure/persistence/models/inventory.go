package models

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocationModel is the persistence model for stock locations.
type LocationModel struct {
	AggregateModel
	Code               string `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name               string `gorm:"type:varchar(200);not null"`
	AllowNegativeStock bool   `gorm:"not null"`
	IsActive           bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string {
	return "locations"
}

// ToDomain converts the persistence model to a domain Location.
func (m *LocationModel) ToDomain() *inventory.Location {
	return &inventory.Location{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Code:               m.Code,
		Name:               m.Name,
		AllowNegativeStock: m.AllowNegativeStock,
		IsActive:           m.IsActive,
	}
}

// LocationModelFromDomain creates a persistence model from a domain Location.
func LocationModelFromDomain(l *inventory.Location) *LocationModel {
	m := &LocationModel{
		Code:               l.Code,
		Name:               l.Name,
		AllowNegativeStock: l.AllowNegativeStock,
		IsActive:           l.IsActive,
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}

// InventoryBalanceModel is the persistence model for the per (item, location) balance.
type InventoryBalanceModel struct {
	AggregateModel
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_item_location,priority:1"`
	LocationID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_item_location,priority:2;index"`
	TotalQuantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinQuantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LastMovementAt    *time.Time
}

// TableName returns the table name for GORM
func (InventoryBalanceModel) TableName() string {
	return "inventory_balances"
}

// ToDomain converts the persistence model to a domain InventoryBalance.
func (m *InventoryBalanceModel) ToDomain() *inventory.InventoryBalance {
	return &inventory.InventoryBalance{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ItemID:            m.ItemID,
		LocationID:        m.LocationID,
		TotalQuantity:     m.TotalQuantity,
		ReservedQuantity:  m.ReservedQuantity,
		AvailableQuantity: m.AvailableQuantity,
		UnitCost:          m.UnitCost,
		MinQuantity:       m.MinQuantity,
		LastMovementAt:    m.LastMovementAt,
	}
}

// InventoryBalanceModelFromDomain creates a persistence model from a domain InventoryBalance.
func InventoryBalanceModelFromDomain(b *inventory.InventoryBalance) *InventoryBalanceModel {
	m := &InventoryBalanceModel{
		ItemID:            b.ItemID,
		LocationID:        b.LocationID,
		TotalQuantity:     b.TotalQuantity,
		ReservedQuantity:  b.ReservedQuantity,
		AvailableQuantity: b.AvailableQuantity,
		UnitCost:          b.UnitCost,
		MinQuantity:       b.MinQuantity,
		LastMovementAt:    b.LastMovementAt,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}

// StockMovementModel is one immutable stock ledger row.
type StockMovementModel struct {
	ID            uuid.UUID              `gorm:"type:uuid;primary_key"`
	ItemID        uuid.UUID              `gorm:"type:uuid;not null;index:idx_movement_item_location,priority:1"`
	LocationID    uuid.UUID              `gorm:"type:uuid;not null;index:idx_movement_item_location,priority:2"`
	MovementType  inventory.MovementType `gorm:"type:varchar(20);not null"`
	Quantity      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	UnitCost      decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceBefore decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	ReferenceType string                 `gorm:"type:varchar(30);index:idx_movement_reference,priority:1"`
	ReferenceID   string                 `gorm:"type:varchar(100);index:idx_movement_reference,priority:2"`
	Reason        string                 `gorm:"type:varchar(500)"`
	OperatorID    uuid.UUID              `gorm:"type:uuid"`
	CreatedAt     time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:            m.ID,
		ItemID:        m.ItemID,
		LocationID:    m.LocationID,
		MovementType:  m.MovementType,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Reason:        m.Reason,
		OperatorID:    m.OperatorID,
		CreatedAt:     m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement.
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:            s.ID,
		ItemID:        s.ItemID,
		LocationID:    s.LocationID,
		MovementType:  s.MovementType,
		Quantity:      s.Quantity,
		UnitCost:      s.UnitCost,
		BalanceBefore: s.BalanceBefore,
		BalanceAfter:  s.BalanceAfter,
		ReferenceType: s.ReferenceType,
		ReferenceID:   s.ReferenceID,
		Reason:        s.Reason,
		OperatorID:    s.OperatorID,
		CreatedAt:     s.CreatedAt,
	}
}
