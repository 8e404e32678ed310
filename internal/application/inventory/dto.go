package inventory

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLocationRequest represents a request to create a stock location
type CreateLocationRequest struct {
	Code               string `json:"code" binding:"required,min=1,max=32"`
	Name               string `json:"name" binding:"required,min=1,max=200"`
	AllowNegativeStock bool   `json:"allow_negative_stock"`
}

// UpdateLocationRequest represents a request to update a stock location
type UpdateLocationRequest struct {
	Name               string `json:"name" binding:"required,min=1,max=200"`
	AllowNegativeStock bool   `json:"allow_negative_stock"`
	IsActive           *bool  `json:"is_active"`
}

// LocationResponse represents a location in API responses
type LocationResponse struct {
	ID                 uuid.UUID `json:"id"`
	Code               string    `json:"code"`
	Name               string    `json:"name"`
	AllowNegativeStock bool      `json:"allow_negative_stock"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Version            int       `json:"version"`
}

// ToLocationResponse converts a domain Location to LocationResponse
func ToLocationResponse(l *inventory.Location) LocationResponse {
	return LocationResponse{
		ID:                 l.ID,
		Code:               l.Code,
		Name:               l.Name,
		AllowNegativeStock: l.AllowNegativeStock,
		IsActive:           l.IsActive,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
		Version:            l.Version,
	}
}

// MovementRequest represents a request to record a stock movement.
// Quantity is signed: STOCK_OUT is negative, ADJUSTMENT may be either.
type MovementRequest struct {
	ItemID        uuid.UUID       `json:"item_id" binding:"required"`
	LocationID    uuid.UUID       `json:"location_id" binding:"required"`
	MovementType  string          `json:"movement_type" binding:"required,oneof=OPENING STOCK_IN STOCK_OUT ADJUSTMENT"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Reason        string          `json:"reason" binding:"max=255"`
}

// TransferRequest represents a request to move stock between locations
type TransferRequest struct {
	ItemID         uuid.UUID       `json:"item_id" binding:"required"`
	FromLocationID uuid.UUID       `json:"from_location_id" binding:"required"`
	ToLocationID   uuid.UUID       `json:"to_location_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Reference      string          `json:"reference"`
	Reason         string          `json:"reason" binding:"max=255"`
}

// ReservationRequest represents a manual reserve or release
type ReservationRequest struct {
	ItemID        uuid.UUID       `json:"item_id" binding:"required"`
	LocationID    uuid.UUID       `json:"location_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
}

// SetMinQuantityRequest sets the low-stock threshold of a balance
type SetMinQuantityRequest struct {
	ItemID      uuid.UUID       `json:"item_id" binding:"required"`
	LocationID  uuid.UUID       `json:"location_id" binding:"required"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// BalanceResponse represents an inventory balance in API responses
type BalanceResponse struct {
	ID                uuid.UUID       `json:"id"`
	ItemID            uuid.UUID       `json:"item_id"`
	LocationID        uuid.UUID       `json:"location_id"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	MinQuantity       decimal.Decimal `json:"min_quantity"`
	IsBelowMinimum    bool            `json:"is_below_minimum"`
	LastMovementAt    *time.Time      `json:"last_movement_at,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToBalanceResponse converts a domain InventoryBalance to BalanceResponse
func ToBalanceResponse(b *inventory.InventoryBalance) BalanceResponse {
	return BalanceResponse{
		ID:                b.ID,
		ItemID:            b.ItemID,
		LocationID:        b.LocationID,
		TotalQuantity:     b.TotalQuantity,
		ReservedQuantity:  b.ReservedQuantity,
		AvailableQuantity: b.AvailableQuantity,
		UnitCost:          b.UnitCost,
		TotalValue:        b.TotalValue(),
		MinQuantity:       b.MinQuantity,
		IsBelowMinimum:    b.IsBelowMinimum(),
		LastMovementAt:    b.LastMovementAt,
		UpdatedAt:         b.UpdatedAt,
		Version:           b.Version,
	}
}

// ToBalanceResponses converts a slice of balances
func ToBalanceResponses(balances []inventory.InventoryBalance) []BalanceResponse {
	out := make([]BalanceResponse, len(balances))
	for i := range balances {
		out[i] = ToBalanceResponse(&balances[i])
	}
	return out
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ItemID        uuid.UUID       `json:"item_id"`
	LocationID    uuid.UUID       `json:"location_id"`
	MovementType  string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	OperatorID    uuid.UUID       `json:"operator_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToMovementResponse converts a domain StockMovement to MovementResponse
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ItemID:        m.ItemID,
		LocationID:    m.LocationID,
		MovementType:  string(m.MovementType),
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost(),
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Reason:        m.Reason,
		OperatorID:    m.OperatorID,
		CreatedAt:     m.CreatedAt,
	}
}

// TransferResponse pairs the outbound and inbound legs of a transfer
type TransferResponse struct {
	Outbound MovementResponse `json:"outbound"`
	Inbound  MovementResponse `json:"inbound"`
}

// MovementListFilter represents paging options for the movement history
type MovementListFilter struct {
	ItemID     uuid.UUID `form:"-"`
	LocationID uuid.UUID `form:"-"`
	Page       int       `form:"page" binding:"omitempty,min=1"`
	PageSize   int       `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ReconciliationResponse compares a balance with the sum of its movements
type ReconciliationResponse struct {
	ItemID        uuid.UUID       `json:"item_id"`
	LocationID    uuid.UUID       `json:"location_id"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	MovementSum   decimal.Decimal `json:"movement_sum"`
	Consistent    bool            `json:"consistent"`
}
