package inventory

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LocationRepository defines persistence for locations
type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Location, error)
	FindByCode(ctx context.Context, code string) (*Location, error)
	FindAll(ctx context.Context) ([]Location, error)
	Save(ctx context.Context, loc *Location) error
}

// BalanceRepository defines persistence for inventory balances
type BalanceRepository interface {
	// FindForUpdate loads the balance row locked for the rest of the
	// transaction, or returns NOT_FOUND
	FindForUpdate(ctx context.Context, itemID, locationID uuid.UUID) (*InventoryBalance, error)
	Find(ctx context.Context, itemID, locationID uuid.UUID) (*InventoryBalance, error)
	FindByLocation(ctx context.Context, locationID uuid.UUID) ([]InventoryBalance, error)
	FindByItems(ctx context.Context, itemIDs []uuid.UUID) ([]InventoryBalance, error)
	// FindBelowMinimum returns balances with a threshold and available <= threshold.
	// A nil locationID searches every location.
	FindBelowMinimum(ctx context.Context, locationID *uuid.UUID) ([]InventoryBalance, error)
	Save(ctx context.Context, b *InventoryBalance) error
}

// MovementRepository is the append-only stock ledger
type MovementRepository interface {
	Create(ctx context.Context, m *StockMovement) error
	FindByItemAndLocation(ctx context.Context, itemID, locationID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	FindByReference(ctx context.Context, refType, refID string) ([]StockMovement, error)
	// SumQuantity returns the sum of all movements for (item, location)
	SumQuantity(ctx context.Context, itemID, locationID uuid.UUID) (decimal.Decimal, error)
}

// LocationStockSummary is the aggregate stock position of a location
type LocationStockSummary struct {
	LocationID        uuid.UUID       `json:"location_id"`
	LocationCode      string          `json:"location_code"`
	ItemCount         int             `json:"item_count"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	TotalValue        decimal.Decimal `json:"total_value"`
	LowStockCount     int             `json:"low_stock_count"`
}

// Summarize aggregates the balances of one location
func Summarize(loc *Location, balances []InventoryBalance) LocationStockSummary {
	s := LocationStockSummary{
		LocationID:        loc.ID,
		LocationCode:      loc.Code,
		TotalQuantity:     decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		AvailableQuantity: decimal.Zero,
		TotalValue:        decimal.Zero,
	}
	for i := range balances {
		b := &balances[i]
		if b.LocationID != loc.ID {
			continue
		}
		s.ItemCount++
		s.TotalQuantity = s.TotalQuantity.Add(b.TotalQuantity)
		s.ReservedQuantity = s.ReservedQuantity.Add(b.ReservedQuantity)
		s.AvailableQuantity = s.AvailableQuantity.Add(b.AvailableQuantity)
		s.TotalValue = s.TotalValue.Add(b.TotalValue())
		if b.IsBelowMinimum() {
			s.LowStockCount++
		}
	}
	return s
}

// ItemStockSummary is the position of one item across locations
type ItemStockSummary struct {
	ItemID            uuid.UUID       `json:"item_id"`
	LocationCount     int             `json:"location_count"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	TotalValue        decimal.Decimal `json:"total_value"`
}

// SummarizeItems aggregates balances per item, in the order of itemIDs
func SummarizeItems(itemIDs []uuid.UUID, balances []InventoryBalance) []ItemStockSummary {
	index := make(map[uuid.UUID]int, len(itemIDs))
	out := make([]ItemStockSummary, 0, len(itemIDs))
	for _, id := range itemIDs {
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(out)
		out = append(out, ItemStockSummary{
			ItemID:            id,
			TotalQuantity:     decimal.Zero,
			ReservedQuantity:  decimal.Zero,
			AvailableQuantity: decimal.Zero,
			TotalValue:        decimal.Zero,
		})
	}
	for i := range balances {
		b := &balances[i]
		pos, ok := index[b.ItemID]
		if !ok {
			continue
		}
		s := &out[pos]
		s.LocationCount++
		s.TotalQuantity = s.TotalQuantity.Add(b.TotalQuantity)
		s.ReservedQuantity = s.ReservedQuantity.Add(b.ReservedQuantity)
		s.AvailableQuantity = s.AvailableQuantity.Add(b.AvailableQuantity)
		s.TotalValue = s.TotalValue.Add(b.TotalValue())
	}
	return out
}
