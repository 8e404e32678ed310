package inventory

import (
	"context"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService handles inventory-related business operations.
// Every write locks the touched (item, location) keys before opening its
// transaction so concurrent updates of one balance are serialized.
type InventoryService struct {
	uow    *txn.UnitOfWork
	ledger *Ledger
	logger *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(uow *txn.UnitOfWork, ledger *Ledger, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{uow: uow, ledger: ledger, logger: logger}
}

// CreateLocation creates a new stock location
func (s *InventoryService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*LocationResponse, error) {
	loc, err := inventory.NewLocation(req.Code, req.Name, req.AllowNegativeStock)
	if err != nil {
		return nil, err
	}
	err = s.uow.Run(ctx, nil, func(tx *txn.Tx) error {
		if _, err := tx.Locations().FindByCode(ctx, loc.Code); err == nil {
			return shared.NewDomainError(shared.CodeAlreadyExists, "location code "+loc.Code+" already exists")
		} else if !shared.IsDomainError(err, shared.CodeNotFound) {
			return err
		}
		return tx.Locations().Save(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	resp := ToLocationResponse(loc)
	return &resp, nil
}

// UpdateLocation changes name, negative-stock policy and active flag
func (s *InventoryService) UpdateLocation(ctx context.Context, id uuid.UUID, req UpdateLocationRequest) (*LocationResponse, error) {
	var resp LocationResponse
	err := s.uow.Run(ctx, nil, func(tx *txn.Tx) error {
		loc, err := tx.Locations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := loc.Update(req.Name, req.AllowNegativeStock); err != nil {
			return err
		}
		if req.IsActive != nil {
			if *req.IsActive {
				loc.Activate()
			} else {
				loc.Deactivate()
			}
		}
		if err := tx.Locations().Save(ctx, loc); err != nil {
			return err
		}
		resp = ToLocationResponse(loc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLocation returns one location
func (s *InventoryService) GetLocation(ctx context.Context, id uuid.UUID) (*LocationResponse, error) {
	var resp LocationResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		loc, err := repos.Locations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToLocationResponse(loc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListLocations returns every location ordered by code
func (s *InventoryService) ListLocations(ctx context.Context) ([]LocationResponse, error) {
	var out []LocationResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		locations, err := repos.Locations().FindAll(ctx)
		if err != nil {
			return err
		}
		out = make([]LocationResponse, len(locations))
		for i := range locations {
			out[i] = ToLocationResponse(&locations[i])
		}
		return nil
	})
	return out, err
}

// RecordMovement applies a stock movement other than a transfer
func (s *InventoryService) RecordMovement(ctx context.Context, req MovementRequest, actor uuid.UUID) (*MovementResponse, error) {
	movementType := inventory.MovementType(req.MovementType)
	if movementType == inventory.MovementTypeTransfer {
		return nil, shared.NewValidationError("movement_type", "use the transfer operation to move stock between locations")
	}
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("movement_type", "unknown movement type")
	}
	refType := req.ReferenceType
	if refType == "" {
		refType = inventory.ReferenceManual
	}

	var resp MovementResponse
	err := s.uow.Run(ctx, []string{txn.StockKey(req.ItemID, req.LocationID)}, func(tx *txn.Tx) error {
		m, _, err := s.ledger.Apply(ctx, tx, Movement{
			ItemID:        req.ItemID,
			LocationID:    req.LocationID,
			Type:          movementType,
			Quantity:      req.Quantity,
			UnitCost:      req.UnitCost,
			ReferenceType: refType,
			ReferenceID:   req.ReferenceID,
			Reason:        req.Reason,
			OperatorID:    actor,
		})
		if err != nil {
			return err
		}
		resp = ToMovementResponse(m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock movement recorded",
		zap.String("item_id", req.ItemID.String()),
		zap.String("location_id", req.LocationID.String()),
		zap.String("movement_type", req.MovementType),
		zap.String("quantity", req.Quantity.String()),
	)
	return &resp, nil
}

// Transfer moves available stock between two locations at the source's
// average cost. Both legs commit or neither does.
func (s *InventoryService) Transfer(ctx context.Context, req TransferRequest, actor uuid.UUID) (*TransferResponse, error) {
	if req.FromLocationID == req.ToLocationID {
		return nil, shared.NewValidationError("to_location_id", "source and destination must differ")
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "transfer quantity must be positive")
	}
	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}
	keys := []string{
		txn.StockKey(req.ItemID, req.FromLocationID),
		txn.StockKey(req.ItemID, req.ToLocationID),
	}

	var resp TransferResponse
	err := s.uow.Run(ctx, keys, func(tx *txn.Tx) error {
		out, src, err := s.ledger.Apply(ctx, tx, Movement{
			ItemID:        req.ItemID,
			LocationID:    req.FromLocationID,
			Type:          inventory.MovementTypeTransfer,
			Quantity:      req.Quantity.Neg(),
			ReferenceType: inventory.ReferenceTransfer,
			ReferenceID:   reference,
			Reason:        req.Reason,
			OperatorID:    actor,
		})
		if err != nil {
			return err
		}
		in, _, err := s.ledger.Apply(ctx, tx, Movement{
			ItemID:        req.ItemID,
			LocationID:    req.ToLocationID,
			Type:          inventory.MovementTypeTransfer,
			Quantity:      req.Quantity,
			UnitCost:      src.UnitCost,
			ReferenceType: inventory.ReferenceTransfer,
			ReferenceID:   reference,
			Reason:        req.Reason,
			OperatorID:    actor,
		})
		if err != nil {
			return err
		}
		resp = TransferResponse{Outbound: ToMovementResponse(out), Inbound: ToMovementResponse(in)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reserve earmarks available stock outside of a sales order
func (s *InventoryService) Reserve(ctx context.Context, req ReservationRequest, actor uuid.UUID) (*BalanceResponse, error) {
	return s.reservation(ctx, req, actor, s.ledger.Reserve)
}

// Release returns reserved stock to available
func (s *InventoryService) Release(ctx context.Context, req ReservationRequest, actor uuid.UUID) (*BalanceResponse, error) {
	return s.reservation(ctx, req, actor, s.ledger.Release)
}

type reservationFunc func(ctx context.Context, tx *txn.Tx, itemID, locationID uuid.UUID, qty decimal.Decimal, refType, refID string, actor uuid.UUID) (*inventory.InventoryBalance, error)

func (s *InventoryService) reservation(ctx context.Context, req ReservationRequest, actor uuid.UUID, fn reservationFunc) (*BalanceResponse, error) {
	refType := req.ReferenceType
	if refType == "" {
		refType = inventory.ReferenceManual
	}
	var resp BalanceResponse
	err := s.uow.Run(ctx, []string{txn.StockKey(req.ItemID, req.LocationID)}, func(tx *txn.Tx) error {
		if _, err := tx.Locations().FindByID(ctx, req.LocationID); err != nil {
			return err
		}
		bal, err := fn(ctx, tx, req.ItemID, req.LocationID, req.Quantity, refType, req.ReferenceID, actor)
		if err != nil {
			return err
		}
		resp = ToBalanceResponse(bal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetMinQuantity sets the low-stock threshold of a balance
func (s *InventoryService) SetMinQuantity(ctx context.Context, req SetMinQuantityRequest) (*BalanceResponse, error) {
	var resp BalanceResponse
	err := s.uow.Run(ctx, []string{txn.StockKey(req.ItemID, req.LocationID)}, func(tx *txn.Tx) error {
		if _, err := tx.Locations().FindByID(ctx, req.LocationID); err != nil {
			return err
		}
		bal, err := s.ledger.balanceForUpdate(ctx, tx, req.ItemID, req.LocationID)
		if err != nil {
			return err
		}
		if err := bal.SetMinQuantity(req.MinQuantity); err != nil {
			return err
		}
		if err := tx.Balances().Save(ctx, bal); err != nil {
			return err
		}
		resp = ToBalanceResponse(bal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBalance returns the balance of one item at one location
func (s *InventoryService) GetBalance(ctx context.Context, itemID, locationID uuid.UUID) (*BalanceResponse, error) {
	var resp BalanceResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		bal, err := repos.Balances().Find(ctx, itemID, locationID)
		if err != nil {
			return err
		}
		resp = ToBalanceResponse(bal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBalances returns the balances of a location, or of items across all
// locations when itemIDs is not empty
func (s *InventoryService) ListBalances(ctx context.Context, locationID *uuid.UUID, itemIDs []uuid.UUID) ([]BalanceResponse, error) {
	if locationID == nil && len(itemIDs) == 0 {
		return nil, shared.NewValidationError("location_id", "a location or at least one item is required")
	}
	var balances []inventory.InventoryBalance
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		if len(itemIDs) > 0 {
			balances, err = repos.Balances().FindByItems(ctx, itemIDs)
			if err == nil && locationID != nil {
				balances = filterByLocation(balances, *locationID)
			}
			return err
		}
		balances, err = repos.Balances().FindByLocation(ctx, *locationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToBalanceResponses(balances), nil
}

// LocationSummary aggregates every balance of a location
func (s *InventoryService) LocationSummary(ctx context.Context, locationID uuid.UUID) (*inventory.LocationStockSummary, error) {
	var summary inventory.LocationStockSummary
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		loc, err := repos.Locations().FindByID(ctx, locationID)
		if err != nil {
			return err
		}
		balances, err := repos.Balances().FindByLocation(ctx, locationID)
		if err != nil {
			return err
		}
		summary = inventory.Summarize(loc, balances)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListLowStock returns balances at or under their threshold
func (s *InventoryService) ListLowStock(ctx context.Context, locationID *uuid.UUID) ([]BalanceResponse, error) {
	var balances []inventory.InventoryBalance
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		balances, err = repos.Balances().FindBelowMinimum(ctx, locationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToBalanceResponses(balances), nil
}

// ListMovements returns the movement history of one balance, newest first
func (s *InventoryService) ListMovements(ctx context.Context, filter MovementListFilter) ([]MovementResponse, error) {
	if filter.ItemID == uuid.Nil || filter.LocationID == uuid.Nil {
		return nil, shared.NewValidationError("item_id", "item and location are required")
	}
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	var movements []inventory.StockMovement
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		movements, err = repos.Movements().FindByItemAndLocation(ctx, filter.ItemID, filter.LocationID, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out, nil
}

// Reconcile compares a balance with the sum of its movements
func (s *InventoryService) Reconcile(ctx context.Context, itemID, locationID uuid.UUID) (*ReconciliationResponse, error) {
	var resp ReconciliationResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		bal, err := repos.Balances().Find(ctx, itemID, locationID)
		if err != nil {
			return err
		}
		sum, err := repos.Movements().SumQuantity(ctx, itemID, locationID)
		if err != nil {
			return err
		}
		resp = ReconciliationResponse{
			ItemID:        itemID,
			LocationID:    locationID,
			TotalQuantity: bal.TotalQuantity,
			MovementSum:   sum,
			Consistent:    bal.TotalQuantity.Equal(sum) && bal.IsConsistent(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !resp.Consistent {
		s.logger.Error("Inventory balance out of sync with movement ledger",
			zap.String("item_id", itemID.String()),
			zap.String("location_id", locationID.String()),
			zap.String("balance", resp.TotalQuantity.String()),
			zap.String("movements", resp.MovementSum.String()),
		)
	}
	return &resp, nil
}

func filterByLocation(balances []inventory.InventoryBalance, locationID uuid.UUID) []inventory.InventoryBalance {
	out := balances[:0]
	for _, b := range balances {
		if b.LocationID == locationID {
			out = append(out, b)
		}
	}
	return out
}

// MultiLocationSummary aggregates each item across every location
func (s *InventoryService) MultiLocationSummary(ctx context.Context, itemIDs []uuid.UUID) ([]inventory.ItemStockSummary, error) {
	if len(itemIDs) == 0 {
		return nil, shared.NewValidationError("item_ids", "at least one item is required")
	}
	var balances []inventory.InventoryBalance
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		balances, err = repos.Balances().FindByItems(ctx, itemIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inventory.SummarizeItems(itemIDs, balances), nil
}
