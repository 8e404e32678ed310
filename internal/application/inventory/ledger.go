package inventory

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementPoster books the ledger side of a stock movement
type MovementPoster interface {
	PostMovement(ctx context.Context, tx *txn.Tx, m *inventory.StockMovement) (*finance.JournalEntry, error)
}

// Movement describes one signed stock change at one location
type Movement struct {
	ItemID        uuid.UUID
	LocationID    uuid.UUID
	Type          inventory.MovementType
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Reason        string
	OperatorID    uuid.UUID
}

// Ledger applies stock changes inside a running transaction. Callers must
// hold the lock for every (item, location) they touch, see txn.StockKey.
type Ledger struct {
	poster MovementPoster
	now    func() time.Time
}

// NewLedger creates a Ledger. poster may be nil to skip ledger postings.
func NewLedger(poster MovementPoster) *Ledger {
	return &Ledger{poster: poster, now: time.Now}
}

// Apply records the movement, updates the balance and posts its cost
func (l *Ledger) Apply(ctx context.Context, tx *txn.Tx, mv Movement) (*inventory.StockMovement, *inventory.InventoryBalance, error) {
	loc, err := tx.Locations().FindByID(ctx, mv.LocationID)
	if err != nil {
		return nil, nil, err
	}
	if err := loc.EnsureActive(); err != nil {
		return nil, nil, err
	}
	bal, err := l.balanceForUpdate(ctx, tx, mv.ItemID, mv.LocationID)
	if err != nil {
		return nil, nil, err
	}

	m, err := bal.ApplyMovement(loc, mv.Type, mv.Quantity, mv.UnitCost,
		mv.ReferenceType, mv.ReferenceID, mv.Reason, mv.OperatorID, l.now())
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Balances().Save(ctx, bal); err != nil {
		return nil, nil, err
	}
	if err := tx.Movements().Create(ctx, m); err != nil {
		return nil, nil, err
	}
	if l.poster != nil {
		if _, err := l.poster.PostMovement(ctx, tx, m); err != nil {
			return nil, nil, err
		}
	}

	tx.Emit(inventory.NewStockEvent(inventory.EventTypeStockMoved, bal, mv.Quantity,
		string(mv.Type), mv.ReferenceType, mv.ReferenceID, mv.OperatorID))
	if mv.Quantity.IsNegative() {
		l.checkMinimum(tx, bal, mv.OperatorID)
	}
	return m, bal, nil
}

// Reserve earmarks available stock for a document
func (l *Ledger) Reserve(ctx context.Context, tx *txn.Tx, itemID, locationID uuid.UUID, qty decimal.Decimal, refType, refID string, actor uuid.UUID) (*inventory.InventoryBalance, error) {
	bal, err := l.balanceForUpdate(ctx, tx, itemID, locationID)
	if err != nil {
		return nil, err
	}
	if err := bal.Reserve(qty); err != nil {
		return nil, err
	}
	if err := tx.Balances().Save(ctx, bal); err != nil {
		return nil, err
	}
	tx.Emit(inventory.NewStockEvent(inventory.EventTypeStockReserved, bal, qty, "", refType, refID, actor))
	l.checkMinimum(tx, bal, actor)
	return bal, nil
}

// Release returns reserved stock to available
func (l *Ledger) Release(ctx context.Context, tx *txn.Tx, itemID, locationID uuid.UUID, qty decimal.Decimal, refType, refID string, actor uuid.UUID) (*inventory.InventoryBalance, error) {
	bal, err := l.balanceForUpdate(ctx, tx, itemID, locationID)
	if err != nil {
		return nil, err
	}
	if err := bal.Release(qty); err != nil {
		return nil, err
	}
	if err := tx.Balances().Save(ctx, bal); err != nil {
		return nil, err
	}
	tx.Emit(inventory.NewStockEvent(inventory.EventTypeStockReleased, bal, qty, "", refType, refID, actor))
	return bal, nil
}

// balanceForUpdate returns the locked balance row, or a new empty one
func (l *Ledger) balanceForUpdate(ctx context.Context, tx *txn.Tx, itemID, locationID uuid.UUID) (*inventory.InventoryBalance, error) {
	bal, err := tx.Balances().FindForUpdate(ctx, itemID, locationID)
	if err == nil {
		return bal, nil
	}
	if !shared.IsDomainError(err, shared.CodeNotFound) {
		return nil, err
	}
	return inventory.NewInventoryBalance(itemID, locationID)
}

func (l *Ledger) checkMinimum(tx *txn.Tx, bal *inventory.InventoryBalance, actor uuid.UUID) {
	if bal.IsBelowMinimum() {
		tx.Emit(inventory.NewStockEvent(inventory.EventTypeStockBelowMinimum, bal, bal.AvailableQuantity, "", "", "", actor))
	}
}
