package trade

import (
	"context"
	"slices"
	"time"

	invapp "github.com/erp/ordertocash/internal/application/inventory"
	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalesOrderService handles sales order business operations.
// Confirming an order reserves stock for its stocked lines at the order's
// location; cancelling a confirmed order releases it.
type SalesOrderService struct {
	uow     *txn.UnitOfWork
	ledger  *invapp.Ledger
	tracker *FulfillmentTracker
	logger  *zap.Logger
	now     Clock
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(uow *txn.UnitOfWork, ledger *invapp.Ledger, tracker *FulfillmentTracker, logger *zap.Logger) *SalesOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesOrderService{uow: uow, ledger: ledger, tracker: tracker, logger: logger, now: time.Now}
}

// Create creates a new draft sales order
func (s *SalesOrderService) Create(ctx context.Context, req CreateSalesOrderRequest, actor uuid.UUID) (*SalesOrderResponse, error) {
	var resp SalesOrderResponse
	err := s.uow.Run(ctx, nil, func(tx *txn.Tx) error {
		if _, err := tx.Locations().FindByID(ctx, req.LocationID); err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, shared.PrefixSalesOrder, s.now())
		if err != nil {
			return err
		}
		order, err := trade.NewSalesOrder(number, req.CustomerID, req.CustomerName, req.Currency, req.LocationID, actor)
		if err != nil {
			return err
		}
		order.CustomerPORef = req.CustomerPORef
		order.Notes = req.Notes
		for _, item := range req.Items {
			if _, err := order.AddItem(item.toDomain()); err != nil {
				return err
			}
		}
		if !req.DiscountPct.IsZero() {
			if err := order.SetDiscount(req.DiscountPct); err != nil {
				return err
			}
		}
		if err := tx.SalesOrders().Save(ctx, order); err != nil {
			return err
		}
		tx.Track(order)
		resp = ToSalesOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByID retrieves a sales order by ID
func (s *SalesOrderService) GetByID(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	order, err := loadOrder(ctx, s.uow, id)
	if err != nil {
		return nil, err
	}
	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

// List retrieves sales orders with filtering and pagination
func (s *SalesOrderService) List(ctx context.Context, filter ListFilter) (*shared.Paginated[SalesOrderResponse], error) {
	domainFilter := toDomainFilter(filter)
	var (
		orders []trade.SalesOrder
		total  int64
	)
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		if orders, err = repos.SalesOrders().FindAll(ctx, domainFilter); err != nil {
			return err
		}
		total, err = repos.SalesOrders().Count(ctx, domainFilter)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]SalesOrderResponse, len(orders))
	for i := range orders {
		items[i] = ToSalesOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// AddItem appends a line to a draft order
func (s *SalesOrderService) AddItem(ctx context.Context, id uuid.UUID, req LineItemInput) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(_ context.Context, _ *txn.Tx, o *trade.SalesOrder) error {
		_, err := o.AddItem(req.toDomain())
		return err
	})
}

// UpdateItem replaces a line of a draft order
func (s *SalesOrderService) UpdateItem(ctx context.Context, id, lineID uuid.UUID, req LineItemInput) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(_ context.Context, _ *txn.Tx, o *trade.SalesOrder) error {
		return o.UpdateItem(lineID, req.toDomain())
	})
}

// RemoveItem removes a line of a draft order
func (s *SalesOrderService) RemoveItem(ctx context.Context, id, lineID uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(_ context.Context, _ *txn.Tx, o *trade.SalesOrder) error {
		return o.RemoveItem(lineID)
	})
}

// SetDiscount sets the document-level discount of a draft order
func (s *SalesOrderService) SetDiscount(ctx context.Context, id uuid.UUID, req SetDiscountRequest) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(_ context.Context, _ *txn.Tx, o *trade.SalesOrder) error {
		return o.SetDiscount(req.DiscountPct)
	})
}

// Confirm moves a draft order to CONFIRMED and reserves its stocked lines.
// A shortage on any line rolls back the whole confirmation.
func (s *SalesOrderService) Confirm(ctx context.Context, id uuid.UUID, req ConfirmOrderRequest, actor uuid.UUID) (*SalesOrderResponse, error) {
	resp, err := s.mutate(ctx, id, func(ctx context.Context, tx *txn.Tx, o *trade.SalesOrder) error {
		if err := o.Confirm(req.CustomerPORef, actor, s.now()); err != nil {
			return err
		}
		loc, err := tx.Locations().FindByID(ctx, o.LocationID)
		if err != nil {
			return err
		}
		if err := loc.EnsureActive(); err != nil {
			return err
		}
		for _, item := range o.Items {
			if !item.IsStocked() {
				continue
			}
			if _, err := s.ledger.Reserve(ctx, tx, *item.ItemID, o.LocationID, item.Quantity,
				trade.AggregateTypeSalesOrder, o.OrderNumber, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Sales order confirmed",
		zap.String("order_number", resp.OrderNumber),
		zap.String("grand_total", resp.GrandTotal.String()),
	)
	return resp, nil
}

// StartProcessing moves a confirmed order to PROCESSING, which opens it for shipments
func (s *SalesOrderService) StartProcessing(ctx context.Context, id, actor uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(_ context.Context, _ *txn.Tx, o *trade.SalesOrder) error {
		return o.StartProcessing(actor, s.now())
	})
}

// Cancel cancels a draft or confirmed order, releasing any reservations
func (s *SalesOrderService) Cancel(ctx context.Context, id uuid.UUID, req ReasonRequest, actor uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, id, func(ctx context.Context, tx *txn.Tx, o *trade.SalesOrder) error {
		wasConfirmed, err := o.Cancel(req.Reason, actor, s.now())
		if err != nil {
			return err
		}
		if !wasConfirmed {
			return nil
		}
		for _, item := range o.Items {
			remaining := item.RemainingToShip()
			if !item.IsStocked() || !remaining.IsPositive() {
				continue
			}
			if _, err := s.ledger.Release(ctx, tx, *item.ItemID, o.LocationID, remaining,
				trade.AggregateTypeSalesOrder, o.OrderNumber, actor); err != nil {
				return err
			}
		}
		return nil
	})
}

// Fulfillment reports shipped, invoiced and paid progress of an order
func (s *SalesOrderService) Fulfillment(ctx context.Context, id uuid.UUID) (*FulfillmentResponse, error) {
	var resp *FulfillmentResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		resp, err = s.tracker.Summary(ctx, repos, id)
		return err
	})
	return resp, err
}

// mutate loads the order to learn its lock keys, then changes and saves it
// under the order lock and the locks of every balance it touches
func (s *SalesOrderService) mutate(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, tx *txn.Tx, o *trade.SalesOrder) error) (*SalesOrderResponse, error) {
	snapshot, err := loadOrder(ctx, s.uow, id)
	if err != nil {
		return nil, err
	}

	keys := orderLockKeys(snapshot)
	var resp SalesOrderResponse
	err = s.uow.Run(ctx, keys, func(tx *txn.Tx) error {
		o, err := tx.SalesOrders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !slices.Equal(orderLockKeys(o), keys) {
			// lines changed between the snapshot and the lock
			return shared.NewConcurrencyConflictError(trade.AggregateTypeSalesOrder, id)
		}
		if err := fn(ctx, tx, o); err != nil {
			return err
		}
		if err := tx.SalesOrders().Save(ctx, o); err != nil {
			return err
		}
		tx.Track(o)
		resp = ToSalesOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
