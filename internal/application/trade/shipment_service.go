package trade

import (
	"context"
	"time"

	invapp "github.com/erp/ordertocash/internal/application/inventory"
	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShipmentService handles shipments. Confirming a shipment is the only
// operation that takes stock out of a location for a sales order.
type ShipmentService struct {
	uow     *txn.UnitOfWork
	ledger  *invapp.Ledger
	tracker *FulfillmentTracker
	logger  *zap.Logger
	now     Clock
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(uow *txn.UnitOfWork, ledger *invapp.Ledger, tracker *FulfillmentTracker, logger *zap.Logger) *ShipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentService{uow: uow, ledger: ledger, tracker: tracker, logger: logger, now: time.Now}
}

// Create plans a shipment for part of a sales order
func (s *ShipmentService) Create(ctx context.Context, orderID uuid.UUID, req CreateShipmentRequest, actor uuid.UUID) (*ShipmentResponse, error) {
	lines := make([]trade.ShipmentLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = trade.ShipmentLineInput{SalesOrderItemID: l.SalesOrderItemID, Quantity: l.Quantity}
	}

	var resp ShipmentResponse
	err := s.uow.Run(ctx, []string{txn.DocumentKey(trade.AggregateTypeSalesOrder, orderID)}, func(tx *txn.Tx) error {
		order, err := tx.SalesOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		existing, err := tx.Shipments().FindBySalesOrder(ctx, orderID)
		if err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, shared.PrefixShipment, s.now())
		if err != nil {
			return err
		}
		shipment, err := trade.NewShipment(number, order, lines, trade.PendingQuantities(existing, uuid.Nil), actor)
		if err != nil {
			return err
		}
		shipment.Carrier = req.Carrier
		shipment.TrackingNumber = req.TrackingNumber
		shipment.Notes = req.Notes
		if err := tx.Shipments().Save(ctx, shipment); err != nil {
			return err
		}
		tx.Track(shipment)
		resp = ToShipmentResponse(shipment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByID retrieves a shipment by ID
func (s *ShipmentService) GetByID(ctx context.Context, id uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(shipment)
	return &resp, nil
}

// ListByOrder returns every shipment of a sales order
func (s *ShipmentService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ShipmentResponse, error) {
	var out []ShipmentResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		if _, err := repos.SalesOrders().FindByID(ctx, orderID); err != nil {
			return err
		}
		shipments, err := repos.Shipments().FindBySalesOrder(ctx, orderID)
		if err != nil {
			return err
		}
		out = make([]ShipmentResponse, len(shipments))
		for i := range shipments {
			out[i] = ToShipmentResponse(&shipments[i])
		}
		return nil
	})
	return out, err
}

// MarkReady marks a shipment as packed and waiting for pickup
func (s *ShipmentService) MarkReady(ctx context.Context, id, actor uuid.UUID) (*ShipmentResponse, error) {
	return s.mutate(ctx, id, false, func(_ context.Context, _ *txn.Tx, sh *trade.Shipment) error {
		return sh.MarkReady(actor, s.now())
	})
}

// Confirm dispatches the shipment. In one transaction it releases the
// order's reservation for each stocked line, books a STOCK_OUT movement at
// the average cost and rederives the order's shipped quantities, which may
// advance the order to SHIPPED or DELIVERED.
func (s *ShipmentService) Confirm(ctx context.Context, id uuid.UUID, req ConfirmShipmentRequest, actor uuid.UUID) (*ShipmentResponse, error) {
	resp, err := s.mutate(ctx, id, true, func(ctx context.Context, tx *txn.Tx, sh *trade.Shipment) error {
		order, err := tx.SalesOrders().FindByID(ctx, sh.SalesOrderID)
		if err != nil {
			return err
		}
		if err := sh.Confirm(order, req.Carrier, req.TrackingNumber, actor, s.now()); err != nil {
			return err
		}

		for _, line := range sh.Lines {
			if !line.IsStocked() {
				continue
			}
			if _, err := s.ledger.Release(ctx, tx, *line.ItemID, sh.LocationID, line.Quantity,
				inventory.ReferenceShipment, sh.ShipmentNumber, actor); err != nil {
				return err
			}
			if _, _, err := s.ledger.Apply(ctx, tx, invapp.Movement{
				ItemID:        *line.ItemID,
				LocationID:    sh.LocationID,
				Type:          inventory.MovementTypeStockOut,
				Quantity:      line.Quantity.Neg(),
				ReferenceType: inventory.ReferenceShipment,
				ReferenceID:   sh.ShipmentNumber,
				Reason:        "shipment " + sh.ShipmentNumber + " for " + order.OrderNumber,
				OperatorID:    actor,
			}); err != nil {
				return err
			}
		}
		// the order recompute must see this shipment as SHIPPED
		if err := tx.Shipments().Save(ctx, sh); err != nil {
			return err
		}
		return s.tracker.RecomputeShipped(ctx, tx, order, actor)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Shipment confirmed",
		zap.String("shipment_number", resp.ShipmentNumber),
		zap.String("quantity", resp.TotalQuantity.String()),
	)
	return resp, nil
}

// MarkDelivered records carrier delivery of a shipped shipment
func (s *ShipmentService) MarkDelivered(ctx context.Context, id, actor uuid.UUID) (*ShipmentResponse, error) {
	return s.mutate(ctx, id, false, func(_ context.Context, _ *txn.Tx, sh *trade.Shipment) error {
		return sh.MarkDelivered(actor, s.now())
	})
}

// Cancel cancels a shipment that has not left the warehouse
func (s *ShipmentService) Cancel(ctx context.Context, id uuid.UUID, req ReasonRequest, actor uuid.UUID) (*ShipmentResponse, error) {
	return s.mutate(ctx, id, false, func(_ context.Context, _ *txn.Tx, sh *trade.Shipment) error {
		return sh.Cancel(req.Reason, actor, s.now())
	})
}

func (s *ShipmentService) load(ctx context.Context, id uuid.UUID) (*trade.Shipment, error) {
	var shipment *trade.Shipment
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		shipment, err = repos.Shipments().FindByID(ctx, id)
		return err
	})
	return shipment, err
}

// mutate runs fn under the shipment's lock and its order's lock. With
// moveStock the balances of the stocked lines are locked too.
func (s *ShipmentService) mutate(ctx context.Context, id uuid.UUID, moveStock bool, fn func(ctx context.Context, tx *txn.Tx, sh *trade.Shipment) error) (*ShipmentResponse, error) {
	snapshot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	keys := []string{
		txn.DocumentKey(trade.AggregateTypeShipment, id),
		txn.DocumentKey(trade.AggregateTypeSalesOrder, snapshot.SalesOrderID),
	}
	if moveStock {
		for _, line := range snapshot.Lines {
			if line.IsStocked() {
				keys = append(keys, txn.StockKey(*line.ItemID, snapshot.LocationID))
			}
		}
	}

	var resp ShipmentResponse
	err = s.uow.Run(ctx, keys, func(tx *txn.Tx) error {
		sh, err := tx.Shipments().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, sh); err != nil {
			return err
		}
		if err := tx.Shipments().Save(ctx, sh); err != nil {
			return err
		}
		tx.Track(sh)
		resp = ToShipmentResponse(sh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
