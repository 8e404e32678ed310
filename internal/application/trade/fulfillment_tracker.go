package trade

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FulfillmentTracker derives shipped, invoiced and paid aggregates from the
// shipment, invoice and payment ledgers. It never increments counters, so
// replaying history always reproduces the same aggregates.
type FulfillmentTracker struct {
	now Clock
}

// NewFulfillmentTracker creates a new FulfillmentTracker
func NewFulfillmentTracker() *FulfillmentTracker {
	return &FulfillmentTracker{now: time.Now}
}

// RecomputeShipped rederives QuantityShipped of every order line from the
// order's shipments and advances the order to SHIPPED or DELIVERED
func (t *FulfillmentTracker) RecomputeShipped(ctx context.Context, tx *txn.Tx, order *trade.SalesOrder, actor uuid.UUID) error {
	shipments, err := tx.Shipments().FindBySalesOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := order.ApplyShippedQuantities(trade.ShippedQuantities(shipments), actor, t.now()); err != nil {
		return err
	}
	if err := tx.SalesOrders().Save(ctx, order); err != nil {
		return err
	}
	tx.Track(order)
	return nil
}

// RecomputeInvoiced rederives QuantityInvoiced of every order line from the
// order's non-cancelled invoices
func (t *FulfillmentTracker) RecomputeInvoiced(ctx context.Context, tx *txn.Tx, order *trade.SalesOrder) error {
	invoices, err := tx.Invoices().FindBySalesOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := order.ApplyInvoicedQuantities(trade.InvoicedQuantities(invoices)); err != nil {
		return err
	}
	if err := tx.SalesOrders().Save(ctx, order); err != nil {
		return err
	}
	tx.Track(order)
	return nil
}

// RecomputePaid rederives PaidAmount and BalanceAmount of an invoice from its
// non-reversed payments and moves it between POSTED, PARTIAL and PAID
func (t *FulfillmentTracker) RecomputePaid(ctx context.Context, tx *txn.Tx, inv *trade.Invoice, actor uuid.UUID) error {
	payments, err := tx.Payments().FindByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}
	if err := inv.ApplyPaidAmount(trade.PaidAmount(payments), actor, t.now()); err != nil {
		return err
	}
	if err := tx.Invoices().Save(ctx, inv); err != nil {
		return err
	}
	tx.Track(inv)
	return nil
}

// Summary reports the fulfillment of an order from stored aggregates
func (t *FulfillmentTracker) Summary(ctx context.Context, repos txn.Repositories, orderID uuid.UUID) (*FulfillmentResponse, error) {
	order, err := repos.SalesOrders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	invoices, err := repos.Invoices().FindBySalesOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	orderResp := ToSalesOrderResponse(order)
	resp := &FulfillmentResponse{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           string(order.Status),
		Lines:            orderResp.Items,
		FullyShipped:     order.IsFullyShipped(),
		InvoicedTotal:    decimal.Zero,
		PaidTotal:        decimal.Zero,
		OutstandingTotal: decimal.Zero,
	}
	for _, inv := range invoices {
		if !inv.Status.IsOpen() {
			continue
		}
		resp.InvoicedTotal = resp.InvoicedTotal.Add(inv.GrandTotal)
		resp.PaidTotal = resp.PaidTotal.Add(inv.PaidAmount)
		resp.OutstandingTotal = resp.OutstandingTotal.Add(inv.BalanceAmount)
	}
	return resp, nil
}
