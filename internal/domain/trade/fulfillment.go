package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippedQuantities sums, per order line, the quantities of shipments that
// have left the warehouse
func ShippedQuantities(shipments []Shipment) map[uuid.UUID]decimal.Decimal {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, s := range shipments {
		if !s.Status.HasLeftWarehouse() {
			continue
		}
		for _, l := range s.Lines {
			totals[l.SalesOrderItemID] = totals[l.SalesOrderItemID].Add(l.Quantity)
		}
	}
	return totals
}

// PendingQuantities sums, per order line, the quantities planned on
// unconfirmed shipments other than exclude
func PendingQuantities(shipments []Shipment, exclude uuid.UUID) map[uuid.UUID]decimal.Decimal {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, s := range shipments {
		if s.ID == exclude || !s.Status.IsPending() {
			continue
		}
		for _, l := range s.Lines {
			totals[l.SalesOrderItemID] = totals[l.SalesOrderItemID].Add(l.Quantity)
		}
	}
	return totals
}

// InvoicedQuantities sums, per order line, the quantities billed by
// non-cancelled invoices
func InvoicedQuantities(invoices []Invoice) map[uuid.UUID]decimal.Decimal {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, inv := range invoices {
		if inv.Status == InvoiceStatusCancelled {
			continue
		}
		for _, item := range inv.Items {
			if item.SalesOrderItemID == nil {
				continue
			}
			totals[*item.SalesOrderItemID] = totals[*item.SalesOrderItemID].Add(item.Quantity)
		}
	}
	return totals
}

// PaidAmount sums the payments that have not been reversed
func PaidAmount(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.IsEffective() {
			total = total.Add(p.Amount)
		}
	}
	return total
}
