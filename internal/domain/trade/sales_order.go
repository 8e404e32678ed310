package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ordertocash/internal/domain/pricing"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderItem is an order line plus the fulfillment quantities derived
// from shipments and invoices.
type SalesOrderItem struct {
	LineItem
	QuantityShipped  decimal.Decimal
	QuantityInvoiced decimal.Decimal
}

// RemainingToShip returns the ordered quantity not yet shipped
func (i SalesOrderItem) RemainingToShip() decimal.Decimal {
	return i.Quantity.Sub(i.QuantityShipped)
}

// RemainingToInvoice returns the ordered quantity not yet invoiced
func (i SalesOrderItem) RemainingToInvoice() decimal.Decimal {
	return i.Quantity.Sub(i.QuantityInvoiced)
}

// IsFullyShipped reports whether shipments cover the ordered quantity
func (i SalesOrderItem) IsFullyShipped() bool {
	return i.QuantityShipped.GreaterThanOrEqual(i.Quantity)
}

// SalesOrder represents a sales order aggregate root.
// Stock for stocked lines is reserved at LocationID while the order is open.
type SalesOrder struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	QuotationID   *uuid.UUID
	CustomerID    uuid.UUID
	CustomerName  string
	CustomerPORef string
	Currency      string
	LocationID    uuid.UUID
	DiscountPct   decimal.Decimal
	Items         []SalesOrderItem
	DocumentAmounts
	Status       OrderStatus
	Notes        string
	ConfirmedAt  *time.Time
	ProcessingAt *time.Time
	ShippedAt    *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// NewSalesOrder creates a new draft sales order
func NewSalesOrder(number string, customerID uuid.UUID, customerName, currency string, locationID uuid.UUID, actor uuid.UUID) (*SalesOrder, error) {
	if number == "" {
		return nil, shared.NewValidationError("order_number", "order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "customer cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewValidationError("customer_name", "customer name cannot be empty")
	}
	if len(currency) != 3 {
		return nil, shared.NewValidationError("currency", "currency must be a 3-letter ISO code")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewValidationError("location_id", "ship-from location cannot be empty")
	}

	o := &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		OrderNumber:       number,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Currency:          currency,
		LocationID:        locationID,
		DiscountPct:       decimal.Zero,
		Items:             make([]SalesOrderItem, 0),
		Status:            OrderStatusDraft,
	}
	o.recalculate()
	o.AddDomainEvent(o.event(EventTypeSalesOrderCreated, "", actor))
	return o, nil
}

// NewSalesOrderFromQuotation copies an accepted quotation into a new draft
// order. Lines keep their order and pricing; totals are recomputed and must
// agree with the quotation within the rounding tolerance.
func NewSalesOrderFromQuotation(number string, q *Quotation, locationID uuid.UUID, actor uuid.UUID) (*SalesOrder, error) {
	if q.Status != QuotationStatusAccepted {
		return nil, shared.NewInvalidTransitionError(AggregateTypeQuotation, string(q.Status), "CONVERTED")
	}
	o, err := NewSalesOrder(number, q.CustomerID, q.CustomerName, q.Currency, locationID, actor)
	if err != nil {
		return nil, err
	}
	quotationID := q.ID
	o.QuotationID = &quotationID
	o.DiscountPct = q.DiscountPct
	o.Notes = q.Notes
	for _, src := range q.Items {
		line, err := NewLineItem(src.LineNo, src.Input())
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, SalesOrderItem{
			LineItem:         line,
			QuantityShipped:  decimal.Zero,
			QuantityInvoiced: decimal.Zero,
		})
	}
	if err := o.recalculate(); err != nil {
		return nil, err
	}
	if !pricing.WithinTolerance(o.GrandTotal, q.GrandTotal) {
		return nil, shared.NewDomainError(shared.CodeTotalsDrift,
			fmt.Sprintf("recomputed total %s differs from quotation total %s", o.GrandTotal, q.GrandTotal)).
			WithDetail("recomputed", o.GrandTotal.String()).
			WithDetail("stored", q.GrandTotal.String())
	}
	return o, nil
}

// AddItem appends a line; only allowed in DRAFT
func (o *SalesOrder) AddItem(in LineItemInput) (*SalesOrderItem, error) {
	if err := o.ensureEditable(); err != nil {
		return nil, err
	}
	line, err := NewLineItem(nextLineNo(o.lines()), in)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, SalesOrderItem{LineItem: line, QuantityShipped: decimal.Zero, QuantityInvoiced: decimal.Zero})
	if err := o.recalculate(); err != nil {
		return nil, err
	}
	return &o.Items[len(o.Items)-1], nil
}

// UpdateItem replaces the content of a line; only allowed in DRAFT
func (o *SalesOrder) UpdateItem(lineID uuid.UUID, in LineItemInput) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	item := o.GetItem(lineID)
	if item == nil {
		return shared.NewNotFoundError("sales order line", lineID)
	}
	if err := item.apply(in); err != nil {
		return err
	}
	return o.recalculate()
}

// RemoveItem removes a line; only allowed in DRAFT
func (o *SalesOrder) RemoveItem(lineID uuid.UUID) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	for i := range o.Items {
		if o.Items[i].ID == lineID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return o.recalculate()
		}
	}
	return shared.NewNotFoundError("sales order line", lineID)
}

// SetDiscount sets the document-level discount percent; only allowed in DRAFT
func (o *SalesOrder) SetDiscount(pct decimal.Decimal) error {
	if err := o.ensureEditable(); err != nil {
		return err
	}
	if err := pricing.ValidateDiscountPct("discount_pct", pct); err != nil {
		return err
	}
	o.DiscountPct = pct
	return o.recalculate()
}

// Confirm moves the order from DRAFT to CONFIRMED. A customer PO reference
// is mandatory; poRef overrides the stored one when not empty.
// Reserving stock for the stocked lines is the caller's job.
func (o *SalesOrder) Confirm(poRef string, actor uuid.UUID, now time.Time) error {
	if err := orderTransitions.check(AggregateTypeSalesOrder, o.Status, OrderStatusConfirmed); err != nil {
		return err
	}
	if ref := strings.TrimSpace(poRef); ref != "" {
		o.CustomerPORef = ref
	}
	if o.CustomerPORef == "" {
		return shared.NewValidationError("customer_po_ref", "customer PO reference is required to confirm an order")
	}
	if len(o.Items) == 0 {
		return shared.NewValidationError("items", "cannot confirm an order without lines")
	}
	o.ConfirmedAt = &now
	o.moveTo(OrderStatusConfirmed, EventTypeSalesOrderConfirmed, actor, "")
	return nil
}

// StartProcessing moves the order from CONFIRMED to PROCESSING
func (o *SalesOrder) StartProcessing(actor uuid.UUID, now time.Time) error {
	if err := orderTransitions.check(AggregateTypeSalesOrder, o.Status, OrderStatusProcessing); err != nil {
		return err
	}
	o.ProcessingAt = &now
	o.moveTo(OrderStatusProcessing, EventTypeSalesOrderProcessing, actor, "")
	return nil
}

// Cancel cancels a DRAFT or CONFIRMED order. It reports whether the order
// was confirmed, in which case its reservations must be released.
func (o *SalesOrder) Cancel(reason string, actor uuid.UUID, now time.Time) (bool, error) {
	if err := orderTransitions.check(AggregateTypeSalesOrder, o.Status, OrderStatusCancelled); err != nil {
		return false, err
	}
	if strings.TrimSpace(reason) == "" {
		return false, shared.NewValidationError("reason", "cancel reason is required")
	}
	wasConfirmed := o.Status == OrderStatusConfirmed
	o.CancelledAt = &now
	o.CancelReason = reason
	o.moveTo(OrderStatusCancelled, EventTypeSalesOrderCancelled, actor, reason)
	return wasConfirmed, nil
}

// ApplyShippedQuantities overwrites the shipped quantity of every line with
// totals derived from confirmed shipments, then advances the status:
// PROCESSING -> SHIPPED once anything has shipped, SHIPPED -> DELIVERED once
// every line is fully shipped.
func (o *SalesOrder) ApplyShippedQuantities(shipped map[uuid.UUID]decimal.Decimal, actor uuid.UUID, now time.Time) error {
	anyShipped := false
	for i := range o.Items {
		qty, ok := shipped[o.Items[i].ID]
		if !ok {
			qty = decimal.Zero
		}
		if qty.GreaterThan(o.Items[i].Quantity) {
			return shared.NewOverShipmentError(o.Items[i].ID, qty, o.Items[i].Quantity)
		}
		o.Items[i].QuantityShipped = qty
		if qty.IsPositive() {
			anyShipped = true
		}
	}
	if !anyShipped {
		o.Touch()
		return nil
	}

	if o.Status == OrderStatusProcessing {
		o.ShippedAt = &now
		o.moveTo(OrderStatusShipped, EventTypeSalesOrderShipped, actor, "")
	}
	if o.Status == OrderStatusShipped && o.IsFullyShipped() {
		o.DeliveredAt = &now
		o.moveTo(OrderStatusDelivered, EventTypeSalesOrderDelivered, actor, "")
	}
	if o.Status != OrderStatusShipped && o.Status != OrderStatusDelivered {
		return shared.NewInvalidTransitionError(AggregateTypeSalesOrder, string(o.Status), string(OrderStatusShipped))
	}
	o.Touch()
	return nil
}

// ApplyInvoicedQuantities overwrites the invoiced quantity of every line with
// totals derived from non-cancelled invoices
func (o *SalesOrder) ApplyInvoicedQuantities(invoiced map[uuid.UUID]decimal.Decimal) error {
	for i := range o.Items {
		qty, ok := invoiced[o.Items[i].ID]
		if !ok {
			qty = decimal.Zero
		}
		if qty.GreaterThan(o.Items[i].Quantity) {
			return shared.NewOverInvoiceError(o.Items[i].ID, qty, o.Items[i].Quantity)
		}
		o.Items[i].QuantityInvoiced = qty
	}
	o.Touch()
	return nil
}

// IsFullyShipped reports whether every line has shipped in full
func (o *SalesOrder) IsFullyShipped() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if !item.IsFullyShipped() {
			return false
		}
	}
	return true
}

// CanShip reports whether shipments may be created or confirmed
func (o *SalesOrder) CanShip() bool {
	return o.Status == OrderStatusProcessing || o.Status == OrderStatusShipped
}

// CanInvoice reports whether the order may be invoiced
func (o *SalesOrder) CanInvoice() bool {
	switch o.Status {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// HoldsReservations reports whether stock is reserved for the unshipped quantities
func (o *SalesOrder) HoldsReservations() bool {
	switch o.Status {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped:
		return true
	}
	return false
}

// GetItem returns a line by its ID
func (o *SalesOrder) GetItem(lineID uuid.UUID) *SalesOrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == lineID {
			return &o.Items[idx]
		}
	}
	return nil
}

func (o *SalesOrder) lines() []LineItem {
	lines := make([]LineItem, len(o.Items))
	for i, item := range o.Items {
		lines[i] = item.LineItem
	}
	return lines
}

func (o *SalesOrder) ensureEditable() error {
	if o.Status != OrderStatusDraft {
		return shared.NewValidationError("status",
			fmt.Sprintf("order %s is %s; lines can only change while DRAFT", o.OrderNumber, o.Status))
	}
	return nil
}

func (o *SalesOrder) moveTo(to OrderStatus, eventType string, actor uuid.UUID, reason string) {
	from := o.Status
	o.Status = to
	o.Touch()
	o.AddDomainEvent(o.event(eventType, string(from), actor).withReason(reason))
}

func (o *SalesOrder) event(eventType, from string, actor uuid.UUID) *DocumentEvent {
	return newDocumentEvent(eventType, AggregateTypeSalesOrder, o.ID, o.OrderNumber, from, string(o.Status), actor).
		forCustomer(o.CustomerID, o.CustomerName).
		withAmount(o.GrandTotal, o.Currency)
}

func (o *SalesOrder) recalculate() error {
	amounts, err := computeAmounts(o.lines(), o.DiscountPct)
	if err != nil {
		return err
	}
	o.DocumentAmounts = amounts
	o.Touch()
	return nil
}
