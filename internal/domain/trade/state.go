package trade

import (
	"slices"

	"github.com/erp/ordertocash/internal/domain/shared"
)

// Aggregate type names, also used as audit entity types
const (
	AggregateTypeQuotation  = "Quotation"
	AggregateTypeSalesOrder = "SalesOrder"
	AggregateTypeInvoice    = "Invoice"
	AggregateTypeShipment   = "Shipment"
	AggregateTypePayment    = "Payment"
)

// transitionTable lists, per source state, the states it may move to.
// A state absent from the table is terminal.
type transitionTable[S ~string] map[S][]S

func (t transitionTable[S]) allows(from, to S) bool {
	return slices.Contains(t[from], to)
}

func (t transitionTable[S]) check(document string, from, to S) error {
	if !t.allows(from, to) {
		return shared.NewInvalidTransitionError(document, string(from), string(to))
	}
	return nil
}

// QuotationStatus represents the status of a quotation
type QuotationStatus string

const (
	QuotationStatusDraft    QuotationStatus = "DRAFT"
	QuotationStatusSent     QuotationStatus = "SENT"
	QuotationStatusAccepted QuotationStatus = "ACCEPTED"
	QuotationStatusRejected QuotationStatus = "REJECTED"
	QuotationStatusExpired  QuotationStatus = "EXPIRED"
)

var quotationTransitions = transitionTable[QuotationStatus]{
	QuotationStatusDraft: {QuotationStatusSent},
	QuotationStatusSent:  {QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusExpired},
}

// IsValid checks if the status is a known QuotationStatus
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSent, QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusExpired:
		return true
	}
	return false
}

func (s QuotationStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	return quotationTransitions.allows(s, target)
}

// IsTerminal reports whether no further transitions are possible
func (s QuotationStatus) IsTerminal() bool {
	return len(quotationTransitions[s]) == 0
}

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "DRAFT"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderTransitions = transitionTable[OrderStatus]{
	OrderStatusDraft:      {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// IsValid checks if the status is a known OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return orderTransitions.allows(s, target)
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusPosted    InvoiceStatus = "POSTED"
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Payment reversals move PAID and PARTIAL invoices back down.
var invoiceTransitions = transitionTable[InvoiceStatus]{
	InvoiceStatusDraft:   {InvoiceStatusPosted, InvoiceStatusCancelled},
	InvoiceStatusPosted:  {InvoiceStatusPartial, InvoiceStatusPaid},
	InvoiceStatusPartial: {InvoiceStatusPaid, InvoiceStatusPosted},
	InvoiceStatusPaid:    {InvoiceStatusPartial, InvoiceStatusPosted},
}

// IsValid checks if the status is a known InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPosted, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	return invoiceTransitions.allows(s, target)
}

// IsOpen reports whether the invoice is posted and counts towards receivables
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusPosted || s == InvoiceStatusPartial || s == InvoiceStatusPaid
}

// ShipmentStatus represents the status of a shipment
type ShipmentStatus string

const (
	ShipmentStatusPreparing ShipmentStatus = "PREPARING"
	ShipmentStatusReady     ShipmentStatus = "READY"
	ShipmentStatusShipped   ShipmentStatus = "SHIPPED"
	ShipmentStatusDelivered ShipmentStatus = "DELIVERED"
	ShipmentStatusCancelled ShipmentStatus = "CANCELLED"
)

var shipmentTransitions = transitionTable[ShipmentStatus]{
	ShipmentStatusPreparing: {ShipmentStatusReady, ShipmentStatusShipped, ShipmentStatusCancelled},
	ShipmentStatusReady:     {ShipmentStatusShipped, ShipmentStatusCancelled},
	ShipmentStatusShipped:   {ShipmentStatusDelivered},
}

// IsValid checks if the status is a known ShipmentStatus
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentStatusPreparing, ShipmentStatusReady, ShipmentStatusShipped, ShipmentStatusDelivered, ShipmentStatusCancelled:
		return true
	}
	return false
}

func (s ShipmentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ShipmentStatus) CanTransitionTo(target ShipmentStatus) bool {
	return shipmentTransitions.allows(s, target)
}

// HasLeftWarehouse reports whether the shipment's quantities count as shipped
func (s ShipmentStatus) HasLeftWarehouse() bool {
	return s == ShipmentStatusShipped || s == ShipmentStatusDelivered
}

// IsPending reports whether the shipment is planned but not yet confirmed
func (s ShipmentStatus) IsPending() bool {
	return s == ShipmentStatusPreparing || s == ShipmentStatusReady
}

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusReversed  PaymentStatus = "REVERSED"
)

var paymentTransitions = transitionTable[PaymentStatus]{
	PaymentStatusCompleted: {PaymentStatusReversed},
}

// IsValid checks if the status is a known PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusReversed
}

func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	return paymentTransitions.allows(s, target)
}
