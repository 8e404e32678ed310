package trade

import (
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeQuotationCreated  = "QuotationCreated"
	EventTypeQuotationSent     = "QuotationSent"
	EventTypeQuotationAccepted = "QuotationAccepted"
	EventTypeQuotationRejected = "QuotationRejected"
	EventTypeQuotationExpired  = "QuotationExpired"

	EventTypeSalesOrderCreated    = "SalesOrderCreated"
	EventTypeSalesOrderConfirmed  = "SalesOrderConfirmed"
	EventTypeSalesOrderProcessing = "SalesOrderProcessing"
	EventTypeSalesOrderShipped    = "SalesOrderShipped"
	EventTypeSalesOrderDelivered  = "SalesOrderDelivered"
	EventTypeSalesOrderCancelled  = "SalesOrderCancelled"

	EventTypeInvoiceCreated       = "InvoiceCreated"
	EventTypeInvoicePosted        = "InvoicePosted"
	EventTypeInvoiceSent          = "InvoiceSent"
	EventTypeInvoicePartiallyPaid = "InvoicePartiallyPaid"
	EventTypeInvoicePaid          = "InvoicePaid"
	EventTypeInvoiceReopened      = "InvoiceReopened"
	EventTypeInvoiceCancelled     = "InvoiceCancelled"

	EventTypeShipmentCreated   = "ShipmentCreated"
	EventTypeShipmentReady     = "ShipmentReady"
	EventTypeShipmentShipped   = "ShipmentShipped"
	EventTypeShipmentDelivered = "ShipmentDelivered"
	EventTypeShipmentCancelled = "ShipmentCancelled"

	EventTypePaymentRecorded = "PaymentRecorded"
	EventTypePaymentReversed = "PaymentReversed"
)

// DocumentEvent is raised on every state change of a trade document.
// It carries enough for the audit trail and customer notifications.
type DocumentEvent struct {
	shared.BaseDomainEvent
	DocumentNumber string          `json:"document_number"`
	FromStatus     string          `json:"from_status,omitempty"`
	ToStatus       string          `json:"to_status"`
	ActorID        uuid.UUID       `json:"actor_id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Reason         string          `json:"reason,omitempty"`
}

func newDocumentEvent(eventType, aggType string, aggID uuid.UUID, number string, from, to string, actor uuid.UUID) *DocumentEvent {
	return &DocumentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggType, aggID),
		DocumentNumber:  number,
		FromStatus:      from,
		ToStatus:        to,
		ActorID:         actor,
	}
}

func (e *DocumentEvent) forCustomer(id uuid.UUID, name string) *DocumentEvent {
	e.CustomerID = id
	e.CustomerName = name
	return e
}

func (e *DocumentEvent) withAmount(amount decimal.Decimal, currency string) *DocumentEvent {
	e.Amount = amount
	e.Currency = currency
	return e
}

func (e *DocumentEvent) withReason(reason string) *DocumentEvent {
	e.Reason = reason
	return e
}
