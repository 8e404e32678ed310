// Package notification tells customers about documents sent to them and
// payments received from them.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Notification is one customer-facing message
type Notification struct {
	ID             uuid.UUID       `json:"id"`
	EventType      string          `json:"event_type"`
	DocumentType   string          `json:"document_type"`
	DocumentID     uuid.UUID       `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Subject        string          `json:"subject"`
	Body           string          `json:"body"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationHandler sends a notification after a quotation or invoice is
// sent and after a payment is recorded. Delivery failures are logged and
// not retried.
type NotificationHandler struct {
	notifier Notifier
	printer  *message.Printer
	logger   *zap.Logger
}

// NewNotificationHandler creates a handler formatting amounts for lang
func NewNotificationHandler(notifier Notifier, lang language.Tag, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{
		notifier: notifier,
		printer:  message.NewPrinter(lang),
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		trade.EventTypeQuotationSent,
		trade.EventTypeInvoiceSent,
		trade.EventTypePaymentRecorded,
	}
}

// Handle builds and delivers the notification for a document event
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*trade.DocumentEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected document event, got %s", event.EventType())
	}

	n := h.Build(e)
	if err := h.notifier.Notify(ctx, n); err != nil {
		h.logger.Warn("Failed to deliver notification",
			zap.String("event_type", e.EventType()),
			zap.String("document_number", e.DocumentNumber),
			zap.Error(err),
		)
		return nil
	}
	h.logger.Debug("Notification sent",
		zap.String("event_type", e.EventType()),
		zap.String("document_number", e.DocumentNumber),
	)
	return nil
}

// Build renders the notification text for an event
func (h *NotificationHandler) Build(e *trade.DocumentEvent) Notification {
	docType := documentLabel(e.AggregateType())
	amount := h.FormatAmount(e.Amount, e.Currency)

	var subject, body string
	switch e.EventType() {
	case trade.EventTypePaymentRecorded:
		subject = h.printer.Sprintf("Payment %s received", e.DocumentNumber)
		body = h.printer.Sprintf("We received your payment of %s. Thank you.", amount)
	default:
		subject = h.printer.Sprintf("%s %s", docType, e.DocumentNumber)
		body = h.printer.Sprintf("Your %s %s for %s is ready.", docType, e.DocumentNumber, amount)
	}
	if e.CustomerName != "" {
		body = h.printer.Sprintf("Dear %s, %s", e.CustomerName, body)
	}

	return Notification{
		ID:             uuid.New(),
		EventType:      e.EventType(),
		DocumentType:   e.AggregateType(),
		DocumentID:     e.AggregateID(),
		DocumentNumber: e.DocumentNumber,
		CustomerID:     e.CustomerID,
		CustomerName:   e.CustomerName,
		Amount:         e.Amount,
		Currency:       e.Currency,
		Subject:        subject,
		Body:           body,
		CreatedAt:      e.OccurredAt(),
	}
}

// FormatAmount renders an amount with its currency symbol. Unknown currency
// codes fall back to "<amount> <code>".
func (h *NotificationHandler) FormatAmount(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return h.printer.Sprintf("%s %s", amount.StringFixed(2), code)
	}
	return h.printer.Sprint(currency.Symbol(unit.Amount(amount.Round(2).InexactFloat64())))
}

func documentLabel(aggregateType string) string {
	switch aggregateType {
	case trade.AggregateTypeSalesOrder:
		return "Sales order"
	default:
		return cases.Title(language.English).String(aggregateType)
	}
}
