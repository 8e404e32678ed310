package trade

import (
	"strings"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is money received from a customer. A payment without an invoice
// is held on account. Payments are never edited; a mistaken one is reversed.
type Payment struct {
	shared.BaseAggregateRoot
	PaymentNumber  string
	CustomerID     uuid.UUID
	InvoiceID      *uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Method         PaymentMethod
	Reference      string
	ReceivedAt     time.Time
	Status         PaymentStatus
	ReversedAt     *time.Time
	ReversedBy     *uuid.UUID
	ReversalReason string
}

// NewPayment records a completed payment
func NewPayment(number string, customerID uuid.UUID, invoiceID *uuid.UUID, amount decimal.Decimal, currency string, method PaymentMethod, reference string, receivedAt time.Time, actor uuid.UUID) (*Payment, error) {
	if number == "" {
		return nil, shared.NewValidationError("payment_number", "payment number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "customer cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount", "payment amount must be positive")
	}
	if len(currency) != 3 {
		return nil, shared.NewValidationError("currency", "currency must be a 3-letter ISO code")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("method", "unknown payment method")
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		PaymentNumber:     number,
		CustomerID:        customerID,
		InvoiceID:         invoiceID,
		Amount:            amount.Round(2),
		Currency:          currency,
		Method:            method,
		Reference:         reference,
		ReceivedAt:        receivedAt,
		Status:            PaymentStatusCompleted,
	}
	p.AddDomainEvent(p.event(EventTypePaymentRecorded, "", actor))
	return p, nil
}

// Reverse marks a completed payment as reversed. A payment is reversed at most once.
func (p *Payment) Reverse(reason string, actor uuid.UUID, now time.Time) error {
	if err := paymentTransitions.check(AggregateTypePayment, p.Status, PaymentStatusReversed); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("reason", "reversal reason is required")
	}
	from := p.Status
	p.Status = PaymentStatusReversed
	p.ReversedAt = &now
	p.ReversedBy = &actor
	p.ReversalReason = reason
	p.Touch()
	p.AddDomainEvent(p.event(EventTypePaymentReversed, string(from), actor).withReason(reason))
	return nil
}

// IsEffective reports whether the payment counts towards the invoice
func (p *Payment) IsEffective() bool {
	return p.Status == PaymentStatusCompleted
}

func (p *Payment) event(eventType, from string, actor uuid.UUID) *DocumentEvent {
	return newDocumentEvent(eventType, AggregateTypePayment, p.ID, p.PaymentNumber, from, string(p.Status), actor).
		forCustomer(p.CustomerID, "").
		withAmount(p.Amount, p.Currency)
}
