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

// InvoiceItem is an invoice line, optionally tied to the order line it bills
type InvoiceItem struct {
	LineItem
	SalesOrderItemID *uuid.UUID
}

// Invoice is a customer invoice. PaidAmount and BalanceAmount are derived
// from the payment ledger and only written through ApplyPaidAmount.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	SalesOrderID  *uuid.UUID
	CustomerID    uuid.UUID
	CustomerName  string
	Currency      string
	IssueDate     time.Time
	DueDate       time.Time
	DiscountPct   decimal.Decimal
	Items         []InvoiceItem
	DocumentAmounts
	PaidAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
	Status        InvoiceStatus
	Notes         string
	PostedAt      *time.Time
	PostedBy      *uuid.UUID
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
	CancelReason  string
}

// NewInvoice creates a new draft invoice
func NewInvoice(number string, customerID uuid.UUID, customerName, currency string, issueDate, dueDate time.Time, actor uuid.UUID) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewValidationError("invoice_number", "invoice number cannot be empty")
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
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	if dueDate.IsZero() {
		dueDate = issueDate
	}
	if dueDate.Before(issueDate.Truncate(24 * time.Hour)) {
		return nil, shared.NewValidationError("due_date", "due date cannot be before the issue date")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		InvoiceNumber:     number,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Currency:          currency,
		IssueDate:         issueDate,
		DueDate:           dueDate,
		DiscountPct:       decimal.Zero,
		Items:             make([]InvoiceItem, 0),
		PaidAmount:        decimal.Zero,
		BalanceAmount:     decimal.Zero,
		Status:            InvoiceStatusDraft,
	}
	inv.recalculate()
	inv.AddDomainEvent(inv.event(EventTypeInvoiceCreated, "", actor))
	return inv, nil
}

// NewInvoiceFromSalesOrder creates a draft invoice billing the given
// quantities of the order's lines. Quantities are keyed by order line ID and
// must not exceed the uninvoiced quantity of the line.
func NewInvoiceFromSalesOrder(number string, o *SalesOrder, quantities map[uuid.UUID]decimal.Decimal, issueDate, dueDate time.Time, actor uuid.UUID) (*Invoice, error) {
	if !o.CanInvoice() {
		return nil, shared.NewInvalidTransitionError(AggregateTypeSalesOrder, string(o.Status), "INVOICED")
	}
	inv, err := NewInvoice(number, o.CustomerID, o.CustomerName, o.Currency, issueDate, dueDate, actor)
	if err != nil {
		return nil, err
	}
	orderID := o.ID
	inv.SalesOrderID = &orderID
	inv.DiscountPct = o.DiscountPct

	for _, item := range o.Items {
		qty, ok := quantities[item.ID]
		if !ok || qty.IsZero() {
			continue
		}
		if qty.IsNegative() {
			return nil, shared.NewValidationError("quantity", "invoice quantity cannot be negative")
		}
		if remaining := item.RemainingToInvoice(); qty.GreaterThan(remaining) {
			return nil, shared.NewOverInvoiceError(item.ID, qty, remaining)
		}
		line, err := NewLineItem(item.LineNo, item.WithQuantity(qty))
		if err != nil {
			return nil, err
		}
		lineID := item.ID
		inv.Items = append(inv.Items, InvoiceItem{LineItem: line, SalesOrderItemID: &lineID})
	}
	for lineID := range quantities {
		if o.GetItem(lineID) == nil {
			return nil, shared.NewNotFoundError("sales order line", lineID)
		}
	}
	if len(inv.Items) == 0 {
		return nil, shared.NewValidationError("items", "nothing left to invoice on this order")
	}
	if err := inv.recalculate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// AddItem appends a line; only allowed in DRAFT
func (inv *Invoice) AddItem(in LineItemInput) (*InvoiceItem, error) {
	if err := inv.ensureEditable(); err != nil {
		return nil, err
	}
	line, err := NewLineItem(nextLineNo(inv.lines()), in)
	if err != nil {
		return nil, err
	}
	inv.Items = append(inv.Items, InvoiceItem{LineItem: line})
	if err := inv.recalculate(); err != nil {
		return nil, err
	}
	return &inv.Items[len(inv.Items)-1], nil
}

// SetDiscount sets the document-level discount percent; only allowed in DRAFT
func (inv *Invoice) SetDiscount(pct decimal.Decimal) error {
	if err := inv.ensureEditable(); err != nil {
		return err
	}
	if err := pricing.ValidateDiscountPct("discount_pct", pct); err != nil {
		return err
	}
	inv.DiscountPct = pct
	return inv.recalculate()
}

// Post moves the invoice from DRAFT to POSTED and opens its balance
func (inv *Invoice) Post(actor uuid.UUID, now time.Time) error {
	if err := invoiceTransitions.check(AggregateTypeInvoice, inv.Status, InvoiceStatusPosted); err != nil {
		return err
	}
	if len(inv.Items) == 0 {
		return shared.NewValidationError("items", "cannot post an invoice without lines")
	}
	if !inv.GrandTotal.IsPositive() {
		return shared.NewValidationError("grand_total", "cannot post an invoice with a zero total")
	}
	inv.PostedAt = &now
	inv.PostedBy = &actor
	inv.PaidAmount = decimal.Zero
	inv.BalanceAmount = inv.GrandTotal
	inv.moveTo(InvoiceStatusPosted, EventTypeInvoicePosted, actor, "")
	return nil
}

// Send records delivery of a posted invoice to the customer
func (inv *Invoice) Send(actor uuid.UUID, now time.Time) error {
	if !inv.Status.IsOpen() {
		return shared.NewInvalidTransitionError(AggregateTypeInvoice, string(inv.Status), "SENT")
	}
	inv.SentAt = &now
	inv.Touch()
	inv.AddDomainEvent(inv.event(EventTypeInvoiceSent, string(inv.Status), actor))
	return nil
}

// Cancel cancels a DRAFT invoice
func (inv *Invoice) Cancel(reason string, actor uuid.UUID, now time.Time) error {
	if err := invoiceTransitions.check(AggregateTypeInvoice, inv.Status, InvoiceStatusCancelled); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("reason", "cancel reason is required")
	}
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.moveTo(InvoiceStatusCancelled, EventTypeInvoiceCancelled, actor, reason)
	return nil
}

// ApplyPaidAmount sets the paid total derived from the payment ledger and
// moves the status between POSTED, PARTIAL and PAID accordingly.
func (inv *Invoice) ApplyPaidAmount(paid decimal.Decimal, actor uuid.UUID, now time.Time) error {
	if !inv.Status.IsOpen() {
		return shared.NewInvalidTransitionError(AggregateTypeInvoice, string(inv.Status), "PAYMENT_APPLIED")
	}
	if paid.IsNegative() {
		return shared.NewValidationError("paid_amount", "paid amount cannot be negative")
	}
	if paid.Sub(inv.GrandTotal).GreaterThan(pricing.Tolerance) {
		return shared.NewDomainError(shared.CodeOverpayment,
			fmt.Sprintf("payments of %s exceed invoice total %s", paid, inv.GrandTotal)).
			WithDetail("paid", paid.String()).
			WithDetail("grand_total", inv.GrandTotal.String())
	}

	inv.PaidAmount = paid
	inv.BalanceAmount = inv.GrandTotal.Sub(paid)

	target := InvoiceStatusPosted
	eventType := EventTypeInvoiceReopened
	switch {
	case inv.BalanceAmount.LessThanOrEqual(pricing.Tolerance):
		target = InvoiceStatusPaid
		eventType = EventTypeInvoicePaid
	case paid.IsPositive():
		target = InvoiceStatusPartial
		eventType = EventTypeInvoicePartiallyPaid
	}
	if target == inv.Status {
		inv.Touch()
		return nil
	}
	if err := invoiceTransitions.check(AggregateTypeInvoice, inv.Status, target); err != nil {
		return err
	}
	if target == InvoiceStatusPaid {
		inv.PaidAt = &now
	} else {
		inv.PaidAt = nil
	}
	inv.moveTo(target, eventType, actor, "")
	return nil
}

// CheckPayment validates that amount can be applied to the invoice
func (inv *Invoice) CheckPayment(amount decimal.Decimal) error {
	if inv.Status != InvoiceStatusPosted && inv.Status != InvoiceStatusPartial {
		return shared.NewInvalidTransitionError(AggregateTypeInvoice, string(inv.Status), "PAYMENT_APPLIED")
	}
	if amount.Sub(inv.BalanceAmount).GreaterThan(pricing.Tolerance) {
		return shared.NewDomainError(shared.CodeOverpayment,
			fmt.Sprintf("payment %s exceeds outstanding balance %s", amount, inv.BalanceAmount)).
			WithDetail("amount", amount.String()).
			WithDetail("balance", inv.BalanceAmount.String())
	}
	return nil
}

// IsOverdue reports whether an unpaid balance is past its due date
func (inv *Invoice) IsOverdue(now time.Time) bool {
	return (inv.Status == InvoiceStatusPosted || inv.Status == InvoiceStatusPartial) && now.After(inv.DueDate)
}

func (inv *Invoice) lines() []LineItem {
	lines := make([]LineItem, len(inv.Items))
	for i, item := range inv.Items {
		lines[i] = item.LineItem
	}
	return lines
}

func (inv *Invoice) ensureEditable() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewValidationError("status",
			fmt.Sprintf("invoice %s is %s; lines can only change while DRAFT", inv.InvoiceNumber, inv.Status))
	}
	return nil
}

func (inv *Invoice) moveTo(to InvoiceStatus, eventType string, actor uuid.UUID, reason string) {
	from := inv.Status
	inv.Status = to
	inv.Touch()
	inv.AddDomainEvent(inv.event(eventType, string(from), actor).withReason(reason))
}

func (inv *Invoice) event(eventType, from string, actor uuid.UUID) *DocumentEvent {
	return newDocumentEvent(eventType, AggregateTypeInvoice, inv.ID, inv.InvoiceNumber, from, string(inv.Status), actor).
		forCustomer(inv.CustomerID, inv.CustomerName).
		withAmount(inv.GrandTotal, inv.Currency)
}

func (inv *Invoice) recalculate() error {
	amounts, err := computeAmounts(inv.lines(), inv.DiscountPct)
	if err != nil {
		return err
	}
	inv.DocumentAmounts = amounts
	if inv.Status == InvoiceStatusDraft {
		inv.BalanceAmount = amounts.GrandTotal
	}
	inv.Touch()
	return nil
}
