package trade

import (
	"fmt"
	"time"

	"github.com/erp/ordertocash/internal/domain/pricing"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quotation is an offer to a customer, valid until ValidUntil.
// Lines and discount can only change while it is a DRAFT.
type Quotation struct {
	shared.BaseAggregateRoot
	QuotationNumber string
	CustomerID      uuid.UUID
	CustomerName    string
	Currency        string
	ValidUntil      time.Time
	DiscountPct     decimal.Decimal
	Items           []LineItem
	DocumentAmounts
	Status       QuotationStatus
	Notes        string
	SentAt       *time.Time
	AcceptedAt   *time.Time
	RejectedAt   *time.Time
	ExpiredAt    *time.Time
	RejectReason string
}

// NewQuotation creates a new draft quotation
func NewQuotation(number string, customerID uuid.UUID, customerName, currency string, validUntil time.Time, actor uuid.UUID) (*Quotation, error) {
	if number == "" {
		return nil, shared.NewValidationError("quotation_number", "quotation number cannot be empty")
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
	if validUntil.IsZero() {
		return nil, shared.NewValidationError("valid_until", "valid until date is required")
	}

	q := &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		QuotationNumber:   number,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Currency:          currency,
		ValidUntil:        validUntil,
		DiscountPct:       decimal.Zero,
		Items:             make([]LineItem, 0),
		Status:            QuotationStatusDraft,
	}
	q.recalculate()
	q.AddDomainEvent(q.event(EventTypeQuotationCreated, "", actor))
	return q, nil
}

// AddItem appends a line; only allowed in DRAFT
func (q *Quotation) AddItem(in LineItemInput) (*LineItem, error) {
	if err := q.ensureEditable(); err != nil {
		return nil, err
	}
	line, err := NewLineItem(nextLineNo(q.Items), in)
	if err != nil {
		return nil, err
	}
	q.Items = append(q.Items, line)
	if err := q.recalculate(); err != nil {
		return nil, err
	}
	return &q.Items[len(q.Items)-1], nil
}

// UpdateItem replaces the content of a line; only allowed in DRAFT
func (q *Quotation) UpdateItem(lineID uuid.UUID, in LineItemInput) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	for i := range q.Items {
		if q.Items[i].ID == lineID {
			if err := q.Items[i].apply(in); err != nil {
				return err
			}
			return q.recalculate()
		}
	}
	return shared.NewNotFoundError("quotation line", lineID)
}

// RemoveItem removes a line; only allowed in DRAFT
func (q *Quotation) RemoveItem(lineID uuid.UUID) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	for i := range q.Items {
		if q.Items[i].ID == lineID {
			q.Items = append(q.Items[:i], q.Items[i+1:]...)
			return q.recalculate()
		}
	}
	return shared.NewNotFoundError("quotation line", lineID)
}

// SetDiscount sets the document-level discount percent; only allowed in DRAFT
func (q *Quotation) SetDiscount(pct decimal.Decimal) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if err := pricing.ValidateDiscountPct("discount_pct", pct); err != nil {
		return err
	}
	q.DiscountPct = pct
	return q.recalculate()
}

// SetValidUntil moves the validity date; only allowed in DRAFT
func (q *Quotation) SetValidUntil(validUntil time.Time) error {
	if err := q.ensureEditable(); err != nil {
		return err
	}
	if validUntil.IsZero() {
		return shared.NewValidationError("valid_until", "valid until date is required")
	}
	q.ValidUntil = validUntil
	q.Touch()
	return nil
}

// Send moves the quotation from DRAFT to SENT
func (q *Quotation) Send(actor uuid.UUID, now time.Time) error {
	if err := quotationTransitions.check(AggregateTypeQuotation, q.Status, QuotationStatusSent); err != nil {
		return err
	}
	if len(q.Items) == 0 {
		return shared.NewValidationError("items", "cannot send a quotation without lines")
	}
	if !now.Before(q.ValidUntil) {
		return shared.NewValidationError("valid_until", "cannot send a quotation past its validity date")
	}
	q.SentAt = &now
	q.moveTo(QuotationStatusSent, EventTypeQuotationSent, actor, "")
	return nil
}

// Accept moves the quotation from SENT to ACCEPTED while it is still valid
func (q *Quotation) Accept(actor uuid.UUID, now time.Time) error {
	if err := quotationTransitions.check(AggregateTypeQuotation, q.Status, QuotationStatusAccepted); err != nil {
		return err
	}
	if now.After(q.ValidUntil) {
		return shared.NewValidationError("valid_until",
			fmt.Sprintf("quotation %s expired on %s", q.QuotationNumber, q.ValidUntil.Format(time.DateOnly)))
	}
	q.AcceptedAt = &now
	q.moveTo(QuotationStatusAccepted, EventTypeQuotationAccepted, actor, "")
	return nil
}

// Reject moves the quotation from SENT to REJECTED
func (q *Quotation) Reject(reason string, actor uuid.UUID, now time.Time) error {
	if err := quotationTransitions.check(AggregateTypeQuotation, q.Status, QuotationStatusRejected); err != nil {
		return err
	}
	q.RejectedAt = &now
	q.RejectReason = reason
	q.moveTo(QuotationStatusRejected, EventTypeQuotationRejected, actor, reason)
	return nil
}

// Expire moves a SENT quotation whose validity has elapsed to EXPIRED
func (q *Quotation) Expire(actor uuid.UUID, now time.Time) error {
	if err := quotationTransitions.check(AggregateTypeQuotation, q.Status, QuotationStatusExpired); err != nil {
		return err
	}
	if !q.IsPastValidity(now) {
		return shared.NewValidationError("valid_until", "quotation is still valid")
	}
	q.ExpiredAt = &now
	q.moveTo(QuotationStatusExpired, EventTypeQuotationExpired, actor, "validity elapsed")
	return nil
}

// IsPastValidity reports whether the validity date has elapsed at now
func (q *Quotation) IsPastValidity(now time.Time) bool {
	return now.After(q.ValidUntil)
}

func (q *Quotation) ensureEditable() error {
	if q.Status != QuotationStatusDraft {
		return shared.NewValidationError("status",
			fmt.Sprintf("quotation %s is %s; lines can only change while DRAFT", q.QuotationNumber, q.Status))
	}
	return nil
}

func (q *Quotation) moveTo(to QuotationStatus, eventType string, actor uuid.UUID, reason string) {
	from := q.Status
	q.Status = to
	q.Touch()
	q.AddDomainEvent(q.event(eventType, string(from), actor).withReason(reason))
}

func (q *Quotation) event(eventType, from string, actor uuid.UUID) *DocumentEvent {
	return newDocumentEvent(eventType, AggregateTypeQuotation, q.ID, q.QuotationNumber, from, string(q.Status), actor).
		forCustomer(q.CustomerID, q.CustomerName).
		withAmount(q.GrandTotal, q.Currency)
}

func (q *Quotation) recalculate() error {
	amounts, err := computeAmounts(q.Items, q.DiscountPct)
	if err != nil {
		return err
	}
	q.DocumentAmounts = amounts
	q.Touch()
	return nil
}
