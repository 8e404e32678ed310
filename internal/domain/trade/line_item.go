package trade

import (
	"github.com/erp/ordertocash/internal/domain/pricing"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemInput is the editable content of a document line
type LineItemInput struct {
	ItemID      *uuid.UUID
	ItemCode    string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxRatePct  decimal.Decimal
}

// LineItem is a priced line shared by quotations, sales orders and invoices.
// ItemID is nil for free-text lines, which never touch inventory.
type LineItem struct {
	ID             uuid.UUID
	LineNo         int
	ItemID         *uuid.UUID
	ItemCode       string
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountPct    decimal.Decimal
	TaxRatePct     decimal.Decimal
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// NewLineItem validates the input and computes the line totals
func NewLineItem(lineNo int, in LineItemInput) (LineItem, error) {
	l := LineItem{
		ID:     uuid.New(),
		LineNo: lineNo,
	}
	if err := l.apply(in); err != nil {
		return LineItem{}, err
	}
	return l, nil
}

// Input returns the editable content of the line
func (l LineItem) Input() LineItemInput {
	return LineItemInput{
		ItemID:      l.ItemID,
		ItemCode:    l.ItemCode,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		DiscountPct: l.DiscountPct,
		TaxRatePct:  l.TaxRatePct,
	}
}

// PricingInput returns the calculator input for the line
func (l LineItem) PricingInput() pricing.LineInput {
	return pricing.LineInput{
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		DiscountPct: l.DiscountPct,
		TaxRatePct:  l.TaxRatePct,
	}
}

// IsStocked reports whether the line references an inventory item
func (l LineItem) IsStocked() bool {
	return l.ItemID != nil && *l.ItemID != uuid.Nil
}

// WithQuantity returns a copy of the line content for a different quantity
func (l LineItem) WithQuantity(qty decimal.Decimal) LineItemInput {
	in := l.Input()
	in.Quantity = qty
	return in
}

func (l *LineItem) apply(in LineItemInput) error {
	if in.Description == "" {
		return shared.NewValidationError("description", "description cannot be empty")
	}
	if !in.Quantity.IsPositive() {
		return shared.NewValidationError("quantity", "quantity must be positive")
	}
	totals, err := pricing.ComputeLineTotals(pricing.LineInput{
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		DiscountPct: in.DiscountPct,
		TaxRatePct:  in.TaxRatePct,
	})
	if err != nil {
		return err
	}

	l.ItemID = in.ItemID
	l.ItemCode = in.ItemCode
	l.Description = in.Description
	l.Quantity = in.Quantity
	l.UnitPrice = in.UnitPrice
	l.DiscountPct = in.DiscountPct
	l.TaxRatePct = in.TaxRatePct
	l.Subtotal = totals.Subtotal
	l.DiscountAmount = totals.DiscountAmount
	l.TaxAmount = totals.TaxAmount
	l.Total = totals.Total
	return nil
}

// DocumentAmounts are the cached aggregate totals of a document.
// They are always recomputed from the lines, never edited directly.
type DocumentAmounts struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	GrandTotal     decimal.Decimal
}

func computeAmounts(lines []LineItem, discountPct decimal.Decimal) (DocumentAmounts, error) {
	inputs := make([]pricing.LineInput, len(lines))
	for i, l := range lines {
		inputs[i] = l.PricingInput()
	}
	totals, _, err := pricing.ComputeDocumentTotals(inputs, discountPct)
	if err != nil {
		return DocumentAmounts{}, err
	}
	return DocumentAmounts{
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		GrandTotal:     totals.GrandTotal,
	}, nil
}

func nextLineNo(lines []LineItem) int {
	max := 0
	for _, l := range lines {
		if l.LineNo > max {
			max = l.LineNo
		}
	}
	return max + 1
}
