// Package pricing computes line and document totals for every trade document.
//
// All amounts are rounded to two decimal places, half away from zero. The line
// total is computed in one step from the unrounded inputs so that it satisfies
//
//	total = round(qty*price*(1-discount/100)*(1+tax/100), 2)
//
// exactly; the tax amount absorbs the residue left by rounding the subtotal and
// discount separately.
package pricing

import (
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places for monetary amounts
const MoneyScale int32 = 2

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Tolerance is the largest difference treated as equal when comparing
// independently computed money amounts.
var Tolerance = decimal.NewFromFloat(0.01)

// LineInput is the priced content of one line
type LineInput struct {
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxRatePct  decimal.Decimal
}

// LineTotals are the derived amounts for one line
type LineTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// DocumentTotals are the aggregate amounts for a document
type DocumentTotals struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	LineDiscountAmount  decimal.Decimal `json:"line_discount_amount"`
	DocumentDiscountPct decimal.Decimal `json:"document_discount_pct"`
	DocumentDiscount    decimal.Decimal `json:"document_discount_amount"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TaxableAmount       decimal.Decimal `json:"taxable_amount"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
}

// Round rounds a monetary amount to MoneyScale places
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// WithinTolerance reports whether a and b differ by at most Tolerance
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// Validate checks the ranges of a line's inputs
func (in LineInput) Validate() error {
	if in.Quantity.IsNegative() {
		return shared.NewValidationError("quantity", "quantity cannot be negative")
	}
	if in.UnitPrice.IsNegative() {
		return shared.NewValidationError("unit_price", "unit price cannot be negative")
	}
	if err := ValidateDiscountPct("discount_pct", in.DiscountPct); err != nil {
		return err
	}
	if in.TaxRatePct.IsNegative() {
		return shared.NewValidationError("tax_rate_pct", "tax rate cannot be negative")
	}
	return nil
}

// ValidateDiscountPct checks that a discount percentage lies in [0, 100]
func ValidateDiscountPct(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return shared.NewValidationError(field, "discount percent must be between 0 and 100")
	}
	return nil
}

// ComputeLineTotals derives subtotal, discount, tax and total for one line
func ComputeLineTotals(in LineInput) (LineTotals, error) {
	if err := in.Validate(); err != nil {
		return LineTotals{}, err
	}

	gross := in.Quantity.Mul(in.UnitPrice)
	discountFactor := one.Sub(in.DiscountPct.Div(hundred))
	taxFactor := one.Add(in.TaxRatePct.Div(hundred))

	subtotal := Round(gross)
	discount := Round(gross.Mul(in.DiscountPct).Div(hundred))
	taxable := subtotal.Sub(discount)
	total := Round(gross.Mul(discountFactor).Mul(taxFactor))

	return LineTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		TaxAmount:      total.Sub(taxable),
		Total:          total,
	}, nil
}

// ComputeDocumentTotals aggregates the lines of a document.
//
// Line discounts are applied first. The document discount percent then
// applies to the post-line-discount, pre-tax subtotal, and tax shrinks by the
// same factor because it is levied on the discounted amount. With a zero
// document discount the grand total equals the sum of line totals.
func ComputeDocumentTotals(lines []LineInput, documentDiscountPct decimal.Decimal) (DocumentTotals, []LineTotals, error) {
	if err := ValidateDiscountPct("discount_pct", documentDiscountPct); err != nil {
		return DocumentTotals{}, nil, err
	}

	perLine := make([]LineTotals, len(lines))
	subtotal := decimal.Zero
	lineDiscount := decimal.Zero
	taxable := decimal.Zero
	tax := decimal.Zero
	for i, in := range lines {
		lt, err := ComputeLineTotals(in)
		if err != nil {
			return DocumentTotals{}, nil, err
		}
		perLine[i] = lt
		subtotal = subtotal.Add(lt.Subtotal)
		lineDiscount = lineDiscount.Add(lt.DiscountAmount)
		taxable = taxable.Add(lt.TaxableAmount)
		tax = tax.Add(lt.TaxAmount)
	}

	docDiscount := Round(taxable.Mul(documentDiscountPct).Div(hundred))
	if !documentDiscountPct.IsZero() {
		tax = Round(tax.Mul(one.Sub(documentDiscountPct.Div(hundred))))
	}
	taxable = taxable.Sub(docDiscount)

	return DocumentTotals{
		Subtotal:            subtotal,
		LineDiscountAmount:  lineDiscount,
		DocumentDiscountPct: documentDiscountPct,
		DocumentDiscount:    docDiscount,
		DiscountAmount:      lineDiscount.Add(docDiscount),
		TaxableAmount:       taxable,
		TaxAmount:           tax,
		GrandTotal:          taxable.Add(tax),
	}, perLine, nil
}
