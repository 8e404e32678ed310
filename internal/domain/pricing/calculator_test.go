package pricing

import (
	"testing"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeLineTotals_ReferenceLine(t *testing.T) {
	lt, err := ComputeLineTotals(LineInput{
		Quantity:    d("10"),
		UnitPrice:   d("100"),
		DiscountPct: d("5"),
		TaxRatePct:  d("10"),
	})
	require.NoError(t, err)

	assert.True(t, lt.Subtotal.Equal(d("1000")), "subtotal %s", lt.Subtotal)
	assert.True(t, lt.DiscountAmount.Equal(d("50")), "discount %s", lt.DiscountAmount)
	assert.True(t, lt.TaxAmount.Equal(d("95")), "tax %s", lt.TaxAmount)
	assert.True(t, lt.Total.Equal(d("1045")), "total %s", lt.Total)
}

func TestComputeLineTotals_TotalMatchesFormula(t *testing.T) {
	cases := []LineInput{
		{Quantity: d("3"), UnitPrice: d("19.99"), DiscountPct: d("12.5"), TaxRatePct: d("7.25")},
		{Quantity: d("1.5"), UnitPrice: d("0.333"), DiscountPct: d("0"), TaxRatePct: d("19")},
		{Quantity: d("7"), UnitPrice: d("14.285"), DiscountPct: d("33.333"), TaxRatePct: d("0")},
		{Quantity: d("0"), UnitPrice: d("10"), DiscountPct: d("0"), TaxRatePct: d("10")},
		{Quantity: d("2"), UnitPrice: d("50"), DiscountPct: d("100"), TaxRatePct: d("10")},
	}
	for _, in := range cases {
		lt, err := ComputeLineTotals(in)
		require.NoError(t, err)

		want := in.Quantity.Mul(in.UnitPrice).
			Mul(decimal.NewFromInt(1).Sub(in.DiscountPct.Div(decimal.NewFromInt(100)))).
			Mul(decimal.NewFromInt(1).Add(in.TaxRatePct.Div(decimal.NewFromInt(100)))).
			Round(2)
		assert.True(t, lt.Total.Equal(want), "got %s want %s", lt.Total, want)
		assert.True(t, lt.TaxableAmount.Add(lt.TaxAmount).Equal(lt.Total))
	}
}

// Tax takes the rounding residue so the line total stays exact: taxing the
// rounded taxable amount would give 0.48 and a total of 10.03.
func TestComputeLineTotals_TaxAbsorbsRoundingResidue(t *testing.T) {
	lt, err := ComputeLineTotals(LineInput{
		Quantity:    d("1"),
		UnitPrice:   d("10.05"),
		DiscountPct: d("5"),
		TaxRatePct:  d("5"),
	})
	require.NoError(t, err)

	assert.True(t, lt.DiscountAmount.Equal(d("0.50")), "discount %s", lt.DiscountAmount)
	assert.True(t, lt.TaxableAmount.Equal(d("9.55")), "taxable %s", lt.TaxableAmount)
	assert.True(t, lt.Total.Equal(d("10.02")), "total %s", lt.Total)
	assert.True(t, lt.TaxAmount.Equal(d("0.47")), "tax %s", lt.TaxAmount)

	naiveTax := Round(lt.TaxableAmount.Mul(d("0.05")))
	assert.True(t, naiveTax.Equal(d("0.48")), "naive tax %s", naiveTax)
}

func TestComputeLineTotals_Idempotent(t *testing.T) {
	in := LineInput{Quantity: d("4"), UnitPrice: d("12.34"), DiscountPct: d("2.5"), TaxRatePct: d("8")}
	a, err := ComputeLineTotals(in)
	require.NoError(t, err)
	b, err := ComputeLineTotals(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeLineTotals_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   LineInput
	}{
		{"negative quantity", LineInput{Quantity: d("-1"), UnitPrice: d("1")}},
		{"negative price", LineInput{Quantity: d("1"), UnitPrice: d("-1")}},
		{"discount above 100", LineInput{Quantity: d("1"), UnitPrice: d("1"), DiscountPct: d("100.01")}},
		{"negative discount", LineInput{Quantity: d("1"), UnitPrice: d("1"), DiscountPct: d("-5")}},
		{"negative tax", LineInput{Quantity: d("1"), UnitPrice: d("1"), TaxRatePct: d("-1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeLineTotals(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestComputeDocumentTotals_SumOfLinesWithoutDocumentDiscount(t *testing.T) {
	lines := []LineInput{
		{Quantity: d("10"), UnitPrice: d("100"), DiscountPct: d("5"), TaxRatePct: d("10")},
		{Quantity: d("3"), UnitPrice: d("19.99"), DiscountPct: d("12.5"), TaxRatePct: d("7.25")},
		{Quantity: d("1"), UnitPrice: d("0.07"), DiscountPct: d("0"), TaxRatePct: d("20")},
	}
	totals, perLine, err := ComputeDocumentTotals(lines, decimal.Zero)
	require.NoError(t, err)
	require.Len(t, perLine, 3)

	sum := decimal.Zero
	for _, lt := range perLine {
		sum = sum.Add(lt.Total)
	}
	assert.True(t, totals.GrandTotal.Equal(sum), "grand %s sum %s", totals.GrandTotal, sum)
	assert.True(t, totals.DocumentDiscount.IsZero())
}

func TestComputeDocumentTotals_DocumentDiscountAfterLineDiscount(t *testing.T) {
	lines := []LineInput{
		{Quantity: d("10"), UnitPrice: d("100"), DiscountPct: d("5"), TaxRatePct: d("10")},
	}
	totals, _, err := ComputeDocumentTotals(lines, d("10"))
	require.NoError(t, err)

	// 950 taxable after line discount, 10% document discount = 95
	assert.True(t, totals.DocumentDiscount.Equal(d("95")))
	assert.True(t, totals.DiscountAmount.Equal(d("145")))
	assert.True(t, totals.TaxableAmount.Equal(d("855")))
	assert.True(t, totals.TaxAmount.Equal(d("85.5")))
	assert.True(t, totals.GrandTotal.Equal(d("940.5")))
}

func TestComputeDocumentTotals_RejectsInvalidDocumentDiscount(t *testing.T) {
	_, _, err := ComputeDocumentTotals(nil, d("120"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(d("10.00"), d("10.01")))
	assert.False(t, WithinTolerance(d("10.00"), d("10.02")))
}
