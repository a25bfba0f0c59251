package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPriceComputesLineAndDocumentTotals(t *testing.T) {
	totals, err := Price([]LineInput{
		{ProductID: 7, Quantity: 3, UnitAmount: dec("10.00")},
		{ProductID: 9, Quantity: 1, UnitAmount: dec("50.00"), Discount: dec("5.00")},
	}, nil)
	require.NoError(t, err)

	require.Len(t, totals.Lines, 2)
	require.True(t, totals.Lines[0].Total.Equal(dec("30.00")), "got %s", totals.Lines[0].Total)
	require.True(t, totals.Lines[1].Total.Equal(dec("45.00")), "got %s", totals.Lines[1].Total)
	require.True(t, totals.Subtotal.Equal(dec("75.00")), "got %s", totals.Subtotal)
	require.True(t, totals.TotalAmount.Equal(totals.Subtotal))
}

func TestPriceRejectsEmptyBatch(t *testing.T) {
	_, err := Price(nil, nil)
	var verr *shared.ValidationErrors
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "lines")
}

func TestPriceCollectsEveryProblem(t *testing.T) {
	_, err := Price([]LineInput{
		{ProductID: 0, Quantity: 0, UnitAmount: dec("0")},
		{ProductID: 3, Quantity: 2, UnitAmount: dec("4.00"), Discount: dec("-1")},
	}, nil)

	var verr *shared.ValidationErrors
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "lines[0].product_id")
	require.Contains(t, verr.Fields, "lines[0].quantity")
	require.Contains(t, verr.Fields, "lines[0].unit_amount")
	require.Contains(t, verr.Fields, "lines[1].discount")
}

func TestPriceRejectsDiscountAboveLineAmount(t *testing.T) {
	_, err := Price([]LineInput{
		{ProductID: 1, Quantity: 2, UnitAmount: dec("3.00"), Discount: dec("6.01")},
	}, nil)

	var verr *shared.ValidationErrors
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "lines[0].discount")

	// a discount equal to the line amount is still valid, yielding a zero line
	totals, err := Price([]LineInput{
		{ProductID: 1, Quantity: 2, UnitAmount: dec("3.00"), Discount: dec("6.00")},
	}, nil)
	require.NoError(t, err)
	require.True(t, totals.Subtotal.IsZero())
}

type fixedFee struct{ fee decimal.Decimal }

func (f fixedFee) Apply(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(f.fee)
}

func TestPriceAppliesAdjuster(t *testing.T) {
	totals, err := Price([]LineInput{
		{ProductID: 1, Quantity: 1, UnitAmount: dec("100.00")},
	}, fixedFee{fee: dec("7.50")})
	require.NoError(t, err)
	require.True(t, totals.Subtotal.Equal(dec("100.00")))
	require.True(t, totals.TotalAmount.Equal(dec("107.50")))
}
