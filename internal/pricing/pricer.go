// Package pricing computes line and document totals for commercial
// documents. Amounts are decimals end to end; float arithmetic never touches
// money here.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// LineInput is one requested document line before pricing.
type LineInput struct {
	ProductID  int64
	Quantity   int64
	UnitAmount decimal.Decimal
	Discount   decimal.Decimal
	Note       string
}

// PricedLine carries the computed line total alongside the input.
type PricedLine struct {
	LineInput
	Total decimal.Decimal
}

// Totals is the priced document: every line plus the aggregates.
type Totals struct {
	Lines       []PricedLine
	Subtotal    decimal.Decimal
	TotalAmount decimal.Decimal
}

// Adjuster turns a subtotal into the document total. The seam exists so tax
// and shipping can be layered in without touching line pricing.
type Adjuster interface {
	Apply(subtotal decimal.Decimal) decimal.Decimal
}

// FlatAdjuster applies no adjustment: total equals subtotal.
type FlatAdjuster struct{}

// Apply returns the subtotal unchanged.
func (FlatAdjuster) Apply(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal
}

// Price validates the whole batch and computes totals. Validation collects
// every problem before returning; a single bad line rejects the batch.
func Price(lines []LineInput, adjuster Adjuster) (Totals, error) {
	verr := shared.NewValidationErrors()
	if len(lines) == 0 {
		verr.Add("lines", "a document requires at least one line item")
		return Totals{}, verr
	}

	priced := make([]PricedLine, 0, len(lines))
	subtotal := decimal.Zero
	for i, line := range lines {
		field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }
		if line.ProductID <= 0 {
			verr.Add(field("product_id"), "product is required")
		}
		if line.Quantity <= 0 {
			verr.Add(field("quantity"), "quantity must be greater than zero")
		}
		if line.UnitAmount.LessThanOrEqual(decimal.Zero) {
			verr.Add(field("unit_amount"), "unit amount must be greater than zero")
		}
		gross := line.UnitAmount.Mul(decimal.NewFromInt(line.Quantity))
		if line.Discount.IsNegative() {
			verr.Add(field("discount"), "discount cannot be negative")
		} else if line.Discount.GreaterThan(gross) {
			verr.Addf(field("discount"), "discount %s exceeds line amount %s", line.Discount, gross)
		}

		total := gross.Sub(line.Discount)
		priced = append(priced, PricedLine{LineInput: line, Total: total})
		subtotal = subtotal.Add(total)
	}
	if !verr.Empty() {
		return Totals{}, verr
	}

	if adjuster == nil {
		adjuster = FlatAdjuster{}
	}
	return Totals{
		Lines:       priced,
		Subtotal:    subtotal,
		TotalAmount: adjuster.Apply(subtotal),
	}, nil
}
