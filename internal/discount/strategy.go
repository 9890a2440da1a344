// Package discount implements the five discount calculation strategies
// behind one shared contract. Every calculation is a pure function of the
// unit price, the campaign's discount config, and the point-in-time context;
// strategies never mutate their inputs and produce a fresh Result per call.
package discount

import (
	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
)

// Context carries the point-in-time purchase facts a strategy may need.
type Context struct {
	// Quantity of units being purchased. Drives tiered and BOGO math.
	Quantity int `json:"quantity"`
	// CartTotal is the cumulative spend. Drives spend-threshold breakpoints.
	CartTotal decimal.Decimal `json:"cart_total"`
}

// Result is the outcome of one discount calculation. Monetary fields are
// rounded to 2 decimal places at construction; intermediate math stays at
// full precision.
type Result struct {
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Applied         bool            `json:"applied"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

// Strategy is the shared contract of the five calculators.
type Strategy interface {
	Type() string
	Calculate(price decimal.Decimal, cfg domain.DiscountConfig, ctx Context) Result
}

var oneHundred = decimal.NewFromInt(100)

// newResult clamps the raw discount amount into [0, price] and rounds the
// monetary fields half-up to 2 decimal places. Rounding happens here only,
// never on intermediate fractions.
func newResult(price, amount decimal.Decimal, metadata map[string]any) Result {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if amount.GreaterThan(price) {
		amount = price
	}
	return Result{
		OriginalPrice:   price.Round(2),
		DiscountedPrice: price.Sub(amount).Round(2),
		DiscountAmount:  amount.Round(2),
		Applied:         true,
		Metadata:        metadata,
	}
}

// notApplied returns the price unchanged.
func notApplied(price decimal.Decimal) Result {
	rounded := price.Round(2)
	return Result{
		OriginalPrice:   rounded,
		DiscountedPrice: rounded,
		DiscountAmount:  decimal.Zero,
		Applied:         false,
	}
}

// breakpointAmount resolves a tier or threshold discount value against a
// base price. Unknown discount types yield zero; the caller treats such
// breakpoints as malformed and skips them before getting here.
func breakpointAmount(base decimal.Decimal, discountType string, discountValue decimal.Decimal) decimal.Decimal {
	switch discountType {
	case domain.DiscountTypePercentage:
		return base.Mul(discountValue).Div(oneHundred)
	case domain.DiscountTypeFixed:
		return discountValue
	}
	return decimal.Zero
}

// validBreakpointType reports whether a tier/threshold discount type is one
// a breakpoint may carry.
func validBreakpointType(discountType string) bool {
	return discountType == domain.DiscountTypePercentage || discountType == domain.DiscountTypeFixed
}
