package discount

import (
	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
)

// BOGOStrategy implements buy-X-get-Y offers. For every complete group of
// buy_quantity+get_quantity units, get_quantity units are discounted by
// discount_percent. The result is expressed per unit of the full quantity,
// so the discounted price is the effective average unit price.
type BOGOStrategy struct{}

func (BOGOStrategy) Type() string { return domain.DiscountTypeBOGO }

func (BOGOStrategy) Calculate(price decimal.Decimal, cfg domain.DiscountConfig, ctx Context) Result {
	if cfg.BuyQuantity <= 0 || cfg.GetQuantity <= 0 || ctx.Quantity <= 0 {
		return notApplied(price)
	}

	groupSize := cfg.BuyQuantity + cfg.GetQuantity
	groups := ctx.Quantity / groupSize
	if groups == 0 {
		return notApplied(price)
	}
	discountedUnits := groups * cfg.GetQuantity

	// A zero percent means the classic free offer.
	percent := cfg.DiscountPercent
	if percent.IsZero() {
		percent = oneHundred
	}

	perDiscountedUnit := price.Mul(percent).Div(oneHundred)
	totalDiscount := perDiscountedUnit.Mul(decimal.NewFromInt(int64(discountedUnits)))
	unitAmount := totalDiscount.Div(decimal.NewFromInt(int64(ctx.Quantity)))

	return newResult(price, unitAmount, map[string]any{
		"buy_quantity":     cfg.BuyQuantity,
		"get_quantity":     cfg.GetQuantity,
		"discount_percent": percent,
		"discounted_units": discountedUnits,
		"total_discount":   totalDiscount.Round(2),
	})
}
