package discount

import (
	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
)

// PercentageStrategy discounts the unit price by a percentage (0-100).
// Out-of-range values are an authoring-surface validation concern; the
// clamp in newResult still guarantees the price floor.
type PercentageStrategy struct{}

func (PercentageStrategy) Type() string { return domain.DiscountTypePercentage }

func (PercentageStrategy) Calculate(price decimal.Decimal, cfg domain.DiscountConfig, _ Context) Result {
	amount := price.Mul(cfg.Value).Div(oneHundred)
	return newResult(price, amount, map[string]any{
		"percentage": cfg.Value,
	})
}
