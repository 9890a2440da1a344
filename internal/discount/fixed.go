package discount

import (
	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
)

// FixedStrategy subtracts a flat amount from the unit price, clamped so the
// result never goes below zero.
type FixedStrategy struct{}

func (FixedStrategy) Type() string { return domain.DiscountTypeFixed }

func (FixedStrategy) Calculate(price decimal.Decimal, cfg domain.DiscountConfig, _ Context) Result {
	return newResult(price, cfg.Value, map[string]any{
		"fixed_amount": cfg.Value,
	})
}
