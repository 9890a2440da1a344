package discount

import (
	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
)

// ThresholdStrategy applies spend-keyed breakpoints with the same
// highest-qualifying selection as tiers. The discount applies to the unit
// price passed in, not to the spend figure that unlocked it.
type ThresholdStrategy struct{}

func (ThresholdStrategy) Type() string { return domain.DiscountTypeSpendThreshold }

func (ThresholdStrategy) Calculate(price decimal.Decimal, cfg domain.DiscountConfig, ctx Context) Result {
	threshold, ok := selectThreshold(cfg.Thresholds, ctx.CartTotal)
	if !ok {
		return notApplied(price)
	}

	amount := breakpointAmount(price, threshold.DiscountType, threshold.DiscountValue)
	return newResult(price, amount, map[string]any{
		"threshold_spend_amount": threshold.SpendAmount,
	})
}

func selectThreshold(thresholds []domain.Threshold, spend decimal.Decimal) (domain.Threshold, bool) {
	var best domain.Threshold
	found := false
	for _, t := range thresholds {
		if !validBreakpointType(t.DiscountType) {
			continue
		}
		if t.SpendAmount.GreaterThan(spend) {
			continue
		}
		if !found || t.SpendAmount.GreaterThan(best.SpendAmount) {
			best = t
			found = true
		}
	}
	return best, found
}
