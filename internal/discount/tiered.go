package discount

import (
	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
)

// TieredStrategy applies quantity-keyed breakpoints. Among tiers whose
// MinQuantity is met, the one with the largest MinQuantity applies. Tiers
// with an unrecognized discount type are skipped, never fatal.
type TieredStrategy struct{}

func (TieredStrategy) Type() string { return domain.DiscountTypeTiered }

func (TieredStrategy) Calculate(price decimal.Decimal, cfg domain.DiscountConfig, ctx Context) Result {
	tier, ok := selectTier(cfg.Tiers, ctx.Quantity)
	if !ok {
		return notApplied(price)
	}

	if cfg.ApplyTo == domain.ApplyOrderTotal && ctx.Quantity > 0 {
		// One discount against the order total, then the post-discount
		// total divided back across units. The per-unit price may carry
		// a rounding remainder; that is inherent to this mode.
		qty := decimal.NewFromInt(int64(ctx.Quantity))
		total := price.Mul(qty)
		totalAmount := breakpointAmount(total, tier.DiscountType, tier.DiscountValue)
		if totalAmount.IsNegative() {
			totalAmount = decimal.Zero
		}
		if totalAmount.GreaterThan(total) {
			totalAmount = total
		}
		unitAmount := totalAmount.Div(qty)
		return newResult(price, unitAmount, map[string]any{
			"tier_min_quantity": tier.MinQuantity,
			"apply_to":          domain.ApplyOrderTotal,
			"order_total":       total.Round(2),
			"total_discount":    totalAmount.Round(2),
		})
	}

	amount := breakpointAmount(price, tier.DiscountType, tier.DiscountValue)
	return newResult(price, amount, map[string]any{
		"tier_min_quantity": tier.MinQuantity,
		"apply_to":          domain.ApplyPerItem,
	})
}

// selectTier picks the highest qualifying breakpoint. Malformed tiers are
// excluded from the scan.
func selectTier(tiers []domain.Tier, quantity int) (domain.Tier, bool) {
	var best domain.Tier
	found := false
	for _, t := range tiers {
		if !validBreakpointType(t.DiscountType) {
			continue
		}
		if t.MinQuantity > quantity {
			continue
		}
		if !found || t.MinQuantity > best.MinQuantity {
			best = t
			found = true
		}
	}
	return best, found
}
