package discount

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/domain"
	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
)

// Calculator dispatches to the strategy matching the config's discount type.
type Calculator struct {
	strategies map[string]Strategy
}

// NewCalculator registers the five built-in strategies.
func NewCalculator() *Calculator {
	c := &Calculator{strategies: make(map[string]Strategy)}
	for _, s := range []Strategy{
		PercentageStrategy{},
		FixedStrategy{},
		TieredStrategy{},
		ThresholdStrategy{},
		BOGOStrategy{},
	} {
		c.strategies[s.Type()] = s
	}
	return c
}

// Calculate runs the strategy for cfg.Type. An unknown discount type is a
// caller error, not a silent no-op: configs reach this point only through
// the validated authoring surface or an explicit API request.
func (c *Calculator) Calculate(price decimal.Decimal, cfg domain.DiscountConfig, ctx Context) (Result, error) {
	s, ok := c.strategies[cfg.Type]
	if !ok {
		return Result{}, apperrors.InvalidInput(fmt.Sprintf("unknown discount type %q", cfg.Type))
	}
	if price.IsNegative() {
		return Result{}, apperrors.InvalidInput("price must not be negative")
	}
	return s.Calculate(price, cfg, ctx), nil
}
