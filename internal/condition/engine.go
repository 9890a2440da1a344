package condition

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/catalog"
)

// Epsilon is the equality tolerance for numeric comparisons. Currency values
// arrive as binary floats from some callers; exact equality would produce
// false negatives.
const Epsilon = 0.001

// Engine evaluates conditions against catalog products.
type Engine struct {
	catalog catalog.Provider
}

// NewEngine creates a condition engine backed by the given catalog.
func NewEngine(provider catalog.Provider) *Engine {
	return &Engine{catalog: provider}
}

// ApplyRaw normalizes raw boundary records and applies them. This is the
// entry point for selection policies that carry authoring-surface conditions.
func (e *Engine) ApplyRaw(ctx context.Context, productIDs []string, raw []map[string]any, logic Logic) ([]string, error) {
	return e.Apply(ctx, productIDs, Normalize(raw), logic)
}

// Apply filters productIDs down to the subset matching the conditions under
// the given combination logic. An empty conditions list is the identity; an
// empty input set short-circuits to empty. Conditions that cannot be
// evaluated (unknown property, missing attribute) are skipped.
func (e *Engine) Apply(ctx context.Context, productIDs []string, conditions []Condition, logic Logic) ([]string, error) {
	if len(productIDs) == 0 {
		return []string{}, nil
	}
	if len(conditions) == 0 {
		return productIDs, nil
	}
	if logic != LogicAny {
		logic = LogicAll
	}

	products, err := e.catalog.ProductsByID(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products for condition evaluation: %w", err)
	}

	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if e.matches(p, conditions, logic) {
			out = append(out, id)
		}
	}
	return out, nil
}

// matches evaluates all conditions for one product. Unevaluable conditions
// are treated as absent.
func (e *Engine) matches(p catalog.Product, conditions []Condition, logic Logic) bool {
	evaluated := 0
	for _, c := range conditions {
		result, ok := e.evaluate(p, c)
		if !ok {
			continue
		}
		evaluated++

		if logic == LogicAny {
			if result {
				return true
			}
			continue
		}
		if !result {
			return false
		}
	}

	if evaluated == 0 {
		// Every condition was skipped: behave as if the list were empty.
		return true
	}
	return logic != LogicAny
}

// evaluate runs one condition against one product. The boolean pair is
// (matched, evaluable). Exclude mode is the negation of the include
// predicate, not a separate code path.
func (e *Engine) evaluate(p catalog.Product, c Condition) (bool, bool) {
	attr, ok := attributeValue(p, c.Property)
	if !ok {
		return false, false
	}

	matched, ok := predicate(attr, c)
	if !ok {
		return false, false
	}

	if c.Mode == ModeExclude {
		matched = !matched
	}
	return matched, true
}

// attributeValue resolves a property name to the product attribute.
func attributeValue(p catalog.Product, property string) (any, bool) {
	switch property {
	case PropPrice:
		return p.Price, true
	case PropStock:
		return p.Stock, true
	case PropSKU:
		return p.SKU, true
	case PropName:
		return p.Name, true
	case PropCategory:
		return p.CategoryIDs, true
	}
	return nil, false
}

// predicate applies the include-mode operator test. Returns (matched, evaluable).
func predicate(attr any, c Condition) (bool, bool) {
	switch c.Operator {
	case OpEquals, OpNotEquals:
		matched, ok := equals(attr, c.Value)
		if !ok {
			return false, false
		}
		if c.Operator == OpNotEquals {
			matched = !matched
		}
		return matched, true

	case OpGreaterThan, OpGreaterThanEqual, OpLessThan, OpLessThanEqual:
		return compareNumeric(attr, c)

	case OpBetween, OpNotBetween:
		v, ok1 := toFloat(attr)
		lo, ok2 := toFloat(c.Value)
		hi, ok3 := toFloat(c.Value2)
		if !ok1 || !ok2 || !ok3 {
			return false, false
		}
		inside := v >= lo-Epsilon && v <= hi+Epsilon
		if c.Operator == OpNotBetween {
			inside = !inside
		}
		return inside, true

	case OpContains, OpNotContains:
		matched, ok := contains(attr, c.Value)
		if !ok {
			return false, false
		}
		if c.Operator == OpNotContains {
			matched = !matched
		}
		return matched, true

	case OpStartsWith:
		s, v, ok := stringPair(attr, c.Value)
		if !ok {
			return false, false
		}
		return strings.HasPrefix(s, v), true

	case OpEndsWith:
		s, v, ok := stringPair(attr, c.Value)
		if !ok {
			return false, false
		}
		return strings.HasSuffix(s, v), true

	case OpIn, OpNotIn:
		matched, ok := membership(attr, c)
		if !ok {
			return false, false
		}
		if c.Operator == OpNotIn {
			matched = !matched
		}
		return matched, true
	}
	return false, false
}

// equals compares tolerantly: numbers within Epsilon, strings
// case-insensitively, list attributes by any-element match.
func equals(attr, operand any) (bool, bool) {
	if list, ok := attr.([]string); ok {
		want, ok := toString(operand)
		if !ok {
			return false, false
		}
		for _, item := range list {
			if strings.EqualFold(item, want) {
				return true, true
			}
		}
		return false, true
	}

	if a, okA := toFloat(attr); okA {
		if b, okB := toFloat(operand); okB {
			return math.Abs(a-b) <= Epsilon, true
		}
	}

	a, okA := toString(attr)
	b, okB := toString(operand)
	if !okA || !okB {
		return false, false
	}
	return strings.EqualFold(a, b), true
}

func compareNumeric(attr any, c Condition) (bool, bool) {
	a, ok1 := toFloat(attr)
	b, ok2 := toFloat(c.Value)
	if !ok1 || !ok2 {
		return false, false
	}
	switch c.Operator {
	case OpGreaterThan:
		return a > b+Epsilon, true
	case OpGreaterThanEqual:
		return a >= b-Epsilon, true
	case OpLessThan:
		return a < b-Epsilon, true
	case OpLessThanEqual:
		return a <= b+Epsilon, true
	}
	return false, false
}

// contains is substring match for strings and membership for list attributes.
func contains(attr, operand any) (bool, bool) {
	want, ok := toString(operand)
	if !ok {
		return false, false
	}
	if list, ok := attr.([]string); ok {
		for _, item := range list {
			if strings.EqualFold(item, want) {
				return true, true
			}
		}
		return false, true
	}
	s, ok := toString(attr)
	if !ok {
		return false, false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(want)), true
}

// membership tests the attribute against the condition's operand set.
func membership(attr any, c Condition) (bool, bool) {
	operands := c.Values
	if len(operands) == 0 {
		if s, ok := c.Value.(string); ok {
			for _, part := range strings.Split(s, ",") {
				operands = append(operands, strings.TrimSpace(part))
			}
		} else if c.Value != nil {
			operands = []any{c.Value}
		}
	}
	if len(operands) == 0 {
		return false, false
	}

	// List attributes match when the intersection is non-empty.
	if list, ok := attr.([]string); ok {
		for _, item := range list {
			for _, op := range operands {
				if matched, ok := equals(item, op); ok && matched {
					return true, true
				}
			}
		}
		return false, true
	}

	for _, op := range operands {
		if matched, ok := equals(attr, op); ok && matched {
			return true, true
		}
	}
	return false, true
}

func stringPair(attr, operand any) (string, string, bool) {
	s, ok1 := toString(attr)
	v, ok2 := toString(operand)
	if !ok1 || !ok2 {
		return "", "", false
	}
	return strings.ToLower(s), strings.ToLower(v), true
}

// toFloat coerces numeric-ish values, including numeric strings and
// decimals, to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case decimal.Decimal:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	}
	return "", false
}
