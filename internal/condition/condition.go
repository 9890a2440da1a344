// Package condition implements the rule-matching engine: normalizing
// heterogeneous authoring-surface condition records into one canonical form
// and filtering product sets against them.
//
// Runtime evaluation is deliberately fail-open: a malformed condition is
// skipped so one bad filter can never hide an entire catalog. Authoring-time
// validation (Validate) is the strict counterpart and is never invoked
// implicitly during evaluation.
package condition

// Operator identifies a comparison test.
type Operator string

const (
	OpEquals           Operator = "equals"
	OpNotEquals        Operator = "not_equals"
	OpGreaterThan      Operator = "greater_than"
	OpGreaterThanEqual Operator = "greater_than_equal"
	OpLessThan         Operator = "less_than"
	OpLessThanEqual    Operator = "less_than_equal"
	OpBetween          Operator = "between"
	OpNotBetween       Operator = "not_between"
	OpContains         Operator = "contains"
	OpNotContains      Operator = "not_contains"
	OpStartsWith       Operator = "starts_with"
	OpEndsWith         Operator = "ends_with"
	OpIn               Operator = "in"
	OpNotIn            Operator = "not_in"
)

// Mode decides whether matching products are kept or removed.
type Mode string

const (
	ModeInclude Mode = "include"
	ModeExclude Mode = "exclude"
)

// Logic combines multiple conditions.
type Logic string

const (
	// LogicAll keeps a product only if every condition holds.
	LogicAll Logic = "all"
	// LogicAny keeps a product if at least one condition holds.
	LogicAny Logic = "any"
)

// Condition is the canonical evaluated form. All boundary shapes normalize
// into this before any evaluation logic runs.
type Condition struct {
	Property string   `json:"property"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
	Value2   any      `json:"value2,omitempty"`
	Values   []any    `json:"values,omitempty"`
	Mode     Mode     `json:"mode"`
}

// knownOperators is the dispatch set; anything else is malformed.
var knownOperators = map[Operator]struct{}{
	OpEquals: {}, OpNotEquals: {},
	OpGreaterThan: {}, OpGreaterThanEqual: {},
	OpLessThan: {}, OpLessThanEqual: {},
	OpBetween: {}, OpNotBetween: {},
	OpContains: {}, OpNotContains: {},
	OpStartsWith: {}, OpEndsWith: {},
	OpIn: {}, OpNotIn: {},
}

// KnownOperator reports whether op is one of the 14 supported operators.
func KnownOperator(op Operator) bool {
	_, ok := knownOperators[op]
	return ok
}

// requiresSecondOperand reports whether the operator needs Value2.
func requiresSecondOperand(op Operator) bool {
	return op == OpBetween || op == OpNotBetween
}

// Product properties the engine can evaluate, with their value kinds.
const (
	PropPrice    = "price"
	PropStock    = "stock"
	PropSKU      = "sku"
	PropName     = "name"
	PropCategory = "category"
)

// numericProperties drive the strict authoring-time type check.
var numericProperties = map[string]struct{}{
	PropPrice: {},
	PropStock: {},
}

// KnownProperty reports whether the engine can resolve the property against
// a catalog product.
func KnownProperty(property string) bool {
	switch property {
	case PropPrice, PropStock, PropSKU, PropName, PropCategory:
		return true
	}
	return false
}

// NumericProperty reports whether the property carries a numeric value.
func NumericProperty(property string) bool {
	_, ok := numericProperties[property]
	return ok
}
