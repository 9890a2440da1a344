package condition

import (
	"html"
	"strings"
)

// The authoring surface produces three synonymous record shapes for the same
// concept: the property may arrive under "property", "type", or
// "condition_type", and the operand under "value" or "values". Operators may
// additionally arrive HTML-entity-encoded ("&lt;=") or as comparison symbols.
// Normalize folds all of them into the canonical Condition before any
// evaluation logic runs, dropping records too malformed to interpret.

// propertyKeys in lookup order; the first present wins.
var propertyKeys = []string{"property", "type", "condition_type"}

// symbolOperators maps decoded comparison symbols to canonical operators.
var symbolOperators = map[string]Operator{
	"=":  OpEquals,
	"==": OpEquals,
	"!=": OpNotEquals,
	"<>": OpNotEquals,
	">":  OpGreaterThan,
	">=": OpGreaterThanEqual,
	"<":  OpLessThan,
	"<=": OpLessThanEqual,
}

// Normalize converts raw boundary records into canonical conditions.
// Records missing a property or operator, or using an unknown operator, or a
// between/not_between missing its second operand, are dropped; evaluation
// proceeds as if they were absent.
func Normalize(raw []map[string]any) []Condition {
	out := make([]Condition, 0, len(raw))
	for _, record := range raw {
		if c, ok := normalizeOne(record); ok {
			out = append(out, c)
		}
	}
	return out
}

func normalizeOne(record map[string]any) (Condition, bool) {
	if record == nil {
		return Condition{}, false
	}

	property := recordProperty(record)
	if property == "" {
		return Condition{}, false
	}

	rawOp, ok := record["operator"].(string)
	if !ok || rawOp == "" {
		return Condition{}, false
	}
	op, ok := normalizeOperator(rawOp)
	if !ok {
		return Condition{}, false
	}

	c := Condition{
		Property: property,
		Operator: op,
		Mode:     ModeInclude,
	}

	if m, ok := record["mode"].(string); ok && strings.EqualFold(strings.TrimSpace(m), string(ModeExclude)) {
		c.Mode = ModeExclude
	}

	// A two-entry values array doubles as the operand pair for range
	// operators and as the scalar operand elsewhere.
	c.Value, c.Value2, c.Values = recordOperands(record)

	if c.Value == nil && len(c.Values) == 0 {
		return Condition{}, false
	}
	if requiresSecondOperand(op) && c.Value2 == nil {
		return Condition{}, false
	}

	return c, true
}

// normalizeOperator decodes HTML entities, lowers the case, and resolves
// comparison symbols to canonical operator names.
func normalizeOperator(raw string) (Operator, bool) {
	decoded := strings.TrimSpace(html.UnescapeString(raw))
	if op, ok := symbolOperators[decoded]; ok {
		return op, true
	}

	op := Operator(strings.ToLower(decoded))
	if KnownOperator(op) {
		return op, true
	}
	return "", false
}
