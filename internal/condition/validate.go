package condition

import (
	"fmt"
	"strings"

	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
)

// Validate strictly checks a raw condition record as submitted from the
// authoring surface. Unlike Normalize, which silently drops malformed
// records at evaluation time, Validate reports the defect so an author can
// fix the rule before saving it.
func Validate(record map[string]any) error {
	if len(record) == 0 {
		return apperrors.InvalidInput("condition is empty")
	}

	property := recordProperty(record)
	if property == "" {
		return apperrors.InvalidInput("condition is missing a property")
	}
	if !KnownProperty(property) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown condition property %q", property))
	}

	rawOp, ok := record["operator"].(string)
	if !ok || rawOp == "" {
		return apperrors.InvalidInput("condition is missing an operator")
	}
	op, ok := normalizeOperator(rawOp)
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("unknown condition operator %q", rawOp))
	}

	value, value2, values := recordOperands(record)
	if value == nil && len(values) == 0 {
		return apperrors.InvalidInput(fmt.Sprintf("operator %q requires a value", op))
	}
	if requiresSecondOperand(op) && value2 == nil {
		return apperrors.InvalidInput(fmt.Sprintf("operator %q requires two values", op))
	}

	if NumericProperty(property) {
		for _, v := range []any{value, value2} {
			if v == nil {
				continue
			}
			if _, ok := toFloat(v); !ok {
				return apperrors.InvalidInput(fmt.Sprintf("property %q requires a numeric value", property))
			}
		}
	}

	if mode, ok := record["mode"].(string); ok && mode != "" {
		m := Mode(strings.ToLower(strings.TrimSpace(mode)))
		if m != ModeInclude && m != ModeExclude {
			return apperrors.InvalidInput(fmt.Sprintf("unknown condition mode %q", mode))
		}
	}

	return nil
}

// recordProperty resolves the property under any of its synonymous keys.
func recordProperty(record map[string]any) string {
	for _, key := range propertyKeys {
		if v, ok := record[key].(string); ok && v != "" {
			return strings.ToLower(strings.TrimSpace(v))
		}
	}
	return ""
}

// recordOperands extracts the operand fields, letting a values array stand
// in for the scalar pair the way Normalize does.
func recordOperands(record map[string]any) (value, value2 any, values []any) {
	value = record["value"]
	value2 = record["value2"]
	if vs, ok := record["values"].([]any); ok {
		values = vs
		if value == nil && len(vs) > 0 {
			value = vs[0]
		}
		if value2 == nil && len(vs) > 1 {
			value2 = vs[1]
		}
	}
	return value, value2, values
}
