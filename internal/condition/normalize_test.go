package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Condition
	}{
		{
			name: "canonical shape",
			raw:  map[string]any{"property": "price", "operator": "greater_than", "value": 10.0},
			want: Condition{Property: "price", Operator: OpGreaterThan, Value: 10.0, Mode: ModeInclude},
		},
		{
			name: "type key",
			raw:  map[string]any{"type": "stock", "operator": "equals", "value": 5},
			want: Condition{Property: "stock", Operator: OpEquals, Value: 5, Mode: ModeInclude},
		},
		{
			name: "condition_type key",
			raw:  map[string]any{"condition_type": "sku", "operator": "starts_with", "value": "WID"},
			want: Condition{Property: "sku", Operator: OpStartsWith, Value: "WID", Mode: ModeInclude},
		},
		{
			name: "html encoded operator",
			raw:  map[string]any{"property": "price", "operator": "&lt;=", "value": 100},
			want: Condition{Property: "price", Operator: OpLessThanEqual, Value: 100, Mode: ModeInclude},
		},
		{
			name: "symbol operator",
			raw:  map[string]any{"property": "price", "operator": "!=", "value": 10},
			want: Condition{Property: "price", Operator: OpNotEquals, Value: 10, Mode: ModeInclude},
		},
		{
			name: "uppercase operator name",
			raw:  map[string]any{"property": "name", "operator": "CONTAINS", "value": "pro"},
			want: Condition{Property: "name", Operator: OpContains, Value: "pro", Mode: ModeInclude},
		},
		{
			name: "values array feeds range operands",
			raw:  map[string]any{"property": "price", "operator": "between", "values": []any{10, 20}},
			want: Condition{Property: "price", Operator: OpBetween, Value: 10, Value2: 20, Values: []any{10, 20}, Mode: ModeInclude},
		},
		{
			name: "explicit exclude mode",
			raw:  map[string]any{"property": "category", "operator": "in", "values": []any{"sale"}, "mode": "exclude"},
			want: Condition{Property: "category", Operator: OpIn, Value: "sale", Values: []any{"sale"}, Mode: ModeExclude},
		},
		{
			name: "property trimmed and lowered",
			raw:  map[string]any{"property": "  Price ", "operator": "=", "value": 1},
			want: Condition{Property: "price", Operator: OpEquals, Value: 1, Mode: ModeInclude},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]map[string]any{tt.raw})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestNormalize_DropsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{name: "nil record", raw: nil},
		{name: "missing property", raw: map[string]any{"operator": "equals", "value": 1}},
		{name: "missing operator", raw: map[string]any{"property": "price", "value": 1}},
		{name: "unknown operator", raw: map[string]any{"property": "price", "operator": "approximately", "value": 1}},
		{name: "missing operand", raw: map[string]any{"property": "price", "operator": "equals"}},
		{name: "between missing second operand", raw: map[string]any{"property": "price", "operator": "between", "value": 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Normalize([]map[string]any{tt.raw}))
		})
	}
}

func TestNormalize_KeepsWellFormedAmongMalformed(t *testing.T) {
	got := Normalize([]map[string]any{
		{"property": "price", "operator": "bogus", "value": 1},
		{"property": "stock", "operator": ">", "value": 0},
	})
	require.Len(t, got, 1)
	assert.Equal(t, OpGreaterThan, got[0].Operator)
	assert.Equal(t, "stock", got[0].Property)
}
