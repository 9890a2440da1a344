package condition

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/catalog"
)

func testCatalog() *catalog.MemoryProvider {
	return catalog.NewMemoryProvider(
		catalog.Product{
			ID: "p1", SKU: "WID-001", Name: "Basic Widget",
			Price: decimal.NewFromFloat(9.99), Stock: 100,
			CategoryIDs: []string{"widgets"},
		},
		catalog.Product{
			ID: "p2", SKU: "WID-002", Name: "Deluxe Widget",
			Price: decimal.NewFromFloat(49.99), Stock: 25,
			CategoryIDs: []string{"widgets", "premium"},
		},
		catalog.Product{
			ID: "p3", SKU: "GAD-001", Name: "Pocket Gadget",
			Price: decimal.NewFromFloat(75.00), Stock: 0,
			CategoryIDs: []string{"gadgets"},
		},
		catalog.Product{
			ID: "p4", SKU: "GAD-002", Name: "Pro Gadget",
			Price: decimal.NewFromFloat(150.00), Stock: 5,
			CategoryIDs: []string{"gadgets", "premium"},
		},
	)
}

var allIDs = []string{"p1", "p2", "p3", "p4"}

func TestEngineApply_Operators(t *testing.T) {
	engine := NewEngine(testCatalog())
	ctx := context.Background()

	tests := []struct {
		name string
		cond Condition
		want []string
	}{
		{
			name: "equals price",
			cond: Condition{Property: PropPrice, Operator: OpEquals, Value: 49.99, Mode: ModeInclude},
			want: []string{"p2"},
		},
		{
			name: "not equals price",
			cond: Condition{Property: PropPrice, Operator: OpNotEquals, Value: 49.99, Mode: ModeInclude},
			want: []string{"p1", "p3", "p4"},
		},
		{
			name: "greater than",
			cond: Condition{Property: PropPrice, Operator: OpGreaterThan, Value: 50, Mode: ModeInclude},
			want: []string{"p3", "p4"},
		},
		{
			name: "greater than equal boundary",
			cond: Condition{Property: PropPrice, Operator: OpGreaterThanEqual, Value: 75, Mode: ModeInclude},
			want: []string{"p3", "p4"},
		},
		{
			name: "less than",
			cond: Condition{Property: PropStock, Operator: OpLessThan, Value: 25, Mode: ModeInclude},
			want: []string{"p3", "p4"},
		},
		{
			name: "less than equal boundary",
			cond: Condition{Property: PropStock, Operator: OpLessThanEqual, Value: 25, Mode: ModeInclude},
			want: []string{"p2", "p3", "p4"},
		},
		{
			name: "between inclusive",
			cond: Condition{Property: PropPrice, Operator: OpBetween, Value: 49.99, Value2: 75.00, Mode: ModeInclude},
			want: []string{"p2", "p3"},
		},
		{
			name: "not between",
			cond: Condition{Property: PropPrice, Operator: OpNotBetween, Value: 49.99, Value2: 75.00, Mode: ModeInclude},
			want: []string{"p1", "p4"},
		},
		{
			name: "contains name",
			cond: Condition{Property: PropName, Operator: OpContains, Value: "widget", Mode: ModeInclude},
			want: []string{"p1", "p2"},
		},
		{
			name: "not contains name",
			cond: Condition{Property: PropName, Operator: OpNotContains, Value: "widget", Mode: ModeInclude},
			want: []string{"p3", "p4"},
		},
		{
			name: "starts with sku",
			cond: Condition{Property: PropSKU, Operator: OpStartsWith, Value: "GAD", Mode: ModeInclude},
			want: []string{"p3", "p4"},
		},
		{
			name: "ends with sku",
			cond: Condition{Property: PropSKU, Operator: OpEndsWith, Value: "001", Mode: ModeInclude},
			want: []string{"p1", "p3"},
		},
		{
			name: "in values",
			cond: Condition{Property: PropSKU, Operator: OpIn, Values: []any{"WID-001", "GAD-002"}, Mode: ModeInclude},
			want: []string{"p1", "p4"},
		},
		{
			name: "in comma separated string",
			cond: Condition{Property: PropSKU, Operator: OpIn, Value: "WID-001, GAD-002", Mode: ModeInclude},
			want: []string{"p1", "p4"},
		},
		{
			name: "not in values",
			cond: Condition{Property: PropSKU, Operator: OpNotIn, Values: []any{"WID-001", "GAD-002"}, Mode: ModeInclude},
			want: []string{"p2", "p3"},
		},
		{
			name: "category membership via equals",
			cond: Condition{Property: PropCategory, Operator: OpEquals, Value: "premium", Mode: ModeInclude},
			want: []string{"p2", "p4"},
		},
		{
			name: "category contains",
			cond: Condition{Property: PropCategory, Operator: OpContains, Value: "gadgets", Mode: ModeInclude},
			want: []string{"p3", "p4"},
		},
		{
			name: "numeric string operand",
			cond: Condition{Property: PropPrice, Operator: OpGreaterThan, Value: "50", Mode: ModeInclude},
			want: []string{"p3", "p4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Apply(ctx, allIDs, []Condition{tt.cond}, LogicAll)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngineApply_EqualityTolerance(t *testing.T) {
	engine := NewEngine(testCatalog())

	// 49.9905 is within the 0.001 tolerance of the stored 49.99.
	got, err := engine.Apply(context.Background(), allIDs, []Condition{
		{Property: PropPrice, Operator: OpEquals, Value: 49.9905, Mode: ModeInclude},
	}, LogicAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, got)

	// 49.995 is outside it.
	got, err = engine.Apply(context.Background(), allIDs, []Condition{
		{Property: PropPrice, Operator: OpEquals, Value: 49.995, Mode: ModeInclude},
	}, LogicAll)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngineApply_ExcludeIsComplement(t *testing.T) {
	engine := NewEngine(testCatalog())
	ctx := context.Background()

	conds := []Condition{
		{Property: PropPrice, Operator: OpGreaterThan, Value: 50, Mode: ModeInclude},
	}
	included, err := engine.Apply(ctx, allIDs, conds, LogicAll)
	require.NoError(t, err)

	conds[0].Mode = ModeExclude
	excluded, err := engine.Apply(ctx, allIDs, conds, LogicAll)
	require.NoError(t, err)

	assert.Len(t, included, 2)
	assert.Len(t, excluded, 2)
	union := append(append([]string{}, included...), excluded...)
	assert.ElementsMatch(t, allIDs, union)
}

func TestEngineApply_Logic(t *testing.T) {
	engine := NewEngine(testCatalog())
	ctx := context.Background()

	conds := []Condition{
		{Property: PropCategory, Operator: OpEquals, Value: "premium", Mode: ModeInclude},
		{Property: PropStock, Operator: OpGreaterThan, Value: 10, Mode: ModeInclude},
	}

	all, err := engine.Apply(ctx, allIDs, conds, LogicAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, all)

	anyOf, err := engine.Apply(ctx, allIDs, conds, LogicAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p4"}, anyOf)
}

func TestEngineApply_EmptyInputs(t *testing.T) {
	engine := NewEngine(testCatalog())
	ctx := context.Background()

	// No conditions is the identity.
	got, err := engine.Apply(ctx, allIDs, nil, LogicAll)
	require.NoError(t, err)
	assert.Equal(t, allIDs, got)

	// No products short-circuits to empty.
	got, err = engine.Apply(ctx, nil, []Condition{
		{Property: PropPrice, Operator: OpGreaterThan, Value: 0, Mode: ModeInclude},
	}, LogicAll)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngineApply_SkipsUnevaluable(t *testing.T) {
	engine := NewEngine(testCatalog())
	ctx := context.Background()

	// Unknown property alongside a real filter: only the real one counts.
	got, err := engine.Apply(ctx, allIDs, []Condition{
		{Property: "weight", Operator: OpGreaterThan, Value: 5, Mode: ModeInclude},
		{Property: PropStock, Operator: OpEquals, Value: 0, Mode: ModeInclude},
	}, LogicAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, got)

	// When every condition is unevaluable the list behaves as empty.
	got, err = engine.Apply(ctx, allIDs, []Condition{
		{Property: "weight", Operator: OpGreaterThan, Value: 5, Mode: ModeInclude},
	}, LogicAll)
	require.NoError(t, err)
	assert.Equal(t, allIDs, got)
}

func TestEngineApplyRaw_MalformedRecordsFailOpen(t *testing.T) {
	engine := NewEngine(testCatalog())
	ctx := context.Background()

	// A between filter missing its upper bound is dropped entirely, so the
	// full input set comes back unchanged.
	got, err := engine.ApplyRaw(ctx, allIDs, []map[string]any{
		{"property": "price", "operator": "between", "value": 40},
	}, LogicAll)
	require.NoError(t, err)
	assert.Equal(t, allIDs, got)
}

func TestEngineApplyRaw_BoundaryShapes(t *testing.T) {
	engine := NewEngine(testCatalog())
	ctx := context.Background()

	tests := []struct {
		name string
		raw  map[string]any
		want []string
	}{
		{
			name: "property key with html encoded operator",
			raw:  map[string]any{"property": "price", "operator": "&gt;=", "value": 75},
			want: []string{"p3", "p4"},
		},
		{
			name: "type key with symbol operator",
			raw:  map[string]any{"type": "stock", "operator": "<", "value": 10},
			want: []string{"p3", "p4"},
		},
		{
			name: "condition_type key with values array",
			raw:  map[string]any{"condition_type": "price", "operator": "between", "values": []any{40, 80}},
			want: []string{"p2", "p3"},
		},
		{
			name: "exclude mode",
			raw:  map[string]any{"property": "category", "operator": "equals", "value": "premium", "mode": "exclude"},
			want: []string{"p1", "p3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ApplyRaw(ctx, allIDs, []map[string]any{tt.raw}, LogicAll)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
