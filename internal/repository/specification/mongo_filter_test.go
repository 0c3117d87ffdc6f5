package specification

import (
	"reflect"
	"testing"

	"nutriplan-llm-be/pkg/store"
)

func TestNewMongoFilterConditions(t *testing.T) {
	tests := []struct {
		name     string
		filter   store.Filter
		wantExpr []string
		wantArgs [][]any
	}{
		{
			name:     "numeric comparison on jsonb path",
			filter:   store.Filter{"nutrition.proteins": map[string]any{"$gt": 30.0}},
			wantExpr: []string{"(nutrition->>'proteins')::numeric > ?"},
			wantArgs: [][]any{{30.0}},
		},
		{
			name:     "boolean equality shorthand",
			filter:   store.Filter{"property.isBreakfast": true},
			wantExpr: []string{"(property->>'isBreakfast')::boolean = ?"},
			wantArgs: [][]any{{true}},
		},
		{
			name:     "plain column equality",
			filter:   store.Filter{"name": "Pho Bo"},
			wantExpr: []string{"name = ?"},
			wantArgs: [][]any{{"Pho Bo"}},
		},
		{
			name:     "not equal operator",
			filter:   store.Filter{"nutrition.calories": map[string]any{"$ne": 0.0}},
			wantExpr: []string{"(nutrition->>'calories')::numeric <> ?"},
			wantArgs: [][]any{{0.0}},
		},
		{
			name:     "in operator",
			filter:   store.Filter{"name": map[string]any{"$in": []any{"Egg Salad", "Omelet"}}},
			wantExpr: []string{"name IN ?"},
			wantArgs: [][]any{{[]any{"Egg Salad", "Omelet"}}},
		},
		{
			name:     "in operator on numeric json path casts from element type",
			filter:   store.Filter{"nutrition.calories": map[string]any{"$in": []any{100.0, 250.0}}},
			wantExpr: []string{"(nutrition->>'calories')::numeric IN ?"},
			wantArgs: [][]any{{[]any{100.0, 250.0}}},
		},
		{
			name:     "in operator on text json path stays uncast",
			filter:   store.Filter{"property.category": map[string]any{"$in": []any{"breakfast", "snack"}}},
			wantExpr: []string{"(property->>'category') IN ?"},
			wantArgs: [][]any{{[]any{"breakfast", "snack"}}},
		},
		{
			name: "multiple operators on one field sorted by operator",
			filter: store.Filter{
				"nutrition.calories": map[string]any{"$lt": 500.0, "$gte": 100.0},
			},
			wantExpr: []string{
				"(nutrition->>'calories')::numeric >= ?",
				"(nutrition->>'calories')::numeric < ?",
			},
			wantArgs: [][]any{{100.0}, {500.0}},
		},
		{
			name: "fields sorted for stable sql",
			filter: store.Filter{
				"property.isLunch":   true,
				"nutrition.proteins": map[string]any{"$gte": 20.0},
			},
			wantExpr: []string{
				"(nutrition->>'proteins')::numeric >= ?",
				"(property->>'isLunch')::boolean = ?",
			},
			wantArgs: [][]any{{20.0}, {true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mf, err := NewMongoFilter(tt.filter)
			if err != nil {
				t.Fatalf("NewMongoFilter() error = %v", err)
			}
			if len(mf.conditions) != len(tt.wantExpr) {
				t.Fatalf("got %d conditions, want %d", len(mf.conditions), len(tt.wantExpr))
			}
			for i, cond := range mf.conditions {
				if cond.expr != tt.wantExpr[i] {
					t.Errorf("condition[%d].expr = %q, want %q", i, cond.expr, tt.wantExpr[i])
				}
				if !reflect.DeepEqual(cond.args, tt.wantArgs[i]) {
					t.Errorf("condition[%d].args = %v, want %v", i, cond.args, tt.wantArgs[i])
				}
			}
		})
	}
}

func TestNewMongoFilterRejectsUnsafeFields(t *testing.T) {
	tests := []struct {
		name   string
		filter store.Filter
	}{
		{"unknown plain column", store.Filter{"password": "x"}},
		{"unknown json root", store.Filter{"secrets.key": "x"}},
		{"sql injection in path", store.Filter{"nutrition.a'; DROP TABLE foods--": 1.0}},
		{"unsupported operator", store.Filter{"nutrition.calories": map[string]any{"$regex": "a"}}},
		{"in with non-array", store.Filter{"name": map[string]any{"$in": "Egg"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMongoFilter(tt.filter); err == nil {
				t.Errorf("NewMongoFilter(%v) accepted an unsafe filter", tt.filter)
			}
		})
	}
}

func TestNewMongoFilterEmpty(t *testing.T) {
	mf, err := NewMongoFilter(store.Filter{})
	if err != nil {
		t.Fatalf("NewMongoFilter() error = %v", err)
	}
	if len(mf.conditions) != 0 {
		t.Errorf("empty filter compiled %d conditions", len(mf.conditions))
	}
}
