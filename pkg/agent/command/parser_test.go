package command

import (
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantCount int
		wantTypes []string
	}{
		{
			name:      "no json at all",
			response:  "Here are some egg dishes you might like.",
			wantCount: 0,
		},
		{
			name:      "single frontend command",
			response:  `Sure! {"type": "FRONTEND_COMMAND", "action": "navigate", "target": "/meal-plan"}`,
			wantCount: 1,
			wantTypes: []string{"FRONTEND_COMMAND"},
		},
		{
			name:      "accepted action types",
			response:  `{"type": "add_to_grocery", "item": "Eggs"} and {"type": "search_food", "query": "salad"}`,
			wantCount: 2,
			wantTypes: []string{"add_to_grocery", "search_food"},
		},
		{
			name:      "unknown type dropped",
			response:  `{"type": "reorder", "what": "breakfast"}`,
			wantCount: 0,
		},
		{
			name:      "object without type dropped",
			response:  `{"calories": 300}`,
			wantCount: 0,
		},
		{
			name:      "nested braces counted",
			response:  `{"type": "replace_food", "payload": {"from": "Rice", "to": {"name": "Quinoa"}}}`,
			wantCount: 1,
			wantTypes: []string{"replace_food"},
		},
		{
			name:      "invalid json inside balanced braces ignored",
			response:  `{this is not json} but {"type": "search_food", "query": "pho"} is`,
			wantCount: 1,
			wantTypes: []string{"search_food"},
		},
		{
			name:      "unmatched open brace does not swallow rest",
			response:  `broken { start {"type": "FRONTEND_COMMAND", "action": "swap"}`,
			wantCount: 1,
			wantTypes: []string{"FRONTEND_COMMAND"},
		},
		{
			name:      "trailing unmatched brace",
			response:  `{"type": "search_food", "query": "egg"} and then {`,
			wantCount: 1,
			wantTypes: []string{"search_food"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commands := Extract(tt.response)

			if len(commands) != tt.wantCount {
				t.Fatalf("Extract() returned %d commands, want %d", len(commands), tt.wantCount)
			}
			for i, wantType := range tt.wantTypes {
				gotType, _ := commands[i]["type"].(string)
				if gotType != wantType {
					t.Errorf("command[%d].type = %q, want %q", i, gotType, wantType)
				}
			}
		})
	}
}

func TestExtractNonOverlapping(t *testing.T) {
	// Two adjacent objects must both be found, scanning resumes after the
	// first closing brace.
	response := `{"type":"search_food","query":"a"}{"type":"search_food","query":"b"}`
	commands := Extract(response)
	if len(commands) != 2 {
		t.Fatalf("Extract() returned %d commands, want 2", len(commands))
	}
	if commands[0]["query"] != "a" || commands[1]["query"] != "b" {
		t.Errorf("commands out of order: %v", commands)
	}
}
