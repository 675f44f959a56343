package validate

import (
	"encoding/json"
	"testing"
)

func TestSerializeGraphQLValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"null", "null", "null"},
		{"true", "true", "true"},
		{"int", "10", "10"},
		{"float", "1.5", "1.5"},
		{"string", `"hi"`, `"hi"`},
		{"stringWithQuote", `"say \"hi\""`, `"say \"hi\""`},
		{"variableReference", `"$n"`, "$n"},
		{"list", "[1, 2, 3]", "[1, 2, 3]"},
		{"object", `{"b": 2, "a": 1}`, "{a: 1, b: 2}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SerializeGraphQLValue(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("SerializeGraphQLValue(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSerializeGraphQLValueIntegerNotFloatSuffixed(t *testing.T) {
	got := SerializeGraphQLValue(json.RawMessage("500"))
	if got != "500" {
		t.Errorf("SerializeGraphQLValue(500) = %q, want 500", got)
	}
}
