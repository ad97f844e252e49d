// internal/pipeline/transform_test.go
package pipeline

import (
	"context"
	"testing"
)

func TestTransformRuleApply(t *testing.T) {
	tests := []struct {
		name    string
		rule    TransformRule
		input   string
		want    string
		wantErr bool
	}{
		{"trim", TransformRule{Type: "trim"}, "  hello  ", "hello", false},
		{"normalize spaces", TransformRule{Type: "normalize_spaces"}, "  a \t b\n c ", "a b c", false},
		{"lowercase", TransformRule{Type: "lowercase"}, "HeLLo", "hello", false},
		{"uppercase", TransformRule{Type: "uppercase"}, "hello", "HELLO", false},
		{"remove html", TransformRule{Type: "remove_html"}, "<b>bold</b> text", "bold text", false},
		{"extract number", TransformRule{Type: "extract_number"}, "price: 42.50 usd", "42.50", false},
		{"extract number none", TransformRule{Type: "extract_number"}, "no digits", "0", false},
		{"parse int with separators", TransformRule{Type: "parse_int"}, "1,234", "1234", false},
		{"parse int garbage", TransformRule{Type: "parse_int"}, "abc", "", true},
		{"parse float", TransformRule{Type: "parse_float"}, "1,234.5", "1234.5", false},
		{"parse date ok", TransformRule{Type: "parse_date"}, "2024-02-29", "2024-02-29", false},
		{"parse date bad", TransformRule{Type: "parse_date"}, "not a date", "", true},
		{"regex replace", TransformRule{Type: "regex", Pattern: `\$`, Replacement: ""}, "$9.99", "9.99", false},
		{"prefix", TransformRule{Type: "prefix", Params: map[string]interface{}{"value": "id-"}}, "42", "id-42", false},
		{"suffix", TransformRule{Type: "suffix", Params: map[string]interface{}{"value": " EUR"}}, "9.99", "9.99 EUR", false},
		{"replace", TransformRule{Type: "replace", Params: map[string]interface{}{"old": "-", "new": "_"}}, "a-b-c", "a_b_c", false},
		{"unknown type", TransformRule{Type: "sparkle"}, "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rule.Apply(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Apply(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Apply(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTransformListAppliesInOrder(t *testing.T) {
	list := TransformList{
		{Type: "remove_html"},
		{Type: "normalize_spaces"},
		{Type: "extract_number"},
		{Type: "prefix", Params: map[string]interface{}{"value": "$"}},
	}

	got, err := list.Apply(context.Background(), "<span>  price:   1299  </span>")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "$1299" {
		t.Errorf("Apply = %q, want $1299", got)
	}
}

func TestTransformListStopsOnRuleError(t *testing.T) {
	list := TransformList{
		{Type: "parse_int"},
		{Type: "uppercase"},
	}
	if _, err := list.Apply(context.Background(), "not a number"); err == nil {
		t.Fatal("want error from failing rule")
	}
}

func TestTransformListHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	list := TransformList{{Type: "trim"}}
	if _, err := list.Apply(ctx, "x"); err == nil {
		t.Fatal("want context error")
	}
}

func TestTransformListValidate(t *testing.T) {
	tests := []struct {
		name    string
		list    TransformList
		wantErr bool
	}{
		{"empty ok", nil, false},
		{"simple rules ok", TransformList{{Type: "trim"}, {Type: "lowercase"}}, false},
		{"regex needs pattern", TransformList{{Type: "regex"}}, true},
		{"bad regex pattern", TransformList{{Type: "regex", Pattern: "(["}}, true},
		{"prefix needs value", TransformList{{Type: "prefix"}}, true},
		{"replace needs both params", TransformList{{Type: "replace", Params: map[string]interface{}{"old": "-"}}}, true},
		{"unknown type", TransformList{{Type: "sparkle"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.list.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}
