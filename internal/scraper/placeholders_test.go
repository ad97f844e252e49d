// internal/scraper/placeholders_test.go
package scraper

import "testing"

func TestReplaceIndexPlaceholders(t *testing.T) {
	tests := []struct {
		name  string
		input string
		index int
		want  string
	}{
		{"both tokens", "{{i}}-{{i_plus1}}", 4, "4-5"},
		{"spaced tokens", "row {{ i }} of {{ i_plus1 }}", 0, "row 0 of 1"},
		{"no tokens", "plain text", 7, "plain text"},
		{"unknown token untouched", "{{j}}-{{i}}", 2, "{{j}}-2"},
		{"empty", "", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReplaceIndexPlaceholders(tt.input, tt.index)
			if got != tt.want {
				t.Errorf("ReplaceIndexPlaceholders(%q, %d) = %q, want %q", tt.input, tt.index, got, tt.want)
			}
		})
	}
}

func TestReplaceDataPlaceholders(t *testing.T) {
	collector := NewCollector()
	collector.Set("title", "Hello, World!")
	collector.Set("year", 2024)
	collector.Set("empty", nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"sanitized value", "file_{{title}}.pdf", "file_Hello_World.pdf"},
		{"spaced token", "file_{{ title }}.pdf", "file_Hello_World.pdf"},
		{"non-string value", "report-{{year}}", "report-2024"},
		{"absent key left verbatim", "x_{{missing}}_y", "x_{{missing}}_y"},
		{"nil value left verbatim", "x_{{empty}}_y", "x_{{empty}}_y"},
		{"no tokens", "static.pdf", "static.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReplaceDataPlaceholders(tt.input, collector)
			if got != tt.want {
				t.Errorf("ReplaceDataPlaceholders(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCloneStepWithIndexDoesNotMutateTemplate(t *testing.T) {
	template := &Step{
		ID:       "item-{{i}}",
		Action:   ActionData,
		Selector: ".row-{{i}}",
		Value:    "v{{i_plus1}}",
		SubSteps: []*Step{
			{ID: "sub", Action: ActionData, Selector: ".cell-{{i}}"},
		},
	}

	cloned := cloneStepWithIndex(template, 2)

	if cloned.Selector != ".row-2" {
		t.Errorf("cloned selector = %q, want %q", cloned.Selector, ".row-2")
	}
	if cloned.Value != "v3" {
		t.Errorf("cloned value = %q, want %q", cloned.Value, "v3")
	}
	if cloned.SubSteps[0].Selector != ".cell-2" {
		t.Errorf("cloned sub selector = %q, want %q", cloned.SubSteps[0].Selector, ".cell-2")
	}

	if template.Selector != ".row-{{i}}" || template.SubSteps[0].Selector != ".cell-{{i}}" {
		t.Error("template mutated by cloning")
	}
	if cloned.SubSteps[0] == template.SubSteps[0] {
		t.Error("sub-step node shared between clone and template")
	}
}
