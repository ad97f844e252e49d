// internal/scraper/extract_test.go
package scraper

import (
	"context"
	"errors"
	"testing"
)

func TestApplyRegexExtraction(t *testing.T) {
	group1 := 1
	outOfRange := 5

	tests := []struct {
		name    string
		value   string
		pattern string
		group   *int
		want    string
	}{
		{"capture group", "$1,234.56", `\$([\d,]+\.\d+)`, &group1, "1,234.56"},
		{"whole match default", "price: 42 usd", `\d+`, nil, "42"},
		{"no match returns original", "hello", `\d+`, nil, "hello"},
		{"bad pattern returns original", "hello", `([`, nil, "hello"},
		{"out of range group falls back to whole match", "ab12", `(\d+)`, &outOfRange, "12"},
		{"empty pattern passthrough", "x", "", nil, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyRegexExtraction(tt.value, tt.pattern, tt.group)
			if got != tt.want {
				t.Errorf("applyRegexExtraction(%q, %q) = %q, want %q", tt.value, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestDataStepRequiredZeroMatches(t *testing.T) {
	page := newFakePage()
	engine := NewEngine()
	sc := &stepContext{ctx: context.Background(), page: page, collector: NewCollector()}

	step := &Step{ID: "title", Action: ActionData, SelectorType: SelectorID, Selector: "missing", Required: true}
	err := engine.handleData(sc, step)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, ok := sc.collector.Get("title"); ok {
		t.Error("required failure still wrote a value")
	}
}

func TestDataStepDefaultValueOnZeroMatches(t *testing.T) {
	page := newFakePage()
	engine := NewEngine()
	sc := &stepContext{ctx: context.Background(), page: page, collector: NewCollector()}

	step := &Step{ID: "title", Action: ActionData, SelectorType: SelectorID, Selector: "missing", DefaultValue: "X"}
	if err := engine.handleData(sc, step); err != nil {
		t.Fatalf("handleData: %v", err)
	}
	if v, _ := sc.collector.Get("title"); v != "X" {
		t.Errorf("collector[title] = %v, want X", v)
	}
}

func TestDataStepContinueOnEmptyFalseFails(t *testing.T) {
	page := newFakePage()
	engine := NewEngine()
	sc := &stepContext{ctx: context.Background(), page: page, collector: NewCollector()}

	no := false
	step := &Step{ID: "title", Action: ActionData, SelectorType: SelectorID, Selector: "missing", ContinueOnEmpty: &no}
	if err := engine.handleData(sc, step); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDataStepReadsSubtypes(t *testing.T) {
	page := newFakePage()
	el := newFakeElement("Some Text")
	el.html = "<b>Some Text</b>"
	el.inputValue = "typed"
	el.attrs["href"] = "/detail/7"
	page.add("#field", el)
	page.add("a", el)

	engine := NewEngine()

	tests := []struct {
		name string
		step *Step
		want string
	}{
		{"text", &Step{ID: "t", Action: ActionData, SelectorType: SelectorID, Selector: "field", DataType: DataText}, "Some Text"},
		{"html", &Step{ID: "t", Action: ActionData, SelectorType: SelectorID, Selector: "field", DataType: DataHTML}, "<b>Some Text</b>"},
		{"value", &Step{ID: "t", Action: ActionData, SelectorType: SelectorID, Selector: "field", DataType: DataValue}, "typed"},
		{"attribute suffix", &Step{ID: "t", Action: ActionData, SelectorType: SelectorTag, Selector: "a/@href", DataType: DataAttribute}, "/detail/7"},
		{"unknown subtype falls back to text", &Step{ID: "t", Action: ActionData, SelectorType: SelectorID, Selector: "field", DataType: DataType("weird")}, "Some Text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &stepContext{ctx: context.Background(), page: page, collector: NewCollector()}
			if err := engine.handleData(sc, tt.step); err != nil {
				t.Fatalf("handleData: %v", err)
			}
			if v, _ := sc.collector.Get("t"); v != tt.want {
				t.Errorf("collector[t] = %v, want %q", v, tt.want)
			}
		})
	}
}

func TestDataStepFallbackSelectorsTriedInOrder(t *testing.T) {
	page := newFakePage()
	page.add(".backup", newFakeElement("from backup"))

	engine := NewEngine()
	sc := &stepContext{ctx: context.Background(), page: page, collector: NewCollector()}
	step := &Step{
		ID: "t", Action: ActionData, SelectorType: SelectorID, Selector: "primary",
		FallbackSelectors: []FallbackSelector{
			{SelectorType: SelectorID, Selector: "also-missing"},
			{SelectorType: SelectorClass, Selector: "backup"},
		},
	}

	if err := engine.handleData(sc, step); err != nil {
		t.Fatalf("handleData: %v", err)
	}
	if v, _ := sc.collector.Get("t"); v != "from backup" {
		t.Errorf("collector[t] = %v, want from backup", v)
	}
}

func TestDataStepPageTransform(t *testing.T) {
	page := newFakePage()
	page.add("#raw", newFakeElement("  42  "))
	page.eval = func(expression string, args ...interface{}) (interface{}, error) {
		if len(args) == 1 {
			return "transformed", nil
		}
		return nil, nil
	}

	engine := NewEngine()
	sc := &stepContext{ctx: context.Background(), page: page, collector: NewCollector()}
	step := &Step{ID: "t", Action: ActionData, SelectorType: SelectorID, Selector: "raw", Transform: "value.trim()"}

	if err := engine.handleData(sc, step); err != nil {
		t.Fatalf("handleData: %v", err)
	}
	if v, _ := sc.collector.Get("t"); v != "transformed" {
		t.Errorf("collector[t] = %v, want transformed", v)
	}
}

func TestSelectorResolutionIsIdempotent(t *testing.T) {
	page := newFakePage()
	page.add(".row", newFakeElement("a"), newFakeElement("b"))

	first := locatorFor(page, SelectorClass, "row")
	second := locatorFor(page, SelectorClass, "row")

	n1, _ := first.Count()
	n2, _ := second.Count()
	if n1 != n2 {
		t.Fatalf("counts differ: %d vs %d", n1, n2)
	}
	t1, _ := first.First().TextContent()
	t2, _ := second.First().TextContent()
	if t1 != t2 {
		t.Errorf("first elements differ: %q vs %q", t1, t2)
	}
}
