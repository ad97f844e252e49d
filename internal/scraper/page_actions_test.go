// internal/scraper/page_actions_test.go
package scraper

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testStepContext(page *fakePage) *stepContext {
	return &stepContext{ctx: context.Background(), page: page, collector: NewCollector()}
}

func TestParseViewportSize(t *testing.T) {
	tests := []struct {
		input   string
		width   int
		height  int
		wantErr bool
	}{
		{"1920x1080", 1920, 1080, false},
		{"800,600", 800, 600, false},
		{"1024 768", 1024, 768, false},
		{"", 0, 0, true},
		{"banana", 0, 0, true},
		{"100x", 0, 0, true},
		{"0x600", 0, 0, true},
		{"-5x600", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w, h, err := ParseViewportSize(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("err = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseViewportSize(%q): %v", tt.input, err)
			}
			if w != tt.width || h != tt.height {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
		})
	}
}

func TestGetMetaSingleAndAll(t *testing.T) {
	page := newFakePage()
	page.content = `<html><head>
		<meta name="description" content="A page">
		<meta property="og:title" content="OG Title">
		<meta charset="utf-8">
	</head><body></body></html>`

	engine := NewEngine()

	sc := testStepContext(page)
	single := &Step{ID: "desc", Action: ActionGetMeta, Selector: "description"}
	if err := engine.handleGetMeta(sc, single); err != nil {
		t.Fatalf("handleGetMeta: %v", err)
	}
	if v, _ := sc.collector.Get("desc"); v != "A page" {
		t.Errorf("desc = %v, want A page", v)
	}

	sc = testStepContext(page)
	byProperty := &Step{ID: "og", Action: ActionGetMeta, Selector: "og:title"}
	if err := engine.handleGetMeta(sc, byProperty); err != nil {
		t.Fatalf("handleGetMeta: %v", err)
	}
	if v, _ := sc.collector.Get("og"); v != "OG Title" {
		t.Errorf("og = %v, want OG Title", v)
	}

	sc = testStepContext(page)
	all := &Step{ID: "meta", Action: ActionGetMeta}
	if err := engine.handleGetMeta(sc, all); err != nil {
		t.Fatalf("handleGetMeta: %v", err)
	}
	m, _ := sc.collector.Get("meta")
	tags := m.(map[string]interface{})
	if tags["description"] != "A page" || tags["og:title"] != "OG Title" {
		t.Errorf("all meta = %v", tags)
	}
	if len(tags) != 2 {
		t.Errorf("meta count = %d, want 2 (charset tag has no name)", len(tags))
	}
}

func TestCookieRoundTrip(t *testing.T) {
	page := newFakePage()
	engine := NewEngine()

	sc := testStepContext(page)
	sc.collector.Set("session", "abc 123!")
	set := &Step{ID: "set", Action: ActionSetCookies, Selector: "sid", Value: "{{session}}"}
	if err := engine.handleSetCookies(sc, set); err != nil {
		t.Fatalf("handleSetCookies: %v", err)
	}
	if len(page.ctx.cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(page.ctx.cookies))
	}
	if page.ctx.cookies[0].Value != "abc_123" {
		t.Errorf("cookie value = %q, want sanitized abc_123", page.ctx.cookies[0].Value)
	}

	get := &Step{ID: "got", Action: ActionGetCookies, Selector: "sid"}
	if err := engine.handleGetCookies(sc, get); err != nil {
		t.Fatalf("handleGetCookies: %v", err)
	}
	if v, _ := sc.collector.Get("got"); v != "abc_123" {
		t.Errorf("read back = %v", v)
	}
}

func TestSetCookiesRequiresNameAndValue(t *testing.T) {
	page := newFakePage()
	engine := NewEngine()
	sc := testStepContext(page)

	if err := engine.handleSetCookies(sc, &Step{ID: "s", Action: ActionSetCookies, Value: "v"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing name: err = %v, want ErrValidation", err)
	}
	if err := engine.handleSetCookies(sc, &Step{ID: "s", Action: ActionSetCookies, Selector: "n"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing value: err = %v, want ErrValidation", err)
	}
}

func TestWaitForSelectorRecordsOutcome(t *testing.T) {
	page := newFakePage()
	page.add("#ready", newFakeElement("here"))
	engine := NewEngine()

	sc := testStepContext(page)
	ok := &Step{ID: "w", Action: ActionWaitForSelector, SelectorType: SelectorID, Selector: "ready", Key: "found"}
	if err := engine.handleWaitForSelector(sc, ok); err != nil {
		t.Fatalf("handleWaitForSelector: %v", err)
	}
	if v, _ := sc.collector.Get("found"); v != true {
		t.Errorf("found = %v, want true", v)
	}

	sc = testStepContext(page)
	missing := &Step{ID: "w", Action: ActionWaitForSelector, SelectorType: SelectorID, Selector: "absent", Key: "found", Wait: 10}
	err := engine.handleWaitForSelector(sc, missing)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if v, _ := sc.collector.Get("found"); v != false {
		t.Errorf("found = %v, want false", v)
	}
}

func TestEvaluateStoresResult(t *testing.T) {
	page := newFakePage()
	page.eval = func(expression string, args ...interface{}) (interface{}, error) {
		return float64(17), nil
	}
	engine := NewEngine()
	sc := testStepContext(page)

	step := &Step{ID: "e", Action: ActionEvaluate, Value: "() => document.querySelectorAll('a').length", Key: "links"}
	if err := engine.handleEvaluate(sc, step); err != nil {
		t.Fatalf("handleEvaluate: %v", err)
	}
	if v, _ := sc.collector.Get("links"); v != float64(17) {
		t.Errorf("links = %v, want 17", v)
	}
}

func TestScreenshotWritesFileAndKey(t *testing.T) {
	page := newFakePage()
	engine := NewEngine()
	sc := testStepContext(page)
	sc.collector.Set("title", "My Page!")

	path := filepath.Join(t.TempDir(), "shots", "{{title}}.png")
	step := &Step{ID: "shot", Action: ActionScreenshot, Value: path, Key: "shot_path"}
	if err := engine.handleScreenshot(sc, step); err != nil {
		t.Fatalf("handleScreenshot: %v", err)
	}

	v, _ := sc.collector.Get("shot_path")
	saved, _ := v.(string)
	if filepath.Base(saved) != "My_Page.png" {
		t.Errorf("saved path = %q, want placeholder-substituted name", saved)
	}
}

func TestGetViewportSize(t *testing.T) {
	page := newFakePage()
	engine := NewEngine()
	sc := testStepContext(page)

	if err := engine.handleGetViewportSize(sc, &Step{ID: "vp", Action: ActionGetViewportSize}); err != nil {
		t.Fatalf("handleGetViewportSize: %v", err)
	}
	v, _ := sc.collector.Get("vp")
	size := v.(map[string]interface{})
	if size["width"] != 1280 || size["height"] != 800 {
		t.Errorf("size = %v", size)
	}
}
