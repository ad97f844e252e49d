// internal/scraper/fake_browser_test.go
package scraper

import (
	"fmt"
	"os"
	"strings"

	"github.com/stepwright/stepwright/internal/browser"
)

// The fakes below stand in for the Playwright layer. A fakePage holds a
// flat selector -> elements map; element-scoped lookups go through each
// element's children map.

type fakeElement struct {
	text       string
	html       string
	inputValue string
	attrs      map[string]string
	children   map[string][]*fakeElement

	visible  bool
	enabled  bool
	clickErr error
}

func newFakeElement(text string) *fakeElement {
	return &fakeElement{
		text:     text,
		visible:  true,
		enabled:  true,
		attrs:    map[string]string{},
		children: map[string][]*fakeElement{},
	}
}

type fakePage struct {
	elements map[string][]*fakeElement

	url     string
	title   string
	content string

	width, height int

	// eval, when set, answers Evaluate calls. The default answer is nil.
	eval func(expression string, args ...interface{}) (interface{}, error)

	ctx    *fakeContext
	log    []string
	waits  []float64
	closed bool
}

func newFakePage() *fakePage {
	p := &fakePage{
		elements: map[string][]*fakeElement{},
		url:      "https://example.test/start",
		width:    1280,
		height:   800,
	}
	p.ctx = &fakeContext{pages: []*fakePage{p}}
	return p
}

func (p *fakePage) logf(format string, args ...interface{}) {
	p.log = append(p.log, fmt.Sprintf(format, args...))
}

func (p *fakePage) add(selector string, elems ...*fakeElement) {
	p.elements[selector] = append(p.elements[selector], elems...)
}

func (p *fakePage) Locator(selector string) browser.Locator {
	return &fakeLocator{page: p, selector: selector, elems: p.elements[selector]}
}

func (p *fakePage) Goto(url, waitUntil string) error {
	p.url = url
	p.logf("goto %s %s", url, waitUntil)
	return nil
}

func (p *fakePage) Reload(waitUntil string) error {
	p.logf("reload %s", waitUntil)
	return nil
}

func (p *fakePage) URL() string              { return p.url }
func (p *fakePage) Title() (string, error)   { return p.title, nil }
func (p *fakePage) Content() (string, error) { return p.content, nil }

func (p *fakePage) Evaluate(expression string, args ...interface{}) (interface{}, error) {
	p.logf("evaluate %s", expression)
	if p.eval != nil {
		return p.eval(expression, args...)
	}
	return nil, nil
}

func (p *fakePage) WaitForTimeout(ms float64) { p.waits = append(p.waits, ms) }

func (p *fakePage) WaitForLoadState(state string) error {
	p.logf("waitForLoadState %s", state)
	return nil
}

func (p *fakePage) ViewportSize() (int, int) { return p.width, p.height }

func (p *fakePage) SetViewportSize(w, h int) error {
	p.width, p.height = w, h
	return nil
}

func (p *fakePage) Screenshot(path string, fullPage bool) error {
	return os.WriteFile(path, []byte("png"), 0644)
}

func (p *fakePage) ExpectDownload(path string, timeoutMs float64, action func() error) error {
	if err := action(); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("download"), 0644)
}

func (p *fakePage) Context() browser.Context { return p.ctx }

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeLocator struct {
	page     *fakePage
	selector string
	elems    []*fakeElement
}

func (l *fakeLocator) first() *fakeElement {
	if len(l.elems) == 0 {
		return nil
	}
	return l.elems[0]
}

func (l *fakeLocator) Locator(selector string) browser.Locator {
	el := l.first()
	if el == nil {
		return &fakeLocator{page: l.page, selector: selector}
	}
	return &fakeLocator{page: l.page, selector: selector, elems: el.children[selector]}
}

func (l *fakeLocator) Count() (int, error) { return len(l.elems), nil }

func (l *fakeLocator) Nth(i int) browser.Locator {
	if i < 0 || i >= len(l.elems) {
		return &fakeLocator{page: l.page, selector: l.selector}
	}
	return &fakeLocator{page: l.page, selector: l.selector, elems: l.elems[i : i+1]}
}

func (l *fakeLocator) First() browser.Locator { return l.Nth(0) }

func (l *fakeLocator) Click(opts browser.ClickOptions) error {
	el := l.first()
	if el == nil {
		return fmt.Errorf("click: no element for %s", l.selector)
	}
	if el.clickErr != nil {
		return el.clickErr
	}
	kind := "click"
	if opts.Button == "right" {
		kind = "rightclick"
	}
	if len(opts.Modifiers) > 0 {
		kind += "+" + strings.Join(opts.Modifiers, "+")
	}
	l.page.logf("%s %s", kind, l.selector)
	return nil
}

func (l *fakeLocator) DblClick(opts browser.ClickOptions) error {
	if l.first() == nil {
		return fmt.Errorf("dblclick: no element for %s", l.selector)
	}
	l.page.logf("dblclick %s", l.selector)
	return nil
}

func (l *fakeLocator) Fill(value string) error {
	el := l.first()
	if el == nil {
		return fmt.Errorf("fill: no element for %s", l.selector)
	}
	el.inputValue = value
	l.page.logf("fill %s %s", l.selector, value)
	return nil
}

func (l *fakeLocator) Type(text string, delayMs float64) error {
	el := l.first()
	if el == nil {
		return fmt.Errorf("type: no element for %s", l.selector)
	}
	el.inputValue += text
	l.page.logf("type %s %s", l.selector, text)
	return nil
}

func (l *fakeLocator) Clear() error {
	el := l.first()
	if el == nil {
		return fmt.Errorf("clear: no element for %s", l.selector)
	}
	el.inputValue = ""
	l.page.logf("clear %s", l.selector)
	return nil
}

func (l *fakeLocator) IsVisible() (bool, error) {
	el := l.first()
	if el == nil {
		return false, nil
	}
	return el.visible, nil
}

func (l *fakeLocator) IsEnabled() (bool, error) {
	el := l.first()
	if el == nil {
		return false, nil
	}
	return el.enabled, nil
}

func (l *fakeLocator) TextContent() (string, error) {
	el := l.first()
	if el == nil {
		return "", fmt.Errorf("text: no element for %s", l.selector)
	}
	return el.text, nil
}

func (l *fakeLocator) InnerHTML() (string, error) {
	el := l.first()
	if el == nil {
		return "", fmt.Errorf("html: no element for %s", l.selector)
	}
	return el.html, nil
}

func (l *fakeLocator) InputValue() (string, error) {
	el := l.first()
	if el == nil {
		return "", fmt.Errorf("value: no element for %s", l.selector)
	}
	return el.inputValue, nil
}

func (l *fakeLocator) GetAttribute(name string) (string, error) {
	el := l.first()
	if el == nil {
		return "", fmt.Errorf("attr: no element for %s", l.selector)
	}
	return el.attrs[name], nil
}

func (l *fakeLocator) ScrollIntoView() error {
	l.page.logf("scrollIntoView %s", l.selector)
	return nil
}

func (l *fakeLocator) WaitFor(state string, timeoutMs float64) error {
	if len(l.elems) == 0 {
		return fmt.Errorf("waitFor %s: no element for %s", state, l.selector)
	}
	return nil
}

func (l *fakeLocator) Screenshot(path string) error {
	if l.first() == nil {
		return fmt.Errorf("screenshot: no element for %s", l.selector)
	}
	return os.WriteFile(path, []byte("png"), 0644)
}

type fakeContext struct {
	pages []*fakePage

	// newPage, when set, configures pages created by NewPage/ExpectPage.
	newPage func() *fakePage

	cookies []browser.Cookie

	// fetch, when set, answers Fetch calls. The default is 404.
	fetch func(url string, headers map[string]string) ([]byte, int, error)
}

func (c *fakeContext) makePage() *fakePage {
	var p *fakePage
	if c.newPage != nil {
		p = c.newPage()
	} else {
		p = &fakePage{elements: map[string][]*fakeElement{}, width: 1280, height: 800}
	}
	p.ctx = c
	c.pages = append(c.pages, p)
	return p
}

func (c *fakeContext) NewPage() (browser.Page, error) { return c.makePage(), nil }

func (c *fakeContext) ExpectPage(timeoutMs float64, action func() error) (browser.Page, error) {
	if err := action(); err != nil {
		return nil, err
	}
	return c.makePage(), nil
}

func (c *fakeContext) Cookies(urls ...string) ([]browser.Cookie, error) {
	return c.cookies, nil
}

func (c *fakeContext) AddCookies(cookies ...browser.Cookie) error {
	c.cookies = append(c.cookies, cookies...)
	return nil
}

func (c *fakeContext) Fetch(url string, headers map[string]string) ([]byte, int, error) {
	if c.fetch != nil {
		return c.fetch(url, headers)
	}
	return nil, 404, nil
}
