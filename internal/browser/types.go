// internal/browser/types.go
package browser

// This package defines the narrow contract the step engine expects from a
// browser automation backend, plus the Playwright-backed implementation.
// The engine never imports playwright directly; tests substitute fakes.

// Scope is any context a selector can be resolved against: a full page or
// an element handle (for queries scoped to a foreach item).
type Scope interface {
	// Locator resolves a raw, engine-native selector string to an
	// element-set handle. Resolution is lazy; cardinality is only known
	// after Count.
	Locator(selector string) Locator
}

// Locator is an element-set handle. Nth and First narrow it to a single
// element; element operations act on the first match.
type Locator interface {
	Scope

	Count() (int, error)
	Nth(i int) Locator
	First() Locator

	Click(opts ClickOptions) error
	DblClick(opts ClickOptions) error
	Fill(value string) error
	Type(text string, delayMs float64) error
	Clear() error

	IsVisible() (bool, error)
	IsEnabled() (bool, error)

	TextContent() (string, error)
	InnerHTML() (string, error)
	InputValue() (string, error)
	GetAttribute(name string) (string, error)

	ScrollIntoView() error
	WaitFor(state string, timeoutMs float64) error
	Screenshot(path string) error
}

// ClickOptions carries the knobs a click step can set.
type ClickOptions struct {
	Button    string // "left" (default) or "right"
	Modifiers []string
	Force     bool
}

// Page is one browser tab.
type Page interface {
	Scope

	Goto(url string, waitUntil string) error
	Reload(waitUntil string) error
	URL() string
	Title() (string, error)
	Content() (string, error)

	Evaluate(expression string, args ...interface{}) (interface{}, error)
	WaitForTimeout(ms float64)
	WaitForLoadState(state string) error

	ViewportSize() (width, height int)
	SetViewportSize(width, height int) error
	Screenshot(path string, fullPage bool) error

	// ExpectDownload runs action and waits for a download it triggers,
	// saving the payload to path.
	ExpectDownload(path string, timeoutMs float64, action func() error) error

	Context() Context
	Close() error
}

// Cookie is the subset of cookie attributes the engine reads and writes.
type Cookie struct {
	Name  string
	Value string
	URL   string
}

// Context is the browser context owning a set of pages. It also exposes
// an HTTP fetch that shares the context's cookie jar semantics, used for
// direct file downloads.
type Context interface {
	NewPage() (Page, error)
	// ExpectPage runs action and waits for the new page it opens.
	ExpectPage(timeoutMs float64, action func() error) (Page, error)
	Cookies(urls ...string) ([]Cookie, error)
	AddCookies(cookies ...Cookie) error
	// Fetch performs a GET with the given extra headers and returns the
	// body bytes and status code.
	Fetch(url string, headers map[string]string) ([]byte, int, error)
}
