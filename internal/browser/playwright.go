// internal/browser/playwright.go
package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// playwrightPage adapts playwright.Page to the Page contract.
type playwrightPage struct {
	page playwright.Page
}

// playwrightLocator adapts playwright.Locator to the Locator contract.
type playwrightLocator struct {
	loc playwright.Locator
}

// playwrightContext adapts playwright.BrowserContext to the Context contract.
type playwrightContext struct {
	ctx playwright.BrowserContext
}

// WrapPage exposes a raw playwright page through the engine contract.
func WrapPage(page playwright.Page) Page {
	return &playwrightPage{page: page}
}

// WrapContext exposes a raw playwright browser context through the engine contract.
func WrapContext(ctx playwright.BrowserContext) Context {
	return &playwrightContext{ctx: ctx}
}

func (p *playwrightPage) Locator(selector string) Locator {
	return &playwrightLocator{loc: p.page.Locator(selector)}
}

func (p *playwrightPage) Goto(url string, waitUntil string) error {
	opts := playwright.PageGotoOptions{}
	if waitUntil != "" {
		state := playwright.WaitUntilState(waitUntil)
		opts.WaitUntil = &state
	}
	if _, err := p.page.Goto(url, opts); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) Reload(waitUntil string) error {
	opts := playwright.PageReloadOptions{}
	if waitUntil != "" {
		state := playwright.WaitUntilState(waitUntil)
		opts.WaitUntil = &state
	}
	if _, err := p.page.Reload(opts); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (p *playwrightPage) URL() string { return p.page.URL() }

func (p *playwrightPage) Title() (string, error) { return p.page.Title() }

func (p *playwrightPage) Content() (string, error) { return p.page.Content() }

func (p *playwrightPage) Evaluate(expression string, args ...interface{}) (interface{}, error) {
	if len(args) > 0 {
		return p.page.Evaluate(expression, args[0])
	}
	return p.page.Evaluate(expression)
}

func (p *playwrightPage) WaitForTimeout(ms float64) { p.page.WaitForTimeout(ms) }

func (p *playwrightPage) WaitForLoadState(state string) error {
	opts := playwright.PageWaitForLoadStateOptions{}
	if state != "" {
		s := playwright.LoadState(state)
		opts.State = &s
	}
	return p.page.WaitForLoadState(opts)
}

func (p *playwrightPage) ViewportSize() (int, int) {
	size := p.page.ViewportSize()
	if size == nil {
		return 0, 0
	}
	return size.Width, size.Height
}

func (p *playwrightPage) SetViewportSize(width, height int) error {
	return p.page.SetViewportSize(width, height)
}

func (p *playwrightPage) Screenshot(path string, fullPage bool) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	})
	return err
}

func (p *playwrightPage) ExpectDownload(path string, timeoutMs float64, action func() error) error {
	opts := playwright.PageExpectDownloadOptions{}
	if timeoutMs > 0 {
		opts.Timeout = playwright.Float(timeoutMs)
	}
	download, err := p.page.ExpectDownload(action, opts)
	if err != nil {
		return fmt.Errorf("expect download: %w", err)
	}
	if err := download.SaveAs(path); err != nil {
		return fmt.Errorf("save download: %w", err)
	}
	return nil
}

func (p *playwrightPage) Context() Context {
	return &playwrightContext{ctx: p.page.Context()}
}

func (p *playwrightPage) Close() error { return p.page.Close() }

func (l *playwrightLocator) Locator(selector string) Locator {
	return &playwrightLocator{loc: l.loc.Locator(selector)}
}

func (l *playwrightLocator) Count() (int, error) { return l.loc.Count() }

func (l *playwrightLocator) Nth(i int) Locator {
	return &playwrightLocator{loc: l.loc.Nth(i)}
}

func (l *playwrightLocator) First() Locator {
	return &playwrightLocator{loc: l.loc.First()}
}

func clickOptions(opts ClickOptions) playwright.LocatorClickOptions {
	out := playwright.LocatorClickOptions{}
	if opts.Button == "right" {
		button := playwright.MouseButton(opts.Button)
		out.Button = &button
	}
	if opts.Force {
		out.Force = playwright.Bool(true)
	}
	for _, m := range opts.Modifiers {
		mod := playwright.KeyboardModifier(m)
		out.Modifiers = append(out.Modifiers, mod)
	}
	return out
}

func (l *playwrightLocator) Click(opts ClickOptions) error {
	return l.loc.Click(clickOptions(opts))
}

func (l *playwrightLocator) DblClick(opts ClickOptions) error {
	pw := clickOptions(opts)
	return l.loc.Dblclick(playwright.LocatorDblclickOptions{
		Force:     pw.Force,
		Modifiers: pw.Modifiers,
	})
}

func (l *playwrightLocator) Fill(value string) error { return l.loc.Fill(value) }

func (l *playwrightLocator) Type(text string, delayMs float64) error {
	opts := playwright.LocatorPressSequentiallyOptions{}
	if delayMs > 0 {
		opts.Delay = playwright.Float(delayMs)
	}
	return l.loc.PressSequentially(text, opts)
}

func (l *playwrightLocator) Clear() error { return l.loc.Clear() }

func (l *playwrightLocator) IsVisible() (bool, error) { return l.loc.IsVisible() }

func (l *playwrightLocator) IsEnabled() (bool, error) { return l.loc.IsEnabled() }

func (l *playwrightLocator) TextContent() (string, error) { return l.loc.TextContent() }

func (l *playwrightLocator) InnerHTML() (string, error) { return l.loc.InnerHTML() }

func (l *playwrightLocator) InputValue() (string, error) { return l.loc.InputValue() }

func (l *playwrightLocator) GetAttribute(name string) (string, error) {
	return l.loc.GetAttribute(name)
}

func (l *playwrightLocator) ScrollIntoView() error {
	return l.loc.ScrollIntoViewIfNeeded()
}

func (l *playwrightLocator) WaitFor(state string, timeoutMs float64) error {
	opts := playwright.LocatorWaitForOptions{}
	if state != "" {
		s := playwright.WaitForSelectorState(state)
		opts.State = &s
	}
	if timeoutMs > 0 {
		opts.Timeout = playwright.Float(timeoutMs)
	}
	return l.loc.WaitFor(opts)
}

func (l *playwrightLocator) Screenshot(path string) error {
	_, err := l.loc.Screenshot(playwright.LocatorScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

func (c *playwrightContext) NewPage() (Page, error) {
	page, err := c.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) ExpectPage(timeoutMs float64, action func() error) (Page, error) {
	opts := playwright.BrowserContextExpectPageOptions{}
	if timeoutMs > 0 {
		opts.Timeout = playwright.Float(timeoutMs)
	}
	page, err := c.ctx.ExpectPage(action, opts)
	if err != nil {
		return nil, fmt.Errorf("expect page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) Cookies(urls ...string) ([]Cookie, error) {
	raw, err := c.ctx.Cookies(urls...)
	if err != nil {
		return nil, err
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, rc := range raw {
		cookies = append(cookies, Cookie{Name: rc.Name, Value: rc.Value})
	}
	return cookies, nil
}

func (c *playwrightContext) AddCookies(cookies ...Cookie) error {
	converted := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, ck := range cookies {
		converted = append(converted, playwright.OptionalCookie{
			Name:  ck.Name,
			Value: ck.Value,
			URL:   playwright.String(ck.URL),
		})
	}
	return c.ctx.AddCookies(converted)
}

func (c *playwrightContext) Fetch(url string, headers map[string]string) ([]byte, int, error) {
	resp, err := c.ctx.Request().Get(url, playwright.APIRequestContextGetOptions{
		Headers: headers,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", url, err)
	}
	body, err := resp.Body()
	if err != nil {
		return nil, resp.Status(), fmt.Errorf("read body of %s: %w", url, err)
	}
	return body, resp.Status(), nil
}
