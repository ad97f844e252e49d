// internal/browser/launcher.go
package browser

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// LaunchOptions configures the browser process and context.
type LaunchOptions struct {
	Headless       bool     `yaml:"headless" json:"headless"`
	SlowMo         float64  `yaml:"slow_mo,omitempty" json:"slow_mo,omitempty"`
	UserAgent      string   `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ViewportWidth  int      `yaml:"viewport_width,omitempty" json:"viewport_width,omitempty"`
	ViewportHeight int      `yaml:"viewport_height,omitempty" json:"viewport_height,omitempty"`
	Args           []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// Launcher owns the Playwright runtime, one browser and one context.
type Launcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// Launch installs driver + browsers if needed, starts chromium and opens
// a fresh browser context.
func Launch(opts LaunchOptions) (*Launcher, error) {
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(opts.SlowMo)
	}
	if len(opts.Args) > 0 {
		launchOpts.Args = opts.Args
	}
	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		contextOpts.Viewport = &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		}
	}
	ctx, err := b.NewContext(contextOpts)
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	return &Launcher{pw: pw, browser: b, context: ctx}, nil
}

// Context returns the engine-facing browser context.
func (l *Launcher) Context() Context {
	return WrapContext(l.context)
}

// Close tears down context, browser and the Playwright runtime.
func (l *Launcher) Close() error {
	var firstErr error
	if l.context != nil {
		if err := l.context.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if l.browser != nil {
		if err := l.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if l.pw != nil {
		if err := l.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
