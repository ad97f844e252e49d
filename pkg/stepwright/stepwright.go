// pkg/stepwright/stepwright.go

// Package stepwright runs declarative step templates against a real
// browser: launch, execute every tab, return (or stream) the scraped
// records.
package stepwright

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/stepwright/stepwright/internal/browser"
	"github.com/stepwright/stepwright/internal/config"
	"github.com/stepwright/stepwright/internal/scraper"
)

// Re-exported template types, so template authors only import this
// package.
type (
	Step             = scraper.Step
	TabTemplate      = scraper.TabTemplate
	PaginationConfig = scraper.PaginationConfig
	ResultCallback   = scraper.ResultCallback
	Observer         = scraper.Observer
)

// Options configures a run beyond the tab templates themselves.
type Options struct {
	Browser browser.LaunchOptions

	// PageRate caps page iterations per second. Zero disables pacing.
	PageRate float64

	// Logger receives engine events. Nil keeps the run silent.
	Logger *zap.Logger

	// Extra observers, e.g. metrics. Appended after the logger.
	Observers []Observer
}

// OptionsFromConfig adapts a loaded run configuration.
func OptionsFromConfig(cfg *config.RunConfig, logger *zap.Logger) Options {
	return Options{
		Browser:  cfg.Browser,
		PageRate: cfg.PageRate,
		Logger:   logger,
	}
}

// RunTabs executes the tab templates and returns every record produced,
// in emission order.
func RunTabs(ctx context.Context, tabs []*TabTemplate, opts Options) ([]interface{}, error) {
	return run(ctx, tabs, opts, nil)
}

// RunTabsStreaming executes the tab templates, invoking onResult per
// record as it is produced. The accumulated records are returned as
// well, so both consumption styles compose.
func RunTabsStreaming(ctx context.Context, tabs []*TabTemplate, opts Options, onResult ResultCallback) ([]interface{}, error) {
	return run(ctx, tabs, opts, onResult)
}

func run(ctx context.Context, tabs []*TabTemplate, opts Options, onResult ResultCallback) ([]interface{}, error) {
	if len(tabs) == 0 {
		return nil, fmt.Errorf("no tab templates given")
	}

	launcher, err := browser.Launch(opts.Browser)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer launcher.Close()

	return runWithContext(ctx, launcher.Context(), tabs, opts, onResult)
}

// runWithContext is the browser-independent half, split out so tests can
// drive it with a fake context.
func runWithContext(ctx context.Context, bctx browser.Context, tabs []*TabTemplate, opts Options, onResult ResultCallback) ([]interface{}, error) {
	engineOpts := []scraper.Option{scraper.WithObserver(buildObserver(opts))}
	if opts.PageRate > 0 {
		engineOpts = append(engineOpts, scraper.WithPageLimiter(rate.NewLimiter(rate.Limit(opts.PageRate), 1)))
	}

	engine := scraper.NewEngine(engineOpts...)
	return engine.Run(ctx, bctx, tabs, onResult)
}

func buildObserver(opts Options) Observer {
	var observers []Observer
	if opts.Logger != nil {
		observers = append(observers, scraper.NewZapObserver(opts.Logger))
	}
	observers = append(observers, opts.Observers...)

	switch len(observers) {
	case 0:
		return scraper.NopObserver{}
	case 1:
		return observers[0]
	default:
		return scraper.MultiObserver(observers)
	}
}
