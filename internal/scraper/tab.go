// internal/scraper/tab.go
package scraper

import (
	"context"
	"fmt"

	"github.com/stepwright/stepwright/internal/browser"
)

const defaultScrollDelayMs = 1000

// Run executes each tab template on its own page in declared order,
// accumulating every emitted record. The streaming callback, when
// non-nil, still fires per record as each tab produces it.
func (e *Engine) Run(ctx context.Context, bctx browser.Context, tabs []*TabTemplate, onResult ResultCallback) ([]interface{}, error) {
	var all []interface{}
	for _, tab := range tabs {
		page, err := bctx.NewPage()
		if err != nil {
			return all, fmt.Errorf("open page for tab %q: %w", tab.Tab, err)
		}
		records, err := e.ExecuteTab(ctx, page, tab, onResult)
		page.Close()
		all = append(all, records...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// ExecuteTab runs one tab template: init steps once, then the page loop
// per the pagination config. Returned records are the accumulated,
// flattened per-page results in emission order.
func (e *Engine) ExecuteTab(ctx context.Context, page browser.Page, tab *TabTemplate, onResult ResultCallback) ([]interface{}, error) {
	e.observer.TabStarted(tab.Tab)

	var records []interface{}
	defer func() { e.observer.TabFinished(tab.Tab, len(records)) }()

	if len(tab.InitSteps) > 0 {
		initCollector := NewCollector()
		if err := e.executeStepList(ctx, page, tab.InitSteps, initCollector, onResult); err != nil {
			return records, fmt.Errorf("tab %q init: %w", tab.Tab, err)
		}
	}

	steps := tab.pageSteps()
	if len(steps) == 0 {
		return records, nil
	}

	run := &tabRun{engine: e, page: page, tab: tab, steps: steps, onResult: onResult}
	err := run.loop(ctx)
	records = run.records
	return records, err
}

// tabRun carries the state of one tab's page loop.
type tabRun struct {
	engine   *Engine
	page     browser.Page
	tab      *TabTemplate
	steps    []*Step
	onResult ResultCallback

	records     []interface{}
	resultIndex int
}

func (r *tabRun) loop(ctx context.Context) error {
	p := r.tab.Pagination
	if p == nil {
		if err := r.startIteration(ctx, 0); err != nil {
			return err
		}
		return r.runPageOnce(ctx)
	}

	switch {
	case p.PaginateAllFirst:
		return r.loopPaginateAllFirst(ctx, p)
	case p.PaginationFirst:
		return r.loopPaginationFirst(ctx, p)
	default:
		return r.loopDefault(ctx, p)
	}
}

// loopPaginateAllFirst advances up to maxPages times before any page
// step runs, then runs the page steps exactly once against the final
// page state.
func (r *tabRun) loopPaginateAllFirst(ctx context.Context, p *PaginationConfig) error {
	limit := maxPages(p)
	for i := 0; limit == 0 || i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.engine.advancePagination(r.page, p) {
			break
		}
	}
	if err := r.startIteration(ctx, 0); err != nil {
		return err
	}
	return r.runPageOnce(ctx)
}

// loopPaginationFirst runs pagination before extraction from the second
// iteration on.
func (r *tabRun) loopPaginationFirst(ctx context.Context, p *PaginationConfig) error {
	limit := maxPages(p)
	for i := 0; limit == 0 || i < limit; i++ {
		if err := r.startIteration(ctx, i); err != nil {
			return err
		}
		if i > 0 && !r.engine.advancePagination(r.page, p) {
			break
		}
		if err := r.runPageOnce(ctx); err != nil {
			return err
		}
	}
	return nil
}

// loopDefault runs extraction first and paginates afterwards.
func (r *tabRun) loopDefault(ctx context.Context, p *PaginationConfig) error {
	limit := maxPages(p)
	for i := 0; limit == 0 || i < limit; i++ {
		if err := r.startIteration(ctx, i); err != nil {
			return err
		}
		if err := r.runPageOnce(ctx); err != nil {
			return err
		}
		if limit > 0 && i+1 >= limit {
			break
		}
		if !r.engine.advancePagination(r.page, p) {
			break
		}
	}
	return nil
}

// startIteration paces the loop and announces the page.
func (r *tabRun) startIteration(ctx context.Context, pageIndex int) error {
	if r.engine.limiter != nil {
		if err := r.engine.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	r.engine.observer.PageStarted(r.tab.Tab, pageIndex)
	return ctx.Err()
}

// runPageOnce executes the page steps against a fresh collector and
// accumulates the iteration's records. Collectors holding item_* keys
// (a top-level foreach ran) contribute one record per non-empty item;
// those already went through the streaming callback inside the foreach,
// so only the whole-page path calls it here.
func (r *tabRun) runPageOnce(ctx context.Context) error {
	collector := NewCollector()
	if err := r.engine.executeStepList(ctx, r.page, r.steps, collector, r.onResult); err != nil {
		return err
	}

	itemKeys := collector.ItemKeys()
	if len(itemKeys) > 0 {
		for _, k := range itemKeys {
			v, _ := collector.Get(k)
			item, ok := v.(*Collector)
			if !ok || item.Len() == 0 {
				continue
			}
			r.records = append(r.records, item.Flatten())
			r.resultIndex++
		}
		return nil
	}

	// An actions-only iteration still yields a record, so every page the
	// loop visited is visible in the output.
	record := collector.Flatten()
	r.records = append(r.records, record)
	r.engine.emit(r.onResult, nil, record, r.resultIndex)
	r.engine.observer.ItemEmitted(r.resultIndex)
	r.resultIndex++
	return nil
}

/// maxPages resolves the page cap. Zero means uncapped: the loop runs
// until the advance fails or the context is cancelled.
func maxPages(p *PaginationConfig) int {
	if p.MaxPages != nil && *p.MaxPages > 0 {
		return *p.MaxPages
	}
	return 0
}

// advancePagination performs one pagination advance and reports whether
// the loop may continue. The next strategy fails when the button cannot
// be clicked; the scroll strategy always succeeds, maxPages is its only
// termination signal.
func (e *Engine) advancePagination(page browser.Page, p *PaginationConfig) bool {
	switch p.Strategy {
	case PaginationNext:
		return e.advanceNext(page, p.NextButton)
	case PaginationScroll:
		e.advanceScroll(page, p.Scroll)
		return true
	default:
		return false
	}
}

func (e *Engine) advanceNext(page browser.Page, nb *NextButtonConfig) bool {
	if nb == nil || nb.Selector == "" {
		return false
	}
	button := locatorFor(page, nb.SelectorType, nb.Selector).First()
	if visible, err := button.IsVisible(); err != nil || !visible {
		return false
	}
	if err := button.Click(plainClick()); err != nil {
		return false
	}
	if nb.Wait > 0 {
		page.WaitForTimeout(float64(nb.Wait))
	} else if err := page.WaitForLoadState("networkidle"); err != nil {
		e.observer.Warning(nil, "post-pagination load wait failed", err)
	}
	return true
}

func (e *Engine) advanceScroll(page browser.Page, sc *ScrollConfig) {
	offset := 0
	if sc != nil && sc.Offset != nil {
		offset = *sc.Offset
	}
	if offset <= 0 {
		if _, h := page.ViewportSize(); h > 0 {
			offset = h
		} else {
			offset = 800
		}
	}
	if _, err := page.Evaluate(fmt.Sprintf("() => window.scrollBy(0, %d)", offset)); err != nil {
		e.observer.Warning(nil, "scroll pagination failed", err)
	}
	delay := defaultScrollDelayMs
	if sc != nil && sc.Delay != nil && *sc.Delay > 0 {
		delay = *sc.Delay
	}
	page.WaitForTimeout(float64(delay))
}
