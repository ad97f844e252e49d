// internal/scraper/loops.go
package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/stepwright/stepwright/internal/browser"
)

const defaultForeachAttachMs = 5000

// handleForeach iterates a matched element set. Each index gets an
// isolated collector and an index-bound clone of the sub-step tree,
// executed scoped to the i-th element. Non-empty item collectors are
// stored under item_<i> and emitted immediately through the streaming
// callback.
func (e *Engine) handleForeach(sc *stepContext, step *Step) error {
	if step.Selector == "" {
		return fmt.Errorf("foreach step %q requires a selector: %w", step.ID, ErrValidation)
	}
	if len(step.SubSteps) == 0 {
		return fmt.Errorf("foreach step %q requires subSteps: %w", step.ID, ErrValidation)
	}

	locAll := locatorFor(sc.page, step.SelectorType, step.Selector)

	// Best-effort wait for the first element to attach; a timeout just
	// means zero iterations.
	attachTimeout := step.Wait
	if attachTimeout <= 0 {
		attachTimeout = defaultForeachAttachMs
	}
	_ = locAll.First().WaitFor("attached", float64(attachTimeout))

	count, err := locAll.Count()
	if err != nil {
		return fmt.Errorf("count %q: %w (%v)", step.Selector, ErrActionFailed, err)
	}

	for idx := 0; idx < count; idx++ {
		if ctxErr := sc.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		current := locAll.Nth(idx)
		if step.autoScroll() {
			if err := current.ScrollIntoView(); err != nil {
				e.observer.Warning(step, "scroll into view failed", err)
			}
		}

		itemCollector := NewCollector()
		for _, sub := range step.SubSteps {
			cloned := cloneStepWithIndex(sub, idx)
			if err := e.ExecuteStep(sc.ctx, sc.page, cloned, itemCollector, sc.onResult, current); err != nil {
				if cloned.TerminateOnError {
					return err
				}
				e.observer.Warning(cloned, "foreach sub-step failed", err)
			}
		}

		sc.collector.Set(itemKey(idx), itemCollector)

		if itemCollector.Len() > 0 {
			e.emit(sc.onResult, step, itemCollector.Flatten(), idx)
			e.observer.ItemEmitted(idx)
		}
	}
	return nil
}

func itemKey(idx int) string {
	return fmt.Sprintf("%s%d", itemKeyPrefix, idx)
}

// handleOpen resolves a link-like element, opens its target in a new
// page, and runs the sub-steps there with a collector seeded from the
// parent. The child page is closed on every exit path, and whatever the
// sub-steps collected merges back into the parent.
func (e *Engine) handleOpen(sc *stepContext, step *Step) (retErr error) {
	if step.Selector == "" {
		return fmt.Errorf("open step %q requires a selector: %w", step.ID, ErrValidation)
	}
	if len(step.SubSteps) == 0 {
		return fmt.Errorf("open step %q requires subSteps: %w", step.ID, ErrValidation)
	}

	linkLoc := locatorFor(sc.page, step.SelectorType, step.Selector)
	count, err := linkLoc.Count()
	if err != nil || count == 0 {
		e.observer.Warning(step, "open target not found", err)
		return nil
	}

	href, err := linkLoc.First().GetAttribute("href")
	if err != nil {
		href = ""
	}

	bctx := sc.page.Context()
	var newPage browser.Page
	if href != "" {
		resolved := resolveHref(sc.page.URL(), href)
		page, err := bctx.NewPage()
		if err != nil {
			return fmt.Errorf("open new page: %w (%v)", ErrActionFailed, err)
		}
		newPage = page
		if err := newPage.Goto(resolved, "networkidle"); err != nil {
			newPage.Close()
			return fmt.Errorf("open %q: %w (%v)", resolved, ErrActionFailed, err)
		}
	} else {
		// No href: trigger a modified click and capture the page it
		// opens, falling back to a plain click.
		page, err := bctx.ExpectPage(0, func() error {
			if clickErr := linkLoc.First().Click(clickWithMeta()); clickErr != nil {
				return linkLoc.First().Click(plainClick())
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("open via click %q: %w (%v)", step.Selector, ErrActionFailed, err)
		}
		newPage = page
		if err := newPage.WaitForLoadState("networkidle"); err != nil {
			e.observer.Warning(step, "child page load wait failed", err)
		}
	}

	// Child gets a copy of the parent data; results merge back on every
	// exit path, and the page never leaks.
	child := sc.collector.Clone()
	defer func() {
		sc.collector.Merge(child)
		if closeErr := newPage.Close(); closeErr != nil {
			e.observer.Warning(step, "child page close failed", closeErr)
		}
	}()

	for _, sub := range step.SubSteps {
		cloned := sub.Clone()
		if err := e.ExecuteStep(sc.ctx, newPage, cloned, child, sc.onResult, nil); err != nil {
			if cloned.TerminateOnError {
				return err
			}
			e.observer.Warning(cloned, "open sub-step failed", err)
		}
	}
	return nil
}

// resolveHref absolutizes href against the current page URL.
func resolveHref(pageURL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func clickWithMeta() browser.ClickOptions {
	return browser.ClickOptions{Modifiers: []string{"Meta"}}
}

func plainClick() browser.ClickOptions {
	return browser.ClickOptions{}
}

// emit delivers one record through the streaming callback, tolerating
// and logging callback errors and panics.
func (e *Engine) emit(onResult ResultCallback, step *Step, record interface{}, index int) {
	if onResult == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.observer.Warning(step, "result callback panicked", fmt.Errorf("%v", r))
		}
	}()
	if err := onResult(record, index); err != nil {
		e.observer.Warning(step, "result callback failed", err)
	}
}
