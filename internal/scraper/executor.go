// internal/scraper/executor.go
package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/stepwright/stepwright/internal/browser"
)

const (
	defaultRetryDelayMs      = 1000
	defaultWaitForSelectorMs = 30000
)

// Engine interprets step trees against live pages. All execution is
// strictly sequential; one Engine drives one tab at a time.
type Engine struct {
	observer Observer
	limiter  *rate.Limiter
	rng      *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver installs the event observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithPageLimiter paces page iterations in the tab loop.
func WithPageLimiter(l *rate.Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// withRandSource fixes the delay RNG, for tests.
func withRandSource(src rand.Source) Option {
	return func(e *Engine) { e.rng = rand.New(src) }
}

// NewEngine returns an engine with a no-op observer unless configured
// otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		observer: NopObserver{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// stepContext bundles the execution environment a handler sees.
type stepContext struct {
	ctx       context.Context
	page      browser.Page
	scope     browser.Locator // non-nil inside a foreach item
	collector *Collector
	onResult  ResultCallback
}

// searchScope is where selectors resolve: the foreach item when scoped,
// the page otherwise.
func (sc *stepContext) searchScope() browser.Scope {
	if sc.scope != nil {
		return sc.scope
	}
	return sc.page
}

type actionFunc func(e *Engine, sc *stepContext, step *Step) error

// actionHandlers is the single dispatch table over the closed action
// vocabulary. It is filled in init because the handlers reach back into
// the dispatch via runWithRetries, which a composite literal initializer
// would turn into an initialization cycle.
var actionHandlers map[Action]actionFunc

func init() {
	actionHandlers = map[Action]actionFunc{
		ActionNavigate:          (*Engine).handleNavigate,
		ActionInput:             (*Engine).handleInput,
		ActionClick:             (*Engine).handleClick,
		ActionData:              (*Engine).handleData,
		ActionScroll:            (*Engine).handleScroll,
		ActionEventBaseDownload: (*Engine).handleEventDownload,
		ActionForeach:           (*Engine).handleForeach,
		ActionOpen:              (*Engine).handleOpen,
		ActionSavePDF:           (*Engine).handleSavePDF,
		ActionDownloadPDF:       (*Engine).handleDownloadFile,
		ActionDownloadFile:      (*Engine).handleDownloadFile,
		ActionReload:            (*Engine).handleReload,
		ActionGetURL:            (*Engine).handleGetURL,
		ActionGetTitle:          (*Engine).handleGetTitle,
		ActionGetMeta:           (*Engine).handleGetMeta,
		ActionGetCookies:        (*Engine).handleGetCookies,
		ActionSetCookies:        (*Engine).handleSetCookies,
		ActionGetLocalStorage:   (*Engine).handleGetLocalStorage,
		ActionSetLocalStorage:   (*Engine).handleSetLocalStorage,
		ActionGetSessionStorage: (*Engine).handleGetSessionStorage,
		ActionSetSessionStorage: (*Engine).handleSetSessionStorage,
		ActionGetViewportSize:   (*Engine).handleGetViewportSize,
		ActionSetViewportSize:   (*Engine).handleSetViewportSize,
		ActionScreenshot:        (*Engine).handleScreenshot,
		ActionWaitForSelector:   (*Engine).handleWaitForSelector,
		ActionEvaluate:          (*Engine).handleEvaluate,
	}
}

// Valid reports whether a is part of the action vocabulary.
func (a Action) Valid() bool {
	_, ok := actionHandlers[a]
	return ok
}

/// ExecuteStep runs one step: conditional check, random delay, the action
// body under the retry loop, then the three-way error policy. The
// returned error is non-nil only when the failure must abort the
// enclosing step list (terminateOnError).
func (e *Engine) ExecuteStep(ctx context.Context, page browser.Page, step *Step, collector *Collector, onResult ResultCallback, scope browser.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.observer.StepStarted(step)

	if step.SkipIf != "" && e.evaluateCondition(page, step, step.SkipIf, collector) {
		e.observer.StepSkipped(step, "skipIf condition true")
		return nil
	}
	if step.OnlyIf != "" && !e.evaluateCondition(page, step, step.OnlyIf, collector) {
		e.observer.StepSkipped(step, "onlyIf condition false")
		return nil
	}

	e.applyRandomDelay(page, step.RandomDelay)

	sc := &stepContext{ctx: ctx, page: page, scope: scope, collector: collector, onResult: onResult}
	err := e.runWithRetries(sc, step)
	if err == nil {
		if step.Wait > 0 {
			page.WaitForTimeout(float64(step.Wait))
		}
		return nil
	}

	// Three-way error policy, evaluated once after retries exhaust.
	switch {
	case step.SkipOnError:
		e.observer.StepFailed(step, err, false)
		return nil
	case step.TerminateOnError:
		e.observer.StepFailed(step, err, true)
		return err
	default:
		e.observer.StepFailed(step, err, false)
		return nil
	}
}

// runWithRetries executes the action body, retrying up to step.Retry
// extra attempts with retryDelay between them.
func (e *Engine) runWithRetries(sc *stepContext, step *Step) error {
	handler, ok := actionHandlers[step.Action]
	if !ok {
		return fmt.Errorf("unknown action %q: %w", step.Action, ErrValidation)
	}

	retryDelay := step.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelayMs
	}

	var err error
	for attempt := 0; attempt <= step.Retry; attempt++ {
		if ctxErr := sc.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = handler(e, sc, step)
		if err == nil {
			return nil
		}
		if attempt < step.Retry {
			e.observer.StepRetried(step, attempt+1, err)
			sc.page.WaitForTimeout(float64(retryDelay))
		}
	}
	return err
}

// executeStepList runs steps in declared order. A failing step aborts the
// remaining siblings only when it carries terminateOnError.
func (e *Engine) executeStepList(ctx context.Context, page browser.Page, steps []*Step, collector *Collector, onResult ResultCallback) error {
	for _, step := range steps {
		if err := e.ExecuteStep(ctx, page, step, collector, onResult, nil); err != nil {
			if step.TerminateOnError {
				return err
			}
		}
	}
	return nil
}

// evaluateCondition substitutes collector placeholders into a page-side
// expression and coerces the result to bool. Evaluator errors count as
// false.
func (e *Engine) evaluateCondition(page browser.Page, step *Step, condition string, collector *Collector) bool {
	expr := ReplaceDataPlaceholders(condition, collector)
	result, err := page.Evaluate("() => " + expr)
	if err != nil {
		e.observer.Warning(step, "condition evaluation failed", err)
		return false
	}
	return truthy(result)
}

func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}

// applyRandomDelay pauses a uniform random duration between the
// configured bounds, inclusive.
func (e *Engine) applyRandomDelay(page browser.Page, rd *RandomDelay) {
	if rd == nil || rd.Max <= rd.Min {
		return
	}
	delay := rd.Min + e.rng.Intn(rd.Max-rd.Min+1)
	page.WaitForTimeout(float64(delay))
}

// waitForSelectorIfConfigured runs a best-effort pre-check wait; timeouts
// are ignored so the action itself decides how to fail.
func waitForSelectorIfConfigured(scope browser.Scope, step *Step) {
	if step.WaitForSelector == "" {
		return
	}
	timeout := step.WaitForSelectorTimeout
	if timeout <= 0 {
		timeout = defaultWaitForSelectorMs
	}
	state := step.WaitForSelectorState
	if state == "" {
		state = "visible"
	}
	loc := locatorFor(scope, step.SelectorType, step.WaitForSelector)
	_ = loc.WaitFor(state, float64(timeout))
}

func (e *Engine) handleNavigate(sc *stepContext, step *Step) error {
	if err := sc.page.Goto(step.Value, step.WaitUntil); err != nil {
		return fmt.Errorf("navigate to %q: %w (%v)", step.Value, ErrActionFailed, err)
	}
	return nil
}

func (e *Engine) handleInput(sc *stepContext, step *Step) error {
	waitForSelectorIfConfigured(sc.searchScope(), step)

	loc, _, _ := findWithFallbacks(sc.searchScope(), step.SelectorType, step.Selector, step.FallbackSelectors)
	if loc == nil {
		if !step.continueOnEmpty() {
			return fmt.Errorf("input element %q: %w", step.Selector, ErrNotFound)
		}
		e.observer.Warning(step, "input element not found", nil)
		return nil
	}

	if step.clearBeforeInput() {
		if err := loc.First().Clear(); err != nil {
			return fmt.Errorf("clear %q: %w (%v)", step.Selector, ErrActionFailed, err)
		}
	}

	value := ReplaceDataPlaceholders(step.Value, sc.collector)
	var err error
	if step.InputDelay > 0 {
		err = loc.First().Type(value, float64(step.InputDelay))
	} else {
		err = loc.First().Fill(value)
	}
	if err != nil {
		return fmt.Errorf("input into %q: %w (%v)", step.Selector, ErrActionFailed, err)
	}
	return nil
}

func (e *Engine) handleClick(sc *stepContext, step *Step) error {
	waitForSelectorIfConfigured(sc.searchScope(), step)

	loc, _, used := findWithFallbacks(sc.searchScope(), step.SelectorType, step.Selector, step.FallbackSelectors)
	if loc == nil {
		if !step.continueOnEmpty() {
			return fmt.Errorf("click element %q: %w", step.Selector, ErrNotFound)
		}
		e.observer.Warning(step, "click element not found", nil)
		return nil
	}

	target := loc.First()
	if step.requireVisible() {
		visible, err := target.IsVisible()
		if err != nil || !visible {
			if !step.ForceClick {
				return fmt.Errorf("element %q not visible: %w", used, ErrActionFailed)
			}
			e.observer.Warning(step, "element not visible, forcing click", err)
		}
	}
	if step.RequireEnabled {
		enabled, err := target.IsEnabled()
		if err != nil || !enabled {
			return fmt.Errorf("element %q not enabled: %w", used, ErrActionFailed)
		}
	}

	opts := browser.ClickOptions{
		Modifiers: step.ClickModifiers,
		Force:     step.ForceClick,
	}
	var err error
	switch {
	case step.DoubleClick:
		err = target.DblClick(opts)
	case step.RightClick:
		opts.Button = "right"
		err = target.Click(opts)
	default:
		err = target.Click(opts)
	}
	if err != nil {
		return fmt.Errorf("click %q: %w (%v)", used, ErrActionFailed, err)
	}
	return nil
}

// handleScroll scrolls the viewport by the pixel offset in value, or by
// one viewport height when absent or unparseable.
func (e *Engine) handleScroll(sc *stepContext, step *Step) error {
	var offset interface{}
	if step.Value != "" {
		if n, err := strconv.Atoi(step.Value); err == nil {
			offset = n
		}
	}
	if offset == nil {
		h, err := sc.page.Evaluate("() => window.innerHeight")
		if err != nil {
			return fmt.Errorf("read viewport height: %w (%v)", ErrActionFailed, err)
		}
		offset = h
	}
	if _, err := sc.page.Evaluate("y => window.scrollBy(0, y)", offset); err != nil {
		return fmt.Errorf("scroll: %w (%v)", ErrActionFailed, err)
	}
	return nil
}
