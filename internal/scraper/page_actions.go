// internal/scraper/page_actions.go
package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var validWaitUntil = map[string]bool{
	"load": true, "domcontentloaded": true, "networkidle": true, "commit": true,
}

var validWaitStates = map[string]bool{
	"visible": true, "hidden": true, "attached": true, "detached": true,
}

func (e *Engine) handleReload(sc *stepContext, step *Step) error {
	waitUntil := step.Value
	if !validWaitUntil[waitUntil] {
		waitUntil = "load"
	}
	if err := sc.page.Reload(waitUntil); err != nil {
		return fmt.Errorf("reload: %w (%v)", ErrActionFailed, err)
	}
	return nil
}

func (e *Engine) handleGetURL(sc *stepContext, step *Step) error {
	sc.collector.Set(step.outputKey("url"), sc.page.URL())
	return nil
}

func (e *Engine) handleGetTitle(sc *stepContext, step *Step) error {
	title, err := sc.page.Title()
	if err != nil {
		return fmt.Errorf("read title: %w (%v)", ErrActionFailed, err)
	}
	sc.collector.Set(step.outputKey("title"), title)
	return nil
}

// handleGetMeta parses the page HTML and collects meta tags. With a
// selector it returns that one tag (matched on name= or property=),
// otherwise all tags as a map.
func (e *Engine) handleGetMeta(sc *stepContext, step *Step) error {
	html, err := sc.page.Content()
	if err != nil {
		return fmt.Errorf("read page content: %w (%v)", ErrActionFailed, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse page content: %w (%v)", ErrActionFailed, err)
	}

	key := step.outputKey("meta")
	if name := step.Selector; name != "" {
		var content interface{}
		doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if n, _ := s.Attr("name"); n == name {
				c, _ := s.Attr("content")
				content = c
				return false
			}
			if p, _ := s.Attr("property"); p == name {
				c, _ := s.Attr("content")
				content = c
				return false
			}
			return true
		})
		sc.collector.Set(key, content)
		return nil
	}

	all := make(map[string]interface{})
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("property")
		}
		content, hasContent := s.Attr("content")
		if name != "" && hasContent {
			all[name] = content
		}
	})
	sc.collector.Set(key, all)
	return nil
}

func (e *Engine) handleGetCookies(sc *stepContext, step *Step) error {
	target := step.Value
	if target == "" {
		target = sc.page.URL()
	}
	cookies, err := sc.page.Context().Cookies(target)
	if err != nil {
		return fmt.Errorf("read cookies: %w (%v)", ErrActionFailed, err)
	}

	if name := step.Selector; name != "" {
		var value interface{}
		for _, c := range cookies {
			if c.Name == name {
				value = c.Value
				break
			}
		}
		sc.collector.Set(step.outputKey("cookie"), value)
		return nil
	}

	all := make(map[string]interface{}, len(cookies))
	for _, c := range cookies {
		all[c.Name] = c.Value
	}
	sc.collector.Set(step.outputKey("cookies"), all)
	return nil
}

func (e *Engine) handleSetCookies(sc *stepContext, step *Step) error {
	if step.Selector == "" {
		return fmt.Errorf("setCookies step %q requires a cookie name: %w", step.ID, ErrValidation)
	}
	if step.Value == "" {
		return fmt.Errorf("setCookies step %q requires a cookie value: %w", step.ID, ErrValidation)
	}
	name := ReplaceDataPlaceholders(step.Selector, sc.collector)
	value := ReplaceDataPlaceholders(step.Value, sc.collector)
	cookie := browserCookie(name, value, sc.page.URL())
	if err := sc.page.Context().AddCookies(cookie); err != nil {
		return fmt.Errorf("set cookie %q: %w (%v)", name, ErrActionFailed, err)
	}
	return nil
}

func (e *Engine) handleGetLocalStorage(sc *stepContext, step *Step) error {
	return e.readStorage(sc, step, "localStorage")
}

func (e *Engine) handleSetLocalStorage(sc *stepContext, step *Step) error {
	return e.writeStorage(sc, step, "localStorage")
}

func (e *Engine) handleGetSessionStorage(sc *stepContext, step *Step) error {
	return e.readStorage(sc, step, "sessionStorage")
}

func (e *Engine) handleSetSessionStorage(sc *stepContext, step *Step) error {
	return e.writeStorage(sc, step, "sessionStorage")
}

// readStorage reads one key (step selector) or the whole store.
func (e *Engine) readStorage(sc *stepContext, step *Step, store string) error {
	if name := step.Selector; name != "" {
		value, err := sc.page.Evaluate(fmt.Sprintf("() => %s.getItem(%s)", store, strconv.Quote(name)))
		if err != nil {
			return fmt.Errorf("read %s[%s]: %w (%v)", store, name, ErrActionFailed, err)
		}
		sc.collector.Set(step.outputKey(store), value)
		return nil
	}

	script := fmt.Sprintf(`() => {
		const out = {};
		for (let i = 0; i < %[1]s.length; i++) {
			const key = %[1]s.key(i);
			out[key] = %[1]s.getItem(key);
		}
		return out;
	}`, store)
	value, err := sc.page.Evaluate(script)
	if err != nil {
		return fmt.Errorf("read %s: %w (%v)", store, ErrActionFailed, err)
	}
	sc.collector.Set(step.outputKey(store), value)
	return nil
}

func (e *Engine) writeStorage(sc *stepContext, step *Step, store string) error {
	if step.Selector == "" {
		return fmt.Errorf("set %s step %q requires a key name: %w", store, step.ID, ErrValidation)
	}
	if step.Value == "" {
		return fmt.Errorf("set %s step %q requires a value: %w", store, step.ID, ErrValidation)
	}
	name := ReplaceDataPlaceholders(step.Selector, sc.collector)
	value := ReplaceDataPlaceholders(step.Value, sc.collector)
	script := fmt.Sprintf("() => %s.setItem(%s, %s)", store, strconv.Quote(name), strconv.Quote(value))
	if _, err := sc.page.Evaluate(script); err != nil {
		return fmt.Errorf("write %s[%s]: %w (%v)", store, name, ErrActionFailed, err)
	}
	return nil
}

func (e *Engine) handleGetViewportSize(sc *stepContext, step *Step) error {
	width, height := sc.page.ViewportSize()
	sc.collector.Set(step.outputKey("viewportSize"), map[string]interface{}{
		"width":  width,
		"height": height,
	})
	return nil
}

// handleSetViewportSize parses "WxH", "W,H" or "W H" dimensions.
// Malformed input is a validation failure before any browser work.
func (e *Engine) handleSetViewportSize(sc *stepContext, step *Step) error {
	width, height, err := ParseViewportSize(step.Value)
	if err != nil {
		return err
	}
	if err := sc.page.SetViewportSize(width, height); err != nil {
		return fmt.Errorf("set viewport: %w (%v)", ErrActionFailed, err)
	}
	return nil
}

// ParseViewportSize parses viewport dimensions like "1920x1080".
func ParseViewportSize(value string) (int, int, error) {
	if value == "" {
		return 0, 0, fmt.Errorf("viewport size is required: %w", ErrValidation)
	}
	normalized := strings.NewReplacer("x", ",", " ", ",").Replace(value)
	parts := strings.Split(normalized, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid viewport size %q, want widthxheight: %w", value, ErrValidation)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	height, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport size %q, want widthxheight: %w", value, ErrValidation)
	}
	return width, height, nil
}

// handleScreenshot captures the page or a target element to the path in
// value. A missing element degrades to a full-page shot.
func (e *Engine) handleScreenshot(sc *stepContext, step *Step) error {
	if step.Value == "" {
		return fmt.Errorf("screenshot step %q requires a target filepath: %w", step.ID, ErrValidation)
	}
	path := ReplaceDataPlaceholders(step.Value, sc.collector)
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("prepare screenshot path: %w (%v)", ErrActionFailed, err)
	}

	if step.Selector != "" {
		loc := locatorFor(sc.page, step.SelectorType, step.Selector)
		if n, err := loc.Count(); err == nil && n > 0 {
			if err := loc.First().Screenshot(path); err != nil {
				return fmt.Errorf("element screenshot: %w (%v)", ErrActionFailed, err)
			}
		} else {
			e.observer.Warning(step, "screenshot target not found, capturing full page", nil)
			if err := sc.page.Screenshot(path, true); err != nil {
				return fmt.Errorf("page screenshot: %w (%v)", ErrActionFailed, err)
			}
		}
	} else {
		// data_type "full" selects a full-page capture.
		fullPage := step.DataType == "full"
		if err := sc.page.Screenshot(path, fullPage); err != nil {
			return fmt.Errorf("page screenshot: %w (%v)", ErrActionFailed, err)
		}
	}

	if step.Key != "" {
		sc.collector.Set(step.Key, path)
	}
	return nil
}

// handleWaitForSelector blocks until the target reaches the wanted state,
// recording the boolean outcome under key when configured.
func (e *Engine) handleWaitForSelector(sc *stepContext, step *Step) error {
	if step.Selector == "" {
		return fmt.Errorf("waitForSelector step %q requires a selector: %w", step.ID, ErrValidation)
	}
	timeout := step.Wait
	if timeout <= 0 {
		timeout = defaultWaitForSelectorMs
	}
	state := step.Value
	if !validWaitStates[state] {
		state = "visible"
	}

	loc := locatorFor(sc.page, step.SelectorType, step.Selector)
	if err := loc.WaitFor(state, float64(timeout)); err != nil {
		if step.Key != "" {
			sc.collector.Set(step.Key, false)
		}
		return fmt.Errorf("wait for %q (%s): %w (%v)", step.Selector, state, ErrTimeout, err)
	}
	if step.Key != "" {
		sc.collector.Set(step.Key, true)
	}
	return nil
}

// handleEvaluate runs a page-side script, storing the result under key
// when configured. Evaluator failure stores nil.
func (e *Engine) handleEvaluate(sc *stepContext, step *Step) error {
	if step.Value == "" {
		return fmt.Errorf("evaluate step %q requires script code: %w", step.ID, ErrValidation)
	}
	script := ReplaceDataPlaceholders(step.Value, sc.collector)
	result, err := sc.page.Evaluate(script)
	if err != nil {
		if step.Key != "" {
			sc.collector.Set(step.Key, nil)
		}
		return fmt.Errorf("evaluate: %w (%v)", ErrActionFailed, err)
	}
	if step.Key != "" {
		sc.collector.Set(step.Key, result)
	}
	return nil
}
