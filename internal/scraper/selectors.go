// internal/scraper/selectors.go
package scraper

import (
	"github.com/stepwright/stepwright/internal/browser"
)

// locatorFor builds an element-set handle from a (type, pattern) pair.
// An empty type treats the pattern as a raw engine-native selector.
// Resolution never checks cardinality; callers do.
func locatorFor(scope browser.Scope, t SelectorType, selector string) browser.Locator {
	switch t {
	case SelectorID:
		return scope.Locator("#" + selector)
	case SelectorClass:
		return scope.Locator("." + selector)
	case SelectorTag:
		return scope.Locator(selector)
	case SelectorXPath:
		return scope.Locator("xpath=" + selector)
	default:
		return scope.Locator(selector)
	}
}

// findWithFallbacks tries the primary selector, then each fallback in
// declared order, returning the first handle with at least one match.
// Total failure is a nil locator; the caller decides whether that is
// fatal.
func findWithFallbacks(scope browser.Scope, t SelectorType, selector string, fallbacks []FallbackSelector) (browser.Locator, SelectorType, string) {
	loc := locatorFor(scope, t, selector)
	if n, err := loc.Count(); err == nil && n > 0 {
		return loc, t, selector
	}
	for _, fb := range fallbacks {
		if fb.Selector == "" {
			continue
		}
		fbLoc := locatorFor(scope, fb.SelectorType, fb.Selector)
		if n, err := fbLoc.Count(); err == nil && n > 0 {
			return fbLoc, fb.SelectorType, fb.Selector
		}
	}
	return nil, "", ""
}
