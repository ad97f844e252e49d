// internal/scraper/extract.go
package scraper

import (
	"fmt"
	"regexp"

	"github.com/stepwright/stepwright/internal/browser"
)

// attrSuffixRe matches the trailing /@name segment of an
// attribute-extraction selector.
var attrSuffixRe = regexp.MustCompile(`/@(\w+)$`)

// handleData extracts raw content from the resolved element and applies
// the post-processing chain: regex extraction, page-side transform,
// declarative transform rules, then required/default resolution.
func (e *Engine) handleData(sc *stepContext, step *Step) error {
	key := step.outputKey("data")

	// An attribute selector carries its attribute as a /@name suffix that
	// must be stripped before locating the element.
	selector := step.Selector
	attrName := ""
	if step.DataType == DataAttribute {
		if m := attrSuffixRe.FindStringSubmatch(selector); m != nil {
			attrName = m[1]
			selector = attrSuffixRe.ReplaceAllString(selector, "")
		}
	}

	waitForSelectorIfConfigured(sc.searchScope(), step)

	loc, _, _ := findWithFallbacks(sc.searchScope(), step.SelectorType, selector, step.FallbackSelectors)
	if loc == nil {
		if step.Required {
			return fmt.Errorf("required element %q: %w", selector, ErrValidation)
		}
		sc.collector.Set(key, defaultOrNil(step))
		if !step.continueOnEmpty() {
			return fmt.Errorf("element %q: %w", selector, ErrNotFound)
		}
		e.observer.Warning(step, "element not found, using default", nil)
		return nil
	}

	value, err := readRawValue(loc.First(), step.DataType, attrName)
	if err != nil {
		if step.Required {
			return fmt.Errorf("extract %q: %w (%v)", selector, ErrActionFailed, err)
		}
		e.observer.Warning(step, "extraction failed, using default", err)
		sc.collector.Set(key, defaultOrNil(step))
		return nil
	}

	if value != "" {
		value = applyRegexExtraction(value, step.Regex, step.RegexGroup)
	}
	if value != "" && step.Transform != "" {
		value = e.applyPageTransform(sc, step, value)
	}
	if value != "" && len(step.TransformRules) > 0 {
		transformed, err := step.TransformRules.Apply(sc.ctx, value)
		if err != nil {
			e.observer.Warning(step, "transform rules failed, keeping raw value", err)
		} else {
			value = transformed
		}
	}

	if step.Required && value == "" {
		return fmt.Errorf("required field %q is empty: %w", key, ErrValidation)
	}
	if value == "" {
		sc.collector.Set(key, defaultOrNil(step))
		return nil
	}
	sc.collector.Set(key, value)
	return nil
}

func defaultOrNil(step *Step) interface{} {
	if step.DefaultValue != "" {
		return step.DefaultValue
	}
	return nil
}

// readRawValue reads element content per the extraction subtype,
// defaulting to text content.
func readRawValue(el browser.Locator, dt DataType, attrName string) (string, error) {
	switch dt {
	case DataText:
		return el.TextContent()
	case DataHTML:
		return el.InnerHTML()
	case DataValue:
		return el.InputValue()
	case DataAttribute:
		if attrName == "" {
			return el.TextContent()
		}
		return el.GetAttribute(attrName)
	default:
		return el.TextContent()
	}
}

// applyRegexExtraction searches value with the configured pattern and
// returns the requested capture group (default: whole match). No match,
// a bad pattern, or an out-of-range group all return the original value.
func applyRegexExtraction(value, pattern string, group *int) string {
	if pattern == "" {
		return value
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return value
	}
	match := re.FindStringSubmatch(value)
	if match == nil {
		return value
	}
	idx := 0
	if group != nil {
		idx = *group
	}
	if idx < 0 || idx >= len(match) {
		idx = 0
	}
	return match[idx]
}

// applyPageTransform evaluates the step's transform expression against
// the page with the current value bound as a free variable. Transform
// errors keep the pre-transform value.
func (e *Engine) applyPageTransform(sc *stepContext, step *Step, value string) string {
	expr := ReplaceDataPlaceholders(step.Transform, sc.collector)
	result, err := sc.page.Evaluate("(value) => "+expr, value)
	if err != nil {
		e.observer.Warning(step, "transform failed, keeping raw value", err)
		return value
	}
	if result == nil {
		return value
	}
	return fmt.Sprintf("%v", result)
}
