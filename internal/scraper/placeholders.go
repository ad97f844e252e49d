// internal/scraper/placeholders.go
package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	dataPlaceholderRe = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)
	sanitizeRe        = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	whitespaceRunRe   = regexp.MustCompile(`\s+`)
)

// ReplaceIndexPlaceholders binds the loop index into a cloned step field:
// {{i}} becomes the 0-based index, {{i_plus1}} the 1-based one. Unknown
// tokens are left untouched.
func ReplaceIndexPlaceholders(text string, i int) string {
	if text == "" {
		return text
	}
	idx := strconv.Itoa(i)
	idx1 := strconv.Itoa(i + 1)
	r := strings.NewReplacer(
		"{{ i }}", idx,
		"{{i}}", idx,
		"{{ i_plus1 }}", idx1,
		"{{i_plus1}}", idx1,
	)
	return r.Replace(text)
}

// ReplaceDataPlaceholders substitutes {{ key }} tokens with collector
// values coerced to string and sanitized for filesystem use: characters
// outside [A-Za-z0-9 space - _] are stripped and whitespace runs collapse
// to single underscores. Absent keys and nil values leave the token
// verbatim so broken templates stay debuggable.
func ReplaceDataPlaceholders(text string, collector *Collector) string {
	if text == "" || collector == nil {
		return text
	}
	return dataPlaceholderRe.ReplaceAllStringFunc(text, func(token string) string {
		key := strings.TrimSpace(dataPlaceholderRe.FindStringSubmatch(token)[1])
		val, ok := collector.Get(key)
		if !ok || val == nil {
			return token
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", val))
		s = sanitizeRe.ReplaceAllString(s, "")
		return whitespaceRunRe.ReplaceAllString(s, "_")
	})
}

// cloneStepWithIndex deep-copies a step tree, binding the iteration index
// into selector, value and key fields (recursively through sub-steps).
// The template tree is never touched.
func cloneStepWithIndex(step *Step, idx int) *Step {
	cloned := step.Clone()
	bindIndex(cloned, idx)
	return cloned
}

func bindIndex(step *Step, idx int) {
	step.Selector = ReplaceIndexPlaceholders(step.Selector, idx)
	step.Value = ReplaceIndexPlaceholders(step.Value, idx)
	step.Key = ReplaceIndexPlaceholders(step.Key, idx)
	for _, sub := range step.SubSteps {
		bindIndex(sub, idx)
	}
}
