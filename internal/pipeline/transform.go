// internal/pipeline/transform.go
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TransformRule is one declarative post-processing operation applied to an
// extracted string value.
type TransformRule struct {
	Type        string                 `yaml:"type" json:"type"`
	Pattern     string                 `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Replacement string                 `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Format      string                 `yaml:"format,omitempty" json:"format,omitempty"`
	Params      map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

// TransformList applies rules in declared order.
type TransformList []TransformRule

var (
	spacesRe = regexp.MustCompile(`\s+`)
	tagsRe   = regexp.MustCompile(`<[^>]*>`)
	numberRe = regexp.MustCompile(`\d+\.?\d*`)
)

// Apply runs every rule in sequence over input.
func (tl TransformList) Apply(ctx context.Context, input string) (string, error) {
	result := input
	for i, rule := range tl {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var err error
		result, err = rule.Apply(result)
		if err != nil {
			return "", fmt.Errorf("transform rule %d (%s): %w", i, rule.Type, err)
		}
	}
	return result, nil
}

// Apply runs a single rule.
func (tr TransformRule) Apply(input string) (string, error) {
	switch tr.Type {
	case "trim":
		return strings.TrimSpace(input), nil

	case "normalize_spaces":
		return spacesRe.ReplaceAllString(strings.TrimSpace(input), " "), nil

	case "lowercase":
		return strings.ToLower(input), nil

	case "uppercase":
		return strings.ToUpper(input), nil

	case "remove_html":
		return tagsRe.ReplaceAllString(input, ""), nil

	case "extract_number":
		match := numberRe.FindString(input)
		if match == "" {
			return "0", nil
		}
		return match, nil

	case "parse_int":
		cleaned := strings.ReplaceAll(input, ",", "")
		val, err := strconv.Atoi(cleaned)
		if err != nil {
			return "", fmt.Errorf("parse_int: %w", err)
		}
		return strconv.Itoa(val), nil

	case "parse_float":
		cleaned := strings.ReplaceAll(input, ",", "")
		val, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return "", fmt.Errorf("parse_float: %w", err)
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil

	case "parse_date":
		format := tr.Format
		if format == "" {
			format = "2006-01-02"
		}
		if _, err := time.Parse(format, input); err != nil {
			return "", fmt.Errorf("parse_date: %w", err)
		}
		return input, nil

	case "regex":
		if tr.Pattern == "" {
			return "", fmt.Errorf("regex rule requires a pattern")
		}
		re, err := regexp.Compile(tr.Pattern)
		if err != nil {
			return "", fmt.Errorf("invalid pattern: %w", err)
		}
		return re.ReplaceAllString(input, tr.Replacement), nil

	case "prefix":
		v, ok := tr.stringParam("value")
		if !ok {
			return "", fmt.Errorf("prefix rule requires a value parameter")
		}
		return v + input, nil

	case "suffix":
		v, ok := tr.stringParam("value")
		if !ok {
			return "", fmt.Errorf("suffix rule requires a value parameter")
		}
		return input + v, nil

	case "replace":
		oldVal, okOld := tr.stringParam("old")
		newVal, okNew := tr.stringParam("new")
		if !okOld || !okNew {
			return "", fmt.Errorf("replace rule requires old and new parameters")
		}
		return strings.ReplaceAll(input, oldVal, newVal), nil

	default:
		return "", fmt.Errorf("unknown transform type %q", tr.Type)
	}
}

func (tr TransformRule) stringParam(name string) (string, bool) {
	if tr.Params == nil || tr.Params[name] == nil {
		return "", false
	}
	return fmt.Sprintf("%v", tr.Params[name]), true
}

// Validate checks rule configuration without applying anything; used at
// template load time so malformed rules fail before any browser work.
func (tl TransformList) Validate() error {
	for i, rule := range tl {
		switch rule.Type {
		case "trim", "normalize_spaces", "lowercase", "uppercase", "remove_html",
			"extract_number", "parse_int", "parse_float":
		case "parse_date":
			if rule.Format != "" {
				if _, err := time.Parse(rule.Format, rule.Format); err != nil {
					return fmt.Errorf("rule %d: invalid date format: %w", i, err)
				}
			}
		case "regex":
			if rule.Pattern == "" {
				return fmt.Errorf("rule %d: regex pattern is required", i)
			}
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return fmt.Errorf("rule %d: invalid pattern: %w", i, err)
			}
		case "prefix", "suffix":
			if _, ok := rule.stringParam("value"); !ok {
				return fmt.Errorf("rule %d: %s requires a value parameter", i, rule.Type)
			}
		case "replace":
			if _, ok := rule.stringParam("old"); !ok {
				return fmt.Errorf("rule %d: replace requires old and new parameters", i)
			}
			if _, ok := rule.stringParam("new"); !ok {
				return fmt.Errorf("rule %d: replace requires old and new parameters", i)
			}
		default:
			return fmt.Errorf("rule %d: unknown transform type %q", i, rule.Type)
		}
	}
	return nil
}
