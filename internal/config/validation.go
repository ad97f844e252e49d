// internal/config/validation.go
package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stepwright/stepwright/internal/scraper"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ValidationResult collects errors and non-fatal warnings.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) addError(field, value, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var validOutputFormats = map[string]bool{
	"json": true, "csv": true, "excel": true, "sqlite": true, "postgres": true,
}

var validSelectorTypes = map[scraper.SelectorType]bool{
	"": true, scraper.SelectorID: true, scraper.SelectorClass: true,
	scraper.SelectorTag: true, scraper.SelectorXPath: true,
}

// Validate checks the whole run configuration, reporting every problem
// at once rather than stopping at the first.
func (cfg *RunConfig) Validate() error {
	result := cfg.ValidateDetailed()
	if len(result.Errors) == 0 {
		return nil
	}

	msgs := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Errorf("%d validation error(s): %s", len(result.Errors), strings.Join(msgs, "; "))
}

// ValidateDetailed runs every check and returns the full result,
// including warnings, for tooling that wants to display them.
func (cfg *RunConfig) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if cfg.Name == "" {
		result.addWarning("run has no name; logs will be harder to correlate")
	}

	cfg.validateOutput(result)

	if cfg.PageRate < 0 {
		result.addError("page_rate", fmt.Sprintf("%g", cfg.PageRate), "must not be negative")
	}

	if len(cfg.Tabs) == 0 {
		result.addError("tabs", "[]", "at least one tab must be configured")
	}

	seen := make(map[string]bool)
	for i, tab := range cfg.Tabs {
		field := fmt.Sprintf("tabs[%d]", i)
		if tab.Tab == "" {
			result.addError(field+".tab", "", "tab name is required")
		} else if seen[tab.Tab] {
			result.addWarning("duplicate tab name %q", tab.Tab)
		}
		seen[tab.Tab] = true

		validateTab(tab, field, result)
	}

	return result
}

func (cfg *RunConfig) validateOutput(result *ValidationResult) {
	format := cfg.Output.Format
	if !validOutputFormats[format] {
		result.addError("output.format", format, "unknown output format")
		return
	}

	switch format {
	case "sqlite":
		if cfg.Output.File == "" && cfg.Output.DSN == "" {
			result.addError("output.file", "", "sqlite output requires a database file")
		}
	case "postgres":
		if cfg.Output.DSN == "" {
			result.addError("output.dsn", "", "postgres output requires a DSN")
		}
	default:
		if cfg.Output.File == "" {
			result.addWarning("no output file configured; records go to stdout")
		}
	}

	if (format == "sqlite" || format == "postgres") && cfg.Output.Table == "" {
		result.addError("output.table", "", "database output requires a table name")
	}
}

func validateTab(tab *scraper.TabTemplate, field string, result *ValidationResult) {
	if len(tab.PerPageSteps) == 0 && len(tab.Steps) == 0 && len(tab.InitSteps) == 0 {
		result.addError(field, "", "tab declares no steps")
	}
	if len(tab.PerPageSteps) > 0 && len(tab.Steps) > 0 {
		result.addWarning("%s sets both perPageSteps and steps; steps is ignored", field)
	}

	validateSteps(tab.InitSteps, field+".initSteps", result)
	validateSteps(tab.PerPageSteps, field+".perPageSteps", result)
	validateSteps(tab.Steps, field+".steps", result)

	if tab.Pagination != nil {
		validatePagination(tab.Pagination, field+".pagination", result)
	}
}

func validatePagination(p *scraper.PaginationConfig, field string, result *ValidationResult) {
	switch p.Strategy {
	case scraper.PaginationNext:
		if p.NextButton == nil || p.NextButton.Selector == "" {
			result.addError(field+".nextButton", "", "next strategy requires a button selector")
		}
	case scraper.PaginationScroll:
	default:
		result.addError(field+".strategy", string(p.Strategy), "unknown pagination strategy")
	}

	if p.MaxPages != nil && *p.MaxPages < 1 {
		result.addError(field+".maxPages", fmt.Sprintf("%d", *p.MaxPages), "must be at least 1")
	}
	if p.PaginationFirst && p.PaginateAllFirst {
		result.addWarning("%s sets both paginationFirst and paginateAllFirst; paginateAllFirst wins", field)
	}
}

func validateSteps(steps []*scraper.Step, field string, result *ValidationResult) {
	for i, step := range steps {
		validateStep(step, fmt.Sprintf("%s[%d]", field, i), result)
	}
}

func validateStep(step *scraper.Step, field string, result *ValidationResult) {
	if step == nil {
		result.addError(field, "", "step is null")
		return
	}

	if !step.Action.Valid() {
		result.addError(field+".action", string(step.Action), "unknown action")
	}
	if !validSelectorTypes[step.SelectorType] {
		result.addError(field+".object_type", string(step.SelectorType), "unknown selector type")
	}

	switch step.Action {
	case scraper.ActionNavigate:
		if step.Value == "" {
			result.addError(field+".value", "", "navigate requires a URL")
		}
	case scraper.ActionForeach, scraper.ActionOpen:
		if step.Selector == "" {
			result.addError(field+".object", "", string(step.Action)+" requires a selector")
		}
		if len(step.SubSteps) == 0 {
			result.addError(field+".subSteps", "", string(step.Action)+" requires sub-steps")
		}
	case scraper.ActionEventBaseDownload, scraper.ActionSavePDF,
		scraper.ActionDownloadPDF, scraper.ActionDownloadFile:
		if step.Value == "" {
			result.addError(field+".value", "", string(step.Action)+" requires a target filepath")
		}
	case scraper.ActionSetViewportSize:
		if _, _, err := scraper.ParseViewportSize(step.Value); err != nil {
			result.addError(field+".value", step.Value, "viewport size must look like 1920x1080")
		}
	case scraper.ActionEvaluate:
		if step.Value == "" {
			result.addError(field+".value", "", "evaluate requires an expression")
		}
	}

	if step.Regex != "" {
		if _, err := regexp.Compile(step.Regex); err != nil {
			result.addError(field+".regex", step.Regex, "invalid regular expression")
		}
	}
	if step.RegexGroup != nil && *step.RegexGroup < 0 {
		result.addError(field+".regexGroup", fmt.Sprintf("%d", *step.RegexGroup), "must not be negative")
	}

	if step.RandomDelay != nil {
		rd := step.RandomDelay
		if rd.Min < 0 || rd.Max < rd.Min {
			result.addError(field+".randomDelay", fmt.Sprintf("%d..%d", rd.Min, rd.Max), "requires 0 <= min <= max")
		}
	}

	if step.Retry < 0 {
		result.addError(field+".retry", fmt.Sprintf("%d", step.Retry), "must not be negative")
	}

	if err := step.TransformRules.Validate(); err != nil {
		result.addError(field+".transformRules", "", err.Error())
	}

	if step.SkipOnError && step.TerminateOnError {
		result.addWarning("%s sets both skipOnError and terminateOnError; skipOnError wins", field)
	}

	validateSteps(step.SubSteps, field+".subSteps", result)
}
