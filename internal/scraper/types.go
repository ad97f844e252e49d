// internal/scraper/types.go
package scraper

import (
	"github.com/stepwright/stepwright/internal/pipeline"
)

// SelectorType names how a step's selector pattern is interpreted.
type SelectorType string

const (
	SelectorID    SelectorType = "id"
	SelectorClass SelectorType = "class"
	SelectorTag   SelectorType = "tag"
	SelectorXPath SelectorType = "xpath"
)

// DataType selects what a data step reads from the matched element.
type DataType string

const (
	DataText      DataType = "text"
	DataHTML      DataType = "html"
	DataValue     DataType = "value"
	DataAttribute DataType = "attribute"
)

// Action is the closed vocabulary of step kinds.
type Action string

const (
	ActionNavigate          Action = "navigate"
	ActionInput             Action = "input"
	ActionClick             Action = "click"
	ActionData              Action = "data"
	ActionScroll            Action = "scroll"
	ActionEventBaseDownload Action = "eventBaseDownload"
	ActionForeach           Action = "foreach"
	ActionOpen              Action = "open"
	ActionSavePDF           Action = "savePDF"
	ActionDownloadPDF       Action = "downloadPDF"
	ActionDownloadFile      Action = "downloadFile"
	ActionReload            Action = "reload"
	ActionGetURL            Action = "getUrl"
	ActionGetTitle          Action = "getTitle"
	ActionGetMeta           Action = "getMeta"
	ActionGetCookies        Action = "getCookies"
	ActionSetCookies        Action = "setCookies"
	ActionGetLocalStorage   Action = "getLocalStorage"
	ActionSetLocalStorage   Action = "setLocalStorage"
	ActionGetSessionStorage Action = "getSessionStorage"
	ActionSetSessionStorage Action = "setSessionStorage"
	ActionGetViewportSize   Action = "getViewportSize"
	ActionSetViewportSize   Action = "setViewportSize"
	ActionScreenshot        Action = "screenshot"
	ActionWaitForSelector   Action = "waitForSelector"
	ActionEvaluate          Action = "evaluate"
)

// FallbackSelector is an alternate (type, pattern) pair tried when the
// primary selector matches nothing.
type FallbackSelector struct {
	SelectorType SelectorType `yaml:"object_type" json:"object_type"`
	Selector     string       `yaml:"object" json:"object"`
}

// RandomDelay bounds a uniform random pause applied before a step acts.
type RandomDelay struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Step is one declarative unit of browser interaction or data extraction.
// Sub-step trees are template data: the engine clones them per loop
// iteration and never mutates them in place.
type Step struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Action       Action       `yaml:"action" json:"action"`
	SelectorType SelectorType `yaml:"object_type,omitempty" json:"object_type,omitempty"`
	Selector     string       `yaml:"object,omitempty" json:"object,omitempty"`

	Value    string   `yaml:"value,omitempty" json:"value,omitempty"`
	Key      string   `yaml:"key,omitempty" json:"key,omitempty"`
	DataType DataType `yaml:"data_type,omitempty" json:"data_type,omitempty"`

	// Wait is a trailing pause in milliseconds after successful execution.
	Wait int `yaml:"wait,omitempty" json:"wait,omitempty"`

	SubSteps   []*Step `yaml:"subSteps,omitempty" json:"subSteps,omitempty"`
	AutoScroll *bool   `yaml:"autoScroll,omitempty" json:"autoScroll,omitempty"`

	Retry      int `yaml:"retry,omitempty" json:"retry,omitempty"`
	RetryDelay int `yaml:"retryDelay,omitempty" json:"retryDelay,omitempty"`

	SkipIf string `yaml:"skipIf,omitempty" json:"skipIf,omitempty"`
	OnlyIf string `yaml:"onlyIf,omitempty" json:"onlyIf,omitempty"`

	WaitForSelector        string `yaml:"waitForSelector,omitempty" json:"waitForSelector,omitempty"`
	WaitForSelectorTimeout int    `yaml:"waitForSelectorTimeout,omitempty" json:"waitForSelectorTimeout,omitempty"`
	WaitForSelectorState   string `yaml:"waitForSelectorState,omitempty" json:"waitForSelectorState,omitempty"`

	FallbackSelectors []FallbackSelector `yaml:"fallbackSelectors,omitempty" json:"fallbackSelectors,omitempty"`

	ClickModifiers []string `yaml:"clickModifiers,omitempty" json:"clickModifiers,omitempty"`
	DoubleClick    bool     `yaml:"doubleClick,omitempty" json:"doubleClick,omitempty"`
	RightClick     bool     `yaml:"rightClick,omitempty" json:"rightClick,omitempty"`
	ForceClick     bool     `yaml:"forceClick,omitempty" json:"forceClick,omitempty"`

	ClearBeforeInput *bool `yaml:"clearBeforeInput,omitempty" json:"clearBeforeInput,omitempty"`
	InputDelay       int   `yaml:"inputDelay,omitempty" json:"inputDelay,omitempty"`

	Required       bool                   `yaml:"required,omitempty" json:"required,omitempty"`
	DefaultValue   string                 `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
	Regex          string                 `yaml:"regex,omitempty" json:"regex,omitempty"`
	RegexGroup     *int                   `yaml:"regexGroup,omitempty" json:"regexGroup,omitempty"`
	Transform      string                 `yaml:"transform,omitempty" json:"transform,omitempty"`
	TransformRules pipeline.TransformList `yaml:"transformRules,omitempty" json:"transformRules,omitempty"`

	WaitUntil string `yaml:"waitUntil,omitempty" json:"waitUntil,omitempty"`

	RandomDelay *RandomDelay `yaml:"randomDelay,omitempty" json:"randomDelay,omitempty"`

	RequireVisible *bool `yaml:"requireVisible,omitempty" json:"requireVisible,omitempty"`
	RequireEnabled bool  `yaml:"requireEnabled,omitempty" json:"requireEnabled,omitempty"`

	TerminateOnError bool  `yaml:"terminateOnError,omitempty" json:"terminateOnError,omitempty"`
	SkipOnError      bool  `yaml:"skipOnError,omitempty" json:"skipOnError,omitempty"`
	ContinueOnEmpty  *bool `yaml:"continueOnEmpty,omitempty" json:"continueOnEmpty,omitempty"`
}

// Clone deep-copies the step including its sub-step tree. Slices and
// nested steps are fully independent of the receiver.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	out := *s
	out.FallbackSelectors = append([]FallbackSelector(nil), s.FallbackSelectors...)
	out.ClickModifiers = append([]string(nil), s.ClickModifiers...)
	out.TransformRules = append(pipeline.TransformList(nil), s.TransformRules...)
	if s.AutoScroll != nil {
		v := *s.AutoScroll
		out.AutoScroll = &v
	}
	if s.ClearBeforeInput != nil {
		v := *s.ClearBeforeInput
		out.ClearBeforeInput = &v
	}
	if s.RequireVisible != nil {
		v := *s.RequireVisible
		out.RequireVisible = &v
	}
	if s.ContinueOnEmpty != nil {
		v := *s.ContinueOnEmpty
		out.ContinueOnEmpty = &v
	}
	if s.RegexGroup != nil {
		v := *s.RegexGroup
		out.RegexGroup = &v
	}
	if s.RandomDelay != nil {
		v := *s.RandomDelay
		out.RandomDelay = &v
	}
	if s.SubSteps != nil {
		out.SubSteps = make([]*Step, len(s.SubSteps))
		for i, sub := range s.SubSteps {
			out.SubSteps[i] = sub.Clone()
		}
	}
	return &out
}

// autoScroll reports whether foreach should scroll items into view
// (default true).
func (s *Step) autoScroll() bool {
	return s.AutoScroll == nil || *s.AutoScroll
}

// clearBeforeInput reports whether input clears the field first
// (default true).
func (s *Step) clearBeforeInput() bool {
	return s.ClearBeforeInput == nil || *s.ClearBeforeInput
}

// requireVisible reports whether click demands a visible element
// (default true).
func (s *Step) requireVisible() bool {
	return s.RequireVisible == nil || *s.RequireVisible
}

// continueOnEmpty reports whether a zero-match selector is tolerated
// (default true).
func (s *Step) continueOnEmpty() bool {
	return s.ContinueOnEmpty == nil || *s.ContinueOnEmpty
}

// outputKey resolves the collector key for a step: explicit key, then
// step id, then the action-specific fallback.
func (s *Step) outputKey(fallback string) string {
	if s.Key != "" {
		return s.Key
	}
	if s.ID != "" {
		return s.ID
	}
	return fallback
}

// NextButtonConfig configures next-button pagination.
type NextButtonConfig struct {
	SelectorType SelectorType `yaml:"object_type" json:"object_type"`
	Selector     string       `yaml:"object" json:"object"`
	Wait         int          `yaml:"wait,omitempty" json:"wait,omitempty"`
}

// ScrollConfig configures scroll pagination.
type ScrollConfig struct {
	Offset *int `yaml:"offset,omitempty" json:"offset,omitempty"`
	Delay  *int `yaml:"delay,omitempty" json:"delay,omitempty"`
}

// PaginationStrategy selects how the engine advances between pages.
type PaginationStrategy string

const (
	PaginationNext   PaginationStrategy = "next"
	PaginationScroll PaginationStrategy = "scroll"
)

// PaginationConfig drives the tab engine's page loop.
type PaginationConfig struct {
	Strategy   PaginationStrategy `yaml:"strategy" json:"strategy"`
	NextButton *NextButtonConfig  `yaml:"nextButton,omitempty" json:"nextButton,omitempty"`
	Scroll     *ScrollConfig      `yaml:"scroll,omitempty" json:"scroll,omitempty"`
	MaxPages   *int               `yaml:"maxPages,omitempty" json:"maxPages,omitempty"`

	// PaginationFirst advances before running page steps from the second
	// iteration on. PaginateAllFirst advances maxPages times up front and
	// runs page steps once against the final page state.
	PaginationFirst  bool `yaml:"paginationFirst,omitempty" json:"paginationFirst,omitempty"`
	PaginateAllFirst bool `yaml:"paginateAllFirst,omitempty" json:"paginateAllFirst,omitempty"`
}

// TabTemplate is one named workflow: optional one-time init steps, the
// per-page steps, and the pagination policy.
//
// Steps is a deprecated alias for PerPageSteps; when both are non-empty
// PerPageSteps wins.
type TabTemplate struct {
	Tab          string            `yaml:"tab" json:"tab"`
	InitSteps    []*Step           `yaml:"initSteps,omitempty" json:"initSteps,omitempty"`
	PerPageSteps []*Step           `yaml:"perPageSteps,omitempty" json:"perPageSteps,omitempty"`
	Steps        []*Step           `yaml:"steps,omitempty" json:"steps,omitempty"`
	Pagination   *PaginationConfig `yaml:"pagination,omitempty" json:"pagination,omitempty"`
}

// pageSteps resolves the per-page step source.
func (t *TabTemplate) pageSteps() []*Step {
	if len(t.PerPageSteps) > 0 {
		return t.PerPageSteps
	}
	return t.Steps
}

// ResultCallback receives each emitted record with a 0-based index.
// Errors are logged by the engine, never propagated.
type ResultCallback func(record interface{}, index int) error
