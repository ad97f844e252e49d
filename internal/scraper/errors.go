// internal/scraper/errors.go
package scraper

import "errors"

// Error taxonomy. Step failures wrap one of these sentinels so callers
// and tests can classify outcomes with errors.Is.
var (
	// ErrNotFound: selector, element or attribute absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation: required field empty or malformed config value.
	ErrValidation = errors.New("validation failed")
	// ErrActionFailed: click, navigation, transform or evaluate raised.
	ErrActionFailed = errors.New("action failed")
	// ErrTimeout: wait-for-selector or download expectation exceeded.
	ErrTimeout = errors.New("timeout")
)
