// Package status models the outcome of one backup or restore category.
package status

import "fmt"

// Status is the severity of a category outcome.
type Status string

// Category outcomes.
const (
	OK    Status = "ok"
	Warn  Status = "warn"
	Skip  Status = "skip"
	Error Status = "error"
	Info  Status = "info"
)

// Result is what every category routine returns to its orchestrator.
type Result struct {
	Category string
	Status   Status
	Message  string
	// Err carries the underlying failure for warn and error results.
	Err error
}

// String renders the result the way it appears in the log.
func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s [%s] %s: %v", r.Category, r.Status, r.Message, r.Err)
	}
	return fmt.Sprintf("%s [%s] %s", r.Category, r.Status, r.Message)
}

// Failed reports whether the result is an error.
func (r Result) Failed() bool {
	return r.Status == Error
}

// Okf builds an ok result.
func Okf(category, format string, args ...any) Result {
	return Result{Category: category, Status: OK, Message: fmt.Sprintf(format, args...)}
}

// Skipf builds a skip result.
func Skipf(category, format string, args ...any) Result {
	return Result{Category: category, Status: Skip, Message: fmt.Sprintf(format, args...)}
}

// Infof builds an info result, used for dry-run reports.
func Infof(category, format string, args ...any) Result {
	return Result{Category: category, Status: Info, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warn result.
func Warnf(category string, err error, format string, args ...any) Result {
	return Result{Category: category, Status: Warn, Message: fmt.Sprintf(format, args...), Err: err}
}

// Errorf builds an error result.
func Errorf(category string, err error, format string, args ...any) Result {
	return Result{Category: category, Status: Error, Message: fmt.Sprintf(format, args...), Err: err}
}

// DryRun builds the info result a category reports instead of acting.
func DryRun(category, action string) Result {
	return Infof(category, "[DRY RUN] Would %s", action)
}

// Results is an ordered list of category outcomes.
type Results []Result

// HasErrors reports whether any result is an error.
func (rs Results) HasErrors() bool {
	for _, r := range rs {
		if r.Failed() {
			return true
		}
	}
	return false
}

// Categories returns the category names in order.
func (rs Results) Categories() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Category
	}
	return out
}

// Find returns the first result for category.
func (rs Results) Find(category string) (Result, bool) {
	for _, r := range rs {
		if r.Category == category {
			return r, true
		}
	}
	return Result{}, false
}
