package doctor

import (
	"strings"
	"time"
)

// Check is the interface that dependency checks must implement.
type Check interface {
	// Name returns the unique identifier for this check.
	Name() string

	// Category returns the grouping for this check ("required", "optional").
	Category() string

	// Run executes the check and returns its result.
	Run() *CheckResult
}

// Runner executes checks and aggregates their results.
type Runner struct {
	checks []Check
}

// NewRunner creates a new check runner.
func NewRunner() *Runner {
	return &Runner{
		checks: make([]Check, 0),
	}
}

// AddCheck registers a check with the runner.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Run executes all registered checks in registration order.
func (r *Runner) Run() *Report {
	report := &Report{
		Timestamp: time.Now().UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}

	for _, check := range r.checks {
		result := check.Run()
		report.Results = append(report.Results, result)

		switch result.Status {
		case SeverityPass:
			report.Summary.Passed++
		case SeverityInfo:
			report.Summary.Info++
		case SeverityWarning:
			report.Summary.Warnings++
		case SeverityError:
			report.Summary.Errors++
		}
	}

	return report
}

// Report aggregates all check results.
type Report struct {
	Timestamp time.Time      `json:"timestamp"`
	Results   []*CheckResult `json:"results"`
	Summary   Summary        `json:"summary"`
}

// HasErrors returns true if any required binary is missing.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings returns true if any optional binary is missing.
func (r *Report) HasWarnings() bool {
	return r.Summary.Warnings > 0
}

// Missing returns the names of the checks that reported an error.
func (r *Report) Missing() []string {
	var names []string
	for _, res := range r.Results {
		if res.Status == SeverityError {
			names = append(names, res.Name)
		}
	}
	return names
}

// InstallHint returns the command that installs the missing binaries.
// Empty when nothing is missing.
func (r *Report) InstallHint() string {
	missing := r.Missing()
	if len(missing) == 0 {
		return ""
	}
	for _, res := range r.Results {
		if res.Status == SeverityError && res.FixHint != "" {
			// Every result shares the package manager prefix.
			prefix := strings.TrimSuffix(res.FixHint, " "+res.Name)
			return prefix + " " + strings.Join(missing, " ")
		}
	}
	return ""
}
