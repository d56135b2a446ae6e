package model

import (
	"fmt"
	"strings"
	"time"
)

// AnalysisRequest describes one lead-time analysis run.
type AnalysisRequest struct {
	Organization string
	Teams        []string
	Unit         string
	Value        int
	// Token overrides the default credential for this run when non-empty.
	Token string
}

// Validate checks the request before any network activity and reports every
// missing or malformed field. token is the credential the run will use.
func (r AnalysisRequest) Validate(token string) (TimeUnit, error) {
	var problems []FieldProblem

	if strings.TrimSpace(token) == "" {
		problems = append(problems, FieldProblem{Field: "token", Message: "a GitHub token is required"})
	}
	if strings.TrimSpace(r.Organization) == "" {
		problems = append(problems, FieldProblem{Field: "organization", Message: "organization is required"})
	}
	if len(r.TeamSlugs()) == 0 {
		problems = append(problems, FieldProblem{Field: "teams", Message: "select at least one team"})
	}

	unit, err := ParseTimeUnit(r.Unit)
	if err != nil {
		problems = append(problems, FieldProblem{Field: "unit", Message: err.Error()})
	}
	if r.Value < 1 {
		problems = append(problems, FieldProblem{Field: "value", Message: fmt.Sprintf("value must be at least 1, got %d", r.Value)})
	}

	if len(problems) > 0 {
		return "", &ValidationError{Problems: problems}
	}
	return unit, nil
}

// TeamSlugs returns the trimmed, non-empty, de-duplicated team slugs in input order.
func (r AnalysisRequest) TeamSlugs() []string {
	seen := make(map[string]bool, len(r.Teams))
	slugs := make([]string, 0, len(r.Teams))
	for _, t := range r.Teams {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		slugs = append(slugs, t)
	}
	return slugs
}

// Warning records a non-fatal problem encountered during an analysis.
type Warning struct {
	Repository RepositoryRef
	Message    string
}

// AnalysisResult is the complete output of one analysis run.
type AnalysisResult struct {
	Organization string
	Teams        []string
	Unit         TimeUnit
	Value        int
	WindowStart  time.Time
	GeneratedAt  time.Time

	Repositories []RepositoryRef
	Members      []string

	Overall Summary
	Periods []Period
	// Trends is nil when the series has fewer than two periods.
	Trends  *PeriodTrends
	Details []LeadTimeRecord

	Warnings []Warning
	// UnbucketedCount is the number of records merged inside the window but before
	// the first period of the series.
	UnbucketedCount int
}

// TimePeriod describes the window, e.g. "3 months".
func (r AnalysisResult) TimePeriod() string {
	return fmt.Sprintf("%d %s", r.Value, r.Unit.Plural())
}
