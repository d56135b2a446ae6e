package model

import "time"

// LeadTimeRecord is the per-pull-request lead time derived from an assembled PR.
type LeadTimeRecord struct {
	Repository    RepositoryRef
	Number        int
	Title         string
	Author        string
	URL           string
	CreatedAt     time.Time
	MergedAt      time.Time
	FirstCommitAt *time.Time // nil when the PR had no commits.
	CommitCount   int

	// LeadTimeMinutes is MergedAt minus FirstCommitAt in whole minutes. It may be
	// negative when history was rewritten, and is nil when FirstCommitAt is nil.
	LeadTimeMinutes *int
}

// LeadTime returns the lead time in minutes and whether it is defined.
func (r LeadTimeRecord) LeadTime() (int, bool) {
	if r.LeadTimeMinutes == nil {
		return 0, false
	}
	return *r.LeadTimeMinutes, true
}

// Extreme is a minimum or maximum lead time together with the record that produced it.
// Record is nil when there was nothing to measure.
type Extreme struct {
	Minutes int
	Record  *LeadTimeRecord
}

// Summary holds the reduced statistics for a set of lead-time records.
type Summary struct {
	AverageMinutes float64
	MedianMinutes  int
	Min            Extreme
	Max            Extreme
	// TotalCount includes records without a defined lead time.
	TotalCount int
	// MeasuredCount is the number of records that fed average, median, min and max.
	MeasuredCount int
}

// Period is one calendar-aligned bucket of the trend series.
type Period struct {
	Key     PeriodKey
	Summary Summary
	// Records are sorted by merge time, newest first.
	Records []LeadTimeRecord
}

// Start returns the inclusive start of the period.
func (p Period) Start() time.Time {
	return p.Key.Start
}

// End returns the exclusive end of the period.
func (p Period) End() time.Time {
	return p.Key.End()
}

// Trend is a least-squares line fitted to a period series, where x is the period
// index with 0 for the oldest period.
type Trend struct {
	Slope     float64
	Intercept float64
}

// At returns the fitted value at period index x.
func (t Trend) At(x int) float64 {
	return t.Slope*float64(x) + t.Intercept
}

// PeriodTrends holds the fitted line of each plotted series.
type PeriodTrends struct {
	AverageMinutes Trend
	MedianMinutes  Trend
	PRCount        Trend
}
