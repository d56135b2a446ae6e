package application

import (
	"slices"
	"time"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
)

// ToRecord derives the lead-time record of an assembled, merged pull request.
// Lead time is the merge instant minus the first commit's author date, truncated
// to whole minutes; it is left undefined when the PR has no commits.
func ToRecord(pr model.PullRequest) model.LeadTimeRecord {
	rec := model.LeadTimeRecord{
		Repository:    pr.Repository,
		Number:        pr.Number,
		Title:         pr.Title,
		Author:        pr.Author,
		URL:           pr.URL,
		CreatedAt:     pr.CreatedAt,
		FirstCommitAt: pr.FirstCommitAt(),
		CommitCount:   len(pr.Commits),
	}
	if pr.MergedAt != nil {
		rec.MergedAt = *pr.MergedAt
	}

	if rec.FirstCommitAt != nil && pr.MergedAt != nil {
		minutes := int(rec.MergedAt.Sub(*rec.FirstCommitAt) / time.Minute)
		rec.LeadTimeMinutes = &minutes
	}

	return rec
}

// ToRecords converts pull requests to records, preserving order.
func ToRecords(prs []model.PullRequest) []model.LeadTimeRecord {
	records := make([]model.LeadTimeRecord, 0, len(prs))
	for _, pr := range prs {
		records = append(records, ToRecord(pr))
	}
	return records
}

// Summarize reduces records to average, median, min and max lead time.
//
// Records without a defined lead time count towards TotalCount only. The median
// is the element at index n/2 of the ascending values (the upper median for even
// n). Min and max ties resolve to the first record in input order. An input with
// nothing to measure yields a zeroed summary.
func Summarize(records []model.LeadTimeRecord) model.Summary {
	summary := model.Summary{TotalCount: len(records)}

	values := make([]int, 0, len(records))
	var minIdx, maxIdx = -1, -1
	var sum int64

	for i, r := range records {
		v, ok := r.LeadTime()
		if !ok {
			continue
		}
		values = append(values, v)
		sum += int64(v)

		if minIdx < 0 || v < *records[minIdx].LeadTimeMinutes {
			minIdx = i
		}
		if maxIdx < 0 || v > *records[maxIdx].LeadTimeMinutes {
			maxIdx = i
		}
	}

	if len(values) == 0 {
		return summary
	}

	slices.Sort(values)

	minRec := records[minIdx]
	maxRec := records[maxIdx]

	summary.MeasuredCount = len(values)
	summary.AverageMinutes = float64(sum) / float64(len(values))
	summary.MedianMinutes = values[len(values)/2]
	summary.Min = model.Extreme{Minutes: *minRec.LeadTimeMinutes, Record: &minRec}
	summary.Max = model.Extreme{Minutes: *maxRec.LeadTimeMinutes, Record: &maxRec}

	return summary
}

// BucketPeriods groups records into exactly value contiguous periods of unit,
// oldest first, ending with the period that contains now. Periods without
// records are still emitted. Each period's records are sorted newest merge
// first. Records merged before the first period are not placed in any period;
// their count is returned as unbucketed.
func BucketPeriods(records []model.LeadTimeRecord, unit model.TimeUnit, value int, now time.Time) (periods []model.Period, unbucketed int) {
	if value < 1 {
		return []model.Period{}, len(records)
	}

	last := unit.Floor(now)
	first := unit.Add(last, -(value - 1))

	periods = make([]model.Period, value)
	index := make(map[model.PeriodKey]int, value)
	for i := range periods {
		key := model.PeriodKey{Unit: unit, Start: unit.Add(first, i)}
		periods[i].Key = key
		index[key] = i
	}

	grouped := make([][]model.LeadTimeRecord, value)
	for _, r := range records {
		i, ok := index[unit.KeyFor(r.MergedAt)]
		if !ok {
			unbucketed++
			continue
		}
		grouped[i] = append(grouped[i], r)
	}

	for i := range periods {
		recs := grouped[i]
		periods[i].Summary = Summarize(recs)

		sorted := make([]model.LeadTimeRecord, len(recs))
		copy(sorted, recs)
		slices.SortStableFunc(sorted, func(a, b model.LeadTimeRecord) int {
			return b.MergedAt.Compare(a.MergedAt)
		})
		periods[i].Records = sorted
	}

	return periods, unbucketed
}

// FitTrend fits ys[x] = slope*x + intercept by ordinary least squares over the
// indexes of ys. It reports false when there are fewer than two points.
func FitTrend(ys []float64) (model.Trend, bool) {
	n := len(ys)
	if n < 2 {
		return model.Trend{}, false
	}

	xMean := float64(n-1) / 2
	var yMean float64
	for _, y := range ys {
		yMean += y
	}
	yMean /= float64(n)

	var num, den float64
	for i, y := range ys {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}

	slope := num / den
	return model.Trend{Slope: slope, Intercept: yMean - slope*xMean}, true
}

// FitPeriodTrends fits a trend to the average, median and PR count series of
// periods. Empty periods contribute zeros. It returns nil for fewer than two periods.
func FitPeriodTrends(periods []model.Period) *model.PeriodTrends {
	if len(periods) < 2 {
		return nil
	}

	avg := make([]float64, len(periods))
	median := make([]float64, len(periods))
	count := make([]float64, len(periods))
	for i, p := range periods {
		avg[i] = p.Summary.AverageMinutes
		median[i] = float64(p.Summary.MedianMinutes)
		count[i] = float64(p.Summary.TotalCount)
	}

	trends := &model.PeriodTrends{}
	trends.AverageMinutes, _ = FitTrend(avg)
	trends.MedianMinutes, _ = FitTrend(median)
	trends.PRCount, _ = FitTrend(count)
	return trends
}
