package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
)

const dateLayout = "2006-01-02"

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body. Fields is set only for
// validation failures.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// AnalysisRequestBody is the JSON body for the analysis endpoint.
type AnalysisRequestBody struct {
	Organization string   `json:"organization"`
	Teams        []string `json:"teams"`
	Unit         string   `json:"unit"`
	Value        int      `json:"value"`
	Token        string   `json:"token,omitempty"`
}

func (b AnalysisRequestBody) toModel() model.AnalysisRequest {
	return model.AnalysisRequest{
		Organization: b.Organization,
		Teams:        b.Teams,
		Unit:         b.Unit,
		Value:        b.Value,
		Token:        b.Token,
	}
}

// CredentialRequest is the JSON body for storing a GitHub token.
type CredentialRequest struct {
	Token string `json:"token"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status               string `json:"status"`
	Time                 string `json:"time"`
	CredentialConfigured bool   `json:"credential_configured"`
}

// AnalysisResponse is the JSON representation of a completed analysis.
type AnalysisResponse struct {
	Organization  string            `json:"organization"`
	Teams         []string          `json:"teams"`
	TimePeriod    string            `json:"time_period"`
	WindowStart   string            `json:"window_start"`
	GeneratedAt   string            `json:"generated_at"`
	RepoCount     int               `json:"repo_count"`
	Repositories  []string          `json:"repositories"`
	MemberCount   int               `json:"member_count"`
	Members       []string          `json:"members"`
	Overall       SummaryResponse   `json:"overall"`
	Periods       []PeriodResponse  `json:"periods"`
	Trends        *TrendsResponse   `json:"trends"`
	Details       []RecordResponse  `json:"details"`
	Warnings      []WarningResponse `json:"warnings"`
	UnbucketedPRs int               `json:"unbucketed_prs"`
}

// SummaryResponse carries the overall statistics, each duration both raw and formatted.
type SummaryResponse struct {
	AverageMinutes float64          `json:"average_minutes"`
	Average        string           `json:"average"`
	MedianMinutes  int              `json:"median_minutes"`
	Median         string           `json:"median"`
	Min            *ExtremeResponse `json:"min"`
	Max            *ExtremeResponse `json:"max"`
	TotalPRs       int              `json:"total_prs"`
	MeasuredPRs    int              `json:"measured_prs"`
}

// ExtremeResponse is the fastest or slowest pull request.
type ExtremeResponse struct {
	Minutes  int           `json:"minutes"`
	Duration string        `json:"duration"`
	PR       PRRefResponse `json:"pr"`
}

// PRRefResponse identifies a pull request.
type PRRefResponse struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Repository string `json:"repository"`
}

// PeriodResponse is one bucket of the trend series. PeriodEnd is the last
// calendar day inside the period.
type PeriodResponse struct {
	PeriodStart    string           `json:"period_start"`
	PeriodEnd      string           `json:"period_end"`
	AverageMinutes float64          `json:"average_minutes"`
	Average        string           `json:"average"`
	MedianMinutes  int              `json:"median_minutes"`
	Median         string           `json:"median"`
	PRCount        int              `json:"pr_count"`
	PRs            []RecordResponse `json:"prs"`
}

// TrendsResponse holds the fitted line of each period series; null when the
// series has fewer than two periods.
type TrendsResponse struct {
	AverageMinutes TrendResponse `json:"average_minutes"`
	MedianMinutes  TrendResponse `json:"median_minutes"`
	PRCount        TrendResponse `json:"pr_count"`
}

// TrendResponse is a least-squares line over period indexes (0 is the oldest).
// Start and End are its values at the first and last period.
type TrendResponse struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// RecordResponse is the lead time of one pull request.
type RecordResponse struct {
	Repository      string  `json:"repository"`
	Number          int     `json:"number"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	URL             string  `json:"url"`
	CreatedAt       string  `json:"created_at"`
	MergedAt        string  `json:"merged_at"`
	FirstCommitAt   *string `json:"first_commit_at"`
	CommitCount     int     `json:"commit_count"`
	LeadTimeMinutes *int    `json:"lead_time_minutes"`
	LeadTime        string  `json:"lead_time,omitempty"`
}

// WarningResponse is a repository skipped during the analysis.
type WarningResponse struct {
	Repository string `json:"repository"`
	Message    string `json:"message"`
}

// NewAnalysisResponse converts an analysis result to its JSON representation.
// Slices are never nil so that empty collections encode as [].
func NewAnalysisResponse(result *model.AnalysisResult) AnalysisResponse {
	repos := make([]string, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, r.FullName())
	}

	periods := make([]PeriodResponse, 0, len(result.Periods))
	for _, p := range result.Periods {
		periods = append(periods, toPeriodResponse(p))
	}

	warnings := make([]WarningResponse, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, WarningResponse{Repository: w.Repository.FullName(), Message: w.Message})
	}

	members := result.Members
	if members == nil {
		members = []string{}
	}

	return AnalysisResponse{
		Organization:  result.Organization,
		Teams:         result.Teams,
		TimePeriod:    result.TimePeriod(),
		WindowStart:   result.WindowStart.UTC().Format(time.RFC3339),
		GeneratedAt:   result.GeneratedAt.UTC().Format(time.RFC3339),
		RepoCount:     len(repos),
		Repositories:  repos,
		MemberCount:   len(members),
		Members:       members,
		Overall:       toSummaryResponse(result.Overall),
		Periods:       periods,
		Trends:        toTrendsResponse(result.Trends, len(periods)),
		Details:       toRecordResponses(result.Details),
		Warnings:      warnings,
		UnbucketedPRs: result.UnbucketedCount,
	}
}

func toSummaryResponse(s model.Summary) SummaryResponse {
	return SummaryResponse{
		AverageMinutes: s.AverageMinutes,
		Average:        model.FormatDuration(s.AverageMinutes),
		MedianMinutes:  s.MedianMinutes,
		Median:         model.FormatDuration(float64(s.MedianMinutes)),
		Min:            toExtremeResponse(s.Min),
		Max:            toExtremeResponse(s.Max),
		TotalPRs:       s.TotalCount,
		MeasuredPRs:    s.MeasuredCount,
	}
}

// toExtremeResponse returns nil when nothing was measured.
func toExtremeResponse(e model.Extreme) *ExtremeResponse {
	if e.Record == nil {
		return nil
	}
	return &ExtremeResponse{
		Minutes:  e.Minutes,
		Duration: model.FormatDuration(float64(e.Minutes)),
		PR: PRRefResponse{
			Number:     e.Record.Number,
			Title:      e.Record.Title,
			URL:        e.Record.URL,
			Repository: e.Record.Repository.FullName(),
		},
	}
}

func toPeriodResponse(p model.Period) PeriodResponse {
	return PeriodResponse{
		PeriodStart:    p.Start().Format(dateLayout),
		PeriodEnd:      p.End().AddDate(0, 0, -1).Format(dateLayout),
		AverageMinutes: p.Summary.AverageMinutes,
		Average:        model.FormatDuration(p.Summary.AverageMinutes),
		MedianMinutes:  p.Summary.MedianMinutes,
		Median:         model.FormatDuration(float64(p.Summary.MedianMinutes)),
		PRCount:        p.Summary.TotalCount,
		PRs:            toRecordResponses(p.Records),
	}
}

func toTrendsResponse(t *model.PeriodTrends, periods int) *TrendsResponse {
	if t == nil {
		return nil
	}
	return &TrendsResponse{
		AverageMinutes: toTrendResponse(t.AverageMinutes, periods),
		MedianMinutes:  toTrendResponse(t.MedianMinutes, periods),
		PRCount:        toTrendResponse(t.PRCount, periods),
	}
}

func toTrendResponse(t model.Trend, periods int) TrendResponse {
	return TrendResponse{
		Slope:     t.Slope,
		Intercept: t.Intercept,
		Start:     t.At(0),
		End:       t.At(periods - 1),
	}
}

func toRecordResponses(records []model.LeadTimeRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	return out
}

func toRecordResponse(r model.LeadTimeRecord) RecordResponse {
	resp := RecordResponse{
		Repository:      r.Repository.FullName(),
		Number:          r.Number,
		Title:           r.Title,
		Author:          r.Author,
		URL:             r.URL,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
		MergedAt:        r.MergedAt.UTC().Format(time.RFC3339),
		CommitCount:     r.CommitCount,
		LeadTimeMinutes: r.LeadTimeMinutes,
	}

	if r.FirstCommitAt != nil {
		s := r.FirstCommitAt.UTC().Format(time.RFC3339)
		resp.FirstCommitAt = &s
	}
	if v, ok := r.LeadTime(); ok {
		resp.LeadTime = model.FormatDuration(float64(v))
	}

	return resp
}
