// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
)

// AnalysisService runs lead-time analyses: it resolves team members and
// repositories, assembles every repository's pull requests and reduces them
// into overall and per-period statistics.
type AnalysisService struct {
	provider *GitHubClientProvider
	now      func() time.Time
}

// AnalysisOption configures an AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithClock sets the reference instant used for the analysis window.
func WithClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) {
		s.now = now
	}
}

// NewAnalysisService creates an AnalysisService that obtains clients from provider.
func NewAnalysisService(provider *GitHubClientProvider, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one analysis. Input problems are reported as *model.ValidationError
// before any network call. Failing to resolve a team's members or repositories
// aborts the run with *model.ResolutionError. Failures assembling a single
// repository are logged, recorded as warnings and otherwise ignored.
func (s *AnalysisService) Run(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	token := s.provider.Resolve(req.Token)
	unit, err := req.Validate(token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	now := s.now().UTC()
	windowStart := unit.WindowStart(now, req.Value)
	teams := req.TeamSlugs()
	ghClient := s.provider.ForToken(token)

	slog.Info("analysis started",
		"org", req.Organization,
		"teams", teams,
		"unit", unit,
		"value", req.Value,
		"window_start", windowStart,
	)

	var (
		members model.MemberSet
		repos   []model.RepositoryRef
		g       errgroup.Group
	)
	g.Go(func() error {
		var err error
		members, err = resolveMembers(ctx, ghClient, req.Organization, teams)
		return err
	})
	g.Go(func() error {
		var err error
		repos, err = resolveRepositories(ctx, ghClient, req.Organization, teams)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prs, warnings := assembleAll(ctx, NewAssembler(ghClient), repos, windowStart, members)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis of %s cancelled: %w", req.Organization, err)
	}

	records := ToRecords(prs)
	periods, unbucketed := BucketPeriods(records, unit, req.Value, now)

	result := &model.AnalysisResult{
		Organization:    req.Organization,
		Teams:           teams,
		Unit:            unit,
		Value:           req.Value,
		WindowStart:     windowStart,
		GeneratedAt:     now,
		Repositories:    repos,
		Members:         members.Sorted(),
		Overall:         Summarize(records),
		Periods:         periods,
		Trends:          FitPeriodTrends(periods),
		Details:         records,
		Warnings:        warnings,
		UnbucketedCount: unbucketed,
	}

	slog.Info("analysis complete",
		"org", req.Organization,
		"repos", len(repos),
		"members", len(members),
		"prs", len(records),
		"warnings", len(warnings),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return result, nil
}

// resolveMembers fetches every team's members concurrently and unions them.
func resolveMembers(ctx context.Context, ghClient driven.GitHubClient, org string, teams []string) (model.MemberSet, error) {
	perTeam := make([][]string, len(teams))

	var g errgroup.Group
	for i, team := range teams {
		g.Go(func() error {
			logins, err := ghClient.FetchTeamMembers(ctx, org, team)
			if err != nil {
				return &model.ResolutionError{Team: team, Resource: "members", Err: err}
			}
			perTeam[i] = logins
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	members := model.NewMemberSet()
	for _, logins := range perTeam {
		members.Add(logins...)
	}
	return members, nil
}

// resolveRepositories fetches every team's repositories concurrently, keeps the
// ones the team maintains and de-duplicates them in first-seen order.
func resolveRepositories(ctx context.Context, ghClient driven.GitHubClient, org string, teams []string) ([]model.RepositoryRef, error) {
	perTeam := make([][]model.TeamRepository, len(teams))

	var g errgroup.Group
	for i, team := range teams {
		g.Go(func() error {
			repos, err := ghClient.FetchTeamRepositories(ctx, org, team)
			if err != nil {
				return &model.ResolutionError{Team: team, Resource: "repositories", Err: err}
			}
			perTeam[i] = repos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[model.RepositoryRef]bool)
	refs := []model.RepositoryRef{}
	for _, repos := range perTeam {
		for _, r := range repos {
			if !r.OwnedByTeam() || seen[r.Ref] {
				continue
			}
			seen[r.Ref] = true
			refs = append(refs, r.Ref)
		}
	}
	return refs, nil
}

// assembleAll runs the assembler for every repository concurrently. A failed
// repository contributes no pull requests and produces a warning instead.
func assembleAll(ctx context.Context, assembler *Assembler, repos []model.RepositoryRef, windowStart time.Time, members model.MemberSet) ([]model.PullRequest, []model.Warning) {
	perRepo := make([][]model.PullRequest, len(repos))
	failures := make([]error, len(repos))

	var wg sync.WaitGroup
	for i, repo := range repos {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prs, err := assembler.Assemble(ctx, repo, windowStart, members)
			if err != nil {
				failures[i] = &model.RepositoryAssemblyError{Repository: repo, Err: err}
				return
			}
			perRepo[i] = prs
		}()
	}
	wg.Wait()

	var all []model.PullRequest
	warnings := []model.Warning{}
	for i, repo := range repos {
		if failures[i] != nil {
			slog.Warn("repository skipped", "repo", repo.FullName(), "error", failures[i])
			warnings = append(warnings, model.Warning{Repository: repo, Message: failures[i].Error()})
			continue
		}
		all = append(all, perRepo[i]...)
	}

	return all, warnings
}
