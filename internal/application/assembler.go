package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
	"github.com/ericfisherdev/leadtime/internal/paging"
)

// Assembler collects the merged pull requests of one repository that fall inside
// the analysis window and were authored by a team member, with their commits.
type Assembler struct {
	ghClient driven.GitHubClient
}

// NewAssembler creates an Assembler reading through the given client.
func NewAssembler(ghClient driven.GitHubClient) *Assembler {
	return &Assembler{ghClient: ghClient}
}

// Assemble walks the repository's closed pull requests, newest updated first,
// and returns the retained ones with their full commit history attached.
//
// Paging stops on a page that retains nothing. Retention requires a merge after
// windowStart, so a page whose oldest retained pull request merged before the
// window cannot occur and needs no separate check.
func (a *Assembler) Assemble(ctx context.Context, repo model.RepositoryRef, windowStart time.Time, members model.MemberSet) ([]model.PullRequest, error) {
	fetch := func(ctx context.Context, page int) ([]model.PullRequest, error) {
		return a.ghClient.FetchClosedPullRequestPage(ctx, repo, page)
	}

	transform := func(ctx context.Context, page []model.PullRequest) ([]model.PullRequest, bool, error) {
		retained := retainPullRequests(page, windowStart, members)
		if len(retained) == 0 {
			return nil, false, nil
		}

		if err := a.attachCommits(ctx, repo, retained); err != nil {
			return nil, false, err
		}

		return retained, true, nil
	}

	prs, err := paging.ReadPages(ctx, fetch, transform)
	if err != nil {
		return nil, err
	}

	slog.Debug("repository assembled", "repo", repo.FullName(), "prs", len(prs))

	return prs, nil
}

// retainPullRequests keeps merged pull requests merged after windowStart and
// authored by a member, in page order.
func retainPullRequests(page []model.PullRequest, windowStart time.Time, members model.MemberSet) []model.PullRequest {
	var retained []model.PullRequest
	for _, pr := range page {
		if pr.MergedAfter(windowStart) && members.Has(pr.Author) {
			retained = append(retained, pr)
		}
	}
	return retained
}

// attachCommits fetches the commit history of every pull request concurrently
// and waits for all of them. Any failure fails the whole page.
func (a *Assembler) attachCommits(ctx context.Context, repo model.RepositoryRef, prs []model.PullRequest) error {
	var g errgroup.Group

	for i := range prs {
		g.Go(func() error {
			commits, err := a.ghClient.FetchCommits(ctx, repo, prs[i].Number)
			if err != nil {
				return fmt.Errorf("fetching commits for %s#%d: %w", repo.FullName(), prs[i].Number, err)
			}
			prs[i].Commits = commits
			return nil
		})
	}

	return g.Wait()
}
