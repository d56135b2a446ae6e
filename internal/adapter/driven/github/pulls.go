package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
	"github.com/ericfisherdev/leadtime/internal/paging"
)

// FetchClosedPullRequestPage retrieves a single page of closed pull requests,
// most recently updated first.
func (c *Client) FetchClosedPullRequestPage(ctx context.Context, repo model.RepositoryRef, page int) ([]model.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: pageOptions(page),
	}

	prs, resp, err := c.gh.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
	if err := c.settle(ctx, resp, err); err != nil {
		return nil, fmt.Errorf("listing pull requests for %s (page %d): %w", repo.FullName(), page, err)
	}

	logRateLimit(resp, repo.FullName(), page, len(prs))

	out := make([]model.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, mapPullRequest(pr, repo))
	}
	return out, nil
}

// FetchCommits retrieves every commit of a pull request in the order GitHub
// returns them, walking pages until a short page is returned.
func (c *Client) FetchCommits(ctx context.Context, repo model.RepositoryRef, prNumber int) ([]model.Commit, error) {
	commits, err := paging.ReadAll(ctx, func(ctx context.Context, page int) ([]*gh.RepositoryCommit, error) {
		opts := pageOptions(page)
		commits, resp, err := c.gh.PullRequests.ListCommits(ctx, repo.Owner, repo.Name, prNumber, &opts)
		if err := c.settle(ctx, resp, err); err != nil {
			return nil, fmt.Errorf("listing commits for %s#%d (page %d): %w", repo.FullName(), prNumber, page, err)
		}
		logRateLimit(resp, repo.FullName()+"/commits", page, len(commits))
		return commits, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Commit, 0, len(commits))
	for _, rc := range commits {
		out = append(out, mapCommit(rc))
	}
	return out, nil
}

// mapPullRequest converts a go-github PullRequest to a domain model PullRequest.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest, repo model.RepositoryRef) model.PullRequest {
	var mergedAt *time.Time
	if merged := pr.GetMergedAt(); !merged.IsZero() {
		t := merged.UTC()
		mergedAt = &t
	}

	return model.PullRequest{
		Repository: repo,
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		Author:     pr.GetUser().GetLogin(),
		URL:        pr.GetHTMLURL(),
		CreatedAt:  pr.GetCreatedAt().UTC(),
		UpdatedAt:  pr.GetUpdatedAt().UTC(),
		MergedAt:   mergedAt,
	}
}

// mapCommit converts a go-github RepositoryCommit to a domain Commit, keeping the
// git author date as the commit timestamp.
func mapCommit(rc *gh.RepositoryCommit) model.Commit {
	author := rc.GetAuthor().GetLogin()
	if author == "" {
		author = rc.GetCommit().GetAuthor().GetName()
	}

	message, _, _ := strings.Cut(rc.GetCommit().GetMessage(), "\n")

	return model.Commit{
		SHA:        rc.GetSHA(),
		Author:     author,
		Message:    message,
		AuthoredAt: rc.GetCommit().GetAuthor().GetDate().UTC(),
	}
}
