package driven

import (
	"context"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
)

// GitHubClient defines the driven port for reading team, repository, pull request
// and commit data from the GitHub API. Every method returns *model.RemoteError
// (possibly wrapped) when GitHub answers with a non-success status.
type GitHubClient interface {
	// FetchTeamMembers returns the login of every member of the team, across all pages.
	FetchTeamMembers(ctx context.Context, org, teamSlug string) ([]string, error)

	// FetchTeamRepositories returns every repository the team has access to, with
	// the team's permission flags. Filtering is left to the caller.
	FetchTeamRepositories(ctx context.Context, org, teamSlug string) ([]model.TeamRepository, error)

	// FetchClosedPullRequestPage returns one 1-indexed page of closed pull requests,
	// most recently updated first. An empty slice means the listing is exhausted.
	FetchClosedPullRequestPage(ctx context.Context, repo model.RepositoryRef, page int) ([]model.PullRequest, error)

	// FetchCommits returns the full commit list of a pull request in API order.
	FetchCommits(ctx context.Context, repo model.RepositoryRef, prNumber int) ([]model.Commit, error)
}
