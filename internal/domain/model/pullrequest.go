package model

import "time"

// PullRequest is a closed pull request as read from GitHub, optionally carrying
// its commit history once assembled.
type PullRequest struct {
	Repository RepositoryRef
	Number     int
	Title      string
	Author     string
	URL        string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	MergedAt   *time.Time // nil when the PR was closed without merging.

	// Commits is ordered as returned by the API across pages; Commits[0] is the first commit.
	Commits []Commit
}

// IsMerged reports whether the pull request has a merge timestamp.
func (pr PullRequest) IsMerged() bool {
	return pr.MergedAt != nil && !pr.MergedAt.IsZero()
}

// MergedAfter reports whether the pull request was merged strictly after t.
func (pr PullRequest) MergedAfter(t time.Time) bool {
	return pr.IsMerged() && pr.MergedAt.After(t)
}

// FirstCommitAt returns the authored timestamp of the first commit, or nil when
// the pull request has no commits attached.
func (pr PullRequest) FirstCommitAt() *time.Time {
	if len(pr.Commits) == 0 {
		return nil
	}
	t := pr.Commits[0].AuthoredAt
	return &t
}

// Commit is a single commit belonging to a pull request.
type Commit struct {
	SHA        string
	Author     string
	Message    string
	AuthoredAt time.Time
}
