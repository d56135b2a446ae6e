package application_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
)

// mockGitHubClient serves canned team, page and commit data keyed by name.
type mockGitHubClient struct {
	mu sync.Mutex

	members   map[string][]string
	memberErr map[string]error
	repos     map[string][]model.TeamRepository
	repoErr   map[string]error

	// pages maps "owner/name" to the pull request pages served for it, page 1 first.
	pages   map[string][][]model.PullRequest
	pageErr map[string]error

	// commits maps "owner/name#number" to that pull request's commits.
	commits   map[string][]model.Commit
	commitErr map[string]error

	pageCalls   map[string][]int
	commitCalls []string
	calls       int
}

func newMockGitHubClient() *mockGitHubClient {
	return &mockGitHubClient{
		members:   map[string][]string{},
		memberErr: map[string]error{},
		repos:     map[string][]model.TeamRepository{},
		repoErr:   map[string]error{},
		pages:     map[string][][]model.PullRequest{},
		pageErr:   map[string]error{},
		commits:   map[string][]model.Commit{},
		commitErr: map[string]error{},
		pageCalls: map[string][]int{},
	}
}

func (m *mockGitHubClient) FetchTeamMembers(_ context.Context, _, teamSlug string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.memberErr[teamSlug]; err != nil {
		return nil, err
	}
	return m.members[teamSlug], nil
}

func (m *mockGitHubClient) FetchTeamRepositories(_ context.Context, _, teamSlug string) ([]model.TeamRepository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.repoErr[teamSlug]; err != nil {
		return nil, err
	}
	return m.repos[teamSlug], nil
}

func (m *mockGitHubClient) FetchClosedPullRequestPage(_ context.Context, repo model.RepositoryRef, page int) ([]model.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	name := repo.FullName()
	m.pageCalls[name] = append(m.pageCalls[name], page)
	if err := m.pageErr[name]; err != nil {
		return nil, err
	}
	pages := m.pages[name]
	if page > len(pages) {
		return []model.PullRequest{}, nil
	}
	out := make([]model.PullRequest, len(pages[page-1]))
	copy(out, pages[page-1])
	return out, nil
}

func (m *mockGitHubClient) FetchCommits(_ context.Context, repo model.RepositoryRef, prNumber int) ([]model.Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	key := fmt.Sprintf("%s#%d", repo.FullName(), prNumber)
	m.commitCalls = append(m.commitCalls, key)
	if err := m.commitErr[key]; err != nil {
		return nil, err
	}
	return m.commits[key], nil
}

func (m *mockGitHubClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- fixtures ---

var refNow = time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsPtr(s string) *time.Time {
	t := ts(s)
	return &t
}

func repoRef(name string) model.RepositoryRef {
	return model.RepositoryRef{Owner: "acme", Name: name}
}

func maintained(name string) model.TeamRepository {
	return model.TeamRepository{Ref: repoRef(name), Permissions: model.Permissions{Maintain: true, Push: true, Pull: true}}
}

func readOnly(name string) model.TeamRepository {
	return model.TeamRepository{Ref: repoRef(name), Permissions: model.Permissions{Pull: true}}
}

func mergedPR(repo string, number int, author, mergedAt string) model.PullRequest {
	return model.PullRequest{
		Repository: repoRef(repo),
		Number:     number,
		Title:      fmt.Sprintf("PR %d", number),
		Author:     author,
		URL:        fmt.Sprintf("https://github.com/acme/%s/pull/%d", repo, number),
		CreatedAt:  ts(mergedAt).Add(-48 * time.Hour),
		UpdatedAt:  ts(mergedAt),
		MergedAt:   tsPtr(mergedAt),
	}
}

func closedPR(repo string, number int, author string) model.PullRequest {
	return model.PullRequest{
		Repository: repoRef(repo),
		Number:     number,
		Author:     author,
		CreatedAt:  refNow.Add(-72 * time.Hour),
		UpdatedAt:  refNow.Add(-24 * time.Hour),
	}
}

func commitAt(sha, authoredAt string) model.Commit {
	return model.Commit{SHA: sha, Author: "someone", AuthoredAt: ts(authoredAt)}
}
