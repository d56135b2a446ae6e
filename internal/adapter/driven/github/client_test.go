package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/leadtime/internal/adapter/driven/github"
	"github.com/ericfisherdev/leadtime/internal/domain/model"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler, opts ...ghAdapter.Option) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(
		server.Client(),
		server.URL+"/",
		"test-token",
		opts...,
	)
	require.NoError(t, err)

	return client
}

// pageRecorder records which page numbers a handler was asked for.
type pageRecorder struct {
	mu    sync.Mutex
	pages []int
}

func (p *pageRecorder) record(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = append(p.pages, page)
	return page
}

func (p *pageRecorder) requested() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.pages...)
}

type userJSON struct {
	Login string `json:"login"`
}

type prJSON struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	State    string   `json:"state"`
	HTMLURL  string   `json:"html_url"`
	User     userJSON `json:"user"`
	Created  string   `json:"created_at"`
	Updated  string   `json:"updated_at"`
	MergedAt *string  `json:"merged_at"`
}

type commitAuthorJSON struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

type commitJSON struct {
	SHA    string    `json:"sha"`
	Author *userJSON `json:"author,omitempty"`
	Commit struct {
		Author  commitAuthorJSON `json:"author"`
		Message string           `json:"message"`
	} `json:"commit"`
}

func strPtr(s string) *string { return &s }

func writeJSONBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetchTeamMembers_PaginatesUntilShortPage(t *testing.T) {
	rec := &pageRecorder{}
	var authHeader, acceptHeader, perPage string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orgs/acme/teams/platform/members", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		acceptHeader = r.Header.Get("Accept")
		perPage = r.URL.Query().Get("per_page")

		size := 3
		if rec.record(r) == 1 {
			size = 100
		}
		users := make([]userJSON, size)
		for i := range users {
			users[i] = userJSON{Login: fmt.Sprintf("user-%d", i)}
		}
		writeJSONBody(w, users)
	})

	client := newTestClient(t, handler)
	members, err := client.FetchTeamMembers(context.Background(), "acme", "platform")

	require.NoError(t, err)
	assert.Len(t, members, 103)
	assert.Equal(t, "user-0", members[0])
	assert.Equal(t, []int{1, 2}, rec.requested())
	assert.Equal(t, "Bearer test-token", authHeader)
	assert.Contains(t, acceptHeader, "application/vnd.github")
	assert.Equal(t, "100", perPage)
}

func TestFetchTeamRepositories_MapsPermissions(t *testing.T) {
	rec := &pageRecorder{}
	var perPage string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orgs/acme/teams/platform/repos", r.URL.Path)
		perPage = r.URL.Query().Get("per_page")
		if rec.record(r) != 1 {
			writeJSONBody(w, []any{})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name": "api", "owner": {"login": "acme"}, "permissions": {"admin": false, "maintain": true, "push": true, "triage": true, "pull": true}},
			{"name": "docs", "owner": {"login": "acme"}, "permissions": {"push": true, "pull": true}},
			{"name": "legacy", "permissions": {"admin": true, "maintain": true}}
		]`))
	})

	client := newTestClient(t, handler)
	repos, err := client.FetchTeamRepositories(context.Background(), "acme", "platform")

	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, []int{1}, rec.requested(), "a short first page ends the listing")
	assert.Equal(t, "100", perPage)

	assert.Equal(t, model.RepositoryRef{Owner: "acme", Name: "api"}, repos[0].Ref)
	assert.True(t, repos[0].OwnedByTeam())
	assert.True(t, repos[0].Permissions.Push)

	assert.Equal(t, "docs", repos[1].Ref.Name)
	assert.False(t, repos[1].OwnedByTeam())

	assert.Equal(t, "acme", repos[2].Ref.Owner, "owner falls back to the organization")
	assert.True(t, repos[2].Permissions.Admin)
	assert.True(t, repos[2].OwnedByTeam())
	assert.False(t, repos[2].Permissions.Pull, "absent flags read as false")
}

func TestFetchClosedPullRequestPage_RequestsNewestUpdatedClosed(t *testing.T) {
	var query map[string]string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/api/pulls", r.URL.Path)
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}

		writeJSONBody(w, []prJSON{
			{
				Number:   7,
				Title:    "Add retries",
				State:    "closed",
				HTMLURL:  "https://github.com/acme/api/pull/7",
				User:     userJSON{Login: "alice"},
				Created:  "2026-03-01T10:00:00Z",
				Updated:  "2026-03-03T10:00:00Z",
				MergedAt: strPtr("2026-03-02T12:30:00Z"),
			},
			{
				Number:  8,
				Title:   "Abandoned",
				State:   "closed",
				User:    userJSON{Login: "bob"},
				Created: "2026-03-01T10:00:00Z",
				Updated: "2026-03-02T10:00:00Z",
			},
		})
	})

	repo := model.RepositoryRef{Owner: "acme", Name: "api"}
	client := newTestClient(t, handler)
	prs, err := client.FetchClosedPullRequestPage(context.Background(), repo, 2)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"state":     "closed",
		"sort":      "updated",
		"direction": "desc",
		"per_page":  "100",
		"page":      "2",
	}, query)

	require.Len(t, prs, 2)
	assert.Equal(t, 7, prs[0].Number)
	assert.Equal(t, repo, prs[0].Repository)
	assert.Equal(t, "alice", prs[0].Author)
	assert.Equal(t, "https://github.com/acme/api/pull/7", prs[0].URL)
	require.NotNil(t, prs[0].MergedAt)
	assert.Equal(t, time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC), *prs[0].MergedAt)
	assert.True(t, prs[0].IsMerged())

	assert.Nil(t, prs[1].MergedAt)
	assert.False(t, prs[1].IsMerged())
}

func TestFetchCommits_StopsAfterShortPage(t *testing.T) {
	rec := &pageRecorder{}
	sizes := map[int]int{1: 100, 2: 100, 3: 37}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/api/pulls/7/commits", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		page := rec.record(r)

		commits := make([]commitJSON, sizes[page])
		for i := range commits {
			c := commitJSON{SHA: fmt.Sprintf("sha-%d-%d", page, i)}
			c.Commit.Author = commitAuthorJSON{Name: "Alice", Date: "2026-03-01T08:00:00Z"}
			c.Commit.Message = "subject line\n\nbody"
			if i%2 == 0 {
				c.Author = &userJSON{Login: "alice"}
			}
			commits[i] = c
		}
		writeJSONBody(w, commits)
	})

	client := newTestClient(t, handler)
	commits, err := client.FetchCommits(context.Background(), model.RepositoryRef{Owner: "acme", Name: "api"}, 7)

	require.NoError(t, err)
	assert.Len(t, commits, 237)
	assert.Equal(t, []int{1, 2, 3}, rec.requested(), "no fourth page request")

	assert.Equal(t, "sha-1-0", commits[0].SHA)
	assert.Equal(t, "alice", commits[0].Author)
	assert.Equal(t, "Alice", commits[1].Author, "falls back to the git author name")
	assert.Equal(t, "subject line", commits[0].Message)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), commits[0].AuthoredAt)
}

func TestFetch_NonSuccessBecomesRemoteError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})

	client := newTestClient(t, handler)
	_, err := client.FetchTeamMembers(context.Background(), "acme", "ghost")

	require.Error(t, err)
	var remoteErr *model.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusNotFound, remoteErr.Status)
	assert.Equal(t, "Not Found", remoteErr.Message)
	assert.Contains(t, err.Error(), "acme/ghost")
}

func TestFetch_RateLimitExhaustedBecomesRemoteError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	})

	client := newTestClient(t, handler, ghAdapter.WithCooldown(time.Millisecond))
	_, err := client.FetchClosedPullRequestPage(context.Background(), model.RepositoryRef{Owner: "acme", Name: "api"}, 1)

	var remoteErr *model.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusForbidden, remoteErr.Status)
	assert.Equal(t, "API rate limit exceeded", remoteErr.Message)
}

func TestFetch_CoolsDownBelowLowWaterMark(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		wantPause bool
	}{
		{name: "low quota pauses", remaining: "9", wantPause: true},
		{name: "quota at the mark does not pause", remaining: "10", wantPause: false},
		{name: "missing header does not pause", remaining: "", wantPause: false},
	}

	const cooldown = 200 * time.Millisecond

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.remaining != "" {
					w.Header().Set("X-RateLimit-Limit", "5000")
					w.Header().Set("X-RateLimit-Remaining", tt.remaining)
				}
				writeJSONBody(w, []userJSON{{Login: "alice"}})
			})

			client := newTestClient(t, handler, ghAdapter.WithCooldown(cooldown))

			start := time.Now()
			members, err := client.FetchTeamMembers(context.Background(), "acme", "platform")
			elapsed := time.Since(start)

			require.NoError(t, err)
			assert.Equal(t, []string{"alice"}, members)
			if tt.wantPause {
				assert.GreaterOrEqual(t, elapsed, cooldown)
			} else {
				assert.Less(t, elapsed, cooldown)
			}
		})
	}
}
