// Package github implements the GitHubClient port on top of the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
	"github.com/ericfisherdev/leadtime/internal/paging"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

const (
	// rateLimitLowWater is the remaining-quota level below which each call pauses.
	rateLimitLowWater = 10
	// DefaultCooldown is the pause imposed when the remaining quota is low.
	DefaultCooldown = time.Second
)

// Client implements the driven.GitHubClient port using the go-github library.
// A Client carries one credential for its whole lifetime.
type Client struct {
	gh       *gh.Client
	cooldown time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCooldown overrides the pause applied when the remaining rate-limit quota
// drops below the low-water mark.
func WithCooldown(d time.Duration) Option {
	return func(c *Client) {
		c.cooldown = d
	}
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. oauth2 static token source (bearer auth)
//  4. go-github (GitHub REST API client)
func NewClient(token string, opts ...Option) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	authClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   rateLimitClient.Transport,
		},
	}

	return newClient(gh.NewClient(authClient), opts)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, opts ...Option) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return newClient(client, opts), nil
}

func newClient(client *gh.Client, opts []Option) *Client {
	c := &Client{
		gh:       client,
		cooldown: DefaultCooldown,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// settle applies the rate-limit cooldown after a call and normalizes its error.
func (c *Client) settle(ctx context.Context, resp *gh.Response, err error) error {
	c.throttle(ctx, resp)
	if err != nil {
		return asRemoteError(resp, err)
	}
	return nil
}

// throttle pauses for the cooldown when the response reports fewer than
// rateLimitLowWater requests remaining. It does not coordinate across concurrent
// calls and ignores responses without the header.
func (c *Client) throttle(ctx context.Context, resp *gh.Response) {
	if resp == nil || resp.Response == nil || c.cooldown <= 0 {
		return
	}

	raw := resp.Header.Get("X-RateLimit-Remaining")
	if raw == "" {
		return
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil || remaining >= rateLimitLowWater {
		return
	}

	slog.Warn("github rate limit low, cooling down",
		"remaining", remaining,
		"cooldown", c.cooldown,
	)

	timer := time.NewTimer(c.cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// asRemoteError normalizes go-github's error types into *model.RemoteError.
// Transport failures that never produced a response are returned unchanged.
func asRemoteError(resp *gh.Response, err error) error {
	var errResp *gh.ErrorResponse
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError

	switch {
	case errors.As(err, &errResp):
		return &model.RemoteError{Status: statusOf(errResp.Response), Message: errResp.Message}
	case errors.As(err, &rateErr):
		return &model.RemoteError{Status: statusOf(rateErr.Response), Message: rateErr.Message}
	case errors.As(err, &abuseErr):
		return &model.RemoteError{Status: statusOf(abuseErr.Response), Message: abuseErr.Message}
	}

	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusBadRequest {
		return &model.RemoteError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	return err
}

func statusOf(r *http.Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}

// pageOptions requests the fixed page size at the 1-indexed page.
func pageOptions(page int) gh.ListOptions {
	return gh.ListOptions{Page: page, PerPage: paging.PageSize}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)
}
