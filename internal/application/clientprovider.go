package application

import (
	"sync"

	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
)

// ClientFactory builds a GitHub client bound to a single credential.
type ClientFactory func(token string) driven.GitHubClient

// GitHubClientProvider holds the default GitHub credential and hands out a fresh
// client per analysis run. The default token can be replaced at runtime when
// credentials are updated through the API, without restarting the application.
type GitHubClientProvider struct {
	mu        sync.RWMutex
	token     string
	newClient ClientFactory
}

// NewGitHubClientProvider creates a provider with the given default token, which
// may be empty when no credential is configured at startup.
func NewGitHubClientProvider(token string, newClient ClientFactory) *GitHubClientProvider {
	return &GitHubClientProvider{
		token:     token,
		newClient: newClient,
	}
}

// Token returns the current default token.
func (p *GitHubClientProvider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Replace swaps the default token. Runs already in flight keep the client they
// were started with.
func (p *GitHubClientProvider) Replace(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

// HasToken returns true if a non-empty default token is held.
func (p *GitHubClientProvider) HasToken() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token != ""
}

// Resolve returns the token a run should use: override when non-empty,
// otherwise the current default.
func (p *GitHubClientProvider) Resolve(override string) string {
	if override != "" {
		return override
	}
	return p.Token()
}

// ForToken creates a client bound to token.
func (p *GitHubClientProvider) ForToken(token string) driven.GitHubClient {
	return p.newClient(token)
}
