package model

import (
	"fmt"
	"net/http"
	"strings"
)

// RemoteError is a non-success response from the GitHub API.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("github api error: %d %s", e.Status, msg)
}

// ResolutionError is a failure to resolve a team's members or repositories.
// It aborts the whole analysis.
type ResolutionError struct {
	Team     string
	Resource string // "members" or "repositories"
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to fetch team %s for %q: %v", e.Resource, e.Team, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// RepositoryAssemblyError is a failure while assembling one repository's pull requests.
// The orchestrator downgrades it to a warning.
type RepositoryAssemblyError struct {
	Repository RepositoryRef
	Err        error
}

func (e *RepositoryAssemblyError) Error() string {
	return fmt.Sprintf("failed to fetch PRs for %s: %v", e.Repository.FullName(), e.Err)
}

func (e *RepositoryAssemblyError) Unwrap() error {
	return e.Err
}

// FieldProblem is a user-facing message about one request field.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError reports malformed analysis input, one problem per field.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Message)
	}
	return "invalid analysis request: " + strings.Join(msgs, "; ")
}

// Fields returns the problems keyed by field name.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Problems))
	for _, p := range e.Problems {
		out[p.Field] = p.Message
	}
	return out
}
