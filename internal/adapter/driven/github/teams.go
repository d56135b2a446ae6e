package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/leadtime/internal/domain/model"
	"github.com/ericfisherdev/leadtime/internal/paging"
)

// FetchTeamMembers retrieves the logins of all members of a team.
// It walks pages until an empty or short page is returned.
func (c *Client) FetchTeamMembers(ctx context.Context, org, teamSlug string) ([]string, error) {
	endpoint := org + "/" + teamSlug + "/members"

	users, err := paging.ReadAll(ctx, func(ctx context.Context, page int) ([]*gh.User, error) {
		opts := &gh.TeamListTeamMembersOptions{ListOptions: pageOptions(page)}
		users, resp, err := c.gh.Teams.ListTeamMembersBySlug(ctx, org, teamSlug, opts)
		if err := c.settle(ctx, resp, err); err != nil {
			return nil, fmt.Errorf("listing members of %s/%s (page %d): %w", org, teamSlug, page, err)
		}
		logRateLimit(resp, endpoint, page, len(users))
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	logins := make([]string, 0, len(users))
	for _, u := range users {
		logins = append(logins, u.GetLogin())
	}
	return logins, nil
}

// FetchTeamRepositories retrieves every repository visible to a team, together
// with the team's permission flags on each.
func (c *Client) FetchTeamRepositories(ctx context.Context, org, teamSlug string) ([]model.TeamRepository, error) {
	endpoint := org + "/" + teamSlug + "/repos"

	raw, err := paging.ReadAll(ctx, func(ctx context.Context, page int) ([]*gh.Repository, error) {
		opts := pageOptions(page)
		repos, resp, err := c.gh.Teams.ListTeamReposBySlug(ctx, org, teamSlug, &opts)
		if err := c.settle(ctx, resp, err); err != nil {
			return nil, fmt.Errorf("listing repositories of %s/%s (page %d): %w", org, teamSlug, page, err)
		}
		logRateLimit(resp, endpoint, page, len(repos))
		return repos, nil
	})
	if err != nil {
		return nil, err
	}

	repos := make([]model.TeamRepository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, mapTeamRepository(r, org))
	}
	return repos, nil
}

// mapTeamRepository converts a listing entry into a domain TeamRepository. The
// permissions are the team's access level on the repository, and the
// organization stands in for the owner when the payload omits it.
func mapTeamRepository(r *gh.Repository, org string) model.TeamRepository {
	owner := r.GetOwner().GetLogin()
	if owner == "" {
		owner = org
	}

	perms := r.GetPermissions()
	return model.TeamRepository{
		Ref: model.RepositoryRef{Owner: owner, Name: r.GetName()},
		Permissions: model.Permissions{
			Admin:    perms.GetAdmin(),
			Maintain: perms.GetMaintain(),
			Push:     perms.GetPush(),
			Triage:   perms.GetTriage(),
			Pull:     perms.GetPull(),
		},
	}
}
