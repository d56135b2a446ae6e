package model

// RepositoryRef identifies a GitHub repository by owner and name.
type RepositoryRef struct {
	Owner string
	Name  string
}

// FullName returns the "owner/name" form of the repository.
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// String implements fmt.Stringer.
func (r RepositoryRef) String() string {
	return r.FullName()
}

// Permissions mirrors the permission flags GitHub reports for a team on a repository.
type Permissions struct {
	Admin    bool
	Maintain bool
	Push     bool
	Triage   bool
	Pull     bool
}

// TeamRepository is a repository as seen through a team's repository listing.
type TeamRepository struct {
	Ref         RepositoryRef
	Permissions Permissions
}

// OwnedByTeam reports whether the team holds maintain-level permission, which is
// what qualifies a repository for analysis.
func (r TeamRepository) OwnedByTeam() bool {
	return r.Permissions.Maintain
}
