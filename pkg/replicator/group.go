package replicator

import (
	"fmt"

	"labelsync/pkg/labels"
)

// Group is a named set of repositories that must stay mutually consistent.
type Group struct {
	Name  string
	Repos []labels.Repository
}

// Contains reports whether the repository belongs to the group.
func (g Group) Contains(repo labels.Repository) bool {
	for _, r := range g.Repos {
		if r == repo {
			return true
		}
	}
	return false
}

// Registry resolves which replication group a repository belongs to. A
// repository belongs to at most one group, so webhook routing is
// unambiguous.
type Registry struct {
	groups []Group
	byRepo map[labels.Repository]int
}

// NewRegistry builds a registry, rejecting duplicate group names and
// repositories appearing in more than one group.
func NewRegistry(groups ...Group) (*Registry, error) {
	r := &Registry{
		groups: groups,
		byRepo: make(map[labels.Repository]int),
	}

	names := make(map[string]bool)
	for i, g := range groups {
		if g.Name == "" {
			return nil, fmt.Errorf("group %d has no name", i)
		}
		if names[g.Name] {
			return nil, fmt.Errorf("duplicate group name %q", g.Name)
		}
		names[g.Name] = true

		for _, repo := range g.Repos {
			if prev, ok := r.byRepo[repo]; ok {
				return nil, fmt.Errorf("repository %s is in both group %q and group %q", repo, groups[prev].Name, g.Name)
			}
			r.byRepo[repo] = i
		}
	}

	return r, nil
}

// Groups returns every group.
func (r *Registry) Groups() []Group {
	return r.groups
}

// FindGroup returns the group containing the repository.
func (r *Registry) FindGroup(repo labels.Repository) (Group, bool) {
	i, ok := r.byRepo[repo]
	if !ok {
		return Group{}, false
	}
	return r.groups[i], true
}

// Contains reports whether any group holds the repository.
func (r *Registry) Contains(repo labels.Repository) bool {
	_, ok := r.byRepo[repo]
	return ok
}

// Repositories returns every repository across all groups.
func (r *Registry) Repositories() []labels.Repository {
	var repos []labels.Repository
	for _, g := range r.groups {
		repos = append(repos, g.Repos...)
	}
	return repos
}
