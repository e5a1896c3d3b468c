package labels

import (
	"fmt"
	"regexp"
	"strings"
)

// Repository identifies a repository by its owner/name slug.
type Repository struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

var (
	ownerRegex    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	repoNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ParseRepository parses an "owner/name" slug.
func ParseRepository(slug string) (Repository, error) {
	slug = strings.TrimSpace(slug)
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("invalid repository %q, expected owner/name", slug)
	}
	repo := Repository{Owner: parts[0], Name: parts[1]}
	if err := repo.Validate(); err != nil {
		return Repository{}, err
	}
	return repo, nil
}

// MustParseRepository is ParseRepository for known-good literals, mainly in
// tests.
func MustParseRepository(slug string) Repository {
	repo, err := ParseRepository(slug)
	if err != nil {
		panic(err)
	}
	return repo
}

// String formats the repository as owner/name.
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// IsZero reports whether the repository is unset.
func (r Repository) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}

// Validate checks the owner and name against the allowed character sets.
func (r Repository) Validate() error {
	if !ownerRegex.MatchString(r.Owner) {
		return fmt.Errorf("invalid repository owner %q", r.Owner)
	}
	if !repoNameRegex.MatchString(r.Name) {
		return fmt.Errorf("invalid repository name %q", r.Name)
	}
	return nil
}
