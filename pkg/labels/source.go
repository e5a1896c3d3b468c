package labels

import "context"

// Source resolves the desired label set from wherever it is defined.
type Source interface {
	Resolve(ctx context.Context) (Set, error)
}

// Lister is the slice of the API client a template source needs.
type Lister interface {
	ListLabels(ctx context.Context, repo Repository) (Set, error)
}

// StaticSource serves a fixed label set, typically the labels section of
// the configuration file.
type StaticSource struct {
	set Set
}

// NewStaticSource copies the given labels into a source.
func NewStaticSource(ls []Label) *StaticSource {
	return &StaticSource{set: NewSet(ls...)}
}

// Resolve returns a copy so callers cannot mutate the source.
func (s *StaticSource) Resolve(_ context.Context) (Set, error) {
	return s.set.Clone(), nil
}

// TemplateRepositorySource treats one repository's live labels as the
// desired state for every other repository.
type TemplateRepositorySource struct {
	client Lister
	repo   Repository
}

// NewTemplateRepositorySource reads the desired set from repo via client.
func NewTemplateRepositorySource(client Lister, repo Repository) *TemplateRepositorySource {
	return &TemplateRepositorySource{client: client, repo: repo}
}

// Resolve fetches the template repository's labels.
func (s *TemplateRepositorySource) Resolve(ctx context.Context) (Set, error) {
	return s.client.ListLabels(ctx, s.repo)
}

// Repository returns the template repository, for display.
func (s *TemplateRepositorySource) Repository() Repository {
	return s.repo
}
