package github

import (
	"context"

	"labelsync/pkg/labels"
)

// APIClient defines the interface for GitHub API operations
type APIClient interface {
	// Label operations
	ListLabels(ctx context.Context, repo labels.Repository) (labels.Set, error)
	CreateLabel(ctx context.Context, repo labels.Repository, label labels.Label) error
	// UpdateLabel addresses the label by its current name, so a different
	// label.Name performs a rename.
	UpdateLabel(ctx context.Context, repo labels.Repository, name string, label labels.Label) error
	DeleteLabel(ctx context.Context, repo labels.Repository, name string) error

	// Repository operations
	ListRepositories(ctx context.Context) ([]labels.Repository, error)
}
