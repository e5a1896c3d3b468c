package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"labelsync/pkg/labels"
)

// RateObserver receives the rate limit state after each API response.
// The rate limiter subscribes through it.
type RateObserver func(remaining int, reset time.Time)

// Client implements the APIClient interface using the GitHub REST API
type Client struct {
	client   *github.Client
	retry    *RetryConfig
	timeout  time.Duration
	observer RateObserver
	baseURL  string
}

// ClientOption adjusts client construction.
type ClientOption func(*Client)

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithRequestTimeout bounds each API attempt. Zero disables the bound.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateObserver registers a callback for rate limit headers.
func WithRateObserver(observer RateObserver) ClientOption {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithBaseURL points the client at a different API endpoint, mainly for
// tests and GitHub Enterprise.
func WithBaseURL(rawURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = rawURL
	}
}

// NewClient creates a new GitHub API client with the provided token
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, NewAuthError("no GitHub token provided", nil)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	c := &Client{
		client:  github.NewClient(tc),
		retry:   DefaultRetryConfig(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL != "" {
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.client.BaseURL = u
	}

	return c, nil
}

// withRetry runs op through the retry loop, bounding each attempt by the
// request timeout.
func (c *Client) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	return WithRetry(ctx, func() error {
		attemptCtx := ctx
		cancel := func() {}
		if c.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		defer cancel()
		return op(attemptCtx)
	}, c.retry)
}

func (c *Client) observeRate(resp *github.Response) {
	if resp == nil || c.observer == nil {
		return
	}
	c.observer(resp.Rate.Remaining, resp.Rate.Reset.Time)
}

// ListLabels retrieves every label on the repository, paginating as needed.
func (c *Client) ListLabels(ctx context.Context, repo labels.Repository) (labels.Set, error) {
	var all []*github.Label

	err := c.withRetry(ctx, func(ctx context.Context) error {
		all = nil
		opts := &github.ListOptions{PerPage: 100}
		for {
			page, resp, err := c.client.Issues.ListLabels(ctx, repo.Owner, repo.Name, opts)
			c.observeRate(resp)
			if err != nil {
				return WrapError(err, fmt.Sprintf("labels of repository %s", repo))
			}
			all = append(all, page...)
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	set := make(labels.Set, len(all))
	for _, l := range all {
		set.Add(convertLabel(l))
	}
	return set, nil
}

// CreateLabel creates a label on the repository.
func (c *Client) CreateLabel(ctx context.Context, repo labels.Repository, label labels.Label) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		_, resp, err := c.client.Issues.CreateLabel(ctx, repo.Owner, repo.Name, toAPILabel(label))
		c.observeRate(resp)
		if err != nil {
			return WrapError(err, fmt.Sprintf("label %q in repository %s", label.Name, repo))
		}
		return nil
	})
}

// UpdateLabel edits the label currently called name. Passing a label with a
// different Name renames it while keeping issue associations.
func (c *Client) UpdateLabel(ctx context.Context, repo labels.Repository, name string, label labels.Label) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		_, resp, err := c.client.Issues.EditLabel(ctx, repo.Owner, repo.Name, name, toAPILabel(label))
		c.observeRate(resp)
		if err != nil {
			return WrapError(err, fmt.Sprintf("label %q in repository %s", name, repo))
		}
		return nil
	})
}

// DeleteLabel removes the label from the repository.
func (c *Client) DeleteLabel(ctx context.Context, repo labels.Repository, name string) error {
	return c.withRetry(ctx, func(ctx context.Context) error {
		resp, err := c.client.Issues.DeleteLabel(ctx, repo.Owner, repo.Name, name)
		c.observeRate(resp)
		if err != nil {
			return WrapError(err, fmt.Sprintf("label %q in repository %s", name, repo))
		}
		return nil
	})
}

// ListRepositories returns every repository the token can access.
func (c *Client) ListRepositories(ctx context.Context) ([]labels.Repository, error) {
	var all []*github.Repository

	err := c.withRetry(ctx, func(ctx context.Context) error {
		all = nil
		opts := &github.RepositoryListByAuthenticatedUserOptions{
			ListOptions: github.ListOptions{PerPage: 100},
		}
		for {
			page, resp, err := c.client.Repositories.ListByAuthenticatedUser(ctx, opts)
			c.observeRate(resp)
			if err != nil {
				return WrapError(err, "repository listing")
			}
			all = append(all, page...)
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	repos := make([]labels.Repository, 0, len(all))
	for _, r := range all {
		repos = append(repos, labels.Repository{
			Owner: r.GetOwner().GetLogin(),
			Name:  r.GetName(),
		})
	}
	return repos, nil
}

func convertLabel(l *github.Label) labels.Label {
	return labels.Label{
		Name:        l.GetName(),
		Color:       l.GetColor(),
		Description: l.GetDescription(),
	}
}

func toAPILabel(l labels.Label) *github.Label {
	// Description is always sent so an update can clear it.
	return &github.Label{
		Name:        github.String(l.Name),
		Color:       github.String(labels.NormalizeColor(l.Color)),
		Description: github.String(l.Description),
	}
}
