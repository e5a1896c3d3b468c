package replicator

import (
	"context"
	"sync"

	"labelsync/internal/logger"
	"labelsync/pkg/dedup"
	"labelsync/pkg/github"
	"labelsync/pkg/labels"
)

// Orchestrator applies a desired label set across the repositories of a
// group. Repositories are processed concurrently by a bounded worker
// pool while a keyed lock serializes all work against any single
// repository, so overlapping applies never interleave on one repo.
type Orchestrator struct {
	client      github.APIClient
	limiter     github.RateLimiter
	cache       *dedup.Cache
	log         logger.Logger
	retry       *github.RetryConfig
	concurrency int
	locks       *repoLocks
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRateLimiter attaches a rate limiter. Workers acquire a slot per
// repository and every API call waits on the limiter before firing.
func WithRateLimiter(l github.RateLimiter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.limiter = l
	}
}

// WithDedupCache attaches a deduplication cache. Every successfully
// applied change is recorded so the webhook it echoes back can be
// recognized and dropped.
func WithDedupCache(c *dedup.Cache) OrchestratorOption {
	return func(o *Orchestrator) {
		o.cache = c
	}
}

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// WithRetryConfig overrides the retry policy for API operations.
func WithRetryConfig(c *github.RetryConfig) OrchestratorOption {
	return func(o *Orchestrator) {
		o.retry = c
	}
}

// WithConcurrency bounds the number of repositories processed at once.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// New builds an Orchestrator around a GitHub client.
func New(client github.APIClient, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		log:         logger.NewNop(),
		retry:       github.DefaultRetryConfig(),
		concurrency: 5,
		locks:       newRepoLocks(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ApplyOptions control a single group apply.
type ApplyOptions struct {
	// Mode selects update or replace semantics for the diff.
	Mode labels.Mode

	// Excluding lists repositories to skip, typically the origin of a
	// webhook event so changes are not pushed back where they came from.
	Excluding []labels.Repository

	// Only restricts the plan to operations touching the named labels.
	// Empty means no restriction.
	Only []string

	// RenamedFrom carries the previous name of a renamed label. When a
	// target repository still holds the old name, the plan becomes an
	// in-place rename instead of a create, preserving issue
	// associations.
	RenamedFrom string

	// DryRun computes and records plans without calling the API or
	// touching the dedup cache.
	DryRun bool
}

// ApplyToGroup converges every repository of the group onto the desired
// label set. Failures are isolated twice over: a failed operation does
// not stop the remaining operations on its repository, and a failed
// repository does not stop the remaining repositories. The returned
// report is always complete; inspect it for per-repo outcomes.
func (o *Orchestrator) ApplyToGroup(ctx context.Context, group Group, desired labels.Set, opts ApplyOptions) *Report {
	report := NewReport()

	excluded := make(map[labels.Repository]bool, len(opts.Excluding))
	for _, repo := range opts.Excluding {
		excluded[repo] = true
	}

	var targets []labels.Repository
	for _, repo := range group.Repos {
		if excluded[repo] {
			o.log.Debug("skipping excluded repository", "group", group.Name, "repo", repo.String())
			continue
		}
		targets = append(targets, repo)
	}

	results := o.run(ctx, targets, desired, opts)

	// Assemble the report in the group's repository order so output is
	// stable regardless of which worker finished first.
	for _, repo := range group.Repos {
		if excluded[repo] {
			report.add(&RepoResult{Repo: repo, Skipped: true})
			continue
		}
		report.add(results[repo])
	}

	o.log.Info("group apply finished",
		"group", group.Name,
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"skipped", report.Skipped(),
		"ops", report.AppliedOps(),
	)
	return report
}

// run fans the target repositories out over a worker pool and collects
// one result per repository.
func (o *Orchestrator) run(ctx context.Context, targets []labels.Repository, desired labels.Set, opts ApplyOptions) map[labels.Repository]*RepoResult {
	results := make(map[labels.Repository]*RepoResult, len(targets))
	if len(targets) == 0 {
		return results
	}

	workers := o.concurrency
	if workers > len(targets) {
		workers = len(targets)
	}

	jobs := make(chan labels.Repository, len(targets))
	resultCh := make(chan *RepoResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for repo := range jobs {
				resultCh <- o.processRepo(ctx, repo, desired, opts)
			}
		}()
	}

	for _, repo := range targets {
		jobs <- repo
	}
	close(jobs)
	wg.Wait()
	close(resultCh)

	for res := range resultCh {
		results[res.Repo] = res
	}
	return results
}

// processRepo holds a concurrency slot for the duration of one
// repository's apply.
func (o *Orchestrator) processRepo(ctx context.Context, repo labels.Repository, desired labels.Set, opts ApplyOptions) *RepoResult {
	if o.limiter != nil {
		if err := o.limiter.AcquireSlot(ctx); err != nil {
			return &RepoResult{
				Repo:   repo,
				Errors: []OpError{{Kind: OpList, Err: err}},
			}
		}
		defer o.limiter.ReleaseSlot()
	}
	return o.applyToRepo(ctx, repo, desired, opts)
}

// applyToRepo fetches the repository's current labels, diffs them
// against the desired set and executes the plan. The repository lock is
// held across fetch and apply so a concurrent apply cannot slip between
// the read and the writes.
func (o *Orchestrator) applyToRepo(ctx context.Context, repo labels.Repository, desired labels.Set, opts ApplyOptions) *RepoResult {
	unlock := o.locks.lock(repo)
	defer unlock()

	result := &RepoResult{Repo: repo, DryRun: opts.DryRun}

	var current labels.Set
	err := github.RetryWithRateLimit(ctx, o.limiter, o.retry, func() error {
		var listErr error
		current, listErr = o.client.ListLabels(ctx, repo)
		return listErr
	})
	if err != nil {
		o.log.Warn("failed to list labels", "repo", repo.String(), "error", err)
		result.Errors = append(result.Errors, OpError{Kind: OpList, Err: err})
		return result
	}

	plan := o.planFor(current, desired, opts)
	if plan.Empty() {
		o.log.Debug("repository already in sync", "repo", repo.String())
		return result
	}

	o.executePlan(ctx, repo, plan, result)
	return result
}

// planFor computes the operation plan for one repository, applying the
// rename and scope restrictions from the options.
func (o *Orchestrator) planFor(current labels.Set, desired labels.Set, opts ApplyOptions) labels.Plan {
	if opts.RenamedFrom != "" && len(opts.Only) == 1 {
		newName := opts.Only[0]
		if want, ok := desired.Get(newName); ok {
			before, hasOld := current.Get(opts.RenamedFrom)
			if hasOld && !current.Contains(newName) {
				// The target still carries the old name: rename it in
				// place rather than create-and-orphan.
				return labels.Plan{Update: []labels.Update{{Before: before, After: want}}}
			}
		}
	}

	plan := labels.Diff(current, desired, opts.Mode)
	if len(opts.Only) > 0 {
		plan = plan.Filter(opts.Only...)
	}
	return plan
}

// executePlan runs the plan's operations in create, update, delete
// order. Each operation is independent: a failure is recorded and the
// next operation still runs.
func (o *Orchestrator) executePlan(ctx context.Context, repo labels.Repository, plan labels.Plan, result *RepoResult) {
	for _, l := range plan.Create {
		op := AppliedOp{Kind: OpCreate, Label: l.Name}
		if result.DryRun {
			result.Applied = append(result.Applied, op)
			continue
		}
		err := github.RetryWithRateLimit(ctx, o.limiter, o.retry, func() error {
			return o.client.CreateLabel(ctx, repo, l)
		})
		o.finishOp(repo, result, op, l, err)
	}

	for _, u := range plan.Update {
		op := AppliedOp{Kind: OpUpdate, Label: u.After.Name}
		if u.Before.Name != u.After.Name {
			op.From = u.Before.Name
		}
		if result.DryRun {
			result.Applied = append(result.Applied, op)
			continue
		}
		err := github.RetryWithRateLimit(ctx, o.limiter, o.retry, func() error {
			return o.client.UpdateLabel(ctx, repo, u.Before.Name, u.After)
		})
		o.finishOp(repo, result, op, u.After, err)
	}

	for _, l := range plan.Delete {
		op := AppliedOp{Kind: OpDelete, Label: l.Name}
		if result.DryRun {
			result.Applied = append(result.Applied, op)
			continue
		}
		name := l.Name
		err := github.RetryWithRateLimit(ctx, o.limiter, o.retry, func() error {
			return o.client.DeleteLabel(ctx, repo, name)
		})
		// Deletions hash with empty color and description so the
		// matching "deleted" webhook is recognized.
		o.finishOp(repo, result, op, labels.Label{Name: name}, err)
	}
}

// finishOp records the outcome of one operation and, on success, plants
// the expected echo in the dedup cache.
func (o *Orchestrator) finishOp(repo labels.Repository, result *RepoResult, op AppliedOp, applied labels.Label, err error) {
	if err != nil {
		o.log.Warn("label operation failed",
			"repo", repo.String(),
			"op", string(op.Kind),
			"label", op.Label,
			"error", err,
		)
		result.Errors = append(result.Errors, OpError{Kind: op.Kind, Label: op.Label, Err: err})
		return
	}

	if o.cache != nil {
		hash := dedup.ContentHash(repo, applied.Name, applied.Color, applied.Description)
		o.cache.Record(repo, applied.Name, hash)
	}

	o.log.Debug("label operation applied",
		"repo", repo.String(),
		"op", string(op.Kind),
		"label", op.Label,
	)
	result.Applied = append(result.Applied, op)
}

// PlanForRepo fetches the repository's labels and returns the plan that
// an apply would execute. Used for dry runs and plan display.
func (o *Orchestrator) PlanForRepo(ctx context.Context, repo labels.Repository, desired labels.Set, mode labels.Mode) (labels.Plan, error) {
	var current labels.Set
	err := github.RetryWithRateLimit(ctx, o.limiter, o.retry, func() error {
		var listErr error
		current, listErr = o.client.ListLabels(ctx, repo)
		return listErr
	})
	if err != nil {
		return labels.Plan{}, err
	}
	return labels.Diff(current, desired, mode), nil
}

// repoLocks hands out one mutex per repository. Entries are never
// evicted; the map is bounded by the number of configured repositories.
type repoLocks struct {
	mu    sync.Mutex
	locks map[labels.Repository]*sync.Mutex
}

func newRepoLocks() *repoLocks {
	return &repoLocks{locks: make(map[labels.Repository]*sync.Mutex)}
}

// lock acquires the repository's mutex and returns its release func.
func (l *repoLocks) lock(repo labels.Repository) func() {
	l.mu.Lock()
	m, ok := l.locks[repo]
	if !ok {
		m = &sync.Mutex{}
		l.locks[repo] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
