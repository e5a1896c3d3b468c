package replicator

import (
	"fmt"

	"labelsync/pkg/labels"
)

// OpKind identifies a label operation.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	// OpList marks a failure to fetch the current labels, which aborts
	// the repository before any change is attempted.
	OpList OpKind = "list"
)

// AppliedOp records one executed operation. From is set when the
// operation renamed a label.
type AppliedOp struct {
	Kind  OpKind
	Label string
	From  string
}

func (op AppliedOp) String() string {
	if op.From != "" && op.From != op.Label {
		return fmt.Sprintf("%s %s -> %s", op.Kind, op.From, op.Label)
	}
	return fmt.Sprintf("%s %s", op.Kind, op.Label)
}

// OpError records one failed operation.
type OpError struct {
	Kind  OpKind
	Label string
	Err   error
}

func (e OpError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Label, e.Err)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e OpError) Unwrap() error {
	return e.Err
}

// RepoResult is the outcome of applying a plan to one repository.
type RepoResult struct {
	Repo    labels.Repository
	Skipped bool
	DryRun  bool
	Applied []AppliedOp
	Errors  []OpError
}

// Success reports whether the repository was processed without errors.
// Skipped repositories are not successes.
func (r *RepoResult) Success() bool {
	return !r.Skipped && len(r.Errors) == 0
}

// Report aggregates per-repository outcomes of a group apply. A report
// never represents a wholesale failure: callers inspect individual
// results to find out what happened where.
//
// Report is not safe for concurrent mutation; the orchestrator
// assembles it after all workers have finished.
type Report struct {
	results []*RepoResult
	byRepo  map[labels.Repository]*RepoResult
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{byRepo: make(map[labels.Repository]*RepoResult)}
}

func (r *Report) add(res *RepoResult) {
	r.results = append(r.results, res)
	r.byRepo[res.Repo] = res
}

// Results returns per-repository outcomes in the order the group lists
// its repositories.
func (r *Report) Results() []*RepoResult {
	return r.results
}

// Result returns the outcome for a single repository.
func (r *Report) Result(repo labels.Repository) (*RepoResult, bool) {
	res, ok := r.byRepo[repo]
	return res, ok
}

// Succeeded counts repositories processed without errors.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.results {
		if res.Success() {
			n++
		}
	}
	return n
}

// Failed counts repositories with at least one error.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.results {
		if !res.Skipped && len(res.Errors) > 0 {
			n++
		}
	}
	return n
}

// Skipped counts repositories excluded from the apply.
func (r *Report) Skipped() int {
	n := 0
	for _, res := range r.results {
		if res.Skipped {
			n++
		}
	}
	return n
}

// AppliedOps counts operations applied across all repositories.
func (r *Report) AppliedOps() int {
	n := 0
	for _, res := range r.results {
		n += len(res.Applied)
	}
	return n
}

// OpErrors counts operations that failed across all repositories.
func (r *Report) OpErrors() int {
	n := 0
	for _, res := range r.results {
		n += len(res.Errors)
	}
	return n
}

// HasFailures reports whether any repository had an error.
func (r *Report) HasFailures() bool {
	return r.Failed() > 0
}

// Summary renders a one-line account of the report.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d skipped; %d changes applied, %d errors",
		r.Succeeded(), r.Failed(), r.Skipped(), r.AppliedOps(), r.OpErrors())
}
