package replicator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"labelsync/pkg/labels"
)

func TestReportCounters(t *testing.T) {
	report := NewReport()
	report.add(&RepoResult{
		Repo:    labels.MustParseRepository("org/a"),
		Applied: []AppliedOp{{Kind: OpCreate, Label: "bug"}, {Kind: OpUpdate, Label: "wip"}},
	})
	report.add(&RepoResult{
		Repo:   labels.MustParseRepository("org/b"),
		Errors: []OpError{{Kind: OpDelete, Label: "stale", Err: errors.New("nope")}},
	})
	report.add(&RepoResult{
		Repo:    labels.MustParseRepository("org/c"),
		Skipped: true,
	})

	assert.Equal(t, 1, report.Succeeded())
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, report.Skipped())
	assert.Equal(t, 2, report.AppliedOps())
	assert.Equal(t, 1, report.OpErrors())
	assert.True(t, report.HasFailures())
	assert.Equal(t, "1 succeeded, 1 failed, 1 skipped; 2 changes applied, 1 errors", report.Summary())
}

func TestReportPreservesOrder(t *testing.T) {
	report := NewReport()
	for _, name := range []string{"org/z", "org/a", "org/m"} {
		report.add(&RepoResult{Repo: labels.MustParseRepository(name)})
	}

	results := report.Results()
	assert.Equal(t, "org/z", results[0].Repo.String())
	assert.Equal(t, "org/a", results[1].Repo.String())
	assert.Equal(t, "org/m", results[2].Repo.String())
}

func TestAppliedOpString(t *testing.T) {
	assert.Equal(t, "create bug", AppliedOp{Kind: OpCreate, Label: "bug"}.String())
	assert.Equal(t, "update bug -> defect", AppliedOp{Kind: OpUpdate, Label: "defect", From: "bug"}.String())
}

func TestOpErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := OpError{Kind: OpCreate, Label: "bug", Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "create bug")
}

func TestRepoResultSuccess(t *testing.T) {
	ok := &RepoResult{Repo: labels.MustParseRepository("org/a")}
	assert.True(t, ok.Success())

	skipped := &RepoResult{Repo: labels.MustParseRepository("org/b"), Skipped: true}
	assert.False(t, skipped.Success())

	failed := &RepoResult{
		Repo:   labels.MustParseRepository("org/c"),
		Errors: []OpError{{Kind: OpCreate, Err: errors.New("x")}},
	}
	assert.False(t, failed.Success())
}
