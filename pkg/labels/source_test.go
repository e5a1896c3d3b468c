package labels

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListLabels(ctx context.Context, repo Repository) (Set, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Set), args.Error(1)
}

func TestStaticSourceResolve(t *testing.T) {
	source := NewStaticSource([]Label{
		{Name: "bug", Color: "#D73A4A"},
		{Name: "feature", Color: "a2eeef"},
	})

	set, err := source.Resolve(context.Background())
	assert.NoError(t, err)
	assert.Len(t, set, 2)

	l, _ := set.Get("bug")
	assert.Equal(t, "d73a4a", l.Color, "colors are normalized on load")

	// Mutating the resolved set must not leak back into the source.
	set.Add(Label{Name: "extra", Color: "111111"})
	again, err := source.Resolve(context.Background())
	assert.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestTemplateRepositorySourceResolve(t *testing.T) {
	repo := MustParseRepository("org/label-templates")
	want := NewSet(Label{Name: "bug", Color: "d73a4a"})

	client := &mockLister{}
	client.On("ListLabels", mock.Anything, repo).Return(want, nil)

	source := NewTemplateRepositorySource(client, repo)
	set, err := source.Resolve(context.Background())

	assert.NoError(t, err)
	assert.True(t, want.Equal(set))
	assert.Equal(t, repo, source.Repository())
	client.AssertExpectations(t)
}

func TestTemplateRepositorySourceError(t *testing.T) {
	repo := MustParseRepository("org/missing")
	client := &mockLister{}
	client.On("ListLabels", mock.Anything, repo).Return(nil, errors.New("not found"))

	source := NewTemplateRepositorySource(client, repo)
	_, err := source.Resolve(context.Background())

	assert.Error(t, err)
	client.AssertExpectations(t)
}
