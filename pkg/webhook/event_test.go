package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabelEventCreated(t *testing.T) {
	payload := []byte(`{
		"action": "created",
		"label": {"name": "bug", "color": "D73A4A", "description": "Something is broken"},
		"repository": {"full_name": "org/app"}
	}`)

	ev, err := ParseLabelEvent("delivery-1", payload)
	require.NoError(t, err)

	assert.Equal(t, "delivery-1", ev.DeliveryID)
	assert.Equal(t, ActionCreated, ev.Action)
	assert.Equal(t, "bug", ev.Label.Name)
	assert.Equal(t, "d73a4a", ev.Label.Color, "color should be normalized")
	assert.Equal(t, "Something is broken", ev.Label.Description)
	assert.Equal(t, "org/app", ev.Repo.String())
	assert.Empty(t, ev.PrevName)
	assert.False(t, ev.ReceivedAt.IsZero())
}

func TestParseLabelEventEditedWithRename(t *testing.T) {
	payload := []byte(`{
		"action": "edited",
		"label": {"name": "defect", "color": "d73a4a"},
		"changes": {"name": {"from": "bug"}},
		"repository": {"full_name": "org/app"}
	}`)

	ev, err := ParseLabelEvent("delivery-2", payload)
	require.NoError(t, err)

	assert.Equal(t, ActionEdited, ev.Action)
	assert.Equal(t, "defect", ev.Label.Name)
	assert.Equal(t, "bug", ev.PrevName)
}

func TestParseLabelEventEditedColorOnly(t *testing.T) {
	payload := []byte(`{
		"action": "edited",
		"label": {"name": "bug", "color": "ee0701"},
		"changes": {"color": {"from": "d73a4a"}},
		"repository": {"full_name": "org/app"}
	}`)

	ev, err := ParseLabelEvent("delivery-3", payload)
	require.NoError(t, err)

	assert.Empty(t, ev.PrevName, "color edits are not renames")
}

func TestParseLabelEventDeleted(t *testing.T) {
	payload := []byte(`{
		"action": "deleted",
		"label": {"name": "wip", "color": "0052cc"},
		"repository": {"full_name": "org/app"}
	}`)

	ev, err := ParseLabelEvent("delivery-4", payload)
	require.NoError(t, err)
	assert.Equal(t, ActionDeleted, ev.Action)
	assert.Equal(t, "wip", ev.Label.Name)
}

func TestParseLabelEventNullDescription(t *testing.T) {
	payload := []byte(`{
		"action": "created",
		"label": {"name": "bug", "color": "d73a4a", "description": null},
		"repository": {"full_name": "org/app"}
	}`)

	ev, err := ParseLabelEvent("delivery-5", payload)
	require.NoError(t, err)
	assert.Empty(t, ev.Label.Description)
}

func TestParseLabelEventErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "not json",
			payload: `{"action": `,
		},
		{
			name:    "missing action",
			payload: `{"label": {"name": "bug", "color": "d73a4a"}, "repository": {"full_name": "org/app"}}`,
		},
		{
			name:    "unsupported action",
			payload: `{"action": "starred", "label": {"name": "bug", "color": "d73a4a"}, "repository": {"full_name": "org/app"}}`,
		},
		{
			name:    "missing label name",
			payload: `{"action": "created", "label": {"color": "d73a4a"}, "repository": {"full_name": "org/app"}}`,
		},
		{
			name:    "missing repository",
			payload: `{"action": "created", "label": {"name": "bug", "color": "d73a4a"}}`,
		},
		{
			name:    "malformed repository slug",
			payload: `{"action": "created", "label": {"name": "bug", "color": "d73a4a"}, "repository": {"full_name": "not-a-slug"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabelEvent("delivery", []byte(tt.payload))
			assert.Error(t, err)
		})
	}
}
