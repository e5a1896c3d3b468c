// Package webhook receives GitHub label events and propagates them to
// the sibling repositories of the originating repository's group.
// Events travel a short pipeline: received, signature-validated, then
// either dropped as an echo of a change this service made itself, or
// routed to the orchestrator; the response acknowledges the event.
package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"labelsync/pkg/labels"
)

// State marks how far an event got through the pipeline.
type State string

const (
	StateReceived     State = "received"
	StateValidated    State = "validated"
	StateRejected     State = "rejected"
	StateDeduped      State = "deduped"
	StateRouted       State = "routed"
	StateAcknowledged State = "acknowledged"
)

// Actions carried by GitHub label events.
const (
	ActionCreated = "created"
	ActionEdited  = "edited"
	ActionDeleted = "deleted"
)

// Event is one label change notification, decoded and normalized.
type Event struct {
	DeliveryID string
	Action     string
	Label      labels.Label
	// PrevName holds the label's previous name when an edit renamed it.
	PrevName   string
	Repo       labels.Repository
	ReceivedAt time.Time
}

// labelEventPayload mirrors the fields of GitHub's label event this
// service consumes. Descriptions arrive as null when unset, which
// decodes to the empty string.
type labelEventPayload struct {
	Action string `json:"action"`
	Label  struct {
		Name        string `json:"name"`
		Color       string `json:"color"`
		Description string `json:"description"`
	} `json:"label"`
	Changes struct {
		Name struct {
			From string `json:"from"`
		} `json:"name"`
	} `json:"changes"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// ParseLabelEvent decodes a label event payload into an Event.
func ParseLabelEvent(deliveryID string, payload []byte) (Event, error) {
	var p labelEventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Event{}, fmt.Errorf("decoding label event: %w", err)
	}

	switch p.Action {
	case ActionCreated, ActionEdited, ActionDeleted:
	case "":
		return Event{}, fmt.Errorf("label event has no action")
	default:
		return Event{}, fmt.Errorf("unsupported label action %q", p.Action)
	}

	if p.Label.Name == "" {
		return Event{}, fmt.Errorf("label event has no label name")
	}

	repo, err := labels.ParseRepository(p.Repository.FullName)
	if err != nil {
		return Event{}, fmt.Errorf("label event repository: %w", err)
	}

	ev := Event{
		DeliveryID: deliveryID,
		Action:     p.Action,
		Label: labels.Label{
			Name:        p.Label.Name,
			Color:       p.Label.Color,
			Description: p.Label.Description,
		}.Normalize(),
		Repo:       repo,
		ReceivedAt: time.Now(),
	}
	if p.Action == ActionEdited && p.Changes.Name.From != "" {
		ev.PrevName = p.Changes.Name.From
	}
	return ev, nil
}
