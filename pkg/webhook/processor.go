package webhook

import (
	"context"
	"time"

	"labelsync/internal/logger"
	"labelsync/pkg/dedup"
	"labelsync/pkg/labels"
	"labelsync/pkg/replicator"
)

// Applier propagates a desired label set across a group. Satisfied by
// the replication orchestrator.
type Applier interface {
	ApplyToGroup(ctx context.Context, group replicator.Group, desired labels.Set, opts replicator.ApplyOptions) *replicator.Report
}

// Outcome is the result of processing one event.
type Outcome struct {
	State  State
	Reason string
	Report *replicator.Report
}

// Processor routes validated label events to the sibling repositories
// of the originating repository's group. It consults the dedup cache
// first so echoes of this service's own writes never re-propagate.
type Processor struct {
	registry *replicator.Registry
	applier  Applier
	cache    *dedup.Cache
	timeout  time.Duration
	log      logger.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithDedupCache attaches the echo-suppression cache.
func WithDedupCache(c *dedup.Cache) ProcessorOption {
	return func(p *Processor) {
		p.cache = c
	}
}

// WithPropagationTimeout bounds how long one event's propagation may
// run before remaining API calls are cancelled.
func WithPropagationTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) ProcessorOption {
	return func(p *Processor) {
		p.log = l
	}
}

// NewProcessor wires a processor to its group registry and applier.
func NewProcessor(registry *replicator.Registry, applier Applier, opts ...ProcessorOption) *Processor {
	p := &Processor{
		registry: registry,
		applier:  applier,
		timeout:  25 * time.Second,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Routable reports whether events from the repository belong to a
// configured group.
func (p *Processor) Routable(repo labels.Repository) bool {
	return p.registry.Contains(repo)
}

// Process takes a validated event through dedup and routing. The
// returned outcome is StateDeduped for suppressed echoes, StateRouted
// after a propagation attempt, and StateRejected when the repository
// belongs to no group.
func (p *Processor) Process(ctx context.Context, ev Event) Outcome {
	group, ok := p.registry.FindGroup(ev.Repo)
	if !ok {
		p.log.Warn("event from unconfigured repository",
			"delivery", ev.DeliveryID,
			"repo", ev.Repo.String(),
		)
		return Outcome{State: StateRejected, Reason: "repository not configured"}
	}

	if p.cache != nil && p.cache.Match(ev.Repo, ev.Label.Name, eventHash(ev)) {
		p.log.Debug("suppressed echo of own change",
			"delivery", ev.DeliveryID,
			"repo", ev.Repo.String(),
			"action", ev.Action,
			"label", ev.Label.Name,
		)
		return Outcome{State: StateDeduped, Reason: "change originated here"}
	}

	desired, opts := p.routeFor(ev)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.log.Info("propagating label event",
		"delivery", ev.DeliveryID,
		"repo", ev.Repo.String(),
		"action", ev.Action,
		"label", ev.Label.Name,
		"group", group.Name,
	)
	report := p.applier.ApplyToGroup(ctx, group, desired, opts)

	if report.HasFailures() {
		p.log.Warn("propagation finished with failures",
			"delivery", ev.DeliveryID,
			"summary", report.Summary(),
		)
	}
	return Outcome{State: StateRouted, Report: report}
}

// routeFor translates an event into the desired set and apply options
// that push the change to every sibling. The origin is always excluded
// so the change never bounces back, and the plan is scoped to the one
// label the event names.
func (p *Processor) routeFor(ev Event) (labels.Set, replicator.ApplyOptions) {
	opts := replicator.ApplyOptions{
		Mode:      labels.ModeUpdate,
		Excluding: []labels.Repository{ev.Repo},
		Only:      []string{ev.Label.Name},
	}

	switch ev.Action {
	case ActionDeleted:
		// An empty desired set in replace mode, scoped to the deleted
		// name, removes exactly that label everywhere else.
		opts.Mode = labels.ModeReplace
		return labels.NewSet(), opts
	case ActionEdited:
		opts.RenamedFrom = ev.PrevName
	}
	return labels.NewSet(ev.Label), opts
}

// eventHash computes the dedup fingerprint of an event. Deleted labels
// hash with empty color and description, matching how applied deletions
// are recorded.
func eventHash(ev Event) string {
	if ev.Action == ActionDeleted {
		return dedup.ContentHash(ev.Repo, ev.Label.Name, "", "")
	}
	return dedup.ContentHash(ev.Repo, ev.Label.Name, ev.Label.Color, ev.Label.Description)
}
