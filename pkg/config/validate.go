package config

import (
	"fmt"
	"strings"

	"labelsync/pkg/labels"
)

// ValidationError describes a single invalid configuration field
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one pass
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Add appends a validation error
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, ValidationError{Field: field, Value: value, Message: message})
}

// HasErrors reports whether any error was collected
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate checks the whole configuration offline and aggregates every
// problem instead of stopping at the first.
func (c *Config) Validate() error {
	var errs ValidationErrors

	seen := make(map[string]string) // repo slug -> group name
	checkRepos := func(field, group string, slugs []string) {
		for _, slug := range slugs {
			repo, err := labels.ParseRepository(slug)
			if err != nil {
				errs.Add(field, slug, "invalid repository slug, expected owner/name")
				continue
			}
			if prev, dup := seen[repo.String()]; dup {
				errs.Add(field, slug, fmt.Sprintf("repository already belongs to group %q, a repository may belong to only one group", prev))
				continue
			}
			seen[repo.String()] = group
		}
	}

	checkRepos("repos", "default", c.Repos)

	groupNames := make(map[string]bool)
	for i, g := range c.Groups {
		field := fmt.Sprintf("groups[%d]", i)
		if strings.TrimSpace(g.Name) == "" {
			errs.Add(field+".name", "", "group name cannot be empty")
		} else if groupNames[g.Name] {
			errs.Add(field+".name", g.Name, "duplicate group name")
		} else if g.Name == "default" && len(c.Repos) > 0 {
			errs.Add(field+".name", g.Name, "group name collides with the implicit default group from the repos list")
		}
		groupNames[g.Name] = true

		if len(g.Repos) == 0 {
			errs.Add(field+".repos", "", "group has no repositories")
		}
		checkRepos(field+".repos", g.Name, g.Repos)
	}

	for i, l := range c.Labels {
		if err := l.Validate(); err != nil {
			errs.Add(fmt.Sprintf("labels[%d]", i), l.Name, err.Error())
		}
	}

	if c.TemplateRepo != "" {
		if _, err := labels.ParseRepository(c.TemplateRepo); err != nil {
			errs.Add("template_repo", c.TemplateRepo, "invalid repository slug, expected owner/name")
		}
	}

	if c.Sync.Mode != "" {
		if _, err := labels.ParseMode(c.Sync.Mode); err != nil {
			errs.Add("sync.mode", c.Sync.Mode, "expected update or replace")
		}
	}
	if c.Sync.Concurrency < 0 {
		errs.Add("sync.concurrency", fmt.Sprintf("%d", c.Sync.Concurrency), "must not be negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs.Add("server.port", fmt.Sprintf("%d", c.Server.Port), "must be between 0 and 65535")
	}
	if c.Server.DedupTTL < 0 {
		errs.Add("server.dedup_ttl", c.Server.DedupTTL.Std().String(), "must not be negative")
	}
	if c.Server.PropagationTimeout < 0 {
		errs.Add("server.propagation_timeout", c.Server.PropagationTimeout.Std().String(), "must not be negative")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidateForSync checks that batch synchronization has what it needs on
// top of the general validation: repositories to act on and a desired
// state source. templateOverride accounts for the --template-repo flag.
func (c *Config) ValidateForSync(templateOverride string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if len(c.Repos) == 0 && len(c.Groups) == 0 {
		return fmt.Errorf("no repositories configured: add a repos list or groups to the configuration")
	}
	if len(c.Labels) == 0 && c.TemplateRepo == "" && templateOverride == "" {
		return fmt.Errorf("no label specification: configure labels, set template_repo, or pass --template-repo")
	}
	return nil
}

// ValidateForServe checks that the webhook server has what it needs.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.WebhookSecret() == "" {
		return fmt.Errorf("no webhook secret: set github.webhook_secret in the configuration or the %s environment variable", EnvWebhookSecret)
	}
	if len(c.Repos) == 0 && len(c.Groups) == 0 {
		return fmt.Errorf("no repositories configured: the server has nothing to replicate to")
	}
	return nil
}
