package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"labelsync/pkg/labels"
)

// EnvWebhookSecret overrides the configured webhook secret.
const EnvWebhookSecret = "LABELSYNC_WEBHOOK_SECRET"

// Config represents the labelsync configuration
type Config struct {
	GitHub       GitHubConfig   `yaml:"github"`
	Labels       []labels.Label `yaml:"labels,omitempty"`
	TemplateRepo string         `yaml:"template_repo,omitempty"`
	Repos        []string       `yaml:"repos,omitempty"`
	Groups       []GroupConfig  `yaml:"groups,omitempty"`
	Sync         SyncConfig     `yaml:"sync,omitempty"`
	Server       ServerConfig   `yaml:"server,omitempty"`
}

// GitHubConfig holds credentials for the GitHub API and webhook endpoint
type GitHubConfig struct {
	Token         string `yaml:"token,omitempty"`
	WebhookSecret string `yaml:"webhook_secret,omitempty"`
}

// GroupConfig is a named replication group
type GroupConfig struct {
	Name  string   `yaml:"name"`
	Repos []string `yaml:"repos"`
}

// SyncConfig holds batch synchronization defaults
type SyncConfig struct {
	Mode        string `yaml:"mode,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
}

// ServerConfig holds webhook server settings
type ServerConfig struct {
	Host               string   `yaml:"host,omitempty"`
	Port               int      `yaml:"port,omitempty"`
	DedupTTL           Duration `yaml:"dedup_ttl,omitempty"`
	PropagationTimeout Duration `yaml:"propagation_timeout,omitempty"`
	LogLevel           string   `yaml:"log_level,omitempty"`
	LogFormat          string   `yaml:"log_format,omitempty"`
}

// Duration wraps time.Duration so YAML accepts "30s" style strings.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Defaults applied when the file leaves a knob unset.
const (
	DefaultHost               = "127.0.0.1"
	DefaultPort               = 5000
	DefaultConcurrency        = 5
	DefaultMode               = "update"
	DefaultDedupTTL           = 30 * time.Second
	DefaultPropagationTimeout = 25 * time.Second
)

// ResolvedGroup is a group with its repository slugs parsed.
type ResolvedGroup struct {
	Name  string
	Repos []labels.Repository
}

// Load reads a configuration file, dispatching on the extension: .cfg and
// .ini files use the legacy INI format, everything else is YAML.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cfg", ".ini":
		return LoadINI(path)
	default:
		return LoadYAML(path)
	}
}

// LoadYAML loads a YAML configuration file. A missing file yields an empty
// config so commands can report what is missing for their own needs.
func LoadYAML(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadDefault loads the configuration from the default search path.
func LoadDefault() (*Config, error) {
	path, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// FindConfigPath returns the first existing config location, or the home
// default when none exists yet: $LABELSYNC_CONFIG, ./labelsync.yaml,
// ./config.cfg, ~/.labelsync/config.yaml.
func FindConfigPath() (string, error) {
	if path := os.Getenv("LABELSYNC_CONFIG"); path != "" {
		return path, nil
	}
	for _, candidate := range []string{"labelsync.yaml", "labelsync.yml", "config.cfg"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return HomeConfigPath()
}

// HomeConfigPath returns the per-user configuration file path.
func HomeConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".labelsync", "config.yaml"), nil
}

// DefaultPathHint names the config locations for error messages.
func DefaultPathHint() string {
	return "./labelsync.yaml or ~/.labelsync/config.yaml"
}

// Save writes the configuration to a specific path. The file carries the
// token, so it is not group or world readable.
func (c *Config) Save(path string) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// WebhookSecret resolves the webhook secret, environment first.
func (c *Config) WebhookSecret() string {
	if secret := os.Getenv(EnvWebhookSecret); secret != "" {
		return secret
	}
	return c.GitHub.WebhookSecret
}

// Mode returns the configured sync mode or the default.
func (c *Config) Mode() string {
	if c.Sync.Mode != "" {
		return c.Sync.Mode
	}
	return DefaultMode
}

// Concurrency returns the configured fan-out width or the default.
func (c *Config) Concurrency() int {
	if c.Sync.Concurrency > 0 {
		return c.Sync.Concurrency
	}
	return DefaultConcurrency
}

// ServerAddr returns the host:port the webhook server binds to.
func (c *Config) ServerAddr() string {
	host := c.Server.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Server.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// DedupTTL returns the configured echo suppression window or the default.
func (c *Config) DedupTTL() time.Duration {
	if c.Server.DedupTTL > 0 {
		return c.Server.DedupTTL.Std()
	}
	return DefaultDedupTTL
}

// PropagationTimeout bounds webhook-triggered replication.
func (c *Config) PropagationTimeout() time.Duration {
	if c.Server.PropagationTimeout > 0 {
		return c.Server.PropagationTimeout.Std()
	}
	return DefaultPropagationTimeout
}

// ResolvedGroups parses every group's repositories. The top-level repos
// list becomes the "default" group.
func (c *Config) ResolvedGroups() ([]ResolvedGroup, error) {
	var groups []ResolvedGroup

	if len(c.Repos) > 0 {
		def := ResolvedGroup{Name: "default"}
		for _, slug := range c.Repos {
			repo, err := labels.ParseRepository(slug)
			if err != nil {
				return nil, err
			}
			def.Repos = append(def.Repos, repo)
		}
		groups = append(groups, def)
	}

	for _, g := range c.Groups {
		resolved := ResolvedGroup{Name: g.Name}
		for _, slug := range g.Repos {
			repo, err := labels.ParseRepository(slug)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", g.Name, err)
			}
			resolved.Repos = append(resolved.Repos, repo)
		}
		groups = append(groups, resolved)
	}

	return groups, nil
}

// AllRepositories returns every repository across all groups.
func (c *Config) AllRepositories() ([]labels.Repository, error) {
	groups, err := c.ResolvedGroups()
	if err != nil {
		return nil, err
	}
	var repos []labels.Repository
	for _, g := range groups {
		repos = append(repos, g.Repos...)
	}
	return repos, nil
}

// LabelSet returns the statically configured labels as a set.
func (c *Config) LabelSet() labels.Set {
	return labels.NewSet(c.Labels...)
}
