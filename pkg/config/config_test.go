package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAML(t *testing.T) {
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, "labelsync.yaml")
	configContent := `github:
  token: "ghp_test_token"
  webhook_secret: "hook-secret"
labels:
  - name: bug
    color: d73a4a
    description: Something isn't working
  - name: feature
    color: "#A2EEEF"
template_repo: org/label-templates
repos:
  - org/app
  - org/lib
groups:
  - name: platform
    repos:
      - org/svc-a
sync:
  mode: replace
  concurrency: 8
server:
  host: 0.0.0.0
  port: 8080
  dedup_ttl: 45s
  propagation_timeout: 10s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GitHub.Token != "ghp_test_token" {
		t.Errorf("Expected token = ghp_test_token, got %s", cfg.GitHub.Token)
	}
	if cfg.GitHub.WebhookSecret != "hook-secret" {
		t.Errorf("Expected webhook secret = hook-secret, got %s", cfg.GitHub.WebhookSecret)
	}
	if len(cfg.Labels) != 2 {
		t.Fatalf("Expected 2 labels, got %d", len(cfg.Labels))
	}
	if cfg.Labels[0].Description != "Something isn't working" {
		t.Errorf("Unexpected description: %s", cfg.Labels[0].Description)
	}
	if cfg.TemplateRepo != "org/label-templates" {
		t.Errorf("Unexpected template repo: %s", cfg.TemplateRepo)
	}
	if len(cfg.Repos) != 2 || len(cfg.Groups) != 1 {
		t.Errorf("Unexpected repos/groups: %v / %v", cfg.Repos, cfg.Groups)
	}
	if cfg.Sync.Mode != "replace" || cfg.Sync.Concurrency != 8 {
		t.Errorf("Unexpected sync settings: %+v", cfg.Sync)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.DedupTTL.Std() != 45*time.Second {
		t.Errorf("Expected dedup TTL 45s, got %v", cfg.Server.DedupTTL.Std())
	}
}

func TestLoadYAMLNonExistent(t *testing.T) {
	cfg, err := LoadYAML("/non/existent/path.yaml")
	if err != nil {
		t.Fatalf("Expected no error for non-existent config, got: %v", err)
	}
	if cfg.GitHub.Token != "" || len(cfg.Labels) != 0 {
		t.Errorf("Expected empty config, got %+v", cfg)
	}
}

func TestLoadYAMLInvalidDuration(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "labelsync.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  dedup_ttl: soon\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestSaveRestrictsPermissions(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "labelsync.yaml")

	cfg := &Config{}
	cfg.GitHub.Token = "ghp_secret"
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if loaded.GitHub.Token != "ghp_secret" {
		t.Errorf("Round trip lost the token: %+v", loaded)
	}
}

func TestWebhookSecretEnvOverride(t *testing.T) {
	cfg := &Config{}
	cfg.GitHub.WebhookSecret = "from-file"

	if got := cfg.WebhookSecret(); got != "from-file" {
		t.Errorf("Expected from-file, got %s", got)
	}

	t.Setenv(EnvWebhookSecret, "from-env")
	if got := cfg.WebhookSecret(); got != "from-env" {
		t.Errorf("Expected from-env, got %s", got)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	if cfg.Mode() != "update" {
		t.Errorf("Expected default mode update, got %s", cfg.Mode())
	}
	if cfg.Concurrency() != 5 {
		t.Errorf("Expected default concurrency 5, got %d", cfg.Concurrency())
	}
	if cfg.ServerAddr() != "127.0.0.1:5000" {
		t.Errorf("Unexpected default addr: %s", cfg.ServerAddr())
	}
	if cfg.DedupTTL() != 30*time.Second {
		t.Errorf("Unexpected default dedup TTL: %v", cfg.DedupTTL())
	}
	if cfg.PropagationTimeout() != 25*time.Second {
		t.Errorf("Unexpected default propagation timeout: %v", cfg.PropagationTimeout())
	}
}

func TestResolvedGroups(t *testing.T) {
	cfg := &Config{
		Repos: []string{"org/app", "org/lib"},
		Groups: []GroupConfig{
			{Name: "platform", Repos: []string{"org/svc-a", "org/svc-b"}},
		},
	}

	groups, err := cfg.ResolvedGroups()
	if err != nil {
		t.Fatalf("Failed to resolve groups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "default" || len(groups[0].Repos) != 2 {
		t.Errorf("Unexpected default group: %+v", groups[0])
	}
	if groups[1].Name != "platform" || groups[1].Repos[1].String() != "org/svc-b" {
		t.Errorf("Unexpected platform group: %+v", groups[1])
	}

	all, err := cfg.AllRepositories()
	if err != nil {
		t.Fatalf("Failed to collect repositories: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 repositories, got %d", len(all))
	}
}

func TestResolvedGroupsBadSlug(t *testing.T) {
	cfg := &Config{Repos: []string{"not-a-slug"}}
	if _, err := cfg.ResolvedGroups(); err == nil {
		t.Error("Expected error for invalid slug")
	}
}
