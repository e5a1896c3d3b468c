package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeINI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.cfg")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write INI file: %v", err)
	}
	return path
}

func TestLoadINI(t *testing.T) {
	path := writeINI(t, `[github]
token = ghp_legacy
webhook_secret = legacy-secret

[labels]
bug = D73A4A
enhancement = a2eeef

[repos]
org/app = on
org/lib = 1
org/archive = off

[others]
template-repo = org/label-templates
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load INI config: %v", err)
	}

	if cfg.GitHub.Token != "ghp_legacy" {
		t.Errorf("Expected legacy token, got %s", cfg.GitHub.Token)
	}
	if cfg.GitHub.WebhookSecret != "legacy-secret" {
		t.Errorf("Expected legacy secret, got %s", cfg.GitHub.WebhookSecret)
	}

	if len(cfg.Labels) != 2 {
		t.Fatalf("Expected 2 labels, got %d", len(cfg.Labels))
	}
	byName := map[string]string{}
	for _, l := range cfg.Labels {
		byName[l.Name] = l.Color
	}
	if byName["bug"] != "d73a4a" {
		t.Errorf("Expected normalized color d73a4a, got %s", byName["bug"])
	}

	if len(cfg.Repos) != 2 {
		t.Fatalf("Expected 2 enabled repos, got %v", cfg.Repos)
	}
	for _, r := range cfg.Repos {
		if r == "org/archive" {
			t.Error("Disabled repository must be skipped")
		}
	}

	if cfg.TemplateRepo != "org/label-templates" {
		t.Errorf("Unexpected template repo: %s", cfg.TemplateRepo)
	}
}

func TestLoadINIBadRepoFlag(t *testing.T) {
	path := writeINI(t, `[repos]
org/app = maybe
`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for non-boolean repo flag")
	}
}

func TestLoadINIMissingFile(t *testing.T) {
	if _, err := LoadINI("/non/existent/config.cfg"); err == nil {
		t.Error("Expected error for missing INI file")
	}
}
