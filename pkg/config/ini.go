package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"labelsync/pkg/labels"
)

// LoadINI reads the legacy INI configuration format:
//
//	[github]
//	token = ghp_xxx
//	webhook_secret = s3cret
//
//	[labels]
//	bug = d73a4a
//
//	[repos]
//	owner/name = on
//
//	[others]
//	template-repo = owner/templates
//
// Labels in this format carry no descriptions, and repositories flagged
// off are skipped.
func LoadINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	gh := file.Section("github")
	cfg.GitHub.Token = gh.Key("token").String()
	cfg.GitHub.WebhookSecret = gh.Key("webhook_secret").String()

	for _, key := range file.Section("labels").Keys() {
		cfg.Labels = append(cfg.Labels, labels.Label{
			Name:  key.Name(),
			Color: labels.NormalizeColor(key.String()),
		})
	}

	for _, key := range file.Section("repos").Keys() {
		enabled, err := key.Bool()
		if err != nil {
			return nil, fmt.Errorf("repos entry %q: expected on/off, got %q", key.Name(), key.String())
		}
		if enabled {
			cfg.Repos = append(cfg.Repos, key.Name())
		}
	}

	cfg.TemplateRepo = file.Section("others").Key("template-repo").String()

	return cfg, nil
}
