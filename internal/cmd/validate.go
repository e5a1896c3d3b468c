package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"labelsync/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file offline: syntax, repository slugs, label
colors, group membership and server settings. No API calls are made.

Without an argument the file from --config or the default search path
is validated.

Examples:
  labelsync validate
  labelsync validate labelsync.yaml
  labelsync validate legacy.cfg`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	var path string
	switch {
	case len(args) == 1:
		path = args[0]
	case cfgFile != "":
		path = cfgFile
	default:
		found, err := config.FindConfigPath()
		if err != nil {
			return err
		}
		path = found
	}

	fmt.Printf("🔍 Validating configuration file: %s\n", path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("configuration file not found: %s", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	fmt.Printf("✓ Configuration syntax is valid\n")

	if err := cfg.Validate(); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			fmt.Printf("\n❌ Validation failed with %d errors:\n", len(verrs))
			for _, e := range verrs {
				if e.Value != "" {
					fmt.Printf("   - %s (%s): %s\n", e.Field, e.Value, e.Message)
				} else {
					fmt.Printf("   - %s: %s\n", e.Field, e.Message)
				}
			}
			return fmt.Errorf("configuration is invalid")
		}
		return err
	}

	groups, err := cfg.ResolvedGroups()
	if err != nil {
		return err
	}
	repoCount := 0
	for _, g := range groups {
		repoCount += len(g.Repos)
	}
	fmt.Printf("📦 %d labels, %d repositories in %d groups\n", len(cfg.Labels), repoCount, len(groups))

	if repoCount == 0 {
		fmt.Printf("⚠️  No repositories configured\n")
		fmt.Printf("   sync and serve need a repos list or groups\n")
	}
	if len(cfg.Labels) == 0 && cfg.TemplateRepo == "" {
		fmt.Printf("⚠️  No label specification\n")
		fmt.Printf("   sync will need labels, template_repo, or the --template-repo flag\n")
	}
	if cfg.WebhookSecret() == "" {
		fmt.Printf("⚠️  No webhook secret\n")
		fmt.Printf("   serve needs github.webhook_secret or %s\n", config.EnvWebhookSecret)
	}

	fmt.Printf("\n✅ Configuration file is valid\n")
	return nil
}
