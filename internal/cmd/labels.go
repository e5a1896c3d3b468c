package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"labelsync/pkg/fuzzy"
	"labelsync/pkg/github"
	"labelsync/pkg/labels"
)

var labelsCmd = &cobra.Command{
	Use:   "labels [owner/repo]",
	Short: "List the labels of a repository",
	Long: `List the labels of a repository with their colors and descriptions.

Without an argument the repository is picked from the configured ones
with a fuzzy finder.

Examples:
  labelsync labels myorg/app
  labelsync labels`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLabels,
}

func init() {
	rootCmd.AddCommand(labelsCmd)
}

func runLabels(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var repo labels.Repository
	if len(args) == 1 {
		repo, err = labels.ParseRepository(args[0])
		if err != nil {
			return err
		}
	} else {
		repo, err = pickConfiguredRepo(cfg.AllRepositories())
		if err != nil {
			return err
		}
	}

	authManager := github.NewAuthManager()
	if _, err := authManager.AuthenticateFromConfig(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", github.GetAuthInstructions())
		return fmt.Errorf("authentication failed: %w", err)
	}

	client, err := github.NewClient(authManager.Token())
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	set, err := client.ListLabels(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}

	if len(set) == 0 {
		fmt.Printf("📋 %s has no labels\n", repo)
		return nil
	}

	fmt.Printf("📋 Labels in %s (%d):\n", repo, len(set))
	for _, l := range set.Sorted() {
		if l.Description != "" {
			fmt.Printf("   #%s %s - %s\n", l.Color, l.Name, l.Description)
		} else {
			fmt.Printf("   #%s %s\n", l.Color, l.Name)
		}
	}
	return nil
}

// pickConfiguredRepo runs a fuzzy single-select over the configured
// repositories.
func pickConfiguredRepo(repos []labels.Repository, err error) (labels.Repository, error) {
	if err != nil {
		return labels.Repository{}, err
	}
	if len(repos) == 0 {
		return labels.Repository{}, fmt.Errorf("no repositories configured: pass owner/repo as an argument")
	}

	finder := fuzzy.NewFzf("Select a repository")
	options := make([]fuzzy.Option, 0, len(repos))
	for _, repo := range repos {
		options = append(options, fuzzy.Option{Value: repo.String()})
	}
	if err := finder.SetOptions(options); err != nil {
		return labels.Repository{}, err
	}

	picked, err := finder.Select()
	if err != nil {
		return labels.Repository{}, fmt.Errorf("repository selection failed: %w", err)
	}
	return labels.ParseRepository(picked)
}
