package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"labelsync/pkg/github"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List the repositories the token can access",
	Long: `List every repository accessible to the configured GitHub token.

Useful for checking what --all-repos would target and for building the
repos section of the configuration file.`,
	Args: cobra.NoArgs,
	RunE: runRepos,
}

func init() {
	rootCmd.AddCommand(reposCmd)
}

func runRepos(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	authManager := github.NewAuthManager()
	tokenInfo, err := authManager.AuthenticateFromConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", github.GetAuthInstructions())
		return fmt.Errorf("authentication failed: %w", err)
	}
	fmt.Printf("✓ Authenticated as %s\n", tokenInfo.User)

	client, err := github.NewClient(authManager.Token())
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	repos, err := client.ListRepositories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	fmt.Printf("📦 Accessible repositories (%d):\n", len(repos))
	for _, repo := range repos {
		fmt.Printf("   • %s\n", repo)
	}
	return nil
}
