package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"labelsync/pkg/config"
	"labelsync/pkg/fuzzy"
	"labelsync/pkg/github"
	"labelsync/pkg/labels"
	"labelsync/pkg/replicator"
)

var (
	syncDryRun       bool
	syncTemplateRepo string
	syncAllRepos     bool
	syncRepos        []string
	syncInteractive  bool
	syncQuiet        bool
	syncVerbose      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [update|replace]",
	Short: "Synchronize labels across the configured repositories",
	Long: `Synchronize label definitions across every configured repository.

The desired label set comes from the configuration file, from a template
repository, or from the --template-repo flag. Each target repository is
diffed against the desired set and converged with create, update and
delete calls. Repositories are processed concurrently and failures are
isolated: one broken repository never stops the others.

MODES:

  update   - Create missing labels and fix colors and descriptions of
             existing ones. Labels outside the desired set are left
             alone. This is the default.
  replace  - Same as update, but labels outside the desired set are
             deleted. Deleting a label removes it from every issue and
             pull request that carries it.

Examples:
  # Preview what would change without touching anything
  labelsync sync --dry-run

  # Converge the configured repositories, keeping extra labels
  labelsync sync update

  # Make repositories match the desired set exactly
  labelsync sync replace

  # Copy the labels of one repository onto the configured ones
  labelsync sync -t myorg/label-templates

  # Synchronize a subset of the configured repositories
  labelsync sync --repos myorg/app,myorg/lib

  # Pick target repositories interactively
  labelsync sync --interactive

  # Stamp the desired labels onto every repository the token can reach
  labelsync sync --all-repos`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Show what would change without modifying any repository")
	syncCmd.Flags().StringVarP(&syncTemplateRepo, "template-repo", "t", "", "Repository whose labels define the desired state (owner/repo)")
	syncCmd.Flags().BoolVarP(&syncAllRepos, "all-repos", "a", false, "Target every repository the token can access instead of the configured ones")
	syncCmd.Flags().StringSliceVarP(&syncRepos, "repos", "r", nil, "Comma-separated subset of the configured repositories (e.g. --repos org/app,org/lib)")
	syncCmd.Flags().BoolVarP(&syncInteractive, "interactive", "i", false, "Pick target repositories with a fuzzy finder")
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "Only print errors and the final summary")
	syncCmd.Flags().BoolVarP(&syncVerbose, "verbose", "v", false, "Also print repositories that are already up to date")
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	modeArg := cfg.Mode()
	if len(args) == 1 {
		modeArg = args[0]
	}
	mode, err := labels.ParseMode(modeArg)
	if err != nil {
		return err
	}

	if syncTemplateRepo != "" {
		if _, err := labels.ParseRepository(syncTemplateRepo); err != nil {
			return err
		}
	}

	if syncAllRepos {
		// The target list comes from the API, so only the desired-state
		// requirement applies.
		if err := cfg.Validate(); err != nil {
			return err
		}
		if len(cfg.Labels) == 0 && cfg.TemplateRepo == "" && syncTemplateRepo == "" {
			return fmt.Errorf("no label specification: configure labels, set template_repo, or pass --template-repo")
		}
	} else if err := cfg.ValidateForSync(syncTemplateRepo); err != nil {
		return err
	}

	authManager := github.NewAuthManager()
	tokenInfo, err := authManager.AuthenticateFromConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", github.GetAuthInstructions())
		return fmt.Errorf("authentication failed: %w", err)
	}
	if !syncQuiet {
		fmt.Printf("✓ Authenticated as %s\n", tokenInfo.User)
	}

	limiterCfg := github.DefaultRateLimiterConfig()
	limiterCfg.ConcurrencyLimit = cfg.Concurrency()
	limiter := github.NewRateLimiter(limiterCfg)

	client, err := github.NewClient(authManager.Token(), github.WithRateObserver(limiter.UpdateLimits))
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	desired, sourceName, err := resolveDesiredLabels(ctx, cfg, client)
	if err != nil {
		return err
	}
	if !syncQuiet {
		fmt.Printf("📋 Desired state: %d labels from %s\n", len(desired), sourceName)
	}

	groups, err := resolveTargetGroups(ctx, cfg, client)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		return fmt.Errorf("no repositories selected")
	}

	if syncDryRun && !syncQuiet {
		fmt.Printf("\n🔍 Dry-run mode - showing planned changes without applying them\n")
	}

	orch := replicator.New(client,
		replicator.WithRateLimiter(limiter),
		replicator.WithConcurrency(cfg.Concurrency()),
	)
	opts := replicator.ApplyOptions{Mode: mode, DryRun: syncDryRun}

	var reports []*replicator.Report
	for _, group := range groups {
		report := orch.ApplyToGroup(ctx, group, desired, opts)
		displayGroupReport(report)
		reports = append(reports, report)
	}

	return displaySyncSummary(reports)
}

// resolveDesiredLabels builds the desired label set. Precedence: the
// --template-repo flag, then template_repo from the configuration, then
// the configured labels list.
func resolveDesiredLabels(ctx context.Context, cfg *config.Config, client labels.Lister) (labels.Set, string, error) {
	templateRepo := syncTemplateRepo
	if templateRepo == "" {
		templateRepo = cfg.TemplateRepo
	}

	var source labels.Source
	var name string
	if templateRepo != "" {
		repo, err := labels.ParseRepository(templateRepo)
		if err != nil {
			return nil, "", err
		}
		source = labels.NewTemplateRepositorySource(client, repo)
		name = "template repository " + repo.String()
	} else {
		source = labels.NewStaticSource(cfg.Labels)
		name = "the configuration file"
	}

	desired, err := source.Resolve(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve desired labels: %w", err)
	}
	if err := desired.Validate(); err != nil {
		return nil, "", fmt.Errorf("desired labels are invalid: %w", err)
	}
	return desired, name, nil
}

// resolveTargetGroups determines which repositories to synchronize and
// in which grouping. --all-repos replaces the configured groups with
// every repository the token can access; --repos and --interactive
// narrow the selection.
func resolveTargetGroups(ctx context.Context, cfg *config.Config, client *github.Client) ([]replicator.Group, error) {
	var groups []replicator.Group

	if syncAllRepos {
		repos, err := client.ListRepositories(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list accessible repositories: %w", err)
		}
		groups = []replicator.Group{{Name: "all", Repos: repos}}
	} else {
		resolved, err := cfg.ResolvedGroups()
		if err != nil {
			return nil, err
		}
		for _, g := range resolved {
			groups = append(groups, replicator.Group{Name: g.Name, Repos: g.Repos})
		}
	}

	if len(syncRepos) > 0 {
		selection := make(map[labels.Repository]bool, len(syncRepos))
		for _, slug := range syncRepos {
			repo, err := labels.ParseRepository(strings.TrimSpace(slug))
			if err != nil {
				return nil, err
			}
			selection[repo] = true
		}
		groups = filterGroups(groups, selection)
		if countRepos(groups) == 0 {
			return nil, fmt.Errorf("none of the requested repositories are configured")
		}
	}

	if syncInteractive {
		selection, err := selectReposInteractively(groups)
		if err != nil {
			return nil, err
		}
		groups = filterGroups(groups, selection)
	}

	var kept []replicator.Group
	for _, g := range groups {
		if len(g.Repos) > 0 {
			kept = append(kept, g)
		}
	}
	return kept, nil
}

func filterGroups(groups []replicator.Group, keep map[labels.Repository]bool) []replicator.Group {
	out := make([]replicator.Group, 0, len(groups))
	for _, g := range groups {
		filtered := replicator.Group{Name: g.Name}
		for _, repo := range g.Repos {
			if keep[repo] {
				filtered.Repos = append(filtered.Repos, repo)
			}
		}
		out = append(out, filtered)
	}
	return out
}

func countRepos(groups []replicator.Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Repos)
	}
	return n
}

// selectReposInteractively opens a fuzzy finder over every candidate
// repository and returns the picked set. Tab marks multiple entries.
func selectReposInteractively(groups []replicator.Group) (map[labels.Repository]bool, error) {
	finder := fuzzy.NewFzf("Select repositories to synchronize")
	var options []fuzzy.Option
	for _, g := range groups {
		for _, repo := range g.Repos {
			options = append(options, fuzzy.Option{Value: repo.String(), Description: "group " + g.Name})
		}
	}
	if err := finder.SetOptions(options); err != nil {
		return nil, err
	}

	picked, err := finder.SelectMany()
	if err != nil {
		return nil, fmt.Errorf("repository selection failed: %w", err)
	}

	selection := make(map[labels.Repository]bool, len(picked))
	for _, slug := range picked {
		repo, err := labels.ParseRepository(slug)
		if err != nil {
			return nil, err
		}
		selection[repo] = true
	}
	return selection, nil
}

// displayGroupReport prints the per-repository outcomes of one group.
func displayGroupReport(report *replicator.Report) {
	for _, result := range report.Results() {
		if result.Skipped {
			continue
		}
		if result.Success() && len(result.Applied) == 0 {
			if syncVerbose {
				fmt.Printf("✓ %s is up to date\n", result.Repo)
			}
			continue
		}
		if syncQuiet && result.Success() {
			continue
		}

		fmt.Printf("\n📋 %s:\n", result.Repo)
		for _, op := range result.Applied {
			fmt.Printf("   %s\n", formatOp(op))
		}
		for _, opErr := range result.Errors {
			fmt.Printf("   ❌ %s\n", opErr.Error())
		}
	}
}

func formatOp(op replicator.AppliedOp) string {
	switch op.Kind {
	case replicator.OpCreate:
		return fmt.Sprintf("+ %s: CREATE", op.Label)
	case replicator.OpUpdate:
		if op.From != "" && op.From != op.Label {
			return fmt.Sprintf("~ %s: RENAME to %s", op.From, op.Label)
		}
		return fmt.Sprintf("~ %s: UPDATE", op.Label)
	case replicator.OpDelete:
		return fmt.Sprintf("- %s: DELETE (DESTRUCTIVE)", op.Label)
	default:
		return op.String()
	}
}

// displaySyncSummary prints the aggregate outcome and returns an error
// when any repository failed, so the process exits non-zero.
func displaySyncSummary(reports []*replicator.Report) error {
	var succeeded, failed, skipped, changes, opErrors int
	for _, r := range reports {
		succeeded += r.Succeeded()
		failed += r.Failed()
		skipped += r.Skipped()
		changes += r.AppliedOps()
		opErrors += r.OpErrors()
	}

	if syncDryRun {
		fmt.Printf("\n✓ Dry-run completed. No changes were applied.\n")
	}

	fmt.Printf("\n📊 Summary: %d repos updated; %d errors\n", succeeded, opErrors)
	fmt.Printf("   Total changes: %d\n", changes)
	if skipped > 0 {
		fmt.Printf("   Skipped: %d\n", skipped)
	}

	if failed > 0 {
		return fmt.Errorf("synchronization failed for %d of %d repositories", failed, succeeded+failed)
	}
	return nil
}
