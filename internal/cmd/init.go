package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"labelsync/pkg/config"
	"labelsync/pkg/labels"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize labelsync configuration",
	Long:  "Create a starter configuration file with example labels and repositories",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	configPath := cfgFile
	if configPath == "" {
		var err error
		configPath, err = config.HomeConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("⚠️  Configuration file already exists at: %s\n", configPath)
		fmt.Print("Do you want to overwrite it? (y/N): ")
		var response string
		_, _ = fmt.Scanln(&response) // Ignore error for user input
		if response != "y" && response != "Y" {
			fmt.Println("Configuration initialization cancelled.")
			return nil
		}
	}

	token, err := promptToken()
	if err != nil {
		return err
	}

	defaultConfig := &config.Config{
		GitHub: config.GitHubConfig{
			Token: token,
		},
		Labels: []labels.Label{
			{Name: "bug", Color: "d73a4a", Description: "Something isn't working"},
			{Name: "documentation", Color: "0075ca", Description: "Improvements or additions to documentation"},
			{Name: "enhancement", Color: "a2eeef", Description: "New feature or request"},
		},
		Repos: []string{"your-org/your-repo"},
	}

	if err := defaultConfig.Save(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("✅ Configuration file created at: %s\n", configPath)
	fmt.Println("📝 Please edit the file to add your repositories and labels.")

	return nil
}

// promptToken reads the GitHub token without echoing it when stdin is a
// terminal.
func promptToken() (string, error) {
	fmt.Print("GitHub token (leave empty to use GITHUB_TOKEN): ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	var token string
	_, _ = fmt.Scanln(&token) // Ignore error for empty input
	return strings.TrimSpace(token), nil
}
