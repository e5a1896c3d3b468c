package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"labelsync/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "labelsync",
	Short: "A CLI tool to keep GitHub labels consistent across repositories",
	Long: `Labelsync keeps label definitions (name, color, description) consistent
across groups of GitHub repositories. It can converge every configured
repository onto a desired label set in one batch run, or serve GitHub
webhooks and propagate label changes between repositories as they happen.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file (default: ./labelsync.yaml or ~/.labelsync/config.yaml)")
}

// loadConfig loads the configuration from the --config flag or the
// default search path.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadDefault()
}
