package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/systmms/sentinelctl/cmd/sentinelctl/commands"
	"github.com/systmms/sentinelctl/internal/config"
	"github.com/systmms/sentinelctl/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipe any credential material memguard is still holding, whatever
	// path we exit through.
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		factsFile  string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "sentinelctl",
		Short: "Declare and render Redis Sentinel instances",
		Long: `sentinelctl reads a declarative sentinelctl.yaml, resolves the host's
OS profile, and produces the config files, service definitions and
logrotate policies a convergence engine needs to manage Redis Sentinel.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			cfg.Path = configFile
			cfg.FactsPath = factsFile
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "sentinelctl.yaml", "Declaration file path")
	rootCmd.PersistentFlags().StringVar(&factsFile, "facts", "", "OS facts override file (YAML with family and major_version)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewPlanCommand(cfg),
		commands.NewRenderCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
