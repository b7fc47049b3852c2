package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/systmms/sentinelctl/internal/config"
	"github.com/systmms/sentinelctl/internal/resource"
)

func NewRenderCommand(cfg *config.Config) *cobra.Command {
	var (
		instanceName string
		outputDir    string
	)

	cmd := &cobra.Command{
		Use:   "render --out <dir>",
		Short: "Render file artifacts into a staging directory",
		Long: `Render writes every declared file artifact into a staging root that
mirrors its absolute path, e.g. <dir>/etc/redis-sentinel_mymaster.conf.

The staging root is what a convergence engine or a review diff consumes;
sentinelctl never writes into /etc itself unless you point --out there.

Examples:
  sentinelctl render --out ./staging
  sentinelctl render --out ./staging --instance mymaster`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				return fmt.Errorf("--out flag is required (explicit opt-in to write files)")
			}

			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load declaration: %w", err)
			}

			graph, _, err := buildGraph(cfg, instanceName)
			if err != nil {
				return err
			}

			ordered, err := graph.Sorted()
			if err != nil {
				return err
			}

			written := 0
			removed := 0
			for _, r := range ordered {
				if r.Kind != resource.KindFile {
					continue
				}
				staged := filepath.Join(outputDir, r.Path)

				if r.Ensure == resource.EnsureAbsent {
					if err := os.Remove(staged); err == nil {
						removed++
						cfg.Logger.Debug("Removed %s", staged)
					} else if !os.IsNotExist(err) {
						return fmt.Errorf("failed to remove %s: %w", staged, err)
					}
					continue
				}

				if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
					return fmt.Errorf("failed to create directory for %s: %w", staged, err)
				}
				if err := os.WriteFile(staged, []byte(r.Content), r.Mode); err != nil {
					return fmt.Errorf("failed to write %s: %w", staged, err)
				}
				written++
				cfg.Logger.Debug("Wrote %s (mode %o)", staged, r.Mode)
			}

			cfg.Logger.Info("Staged %d file(s) under %s (%d removed)", written, outputDir, removed)
			if hasCredentials(cfg) {
				cfg.Logger.Warn("Rendered configs contain credentials - keep the staging directory out of version control")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&instanceName, "instance", "", "Render a single instance instead of all")
	cmd.Flags().StringVar(&outputDir, "out", "", "Staging directory (required)")

	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func hasCredentials(cfg *config.Config) bool {
	if cfg.Definition == nil {
		return false
	}
	for _, inst := range cfg.Definition.Sentinels {
		if inst.RequirePass.IsSet() || inst.ACLPass.IsSet() {
			return true
		}
	}
	return false
}
