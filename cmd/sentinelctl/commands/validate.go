package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/sentinelctl/internal/config"
)

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the declaration file",
		Long: `Check the declaration against the schema and the per-instance
validation rules without building a plan or touching the host.

Validation covers structure (types, enums, required fields), instance
semantics (port ranges, absolute paths, 40-character sentinel IDs,
monitor quorums) and reports every problem in one pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("declaration is invalid: %w", err)
			}

			instances, err := cfg.Instances()
			if err != nil {
				return err
			}

			for _, inst := range instances {
				monitors := len(inst.Monitors)
				cfg.Logger.Info("Instance '%s': %s, port %d, %d monitor(s)",
					inst.Name, inst.Ensure, inst.Port, monitors)
			}
			cfg.Logger.Info("Declaration is valid (%d instance(s))", len(instances))
			return nil
		},
	}

	return cmd
}
