package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/sentinelctl/internal/config"
)

const exampleDeclaration = `version: 0

# Identity and paths shared by every instance. All fields are optional;
# the defaults match the stock redis package.
installation:
  user: redis
  group: redis
  daemon_path: /usr/bin/redis-sentinel
  package_name: redis
  logrotate_package: logrotate

sentinels:
  mymaster:
    port: 26379
    # protected_mode: "no"
    # bind_ip: 10.0.0.5

    # Secrets can be literal, env://VARIABLE or keyring://service/user
    # requirepass: env://SENTINEL_PASSWORD

    monitors:
      mymaster:
        master_host: 127.0.0.1
        master_port: 6379
        quorum: 2
        down_after_milliseconds: 30000
        parallel_syncs: 1
        failover_timeout: 180000
        # options:
        #   auth-pass: supersecret
        #   notification-script: /usr/local/bin/notify.sh

    manage_logrotate: true

    # running: true
    # enabled: true
    # announce_ip: 192.0.2.10
    # announce_port: 26379
    # sentinel_id: 1234567890abcdef1234567890abcdef12345678
`

func NewInitCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new sentinelctl declaration",
		Long:  "Create a sentinelctl.yaml file with a commented example instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfg.Path); err == nil {
				return fmt.Errorf("%s already exists. Remove it first if you want to reinitialize", cfg.Path)
			}

			if err := os.WriteFile(cfg.Path, []byte(exampleDeclaration), 0o644); err != nil {
				return fmt.Errorf("failed to write declaration file: %w", err)
			}

			cfg.Logger.Info("Created %s with an example instance", cfg.Path)
			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Edit %s to describe your sentinel instances", cfg.Path)
			cfg.Logger.Info("  2. Run 'sentinelctl validate' to check the declaration")
			cfg.Logger.Info("  3. Run 'sentinelctl plan' to preview the resource graph")
			cfg.Logger.Info("  4. Run 'sentinelctl render --out ./staging' to stage the artifacts")

			return nil
		},
	}

	return cmd
}
