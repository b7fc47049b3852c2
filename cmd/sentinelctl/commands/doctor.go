package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/systmms/sentinelctl/internal/config"
	"github.com/systmms/sentinelctl/internal/sentinel"
)

// instanceHealth is one row of the doctor report
type instanceHealth struct {
	Name     string
	Addr     string
	Status   string
	Error    string
	Monitors []string
	Drift    []string
}

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var (
		instanceName string
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check declared sentinels against their live state",
		Long: `Verify that declared sentinel instances are reachable and report drift.

For every running instance doctor connects to the declared address, pings
it, asks which masters it currently monitors, and compares that against
the declared monitor groups. Instances declared absent or not running are
skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Logger.Info("Checking sentinelctl declaration...")
			if err := cfg.Load(); err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return fmt.Errorf("failed to load declaration: %w", err)
			}
			cfg.Logger.Info("✓ Declaration loaded successfully")

			var instances []*sentinel.Config
			if instanceName != "" {
				inst, err := cfg.GetInstance(instanceName)
				if err != nil {
					return err
				}
				instances = []*sentinel.Config{inst}
			} else {
				var err error
				instances, err = cfg.Instances()
				if err != nil {
					return err
				}
			}

			ctx := context.Background()
			results := make([]instanceHealth, 0, len(instances))
			for _, inst := range instances {
				results = append(results, probeInstance(ctx, inst, timeout))
			}

			return outputDoctorTable(results)
		},
	}

	cmd.Flags().StringVar(&instanceName, "instance", "", "Check a single instance instead of all")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Per-instance probe timeout")

	return cmd
}

// probeInstance pings one sentinel and diffs its live monitor set against
// the declaration
func probeInstance(ctx context.Context, inst *sentinel.Config, timeout time.Duration) instanceHealth {
	health := instanceHealth{Name: inst.Name, Addr: probeAddr(inst)}

	if !inst.IsRunning() {
		health.Status = "skipped"
		health.Error = "declared not running"
		return health
	}

	password, err := inst.RequirePass.RevealString()
	if err != nil {
		health.Status = "error"
		health.Error = err.Error()
		return health
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         health.Addr,
		Password:     password,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		health.Status = "unreachable"
		health.Error = err.Error()
		return health
	}

	live, err := liveMonitorNames(ctx, client)
	if err != nil {
		health.Status = "error"
		health.Error = err.Error()
		return health
	}
	health.Monitors = live
	health.Drift = monitorDrift(inst, live)

	if len(health.Drift) > 0 {
		health.Status = "drift"
	} else {
		health.Status = "healthy"
	}
	return health
}

// liveMonitorNames asks the sentinel which masters it monitors
func liveMonitorNames(ctx context.Context, client *goredis.Client) ([]string, error) {
	raw, err := client.Do(ctx, "SENTINEL", "MASTERS").Result()
	if err != nil {
		return nil, fmt.Errorf("SENTINEL MASTERS failed: %w", err)
	}

	entries, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected SENTINEL MASTERS reply type %T", raw)
	}

	var names []string
	for _, entry := range entries {
		switch master := entry.(type) {
		case []interface{}:
			// RESP2: flat key/value pairs
			for i := 0; i+1 < len(master); i += 2 {
				if fmt.Sprint(master[i]) == "name" {
					names = append(names, fmt.Sprint(master[i+1]))
					break
				}
			}
		case map[interface{}]interface{}:
			// RESP3: map reply
			for k, v := range master {
				if fmt.Sprint(k) == "name" {
					names = append(names, fmt.Sprint(v))
					break
				}
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// monitorDrift reports declared-but-missing and live-but-undeclared groups
func monitorDrift(inst *sentinel.Config, live []string) []string {
	liveSet := make(map[string]bool, len(live))
	for _, name := range live {
		liveSet[name] = true
	}

	var drift []string
	for _, group := range inst.MonitorNames() {
		if !liveSet[group] {
			drift = append(drift, "missing: "+group)
		}
		delete(liveSet, group)
	}
	extra := make([]string, 0, len(liveSet))
	for name := range liveSet {
		extra = append(extra, "undeclared: "+name)
	}
	sort.Strings(extra)
	return append(drift, extra...)
}

func probeAddr(inst *sentinel.Config) string {
	host := inst.BindIP
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("%s:%d", host, inst.Port)
}

func outputDoctorTable(results []instanceHealth) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "INSTANCE\tADDRESS\tSTATUS\tMONITORS\tDETAILS\n")
	_, _ = fmt.Fprintf(w, "--------\t-------\t------\t--------\t-------\n")

	problems := 0
	for _, r := range results {
		details := r.Error
		if len(r.Drift) > 0 {
			details = strings.Join(r.Drift, "; ")
		}
		if details == "" {
			details = "-"
		}
		monitors := "-"
		if len(r.Monitors) > 0 {
			monitors = strings.Join(r.Monitors, ", ")
		}
		if r.Status != "healthy" && r.Status != "skipped" {
			problems++
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Addr, r.Status, monitors, details)
	}

	_ = w.Flush()

	if problems > 0 {
		fmt.Printf("\n%d instance(s) need attention\n", problems)
		return fmt.Errorf("doctor found %d problem(s)", problems)
	}

	fmt.Printf("\n✓ All probed instances healthy\n")
	return nil
}
