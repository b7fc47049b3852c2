package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/sentinelctl/internal/config"
	"github.com/systmms/sentinelctl/internal/osprofile"
	"github.com/systmms/sentinelctl/internal/resource"
)

func NewPlanCommand(cfg *config.Config) *cobra.Command {
	var (
		instanceName string
		outputJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the declared resource graph (no changes made)",
		Long: `Plan resolves the OS profile, renders every artifact in memory and
prints the resources the convergence engine would manage, in dependency
order, with their ordering and notify edges. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load declaration: %w", err)
			}

			graph, facts, err := buildGraph(cfg, instanceName)
			if err != nil {
				return err
			}

			ordered, err := graph.Sorted()
			if err != nil {
				return err
			}

			if outputJSON {
				return outputPlanJSON(ordered, facts)
			}
			return outputPlanTable(ordered, facts)
		},
	}

	cmd.Flags().StringVar(&instanceName, "instance", "", "Plan a single instance instead of all")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

// outputPlanJSON emits the ordered resources as JSON
func outputPlanJSON(ordered []*resource.Resource, facts osprofile.Facts) error {
	output := map[string]interface{}{
		"facts": map[string]interface{}{
			"family":        facts.Family,
			"major_version": facts.MajorVersion,
		},
		"resources": ordered,
		"summary": map[string]interface{}{
			"total_resources": len(ordered),
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// outputPlanTable emits the ordered resources as a formatted table
func outputPlanTable(ordered []*resource.Resource, facts osprofile.Facts) error {
	fmt.Printf("Platform: %s (major version %d)\n\n", facts.Family, facts.MajorVersion)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "KIND\tRESOURCE\tENSURE\tREQUIRES\tNOTIFIES\n")
	_, _ = fmt.Fprintf(w, "----\t--------\t------\t--------\t--------\n")

	for _, r := range ordered {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Kind,
			displayName(r),
			r.Ensure,
			edgeList(r.Requires),
			edgeList(r.Notifies),
		)
	}

	_ = w.Flush()

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total resources: %d\n", len(ordered))
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  • Run 'sentinelctl render --out <dir>' to stage the file artifacts\n")
	fmt.Printf("  • Hand the JSON plan to your convergence engine with 'sentinelctl plan --json'\n")

	return nil
}

func displayName(r *resource.Resource) string {
	switch r.Kind {
	case resource.KindFile:
		return r.Path
	case resource.KindPackage:
		return r.Package
	case resource.KindService:
		return r.Service
	case resource.KindExec:
		return strings.Join(r.Command, " ")
	}
	return r.ID
}

func edgeList(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
