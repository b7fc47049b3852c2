package commands

import (
	"fmt"

	"github.com/systmms/sentinelctl/internal/config"
	"github.com/systmms/sentinelctl/internal/declare"
	"github.com/systmms/sentinelctl/internal/osprofile"
	"github.com/systmms/sentinelctl/internal/resource"
	"github.com/systmms/sentinelctl/internal/sentinel"
)

// buildGraph loads facts, resolves the OS profile and declares either one
// instance or every instance into a fresh resource graph. Shared by plan
// and render.
func buildGraph(cfg *config.Config, instanceName string) (*resource.Graph, osprofile.Facts, error) {
	facts, err := cfg.Facts()
	if err != nil {
		return nil, osprofile.Facts{}, err
	}

	profile, err := osprofile.Resolve(facts)
	if err != nil {
		return nil, facts, err
	}
	cfg.Logger.Debug("Resolved OS profile: family=%s major=%d style=%s",
		facts.Family, facts.MajorVersion, profile.Style)

	var instances []*sentinel.Config
	if instanceName != "" {
		inst, err := cfg.GetInstance(instanceName)
		if err != nil {
			return nil, facts, err
		}
		instances = []*sentinel.Config{inst}
	} else {
		instances, err = cfg.Instances()
		if err != nil {
			return nil, facts, err
		}
	}

	graph := resource.NewGraph()
	declarator := declare.New(cfg.Definition.Installation, profile, cfg.Logger)
	for _, inst := range instances {
		if err := declarator.Declare(graph, inst); err != nil {
			return nil, facts, fmt.Errorf("failed to declare instance: %w", err)
		}
	}

	return graph, facts, nil
}
