package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	ctlerrors "github.com/systmms/sentinelctl/internal/errors"
	"github.com/systmms/sentinelctl/internal/logging"
	"github.com/systmms/sentinelctl/internal/osprofile"
	"github.com/systmms/sentinelctl/internal/schema"
	"github.com/systmms/sentinelctl/internal/sentinel"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration
type Config struct {
	Path       string
	FactsPath  string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the sentinelctl.yaml structure: shared
// installation identity plus one or more sentinel instances.
type Definition struct {
	Version      int                         `yaml:"version"`
	Installation sentinel.Installation       `yaml:"installation,omitempty"`
	Sentinels    map[string]*sentinel.Config `yaml:"sentinels"`
}

// Load reads, schema-checks and parses the declaration file, applies
// defaults, and rejects the whole declaration if any instance fails
// validation. Nothing downstream ever sees a half-valid definition.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return ctlerrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "declaration file not found",
				Suggestion: "Run 'sentinelctl init' to create a starter declaration",
			}
		}
		return ctlerrors.UserError{
			Message:    "Failed to read declaration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	if err := schema.ValidateDeclaration(data); err != nil {
		return err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return ctlerrors.ConfigError{
			Message:    "invalid YAML syntax in declaration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}

	if def.Version != 0 {
		return ctlerrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported declaration version",
			Suggestion: "Set 'version: 0' at the top of your sentinelctl.yaml file",
		}
	}

	if len(def.Sentinels) == 0 {
		return ctlerrors.ConfigError{
			Field:      "sentinels",
			Message:    "no sentinel instances declared",
			Suggestion: "Add at least one instance under the 'sentinels:' key",
		}
	}

	def.Installation.ApplyDefaults()
	for key, inst := range def.Sentinels {
		inst.ApplyDefaults(key)
	}

	for _, key := range sortedNames(def.Sentinels) {
		inst := def.Sentinels[key]
		result := inst.Validate()
		for _, warning := range result.Warnings {
			if c.Logger != nil {
				c.Logger.Warn("Instance '%s': %s", inst.Name, warning)
			}
		}
		if !result.Valid {
			return ctlerrors.ValidationError{
				Instance: inst.Name,
				Problems: result.Errors,
			}
		}
	}

	c.Definition = &def
	return nil
}

// Facts resolves OS facts, honoring the --facts override when set
func (c *Config) Facts() (osprofile.Facts, error) {
	if c.FactsPath != "" {
		return osprofile.LoadFacts(c.FactsPath)
	}
	return osprofile.Discover()
}

// Instances returns the declared instances sorted by name for
// deterministic plan and render output.
func (c *Config) Instances() ([]*sentinel.Config, error) {
	if c.Definition == nil {
		return nil, ctlerrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	out := make([]*sentinel.Config, 0, len(c.Definition.Sentinels))
	for _, key := range sortedNames(c.Definition.Sentinels) {
		out = append(out, c.Definition.Sentinels[key])
	}
	return out, nil
}

// GetInstance returns one declared instance by name
func (c *Config) GetInstance(name string) (*sentinel.Config, error) {
	if c.Definition == nil {
		return nil, ctlerrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	for _, inst := range c.Definition.Sentinels {
		if inst.Name == name {
			return inst, nil
		}
	}

	available := sortedNames(c.Definition.Sentinels)
	suggestion := "Check your sentinelctl.yaml for declared instances"
	if len(available) > 0 {
		suggestion = fmt.Sprintf("Declared instances: %s", strings.Join(available, ", "))
	}

	return nil, ctlerrors.ConfigError{
		Field:      "instance",
		Value:      name,
		Message:    "sentinel instance not found",
		Suggestion: suggestion,
	}
}

func sortedNames(m map[string]*sentinel.Config) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
