// Package declare turns validated sentinel instances into the declared
// resource graph handed to a convergence engine: config file, service
// definition, service state and optional logrotate policy, with explicit
// ordering and notify edges between them.
package declare

import (
	"fmt"

	"github.com/systmms/sentinelctl/internal/logging"
	"github.com/systmms/sentinelctl/internal/osprofile"
	"github.com/systmms/sentinelctl/internal/render"
	"github.com/systmms/sentinelctl/internal/resource"
	"github.com/systmms/sentinelctl/internal/sentinel"
)

// Declarator builds resource declarations for sentinel instances against
// one resolved OS profile and installation identity.
type Declarator struct {
	Install sentinel.Installation
	Profile osprofile.Profile
	Logger  *logging.Logger
}

// New creates a declarator
func New(install sentinel.Installation, profile osprofile.Profile, logger *logging.Logger) *Declarator {
	return &Declarator{Install: install, Profile: profile, Logger: logger}
}

// Declare adds one instance's resources to the graph. Rendering failures
// abort the instance before any of its resources are registered, keeping
// the declaration atomic per instance.
func (d *Declarator) Declare(g *resource.Graph, c *sentinel.Config) error {
	present := c.Ensure == sentinel.EnsurePresent
	svcID := resource.ServiceID(c.ServiceName())

	// The redis package is shared across instances and declared once.
	pkg := g.AddShared(&resource.Resource{
		Kind:    resource.KindPackage,
		ID:      resource.PackageID(d.Install.PackageName),
		Ensure:  resource.EnsurePresent,
		Package: d.Install.PackageName,
	})

	// Render everything first so a template or credential failure leaves
	// the graph untouched.
	var configContent string
	var defContent string
	if present {
		var err error
		configContent, err = render.ConfigFile(c)
		if err != nil {
			return fmt.Errorf("instance '%s': %w", c.Name, err)
		}
		switch d.Profile.Style {
		case osprofile.StyleSystemd:
			defContent, err = render.SystemdUnit(c, d.Install)
		case osprofile.StyleSysV:
			defContent, err = render.InitScript(c, d.Install, d.Profile.InitFlavor)
		default:
			err = fmt.Errorf("unknown service style '%s'", d.Profile.Style)
		}
		if err != nil {
			return fmt.Errorf("instance '%s': %w", c.Name, err)
		}
	}

	configRes := &resource.Resource{
		Kind:     resource.KindFile,
		ID:       resource.FileID(c.ConfigPath()),
		Ensure:   ensureOf(present),
		Path:     c.ConfigPath(),
		Content:  configContent,
		Mode:     0o644,
		Owner:    d.Install.User,
		Group:    d.Install.Group,
		Requires: []string{pkg.ID},
	}
	if present {
		// Config changes trigger a supervised restart, not a best-effort
		// notification.
		configRes.Notifies = []string{svcID}
	}
	if err := g.Add(configRes); err != nil {
		return err
	}

	defID, err := d.declareServiceDefinition(g, c, pkg.ID, svcID, defContent, present)
	if err != nil {
		return err
	}

	if err := g.Add(&resource.Resource{
		Kind:     resource.KindService,
		ID:       svcID,
		Ensure:   ensureOf(present),
		Service:  c.ServiceName(),
		Running:  c.IsRunning(),
		Enabled:  c.IsEnabled(),
		Requires: []string{configRes.ID, defID},
	}); err != nil {
		return err
	}

	if c.ManageLogrotate {
		if err := d.declareLogrotate(g, c, present); err != nil {
			return err
		}
	}

	if d.Logger != nil {
		d.Logger.Debug("Declared instance '%s' (%s, %s)", c.Name, c.Ensure, d.Profile.Style)
	}
	return nil
}

// declareServiceDefinition adds the systemd unit plus its one-shot preset
// exec, or the SysV init script, and returns the definition's resource ID.
func (d *Declarator) declareServiceDefinition(g *resource.Graph, c *sentinel.Config, pkgID, svcID, content string, present bool) (string, error) {
	if d.Profile.Style == osprofile.StyleSystemd {
		unitRes := &resource.Resource{
			Kind:     resource.KindFile,
			ID:       resource.FileID(c.UnitPath()),
			Ensure:   ensureOf(present),
			Path:     c.UnitPath(),
			Content:  content,
			Mode:     0o644,
			Owner:    "root",
			Group:    "root",
			Requires: []string{pkgID},
		}
		if present {
			execRes := &resource.Resource{
				Kind:        resource.KindExec,
				ID:          resource.ExecID("systemd-preset-" + c.ServiceName()),
				Ensure:      resource.EnsurePresent,
				Command:     []string{"systemctl", "preset", c.ServiceName() + ".service"},
				RefreshOnly: true,
				Requires:    []string{unitRes.ID},
			}
			// The preset exec fires only on unit-file change and passes the
			// refresh on to the service.
			unitRes.Notifies = []string{execRes.ID, svcID}
			if err := g.Add(unitRes); err != nil {
				return "", err
			}
			if err := g.Add(execRes); err != nil {
				return "", err
			}
			return unitRes.ID, nil
		}
		if err := g.Add(unitRes); err != nil {
			return "", err
		}
		return unitRes.ID, nil
	}

	initRes := &resource.Resource{
		Kind:     resource.KindFile,
		ID:       resource.FileID(c.InitScriptPath()),
		Ensure:   ensureOf(present),
		Path:     c.InitScriptPath(),
		Content:  content,
		Mode:     0o755,
		Owner:    "root",
		Group:    "root",
		Requires: []string{pkgID},
	}
	if present {
		initRes.Notifies = []string{svcID}
	}
	if err := g.Add(initRes); err != nil {
		return "", err
	}
	return initRes.ID, nil
}

// declareLogrotate adds the rotation policy file behind the shared
// logrotate package, which is declared at most once per run no matter how
// many instances ask for it.
func (d *Declarator) declareLogrotate(g *resource.Graph, c *sentinel.Config, present bool) error {
	lrPkg := g.AddShared(&resource.Resource{
		Kind:    resource.KindPackage,
		ID:      resource.PackageID(d.Install.LogrotatePackage),
		Ensure:  resource.EnsurePresent,
		Package: d.Install.LogrotatePackage,
	})

	var content string
	if present {
		var err error
		content, err = render.Logrotate(c, d.Install)
		if err != nil {
			return fmt.Errorf("instance '%s': %w", c.Name, err)
		}
	}

	return g.Add(&resource.Resource{
		Kind:     resource.KindFile,
		ID:       resource.FileID(c.LogrotatePath()),
		Ensure:   ensureOf(present),
		Path:     c.LogrotatePath(),
		Content:  content,
		Mode:     0o644,
		Owner:    "root",
		Group:    "root",
		Requires: []string{lrPkg.ID},
	})
}

func ensureOf(present bool) resource.Ensure {
	if present {
		return resource.EnsurePresent
	}
	return resource.EnsureAbsent
}
