package render

import (
	"strings"

	"github.com/systmms/sentinelctl/internal/sentinel"
)

// Directive is one line of a Redis-syntax config file. Names are emitted
// verbatim, hyphens included, so `parallel-syncs` never turns into
// anything else on the way out.
type Directive struct {
	Name string
	Args []string
}

func (d Directive) String() string {
	if len(d.Args) == 0 {
		return d.Name
	}
	return d.Name + " " + strings.Join(d.Args, " ")
}

const configHeader = "# Managed by sentinelctl. Manual changes will be overwritten on the next converge.\n"

// ConfigDirectives builds the ordered directive sequence for one instance.
// The sequence is fully determined by the instance: identical inputs yield
// an identical sequence, and unset optionals contribute nothing.
func ConfigDirectives(c *sentinel.Config) ([]Directive, error) {
	var out []Directive
	add := func(name string, args ...string) {
		out = append(out, Directive{Name: name, Args: args})
	}

	if c.BindIP != "" {
		add("bind", c.BindIP)
	}
	add("port", itoa(c.Port))
	if c.ProtectedMode != sentinel.EnumUnset {
		add("protected-mode", string(c.ProtectedMode))
	}

	add("daemonize", "yes")
	add("dir", c.WorkingDir)
	add("logfile", c.LogFile())
	add("pidfile", c.PidFile())

	if c.RequirePass.IsSet() {
		pass, err := c.RequirePass.RevealString()
		if err != nil {
			return nil, err
		}
		add("requirepass", pass)
	}
	for _, rule := range c.ACLUsers {
		add("user", strings.Fields(rule)...)
	}
	if c.ACLUser != "" {
		add("sentinel", "sentinel-user", c.ACLUser)
		pass, err := c.ACLPass.RevealString()
		if err != nil {
			return nil, err
		}
		add("sentinel", "sentinel-pass", pass)
	}

	for _, group := range c.MonitorNames() {
		m := c.Monitors[group]
		add("sentinel", "monitor", group, m.MasterHost, itoa(m.MasterPort), itoa(m.Quorum))
		add("sentinel", "down-after-milliseconds", group, itoa(m.DownAfterMilliseconds))
		add("sentinel", "failover-timeout", group, itoa(m.FailoverTimeout))
		add("sentinel", "parallel-syncs", group, itoa(m.ParallelSyncs))
		for _, key := range sortedKeys(m.Options) {
			add("sentinel", key, group, m.Options[key])
		}
	}

	if c.AnnounceIP != "" {
		add("sentinel", "announce-ip", c.AnnounceIP)
	}
	if c.AnnouncePort != 0 {
		add("sentinel", "announce-port", itoa(c.AnnouncePort))
	}
	if c.ResolveHostnames != sentinel.EnumUnset {
		add("sentinel", "resolve-hostnames", string(c.ResolveHostnames))
	}
	if c.AnnounceHostnames != sentinel.EnumUnset {
		add("sentinel", "announce-hostnames", string(c.AnnounceHostnames))
	}
	if c.SentinelID != "" {
		add("sentinel", "myid", c.SentinelID)
	}

	return out, nil
}

// ConfigFile serializes the instance's directives into the config file
// body. Rendering twice with identical inputs is byte-identical.
func ConfigFile(c *sentinel.Config) (string, error) {
	directives, err := ConfigDirectives(c)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(configHeader)
	for _, d := range directives {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String(), nil
}
