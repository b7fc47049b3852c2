package sentinel

import (
	"fmt"
	"net"
	"path"
	"regexp"
	"sort"
)

// Ensure declares whether an instance's artifacts should exist
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// EnumBool is the three-state yes/no/unset toggle used by sentinel
// directives like protected-mode. Unset means the directive is omitted
// from the rendered config entirely.
type EnumBool string

const (
	EnumUnset EnumBool = ""
	EnumYes   EnumBool = "yes"
	EnumNo    EnumBool = "no"
)

// Config is the declared desired state for one Sentinel instance
type Config struct {
	Name          string   `yaml:"name,omitempty"`
	Ensure        Ensure   `yaml:"ensure,omitempty"`
	BindIP        string   `yaml:"bind_ip,omitempty"`
	Port          int      `yaml:"port,omitempty"`
	ProtectedMode EnumBool `yaml:"protected_mode,omitempty"`

	LogDir     string `yaml:"log_dir,omitempty"`
	PidDir     string `yaml:"pid_dir,omitempty"`
	ConfDir    string `yaml:"conf_dir,omitempty"`
	WorkingDir string `yaml:"working_dir,omitempty"`

	RequirePass CredentialSource `yaml:"requirepass,omitempty"`
	ACLUser     string           `yaml:"acl_user,omitempty"`
	ACLPass     CredentialSource `yaml:"acl_pass,omitempty"`
	ACLUsers    []string         `yaml:"acl_users,omitempty"`

	Monitors map[string]*Monitor `yaml:"monitors,omitempty"`

	Running *bool `yaml:"running,omitempty"`
	Enabled *bool `yaml:"enabled,omitempty"`

	ManageLogrotate bool `yaml:"manage_logrotate,omitempty"`

	AnnounceIP   string `yaml:"announce_ip,omitempty"`
	AnnouncePort int    `yaml:"announce_port,omitempty"`

	ResolveHostnames  EnumBool `yaml:"resolve_hostnames,omitempty"`
	AnnounceHostnames EnumBool `yaml:"announce_hostnames,omitempty"`

	SentinelID string `yaml:"sentinel_id,omitempty"`
}

// Monitor describes one master deployment watched by the instance
type Monitor struct {
	MasterHost string `yaml:"master_host"`
	MasterPort int    `yaml:"master_port,omitempty"`
	Quorum     int    `yaml:"quorum,omitempty"`

	DownAfterMilliseconds int `yaml:"down_after_milliseconds,omitempty"`
	ParallelSyncs         int `yaml:"parallel_syncs,omitempty"`
	FailoverTimeout       int `yaml:"failover_timeout,omitempty"`

	// Options carries extra per-group directives (auth-pass,
	// notification-script, client-reconfig-script, ...). Keys are emitted
	// verbatim as `sentinel <key> <group> <value>`.
	Options map[string]string `yaml:"options,omitempty"`
}

// Installation is the resolved identity and paths shared by every instance,
// supplied by the installation component of the declaration.
type Installation struct {
	User             string `yaml:"user,omitempty"`
	Group            string `yaml:"group,omitempty"`
	DaemonPath       string `yaml:"daemon_path,omitempty"`
	PackageName      string `yaml:"package_name,omitempty"`
	LogrotatePackage string `yaml:"logrotate_package,omitempty"`
}

// ApplyDefaults fills the Installation with the stock redis identity
func (i *Installation) ApplyDefaults() {
	if i.User == "" {
		i.User = "redis"
	}
	if i.Group == "" {
		i.Group = "redis"
	}
	if i.DaemonPath == "" {
		i.DaemonPath = "/usr/bin/redis-sentinel"
	}
	if i.PackageName == "" {
		i.PackageName = "redis"
	}
	if i.LogrotatePackage == "" {
		i.LogrotatePackage = "logrotate"
	}
}

var sentinelIDPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ApplyDefaults fills unset fields. The instance name defaults to the map
// key it was declared under.
func (c *Config) ApplyDefaults(key string) {
	if c.Name == "" {
		c.Name = key
	}
	if c.Ensure == "" {
		c.Ensure = EnsurePresent
	}
	if c.Port == 0 {
		c.Port = 26379
	}
	if c.LogDir == "" {
		c.LogDir = "/var/log/redis"
	}
	if c.PidDir == "" {
		c.PidDir = "/var/run/redis"
	}
	if c.ConfDir == "" {
		c.ConfDir = "/etc/redis"
	}
	if c.WorkingDir == "" {
		c.WorkingDir = "/tmp"
	}
	if c.Running == nil {
		running := true
		c.Running = &running
	}
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	for _, m := range c.Monitors {
		if m.MasterPort == 0 {
			m.MasterPort = 6379
		}
		if m.Quorum == 0 {
			m.Quorum = 2
		}
		if m.DownAfterMilliseconds == 0 {
			m.DownAfterMilliseconds = 30000
		}
		if m.ParallelSyncs == 0 {
			m.ParallelSyncs = 1
		}
		if m.FailoverTimeout == 0 {
			m.FailoverTimeout = 180000
		}
	}
}

// ValidationResult contains the outcome of validating one instance
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks the instance after defaults have been applied. All
// problems are collected so the user sees the full list at once.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}
	fail := func(format string, args ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	if c.Name == "" {
		fail("name must not be empty")
	}
	if c.Ensure != EnsurePresent && c.Ensure != EnsureAbsent {
		fail("ensure must be 'present' or 'absent', got '%s'", c.Ensure)
	}
	if c.Port < 1 || c.Port > 65535 {
		fail("port %d is outside 1-65535", c.Port)
	}
	if c.BindIP != "" && net.ParseIP(c.BindIP) == nil {
		fail("bind_ip '%s' is not a valid IP address", c.BindIP)
	}
	if !validEnumBool(c.ProtectedMode) {
		fail("protected_mode must be 'yes', 'no' or unset, got '%s'", c.ProtectedMode)
	}
	if !validEnumBool(c.ResolveHostnames) {
		fail("resolve_hostnames must be 'yes', 'no' or unset, got '%s'", c.ResolveHostnames)
	}
	if !validEnumBool(c.AnnounceHostnames) {
		fail("announce_hostnames must be 'yes', 'no' or unset, got '%s'", c.AnnounceHostnames)
	}

	for _, field := range []struct{ name, value string }{
		{"log_dir", c.LogDir},
		{"pid_dir", c.PidDir},
		{"conf_dir", c.ConfDir},
		{"working_dir", c.WorkingDir},
	} {
		if !path.IsAbs(field.value) {
			fail("%s '%s' must be an absolute path", field.name, field.value)
		}
	}

	if c.SentinelID != "" {
		if len(c.SentinelID) != 40 {
			fail("sentinel_id must be exactly 40 characters, got %d", len(c.SentinelID))
		} else if !sentinelIDPattern.MatchString(c.SentinelID) {
			fail("sentinel_id must be 40 lowercase hex characters")
		}
	}

	if c.AnnouncePort != 0 && (c.AnnouncePort < 1 || c.AnnouncePort > 65535) {
		fail("announce_port %d is outside 1-65535", c.AnnouncePort)
	}
	if c.AnnounceIP != "" && net.ParseIP(c.AnnounceIP) == nil {
		fail("announce_ip '%s' is not a valid IP address", c.AnnounceIP)
	}

	if c.ACLUser != "" && c.ACLPass == "" {
		fail("acl_user is set but acl_pass is empty")
	}

	for _, group := range c.MonitorNames() {
		m := c.Monitors[group]
		if m.MasterHost == "" {
			fail("monitor '%s': master_host is required", group)
		}
		if m.MasterPort < 1 || m.MasterPort > 65535 {
			fail("monitor '%s': master_port %d is outside 1-65535", group, m.MasterPort)
		}
		if m.Quorum < 1 {
			fail("monitor '%s': quorum must be at least 1", group)
		}
	}

	if len(c.Monitors) == 0 && c.Ensure == EnsurePresent {
		result.Warnings = append(result.Warnings,
			"no monitors declared; the instance will start but watch nothing")
	}

	return result
}

// MonitorNames returns the monitor group names in sorted order for
// deterministic rendering and validation output.
func (c *Config) MonitorNames() []string {
	names := make([]string, 0, len(c.Monitors))
	for name := range c.Monitors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRunning reports the effective running flag
func (c *Config) IsRunning() bool {
	return c.Running != nil && *c.Running && c.Ensure == EnsurePresent
}

// IsEnabled reports the effective enabled-at-boot flag
func (c *Config) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled && c.Ensure == EnsurePresent
}

// Artifact paths are derived deterministically from the instance name.

// ConfigPath returns the rendered config file path
func (c *Config) ConfigPath() string {
	return fmt.Sprintf("/etc/redis-sentinel_%s.conf", c.Name)
}

// UnitPath returns the systemd unit file path
func (c *Config) UnitPath() string {
	return fmt.Sprintf("/usr/lib/systemd/system/redis-sentinel_%s.service", c.Name)
}

// InitScriptPath returns the SysV init script path
func (c *Config) InitScriptPath() string {
	return fmt.Sprintf("/etc/init.d/redis-sentinel_%s", c.Name)
}

// LogrotatePath returns the logrotate policy file path
func (c *Config) LogrotatePath() string {
	return fmt.Sprintf("/etc/logrotate.d/redis-sentinel_%s", c.Name)
}

// ServiceName returns the service-manager name of the instance
func (c *Config) ServiceName() string {
	return fmt.Sprintf("redis-sentinel_%s", c.Name)
}

// LogFile returns the instance's log file path
func (c *Config) LogFile() string {
	return path.Join(c.LogDir, fmt.Sprintf("redis-sentinel_%s.log", c.Name))
}

// PidFile returns the instance's pid file path
func (c *Config) PidFile() string {
	return path.Join(c.PidDir, fmt.Sprintf("redis-sentinel_%s.pid", c.Name))
}

// RuntimeConfigPath returns the path sentinel rewrites at runtime. The
// rendered config is copied here by the init wrapper so sentinel's own
// rewrites never dirty the declared file.
func (c *Config) RuntimeConfigPath() string {
	return path.Join(c.ConfDir, fmt.Sprintf("redis-sentinel_%s.conf", c.Name))
}

func validEnumBool(v EnumBool) bool {
	return v == EnumUnset || v == EnumYes || v == EnumNo
}
