package sentinel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInstance(t *testing.T) *Config {
	t.Helper()
	c := &Config{
		Monitors: map[string]*Monitor{
			"mymaster": {MasterHost: "127.0.0.1"},
		},
	}
	c.ApplyDefaults("mymaster")
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := validInstance(t)

	assert.Equal(t, "mymaster", c.Name)
	assert.Equal(t, EnsurePresent, c.Ensure)
	assert.Equal(t, 26379, c.Port)
	assert.Equal(t, "/var/log/redis", c.LogDir)
	assert.Equal(t, "/var/run/redis", c.PidDir)
	assert.Equal(t, "/etc/redis", c.ConfDir)
	assert.Equal(t, "/tmp", c.WorkingDir)
	assert.True(t, c.IsRunning())
	assert.True(t, c.IsEnabled())

	m := c.Monitors["mymaster"]
	assert.Equal(t, 6379, m.MasterPort)
	assert.Equal(t, 2, m.Quorum)
	assert.Equal(t, 30000, m.DownAfterMilliseconds)
	assert.Equal(t, 1, m.ParallelSyncs)
	assert.Equal(t, 180000, m.FailoverTimeout)
}

func TestApplyDefaults_ExplicitNameWins(t *testing.T) {
	c := &Config{Name: "custom"}
	c.ApplyDefaults("mapkey")
	assert.Equal(t, "custom", c.Name)
}

func TestValidate_OK(t *testing.T) {
	result := validInstance(t).Validate()
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_SentinelID(t *testing.T) {
	t.Run("valid 40 hex chars", func(t *testing.T) {
		c := validInstance(t)
		c.SentinelID = "1234567890abcdef1234567890abcdef12345678"
		assert.True(t, c.Validate().Valid)
	})

	t.Run("wrong length rejected", func(t *testing.T) {
		c := validInstance(t)
		c.SentinelID = "1234567890abcdef"
		result := c.Validate()
		require.False(t, result.Valid)
		assert.Contains(t, strings.Join(result.Errors, " "), "exactly 40 characters")
	})

	t.Run("non-hex rejected", func(t *testing.T) {
		c := validInstance(t)
		c.SentinelID = "zzzz567890abcdef1234567890abcdef12345678"
		result := c.Validate()
		require.False(t, result.Valid)
		assert.Contains(t, strings.Join(result.Errors, " "), "hex")
	})
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	c := validInstance(t)
	c.Port = 700000
	c.BindIP = "not-an-ip"
	c.ProtectedMode = "maybe"
	c.LogDir = "relative/path"
	c.SentinelID = "short"

	result := c.Validate()
	require.False(t, result.Valid)
	assert.GreaterOrEqual(t, len(result.Errors), 5, "all problems reported in one pass: %v", result.Errors)
}

func TestValidate_MonitorProblems(t *testing.T) {
	c := validInstance(t)
	c.Monitors["broken"] = &Monitor{MasterPort: 6379, Quorum: 0}

	result := c.Validate()
	require.False(t, result.Valid)
	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "monitor 'broken': master_host is required")
	assert.Contains(t, joined, "monitor 'broken': quorum must be at least 1")
}

func TestValidate_ACLUserNeedsPass(t *testing.T) {
	c := validInstance(t)
	c.ACLUser = "sentinel"

	result := c.Validate()
	require.False(t, result.Valid)
	assert.Contains(t, strings.Join(result.Errors, " "), "acl_pass is empty")
}

func TestValidate_NoMonitorsWarns(t *testing.T) {
	c := &Config{}
	c.ApplyDefaults("empty")

	result := c.Validate()
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no monitors declared")
}

func TestValidate_EnsureAbsent(t *testing.T) {
	c := validInstance(t)
	c.Ensure = EnsureAbsent

	assert.True(t, c.Validate().Valid)
	assert.False(t, c.IsRunning(), "absent instances are never running")
	assert.False(t, c.IsEnabled())
}

func TestArtifactPaths(t *testing.T) {
	c := validInstance(t)

	assert.Equal(t, "/etc/redis-sentinel_mymaster.conf", c.ConfigPath())
	assert.Equal(t, "/usr/lib/systemd/system/redis-sentinel_mymaster.service", c.UnitPath())
	assert.Equal(t, "/etc/init.d/redis-sentinel_mymaster", c.InitScriptPath())
	assert.Equal(t, "/etc/logrotate.d/redis-sentinel_mymaster", c.LogrotatePath())
	assert.Equal(t, "redis-sentinel_mymaster", c.ServiceName())
	assert.Equal(t, "/var/log/redis/redis-sentinel_mymaster.log", c.LogFile())
	assert.Equal(t, "/var/run/redis/redis-sentinel_mymaster.pid", c.PidFile())
	assert.Equal(t, "/etc/redis/redis-sentinel_mymaster.conf", c.RuntimeConfigPath())
}

func TestMonitorNames_Sorted(t *testing.T) {
	c := &Config{
		Monitors: map[string]*Monitor{
			"zeta":  {MasterHost: "h"},
			"alpha": {MasterHost: "h"},
			"mid":   {MasterHost: "h"},
		},
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, c.MonitorNames())
}

func TestInstallationDefaults(t *testing.T) {
	install := Installation{}
	install.ApplyDefaults()

	assert.Equal(t, "redis", install.User)
	assert.Equal(t, "redis", install.Group)
	assert.Equal(t, "/usr/bin/redis-sentinel", install.DaemonPath)
	assert.Equal(t, "redis", install.PackageName)
	assert.Equal(t, "logrotate", install.LogrotatePackage)
}
