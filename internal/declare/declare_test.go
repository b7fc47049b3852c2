package declare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/sentinelctl/internal/osprofile"
	"github.com/systmms/sentinelctl/internal/resource"
	"github.com/systmms/sentinelctl/internal/sentinel"
)

func testInstance(t *testing.T, name string) *sentinel.Config {
	t.Helper()
	c := &sentinel.Config{
		Monitors: map[string]*sentinel.Monitor{
			name: {MasterHost: "127.0.0.1"},
		},
	}
	c.ApplyDefaults(name)
	return c
}

func testDeclarator(profile osprofile.Profile) *Declarator {
	install := sentinel.Installation{}
	install.ApplyDefaults()
	return New(install, profile, nil)
}

func systemdProfile() osprofile.Profile {
	return osprofile.Profile{Style: osprofile.StyleSystemd}
}

func sysvProfile(flavor osprofile.InitFlavor) osprofile.Profile {
	return osprofile.Profile{Style: osprofile.StyleSysV, InitFlavor: flavor}
}

func TestDeclare_SystemdGraphShape(t *testing.T) {
	g := resource.NewGraph()
	inst := testInstance(t, "mymaster")
	require.NoError(t, testDeclarator(systemdProfile()).Declare(g, inst))

	cfgID := resource.FileID("/etc/redis-sentinel_mymaster.conf")
	unitID := resource.FileID("/usr/lib/systemd/system/redis-sentinel_mymaster.service")
	execID := resource.ExecID("systemd-preset-redis-sentinel_mymaster")
	svcID := resource.ServiceID("redis-sentinel_mymaster")

	cfg, ok := g.Get(cfgID)
	require.True(t, ok, "config file resource must be declared")
	assert.Contains(t, cfg.Content, "sentinel monitor mymaster 127.0.0.1 6379 2")
	assert.Equal(t, "redis", cfg.Owner)
	assert.Equal(t, []string{svcID}, cfg.Notifies, "config change triggers a supervised restart")

	unit, ok := g.Get(unitID)
	require.True(t, ok, "systemd unit must be declared on redhat>=7")
	assert.Contains(t, unit.Content, "[Unit]")
	assert.ElementsMatch(t, []string{execID, svcID}, unit.Notifies)

	preset, ok := g.Get(execID)
	require.True(t, ok, "preset exec must be declared alongside the unit")
	assert.True(t, preset.RefreshOnly, "preset runs only when the unit file changed")
	assert.Equal(t, []string{"systemctl", "preset", "redis-sentinel_mymaster.service"}, preset.Command)

	svc, ok := g.Get(svcID)
	require.True(t, ok)
	assert.True(t, svc.Running)
	assert.True(t, svc.Enabled)
	assert.Contains(t, svc.Requires, cfgID)
	assert.Contains(t, svc.Requires, unitID)

	// No init script on the systemd path
	_, ok = g.Get(resource.FileID("/etc/init.d/redis-sentinel_mymaster"))
	assert.False(t, ok)
}

func TestDeclare_SysVGraphShape(t *testing.T) {
	g := resource.NewGraph()
	inst := testInstance(t, "mymaster")
	require.NoError(t, testDeclarator(sysvProfile(osprofile.InitDebian)).Declare(g, inst))

	initID := resource.FileID("/etc/init.d/redis-sentinel_mymaster")
	svcID := resource.ServiceID("redis-sentinel_mymaster")

	script, ok := g.Get(initID)
	require.True(t, ok, "init script must be declared on sysv platforms")
	assert.Contains(t, script.Content, "start-stop-daemon")
	assert.EqualValues(t, 0o755, script.Mode)
	assert.Equal(t, []string{svcID}, script.Notifies)

	// No unit file or preset exec on the sysv path
	_, ok = g.Get(resource.FileID("/usr/lib/systemd/system/redis-sentinel_mymaster.service"))
	assert.False(t, ok)
	_, ok = g.Get(resource.ExecID("systemd-preset-redis-sentinel_mymaster"))
	assert.False(t, ok)
}

func TestDeclare_OrderingEdges(t *testing.T) {
	g := resource.NewGraph()
	require.NoError(t, testDeclarator(sysvProfile(osprofile.InitRedHat)).Declare(g, testInstance(t, "mymaster")))

	ordered, err := g.Sorted()
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, r := range ordered {
		pos[r.ID] = i
	}

	cfgID := resource.FileID("/etc/redis-sentinel_mymaster.conf")
	initID := resource.FileID("/etc/init.d/redis-sentinel_mymaster")
	svcID := resource.ServiceID("redis-sentinel_mymaster")

	// config file before service definition before service
	assert.Less(t, pos[cfgID], pos[svcID])
	assert.Less(t, pos[initID], pos[svcID])
	assert.Less(t, pos[resource.PackageID("redis")], pos[cfgID])
}

func TestDeclare_LogrotateDeclaredOncePerRun(t *testing.T) {
	g := resource.NewGraph()
	d := testDeclarator(systemdProfile())

	one := testInstance(t, "one")
	one.ManageLogrotate = true
	two := testInstance(t, "two")
	two.ManageLogrotate = true

	require.NoError(t, d.Declare(g, one))
	require.NoError(t, d.Declare(g, two))

	packages := 0
	for _, r := range g.Resources() {
		if r.Kind == resource.KindPackage && r.Package == "logrotate" {
			packages++
		}
	}
	assert.Equal(t, 1, packages, "logrotate package must be declared exactly once per run")

	// Both policy files exist and depend on the shared package
	for _, name := range []string{"one", "two"} {
		lr, ok := g.Get(resource.FileID("/etc/logrotate.d/redis-sentinel_" + name))
		require.True(t, ok)
		assert.Contains(t, lr.Requires, resource.PackageID("logrotate"))
		assert.Contains(t, lr.Content, "/var/log/redis/redis-sentinel_"+name+".log")
	}
}

func TestDeclare_NoLogrotateWhenUnmanaged(t *testing.T) {
	g := resource.NewGraph()
	require.NoError(t, testDeclarator(systemdProfile()).Declare(g, testInstance(t, "mymaster")))

	_, ok := g.Get(resource.FileID("/etc/logrotate.d/redis-sentinel_mymaster"))
	assert.False(t, ok)
	_, ok = g.Get(resource.PackageID("logrotate"))
	assert.False(t, ok)
}

func TestDeclare_SharedRedisPackage(t *testing.T) {
	g := resource.NewGraph()
	d := testDeclarator(systemdProfile())

	require.NoError(t, d.Declare(g, testInstance(t, "one")))
	require.NoError(t, d.Declare(g, testInstance(t, "two")))

	packages := 0
	for _, r := range g.Resources() {
		if r.Kind == resource.KindPackage && r.Package == "redis" {
			packages++
		}
	}
	assert.Equal(t, 1, packages)
}

func TestDeclare_EnsureAbsent(t *testing.T) {
	g := resource.NewGraph()
	inst := testInstance(t, "mymaster")
	inst.Ensure = sentinel.EnsureAbsent
	inst.ManageLogrotate = true
	require.NoError(t, testDeclarator(systemdProfile()).Declare(g, inst))

	cfg, ok := g.Get(resource.FileID("/etc/redis-sentinel_mymaster.conf"))
	require.True(t, ok)
	assert.Equal(t, resource.EnsureAbsent, cfg.Ensure)
	assert.Empty(t, cfg.Content)
	assert.Empty(t, cfg.Notifies, "absent config does not notify the service")

	unit, ok := g.Get(resource.FileID("/usr/lib/systemd/system/redis-sentinel_mymaster.service"))
	require.True(t, ok)
	assert.Equal(t, resource.EnsureAbsent, unit.Ensure)

	_, ok = g.Get(resource.ExecID("systemd-preset-redis-sentinel_mymaster"))
	assert.False(t, ok, "no preset exec for an absent instance")

	svc, ok := g.Get(resource.ServiceID("redis-sentinel_mymaster"))
	require.True(t, ok)
	assert.Equal(t, resource.EnsureAbsent, svc.Ensure)
	assert.False(t, svc.Running)
	assert.False(t, svc.Enabled)

	lr, ok := g.Get(resource.FileID("/etc/logrotate.d/redis-sentinel_mymaster"))
	require.True(t, ok)
	assert.Equal(t, resource.EnsureAbsent, lr.Ensure)
}

func TestDeclare_DuplicateInstanceNameFails(t *testing.T) {
	g := resource.NewGraph()
	d := testDeclarator(systemdProfile())

	require.NoError(t, d.Declare(g, testInstance(t, "mymaster")))
	err := d.Declare(g, testInstance(t, "mymaster"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate resource declaration")
}

func TestDeclare_CredentialFailureLeavesGraphUntouched(t *testing.T) {
	g := resource.NewGraph()
	inst := testInstance(t, "mymaster")
	inst.RequirePass = "env://SENTINELCTL_DECLARE_TEST_MISSING"

	err := testDeclarator(systemdProfile()).Declare(g, inst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instance 'mymaster'")

	// Only the shared package was registered before rendering failed
	for _, r := range g.Resources() {
		assert.Equal(t, resource.KindPackage, r.Kind,
			"no file or service resources may exist after an atomic failure, found %s", r.ID)
	}
}
