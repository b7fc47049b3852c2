package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/systmms/sentinelctl/internal/osprofile"
	"github.com/systmms/sentinelctl/internal/sentinel"
)

// serviceContext is the value set shared by every service-definition
// template. Everything here is resolved before rendering starts, so a
// template can never see an undefined variable.
type serviceContext struct {
	Name              string
	ServiceName       string
	ConfigPath        string
	RuntimeConfigPath string
	DaemonPath        string
	PidFile           string
	LogFile           string
	User              string
	Group             string
	Port              int
}

func newServiceContext(c *sentinel.Config, install sentinel.Installation) serviceContext {
	return serviceContext{
		Name:              c.Name,
		ServiceName:       c.ServiceName(),
		ConfigPath:        c.ConfigPath(),
		RuntimeConfigPath: c.RuntimeConfigPath(),
		DaemonPath:        install.DaemonPath,
		PidFile:           c.PidFile(),
		LogFile:           c.LogFile(),
		User:              install.User,
		Group:             install.Group,
		Port:              c.Port,
	}
}

// SystemdUnit renders the unit file for RedHat-like hosts on major
// version 7 or newer.
func SystemdUnit(c *sentinel.Config, install sentinel.Installation) (string, error) {
	return execute(unitTemplate, newServiceContext(c, install))
}

// InitScript renders the SysV init script for the given flavor. Sentinel
// rewrites its own config file at runtime, so every flavor copies the
// declared config into the runtime path before starting the daemon.
func InitScript(c *sentinel.Config, install sentinel.Installation, flavor osprofile.InitFlavor) (string, error) {
	tmpl, ok := initTemplates[flavor]
	if !ok {
		return "", fmt.Errorf("no init script template for flavor '%s'", flavor)
	}
	return execute(tmpl, newServiceContext(c, install))
}

// Logrotate renders the rotation policy for the instance's log file
func Logrotate(c *sentinel.Config, install sentinel.Installation) (string, error) {
	return execute(logrotateTemplate, newServiceContext(c, install))
}

func execute(tmpl *template.Template, ctx serviceContext) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

var unitTemplate = template.Must(template.New("systemd-unit").Parse(`[Unit]
Description=Redis Sentinel {{.Name}}
After=network.target

[Service]
Type=forking
User={{.User}}
Group={{.Group}}
ExecStartPre=/usr/bin/install -o {{.User}} -g {{.Group}} -m 0644 {{.ConfigPath}} {{.RuntimeConfigPath}}
ExecStart={{.DaemonPath}} {{.RuntimeConfigPath}}
PIDFile={{.PidFile}}
Restart=on-failure
LimitNOFILE=65535

[Install]
WantedBy=multi-user.target
`))

var initTemplates = map[osprofile.InitFlavor]*template.Template{
	osprofile.InitDebian: template.Must(template.New("init-debian").Parse(`#!/bin/sh
### BEGIN INIT INFO
# Provides:          {{.ServiceName}}
# Required-Start:    $remote_fs $syslog
# Required-Stop:     $remote_fs $syslog
# Default-Start:     2 3 4 5
# Default-Stop:      0 1 6
# Short-Description: Redis Sentinel {{.Name}}
### END INIT INFO

DAEMON={{.DaemonPath}}
STAGED_CONFIG={{.ConfigPath}}
CONFIG={{.RuntimeConfigPath}}
PIDFILE={{.PidFile}}
RUNAS={{.User}}

. /lib/lsb/init-functions

case "$1" in
  start)
    log_daemon_msg "Starting redis-sentinel" "{{.Name}}"
    install -o {{.User}} -g {{.Group}} -m 0644 "$STAGED_CONFIG" "$CONFIG"
    start-stop-daemon --start --quiet --pidfile "$PIDFILE" --chuid "$RUNAS" \
      --exec "$DAEMON" -- "$CONFIG"
    log_end_msg $?
    ;;
  stop)
    log_daemon_msg "Stopping redis-sentinel" "{{.Name}}"
    start-stop-daemon --stop --quiet --retry 10 --pidfile "$PIDFILE"
    log_end_msg $?
    ;;
  restart)
    $0 stop
    $0 start
    ;;
  status)
    status_of_proc -p "$PIDFILE" "$DAEMON" "{{.ServiceName}}"
    ;;
  *)
    echo "Usage: $0 {start|stop|restart|status}" >&2
    exit 1
    ;;
esac
`)),
	osprofile.InitRedHat: template.Must(template.New("init-redhat").Parse(`#!/bin/sh
#
# {{.ServiceName}}  Redis Sentinel {{.Name}}
#
# chkconfig:   - 85 15
# description: Redis Sentinel monitoring instance {{.Name}}

. /etc/rc.d/init.d/functions

DAEMON={{.DaemonPath}}
STAGED_CONFIG={{.ConfigPath}}
CONFIG={{.RuntimeConfigPath}}
PIDFILE={{.PidFile}}
RUNAS={{.User}}
NAME={{.ServiceName}}

start() {
    echo -n $"Starting $NAME: "
    install -o {{.User}} -g {{.Group}} -m 0644 "$STAGED_CONFIG" "$CONFIG"
    daemon --user "$RUNAS" --pidfile "$PIDFILE" "$DAEMON" "$CONFIG"
    retval=$?
    echo
    return $retval
}

stop() {
    echo -n $"Stopping $NAME: "
    killproc -p "$PIDFILE" "$DAEMON"
    retval=$?
    echo
    return $retval
}

case "$1" in
  start)
    start
    ;;
  stop)
    stop
    ;;
  restart)
    stop
    start
    ;;
  status)
    status -p "$PIDFILE" "$NAME"
    ;;
  *)
    echo $"Usage: $0 {start|stop|restart|status}"
    exit 2
    ;;
esac
`)),
	osprofile.InitGentoo: template.Must(template.New("init-gentoo").Parse(`#!/sbin/openrc-run

name="{{.ServiceName}}"
description="Redis Sentinel {{.Name}}"
command="{{.DaemonPath}}"
command_args="{{.RuntimeConfigPath}}"
command_user="{{.User}}:{{.Group}}"
pidfile="{{.PidFile}}"

depend() {
    need net
    use logger
}

start_pre() {
    install -o {{.User}} -g {{.Group}} -m 0644 "{{.ConfigPath}}" "{{.RuntimeConfigPath}}"
}
`)),
}

var logrotateTemplate = template.Must(template.New("logrotate").Parse(`{{.LogFile}} {
    weekly
    rotate 10
    copytruncate
    delaycompress
    compress
    notifempty
    missingok
    su {{.User}} {{.Group}}
}
`))
