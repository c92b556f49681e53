// Package systemd speaks the sd_notify protocol so the bot can run as a
// Type=notify unit with WatchdogSec set. Every call is a no-op when the
// process was not started by systemd.
package systemd

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "homeworkbot/pkg/logx"
)

type Notifier struct {
	enabled bool
	log     logx.Logger
}

func NewNotifier(enabled bool, log logx.Logger) *Notifier {
	return &Notifier{enabled: enabled, log: log.With(logx.String("comp", "systemd"))}
}

func (n *Notifier) send(state string) bool {
	if !n.enabled {
		return false
	}
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return false
	}
	return sent
}

// Ready reports startup completion.
func (n *Notifier) Ready() bool { return n.send(daemon.SdNotifyReady) }

func (n *Notifier) Stopping() bool { return n.send(daemon.SdNotifyStopping) }

// Reloading must be followed by Ready once the new settings are in effect.
func (n *Notifier) Reloading() bool { return n.send(daemon.SdNotifyReloading) }

// Status sets the one-line status shown by systemctl status.
func (n *Notifier) Status(format string, args ...any) bool {
	return n.send("STATUS=" + fmt.Sprintf(format, args...))
}

// WatchdogInterval returns the ping period (half of WatchdogSec), or 0 when
// the unit has no watchdog or notifications are disabled.
func (n *Notifier) WatchdogInterval() time.Duration {
	if !n.enabled {
		return 0
	}
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.log.Warn("watchdog env invalid", logx.Err(err))
		return 0
	}
	return d / 2
}

// RunWatchdog pings the watchdog until ctx is done. alive is consulted
// before every ping; returning false lets systemd restart a stuck process.
func (n *Notifier) RunWatchdog(ctx context.Context, alive func() bool) {
	every := n.WatchdogInterval()
	if every <= 0 {
		return
	}
	n.log.Debug("watchdog enabled", logx.Duration("every", every))

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if alive != nil && !alive() {
				n.log.Warn("watchdog ping skipped: process not healthy")
				continue
			}
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
