// Package systemdwatchdog pings systemd's watchdog over the sd_notify
// protocol (a datagram on the unix socket named by $NOTIFY_SOCKET), at the
// interval systemd itself specifies via $WATCHDOG_USEC. No systemd headers
// or client library are involved — the protocol is a handful of
// newline-separated key=value pairs over AF_UNIX SOCK_DGRAM, small enough
// that the ecosystem's own client libraries are themselves thin wrappers
// around exactly this (see DESIGN.md for why this stays on the standard
// library rather than adopting one of them).
package systemdwatchdog

import (
	"net"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Watchdog periodically notifies systemd that the process is alive.
type Watchdog struct {
	log      *zap.Logger
	conn     *net.UnixConn
	interval time.Duration
}

// New returns a Watchdog and true if $NOTIFY_SOCKET and $WATCHDOG_USEC are
// both set (systemd has a watchdog configured for this unit); otherwise it
// returns (nil, false) and the caller should skip the ping loop entirely.
func New(log *zap.Logger) (*Watchdog, bool) {
	sockPath := os.Getenv("NOTIFY_SOCKET")
	usecStr := os.Getenv("WATCHDOG_USEC")
	if sockPath == "" || usecStr == "" {
		return nil, false
	}

	usec, err := strconv.ParseInt(usecStr, 10, 64)
	if err != nil || usec <= 0 {
		return nil, false
	}

	addr := &net.UnixAddr{Name: sockPath, Net: "unixgram"}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		if log != nil {
			log.Warn("systemd watchdog socket unreachable", zap.Error(err))
		}
		return nil, false
	}

	// Ping at half the watchdog interval, as sd_notify's own documentation
	// recommends, so a single missed tick doesn't trip the watchdog.
	interval := time.Duration(usec/2) * time.Microsecond

	return &Watchdog{log: log.Named("watchdog"), conn: conn, interval: interval}, true
}

// Run pings systemd every interval until done is closed, then closes the
// socket. Intended to run in
// its own goroutine for the lifetime of the process.
func (w *Watchdog) Run(done <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			_ = w.conn.Close()
			return
		case <-ticker.C:
			if _, err := w.conn.Write([]byte("WATCHDOG=1\n")); err != nil {
				w.log.Warn("watchdog ping failed", zap.Error(err))
			}
		}
	}
}

// NotifyReady tells systemd the service has finished starting up.
func (w *Watchdog) NotifyReady() {
	if _, err := w.conn.Write([]byte("READY=1\n")); err != nil {
		w.log.Warn("watchdog ready notification failed", zap.Error(err))
	}
}
