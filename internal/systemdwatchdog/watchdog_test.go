package systemdwatchdog

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNew_NoEnvDisabled(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	t.Setenv("WATCHDOG_USEC", "")

	wd, ok := New(zap.NewNop())
	if ok || wd != nil {
		t.Fatalf("New() = (%v, %v), want (nil, false) without env vars", wd, ok)
	}
}

func TestNew_InvalidUsecDisabled(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "/tmp/does-not-matter.sock")
	t.Setenv("WATCHDOG_USEC", "not-a-number")

	wd, ok := New(zap.NewNop())
	if ok || wd != nil {
		t.Fatalf("New() = (%v, %v), want (nil, false) for unparseable WATCHDOG_USEC", wd, ok)
	}
}

func TestNew_AndRun_PingsSocket(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "notify.sock")
	listener, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: sockPath, Net: "unixgram"})
	if err != nil {
		t.Fatalf("ListenUnixgram() error = %v", err)
	}
	defer listener.Close()

	t.Setenv("NOTIFY_SOCKET", sockPath)
	t.Setenv("WATCHDOG_USEC", "20000") // 20ms, pings every 10ms

	wd, ok := New(zap.NewNop())
	if !ok || wd == nil {
		t.Fatal("New() = (nil, false), want an enabled watchdog")
	}

	wd.NotifyReady()

	buf := make([]byte, 64)
	listener.SetReadDeadline(time.Now().Add(time.Second))
	n, err := listener.Read(buf)
	if err != nil {
		t.Fatalf("reading READY notification: %v", err)
	}
	if got := string(buf[:n]); got != "READY=1\n" {
		t.Errorf("first datagram = %q, want READY=1\\n", got)
	}

	done := make(chan struct{})
	go wd.Run(done)
	defer close(done)

	listener.SetReadDeadline(time.Now().Add(time.Second))
	n, err = listener.Read(buf)
	if err != nil {
		t.Fatalf("reading WATCHDOG ping: %v", err)
	}
	if got := string(buf[:n]); got != "WATCHDOG=1\n" {
		t.Errorf("ping datagram = %q, want WATCHDOG=1\\n", got)
	}
}
