package daemon

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "activetime.pid"), filepath.Join(dir, "activetime.log"))
}

func TestPIDFileLifecycle(t *testing.T) {
	d := newTestDaemon(t)

	pid, err := d.ReadPID()
	if err != nil || pid != 0 {
		t.Fatalf("ReadPID() on missing file = %d, %v", pid, err)
	}

	if err := d.WritePID(); err != nil {
		t.Fatalf("WritePID() error = %v", err)
	}

	pid, err = d.ReadPID()
	if err != nil {
		t.Fatalf("ReadPID() error = %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("ReadPID() = %d, want %d", pid, os.Getpid())
	}

	running, runningPID, err := d.IsRunning()
	if err != nil || !running || runningPID != os.Getpid() {
		t.Errorf("IsRunning() = %v, %d, %v; want true for this process", running, runningPID, err)
	}

	if err := d.RemovePID(); err != nil {
		t.Fatalf("RemovePID() error = %v", err)
	}
	if err := d.RemovePID(); err != nil {
		t.Errorf("RemovePID() twice error = %v", err)
	}
}

func TestReadPID_Invalid(t *testing.T) {
	d := newTestDaemon(t)
	if err := os.WriteFile(d.PIDFile(), []byte("not-a-pid"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := d.ReadPID(); err == nil {
		t.Error("expected error for invalid PID file")
	}
}

func TestIsRunning_StalePIDFile(t *testing.T) {
	d := newTestDaemon(t)
	// PIDs this large are never assigned on Linux
	if err := os.WriteFile(d.PIDFile(), []byte("99999999\n"), 0644); err != nil {
		t.Fatal(err)
	}

	running, _, err := d.IsRunning()
	if err != nil {
		t.Fatalf("IsRunning() error = %v", err)
	}
	if running {
		t.Error("expected stale PID to be reported as not running")
	}
	if _, err := os.Stat(d.PIDFile()); !os.IsNotExist(err) {
		t.Error("expected stale PID file to be removed")
	}
}

func TestStop_NotRunning(t *testing.T) {
	d := newTestDaemon(t)

	if err := d.Stop(time.Second); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestIsChild(t *testing.T) {
	t.Setenv(ChildEnv, "")
	if IsChild() {
		t.Error("IsChild() = true without marker")
	}

	t.Setenv(ChildEnv, "1")
	if !IsChild() {
		t.Error("IsChild() = false with marker")
	}
}

func TestRedirectLog(t *testing.T) {
	d := newTestDaemon(t)

	restore, err := d.RedirectLog()
	if err != nil {
		t.Fatalf("RedirectLog() error = %v", err)
	}
	log.Printf("tracker heartbeat")
	restore()

	data, err := os.ReadFile(d.LogFile())
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "tracker heartbeat") {
		t.Errorf("log file missing message: %q", data)
	}
}
