package x11

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/actionsum/activetime/pkg/window"
)

func TestNewDetector(t *testing.T) {
	detector := NewDetector()
	if detector == nil {
		t.Fatal("NewDetector() returned nil")
	}
}

func TestDisplayServer(t *testing.T) {
	detector := NewDetector()
	if got := detector.DisplayServer(); got != "x11" {
		t.Errorf("DisplayServer() = %s, want x11", got)
	}
}

func TestIsAvailableWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")

	detector := NewDetector()
	if detector.IsAvailable() {
		t.Error("IsAvailable() = true without DISPLAY, want false")
	}
}

func TestFocusedWindow(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X display")
	}

	detector := NewDetector()
	defer detector.Close()

	if !detector.IsAvailable() {
		t.Skip("X11 detector not available on this system")
	}

	info, err := detector.FocusedWindow(context.Background())
	if errors.Is(err, window.ErrNoFocusedWindow) {
		t.Log("No window focused")
		return
	}
	if err != nil {
		t.Logf("FocusedWindow() error (may be expected): %v", err)
		return
	}

	t.Logf("App Name: %s", info.AppName)
	t.Logf("Window Title: %s", info.WindowTitle)
	t.Logf("Process Name: %s", info.ProcessName)

	if info.AppName == "" {
		t.Error("AppName is empty")
	}
	if info.DisplayServer != "x11" {
		t.Errorf("DisplayServer = %s, want x11", info.DisplayServer)
	}
}

func TestIdle(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X display")
	}

	detector := NewDetector()
	defer detector.Close()

	info, err := detector.Idle(context.Background())
	if err != nil {
		t.Logf("Idle() error: %v", err)
		return
	}

	t.Logf("Idle Seconds: %d", info.IdleSeconds)
	t.Logf("Is Locked: %v", info.IsLocked)
}

func TestCanceledContext(t *testing.T) {
	detector := NewDetector()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := detector.FocusedWindow(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("FocusedWindow() error = %v, want context.Canceled", err)
	}
	if _, err := detector.Idle(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Idle() error = %v, want context.Canceled", err)
	}
}

func TestParseWMClass(t *testing.T) {
	tests := []struct {
		name         string
		input        []byte
		wantInstance string
		wantClass    string
	}{
		{
			name:         "Standard format",
			input:        []byte("Navigator\x00firefox\x00"),
			wantInstance: "Navigator",
			wantClass:    "firefox",
		},
		{
			name:         "Same instance and class",
			input:        []byte("kitty\x00kitty\x00"),
			wantInstance: "kitty",
			wantClass:    "kitty",
		},
		{
			name:         "Instance only",
			input:        []byte("xterm\x00"),
			wantInstance: "xterm",
			wantClass:    "",
		},
		{
			name:         "Empty",
			input:        []byte{},
			wantInstance: "",
			wantClass:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, class := parseWMClass(tt.input)
			if instance != tt.wantInstance || class != tt.wantClass {
				t.Errorf("parseWMClass(%q) = (%q, %q), want (%q, %q)",
					tt.input, instance, class, tt.wantInstance, tt.wantClass)
			}
		})
	}
}

func TestProcessName(t *testing.T) {
	name := processName(uint32(os.Getpid()))
	t.Logf("Own process name: %q", name)

	if name := processName(0); name != "" {
		t.Errorf("processName(0) = %q, want empty", name)
	}
}

func TestClose(t *testing.T) {
	detector := NewDetector()
	if err := detector.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
}

func TestDetectorInterface(t *testing.T) {
	var _ window.Detector = (*Detector)(nil)
}
