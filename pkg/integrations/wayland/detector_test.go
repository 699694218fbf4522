package wayland

import (
	"context"
	"errors"
	"testing"

	"github.com/actionsum/activetime/pkg/window"
)

func TestNewDetector(t *testing.T) {
	detector := NewDetector()
	if detector == nil {
		t.Fatal("NewDetector() returned nil")
	}
	t.Logf("Detected compositor: %s", detector.compositor)
}

func TestDisplayServer(t *testing.T) {
	detector := NewDetector()
	if got := detector.DisplayServer(); got != "wayland" {
		t.Errorf("DisplayServer() = %s, want wayland", got)
	}
}

func TestDetectCompositorFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"sway socket", map[string]string{"SWAYSOCK": "/run/user/1000/sway.sock"}, "sway"},
		{"hyprland signature", map[string]string{"HYPRLAND_INSTANCE_SIGNATURE": "abc"}, "hyprland"},
		{"gnome desktop", map[string]string{"XDG_CURRENT_DESKTOP": "ubuntu:GNOME"}, "gnome"},
		{"kde desktop", map[string]string{"XDG_CURRENT_DESKTOP": "KDE"}, "kde"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SWAYSOCK", "")
			t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
			t.Setenv("XDG_CURRENT_DESKTOP", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if got := detectCompositor(); got != tt.want {
				t.Errorf("detectCompositor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUnknownCompositorUnavailable(t *testing.T) {
	detector := &Detector{compositor: "unknown"}
	if detector.IsAvailable() {
		t.Error("IsAvailable() = true for unknown compositor")
	}
	if _, err := detector.FocusedWindow(context.Background()); err == nil {
		t.Error("FocusedWindow() expected error for unknown compositor")
	}
}

func TestParseSwayTree(t *testing.T) {
	tree := []byte(`{
		"type": "root", "focused": false,
		"nodes": [{
			"type": "output", "focused": false,
			"nodes": [{
				"type": "workspace", "focused": false,
				"nodes": [
					{"type": "con", "focused": false, "name": "other", "app_id": "foot", "pid": 10},
					{"type": "con", "focused": true, "name": "main.go - code", "app_id": null, "pid": 42,
					 "window_properties": {"class": "Code"}}
				]
			}]
		}]
	}`)

	info, err := parseSwayTree(tree)
	if err != nil {
		t.Fatalf("parseSwayTree() error: %v", err)
	}
	if info.AppName != "Code" {
		t.Errorf("AppName = %s, want Code", info.AppName)
	}
	if info.WindowTitle != "main.go - code" {
		t.Errorf("WindowTitle = %s, want main.go - code", info.WindowTitle)
	}
	if info.PID != 42 {
		t.Errorf("PID = %d, want 42", info.PID)
	}
}

func TestParseSwayTreeFocusedWorkspace(t *testing.T) {
	tree := []byte(`{"type": "root", "nodes": [{"type": "workspace", "focused": true, "name": "1"}]}`)

	_, err := parseSwayTree(tree)
	if !errors.Is(err, window.ErrNoFocusedWindow) {
		t.Errorf("parseSwayTree() error = %v, want ErrNoFocusedWindow", err)
	}
}

func TestParseHyprlandWindow(t *testing.T) {
	info, err := parseHyprlandWindow([]byte(`{"class": "firefox", "title": "Mozilla Firefox", "pid": 1234}`))
	if err != nil {
		t.Fatalf("parseHyprlandWindow() error: %v", err)
	}
	if info.AppName != "firefox" || info.WindowTitle != "Mozilla Firefox" || info.PID != 1234 {
		t.Errorf("parseHyprlandWindow() = %+v", info)
	}

	_, err = parseHyprlandWindow([]byte(`{}`))
	if !errors.Is(err, window.ErrNoFocusedWindow) {
		t.Errorf("parseHyprlandWindow({}) error = %v, want ErrNoFocusedWindow", err)
	}
}

func TestParseGnomeEval(t *testing.T) {
	output := `(true, '{"wm_class":"org.gnome.Nautilus","title":"Home","pid":777}')`

	info, err := parseGnomeEval(output)
	if err != nil {
		t.Fatalf("parseGnomeEval() error: %v", err)
	}
	if info.AppName != "org.gnome.Nautilus" || info.WindowTitle != "Home" || info.PID != 777 {
		t.Errorf("parseGnomeEval() = %+v", info)
	}

	if _, err := parseGnomeEval(`(true, 'null')`); !errors.Is(err, window.ErrNoFocusedWindow) {
		t.Errorf("parseGnomeEval(null) error = %v, want ErrNoFocusedWindow", err)
	}

	if _, err := parseGnomeEval(`(false, '')`); err == nil {
		t.Error("parseGnomeEval(false) expected error")
	}
}

func TestParseKDEOutput(t *testing.T) {
	info, err := parseKDEOutput("konsole|555|~ : bash | less\n")
	if err != nil {
		t.Fatalf("parseKDEOutput() error: %v", err)
	}
	if info.AppName != "konsole" || info.PID != 555 || info.WindowTitle != "~ : bash | less" {
		t.Errorf("parseKDEOutput() = %+v", info)
	}

	if _, err := parseKDEOutput("  \n"); !errors.Is(err, window.ErrNoFocusedWindow) {
		t.Errorf("parseKDEOutput(empty) error = %v, want ErrNoFocusedWindow", err)
	}
}

func TestParseIdleMilliseconds(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"(uint64 15342,)\n", 15342, false},
		{"4200\n", 4200, false},
		{"", 0, true},
		{"(uint64 ,)", 0, true},
	}

	for _, tt := range tests {
		got, err := parseIdleMilliseconds(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIdleMilliseconds(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseIdleMilliseconds(%q) = %d, want %d", tt.input, got, tt.want)
		}
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
