package detector

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/actionsum/activetime/pkg/integrations/session"
	"github.com/actionsum/activetime/pkg/integrations/wayland"
	"github.com/actionsum/activetime/pkg/integrations/x11"
	"github.com/actionsum/activetime/pkg/window"
)

// New picks a detector for the current session. Wayland sessions prefer the
// compositor detector and fall back to XWayland through X11.
func New() (window.Detector, error) {
	switch DetectDisplayServer() {
	case "wayland":
		if det := wayland.NewDetector(); det.IsAvailable() {
			return det, nil
		}
		log.Printf("Wayland compositor not supported, trying XWayland")
		if det := x11.NewDetector(); det.IsAvailable() {
			return det, nil
		}
	case "x11":
		if det := x11.NewDetector(); det.IsAvailable() {
			return det, nil
		}
	}

	return nil, fmt.Errorf("no window detector available for display server %q", DetectDisplayServer())
}

// NewOrNull returns New() or, when nothing is available, a detector that
// always reports no focused window so tracking records nothing.
func NewOrNull() window.Detector {
	det, err := New()
	if err != nil {
		log.Printf("Window detection unavailable, running without foreground tracking: %v", err)
		return NewNull()
	}
	return det
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}

// Null is a detector for headless sessions
type Null struct {
	lock *session.LockChecker
}

func NewNull() *Null {
	return &Null{lock: session.NewLockChecker()}
}

func (n *Null) FocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	return nil, window.ErrNoFocusedWindow
}

func (n *Null) Idle(ctx context.Context) (*window.IdleInfo, error) {
	return &window.IdleInfo{IsLocked: n.lock.IsLocked(ctx)}, nil
}

func (n *Null) IsAvailable() bool { return true }

func (n *Null) DisplayServer() string { return "none" }

func (n *Null) Close() error { return nil }
