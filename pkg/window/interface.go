package window

import (
	"context"
	"errors"
)

// ErrNoFocusedWindow is returned by detectors when the display server reports
// that nothing holds input focus (desktop showing, all windows minimized).
var ErrNoFocusedWindow = errors.New("no focused window")

// WindowInfo represents information about the currently focused window
type WindowInfo struct {
	AppName       string
	WindowTitle   string
	ProcessName   string
	PID           uint32
	DisplayServer string // "x11", "wayland" or "none"
}

// IdleInfo represents raw input idle and lock state as reported by the OS.
// Deciding whether that counts as idle is left to the caller's threshold.
type IdleInfo struct {
	IdleSeconds uint64 // Seconds since last keyboard/mouse input
	IsLocked    bool   // Screen locked, screensaver active or session suspended
}

// Detector is the interface that all window detection implementations must satisfy.
// Implementations must honor ctx cancellation on every call that reaches the OS.
type Detector interface {
	// FocusedWindow returns the currently focused window or ErrNoFocusedWindow
	FocusedWindow(ctx context.Context) (*WindowInfo, error)

	// Idle returns time since last input and lock state
	Idle(ctx context.Context) (*IdleInfo, error)

	// IsAvailable checks if this detector can run on the current system
	IsAvailable() bool

	// DisplayServer returns the display server type
	DisplayServer() string

	// Close cleans up any resources used by the detector
	Close() error
}
