package session

import (
	"context"
	"os/exec"
	"strings"
)

// LockChecker reports whether the login session is locked or the screensaver
// is active. It tries logind first and falls back to the GNOME ScreenSaver
// D-Bus interface.
type LockChecker struct {
	hasLoginctl bool
	hasGdbus    bool
}

// NewLockChecker creates a checker using whatever tools are on PATH
func NewLockChecker() *LockChecker {
	return &LockChecker{
		hasLoginctl: commandExists("loginctl"),
		hasGdbus:    commandExists("gdbus"),
	}
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// IsLocked returns true if any source reports the session as locked.
// Errors from individual sources are ignored; no source means unlocked.
func (c *LockChecker) IsLocked(ctx context.Context) bool {
	if c.hasLoginctl {
		cmd := exec.CommandContext(ctx, "loginctl", "show-session", "-p", "LockedHint", "--value", "self")
		if output, err := cmd.Output(); err == nil && parseLockedHint(string(output)) {
			return true
		}
	}

	if c.hasGdbus {
		cmd := exec.CommandContext(ctx, "gdbus", "call", "--session",
			"--dest", "org.gnome.ScreenSaver",
			"--object-path", "/org/gnome/ScreenSaver",
			"--method", "org.gnome.ScreenSaver.GetActive")
		if output, err := cmd.Output(); err == nil && parseScreenSaverActive(string(output)) {
			return true
		}
	}

	return false
}

// parseLockedHint accepts both "yes" and "LockedHint=yes" forms
func parseLockedHint(output string) bool {
	value := strings.TrimSpace(output)
	value = strings.TrimPrefix(value, "LockedHint=")
	return value == "yes"
}

// parseScreenSaverActive parses gdbus output such as "(true,)"
func parseScreenSaverActive(output string) bool {
	return strings.Contains(strings.TrimSpace(output), "true")
}
