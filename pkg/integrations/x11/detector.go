package x11

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"

	"github.com/actionsum/activetime/pkg/integrations/session"
	"github.com/actionsum/activetime/pkg/window"
)

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// Detector implements window.Detector for X11 by talking to the X server
// directly. The connection is opened lazily and reopened after a failure.
type Detector struct {
	mu             sync.Mutex
	conn           *xgb.Conn
	root           xproto.Window
	atoms          map[string]xproto.Atom
	hasScreensaver bool

	lock *session.LockChecker
}

// NewDetector creates a new X11 detector
func NewDetector() *Detector {
	return &Detector{
		atoms: make(map[string]xproto.Atom),
		lock:  session.NewLockChecker(),
	}
}

// IsAvailable checks if an X server can be reached
func (d *Detector) IsAvailable() bool {
	if os.Getenv("DISPLAY") == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectLocked() == nil
}

// DisplayServer returns "x11"
func (d *Detector) DisplayServer() string {
	return "x11"
}

func (d *Detector) connectLocked() error {
	if d.conn != nil {
		return nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		d.atoms[name] = reply.Atom
	}

	d.hasScreensaver = screensaver.Init(conn) == nil
	if !d.hasScreensaver {
		log.Printf("X11: MIT-SCREEN-SAVER extension unavailable, idle time will read as 0")
	}

	d.conn = conn
	d.root = root
	return nil
}

// resetLocked drops a broken connection so the next call reconnects
func (d *Detector) resetLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

// FocusedWindow returns information about the currently focused window
func (d *Detector) FocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connectLocked(); err != nil {
		return nil, err
	}

	win, err := d.activeWindow()
	if err != nil {
		d.resetLocked()
		return nil, err
	}
	if win == 0 {
		return nil, window.ErrNoFocusedWindow
	}

	info := &window.WindowInfo{
		WindowTitle:   d.windowName(win),
		PID:           d.windowPID(win),
		DisplayServer: "x11",
	}

	_, class := d.windowClass(win)
	if info.PID != 0 {
		info.ProcessName = processName(info.PID)
	}

	// WM_CLASS works for sandboxed apps whose PID is hidden
	switch {
	case class != "":
		info.AppName = class
	case info.ProcessName != "":
		info.AppName = info.ProcessName
	default:
		info.AppName = "unknown"
	}

	return info, nil
}

// activeWindow returns 0 when nothing is focused
func (d *Detector) activeWindow() (xproto.Window, error) {
	data, err := d.property(d.root, d.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to read _NET_ACTIVE_WINDOW: %w", err)
	}
	if len(data) >= 4 {
		if win := xproto.Window(binary.LittleEndian.Uint32(data)); win != 0 && win != d.root {
			return win, nil
		}
	}

	// Window managers without EWMH support
	focus, err := xproto.GetInputFocus(d.conn).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get input focus: %w", err)
	}
	if focus.Focus == 0 || focus.Focus == d.root || focus.Focus == xproto.InputFocusPointerRoot {
		return 0, nil
	}
	return d.topLevelParent(focus.Focus), nil
}

func (d *Detector) topLevelParent(win xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(d.conn, win).Reply()
		if err != nil || reply.Parent == d.root || reply.Parent == 0 {
			return win
		}
		win = reply.Parent
	}
}

func (d *Detector) property(win xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(d.conn, false, win, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (d *Detector) windowName(win xproto.Window) string {
	data, err := d.property(win, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = d.property(win, d.atoms["WM_NAME"], xproto.AtomString, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

func (d *Detector) windowClass(win xproto.Window) (instance, class string) {
	data, err := d.property(win, d.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil || len(data) == 0 {
		return "", ""
	}
	return parseWMClass(data)
}

func (d *Detector) windowPID(win xproto.Window) uint32 {
	data, err := d.property(win, d.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// parseWMClass splits the NUL separated instance and class names
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

// processName reads the short command name of a process from procfs
func processName(pid uint32) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Idle returns time since last input from the MIT-SCREEN-SAVER extension
// and lock state from the screensaver and logind.
func (d *Detector) Idle(ctx context.Context) (*window.IdleInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info := &window.IdleInfo{}

	d.mu.Lock()
	if err := d.connectLocked(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	if d.hasScreensaver {
		reply, err := screensaver.QueryInfo(d.conn, xproto.Drawable(d.root)).Reply()
		if err != nil {
			d.resetLocked()
			d.mu.Unlock()
			return nil, fmt.Errorf("failed to query screensaver info: %w", err)
		}
		info.IdleSeconds = uint64(reply.MsSinceUserInput) / 1000
		info.IsLocked = reply.State == screensaver.StateOn
	}
	d.mu.Unlock()

	if !info.IsLocked {
		info.IsLocked = d.lock.IsLocked(ctx)
	}

	return info, nil
}

// Close cleans up resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
	return nil
}
