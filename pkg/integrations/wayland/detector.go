package wayland

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/actionsum/activetime/pkg/integrations/session"
	"github.com/actionsum/activetime/pkg/window"
)

// Detector implements window.Detector for Wayland compositors. Wayland has
// no generic focus protocol, so each compositor is queried with its own tool.
type Detector struct {
	compositor string
	hasSwaymsg bool
	hasHyprctl bool
	hasGdbus   bool
	hasQdbus   bool
	lock       *session.LockChecker
}

// NewDetector creates a new Wayland detector
func NewDetector() *Detector {
	d := &Detector{
		hasSwaymsg: commandExists("swaymsg"),
		hasHyprctl: commandExists("hyprctl"),
		hasGdbus:   commandExists("gdbus"),
		hasQdbus:   commandExists("qdbus"),
		lock:       session.NewLockChecker(),
	}
	d.compositor = detectCompositor()
	return d
}

func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// detectCompositor uses the environment the compositor exports, then
// falls back to looking for its process
func detectCompositor() string {
	if os.Getenv("SWAYSOCK") != "" {
		return "sway"
	}
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return "hyprland"
	}

	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "gnome"), strings.Contains(desktop, "ubuntu"):
		return "gnome"
	case strings.Contains(desktop, "kde"):
		return "kde"
	}

	compositors := []struct{ process, name string }{
		{"sway", "sway"},
		{"Hyprland", "hyprland"},
		{"gnome-shell", "gnome"},
		{"kwin_wayland", "kde"},
	}
	for _, c := range compositors {
		if err := exec.Command("pgrep", "-x", c.process).Run(); err == nil {
			return c.name
		}
	}

	return "unknown"
}

// IsAvailable checks if the detected compositor can be queried
func (d *Detector) IsAvailable() bool {
	switch d.compositor {
	case "sway":
		return d.hasSwaymsg
	case "hyprland":
		return d.hasHyprctl
	case "gnome":
		return d.hasGdbus
	case "kde":
		return d.hasQdbus
	default:
		return false
	}
}

// DisplayServer returns "wayland"
func (d *Detector) DisplayServer() string {
	return "wayland"
}

// FocusedWindow returns information about the currently focused window
func (d *Detector) FocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	var (
		info *window.WindowInfo
		err  error
	)

	switch d.compositor {
	case "sway":
		info, err = d.focusedWindowSway(ctx)
	case "hyprland":
		info, err = d.focusedWindowHyprland(ctx)
	case "gnome":
		info, err = d.focusedWindowGnome(ctx)
	case "kde":
		info, err = d.focusedWindowKDE(ctx)
	default:
		return nil, fmt.Errorf("unsupported wayland compositor: %s", d.compositor)
	}
	if err != nil {
		return nil, err
	}

	info.DisplayServer = "wayland"
	if info.ProcessName == "" && info.PID != 0 {
		info.ProcessName = processName(info.PID)
	}
	if info.ProcessName == "" {
		info.ProcessName = info.AppName
	}
	return info, nil
}

type swayNode struct {
	Focused          bool       `json:"focused"`
	Type             string     `json:"type"`
	Name             string     `json:"name"`
	AppID            string     `json:"app_id"`
	PID              uint32     `json:"pid"`
	WindowProperties *swayProps `json:"window_properties"`
	Nodes            []swayNode `json:"nodes"`
	FloatingNodes    []swayNode `json:"floating_nodes"`
}

type swayProps struct {
	Class string `json:"class"`
}

func (d *Detector) focusedWindowSway(ctx context.Context) (*window.WindowInfo, error) {
	output, err := exec.CommandContext(ctx, "swaymsg", "-t", "get_tree", "-r").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute swaymsg: %w", err)
	}
	return parseSwayTree(output)
}

// parseSwayTree finds the focused view in a sway get_tree dump. A focused
// workspace or output means no view holds focus.
func parseSwayTree(data []byte) (*window.WindowInfo, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse sway tree: %w", err)
	}

	node := findFocused(&root)
	if node == nil || (node.Type != "con" && node.Type != "floating_con") {
		return nil, window.ErrNoFocusedWindow
	}

	appName := node.AppID
	if appName == "" && node.WindowProperties != nil {
		appName = node.WindowProperties.Class
	}
	if appName == "" {
		appName = "unknown"
	}

	return &window.WindowInfo{
		AppName:     appName,
		WindowTitle: node.Name,
		PID:         node.PID,
	}, nil
}

func findFocused(node *swayNode) *swayNode {
	if node.Focused {
		return node
	}
	for i := range node.Nodes {
		if found := findFocused(&node.Nodes[i]); found != nil {
			return found
		}
	}
	for i := range node.FloatingNodes {
		if found := findFocused(&node.FloatingNodes[i]); found != nil {
			return found
		}
	}
	return nil
}

type hyprlandWindow struct {
	Class string `json:"class"`
	Title string `json:"title"`
	PID   int64  `json:"pid"`
}

func (d *Detector) focusedWindowHyprland(ctx context.Context) (*window.WindowInfo, error) {
	output, err := exec.CommandContext(ctx, "hyprctl", "activewindow", "-j").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute hyprctl: %w", err)
	}
	return parseHyprlandWindow(output)
}

// parseHyprlandWindow parses hyprctl activewindow -j; "{}" means no window
func parseHyprlandWindow(data []byte) (*window.WindowInfo, error) {
	var win hyprlandWindow
	if err := json.Unmarshal(data, &win); err != nil {
		return nil, fmt.Errorf("failed to parse hyprctl output: %w", err)
	}
	if win.Class == "" && win.Title == "" {
		return nil, window.ErrNoFocusedWindow
	}

	info := &window.WindowInfo{
		AppName:     win.Class,
		WindowTitle: win.Title,
	}
	if info.AppName == "" {
		info.AppName = "unknown"
	}
	if win.PID > 0 {
		info.PID = uint32(win.PID)
	}
	return info, nil
}

const gnomeFocusScript = `
(function() {
	let fw = global.display.get_focus_window();
	if (!fw) { return 'null'; }
	return JSON.stringify({
		wm_class: fw.get_wm_class() || '',
		title: fw.get_title() || '',
		pid: fw.get_pid() || 0
	});
})()`

type gnomeWindow struct {
	WMClass string `json:"wm_class"`
	Title   string `json:"title"`
	PID     int64  `json:"pid"`
}

func (d *Detector) focusedWindowGnome(ctx context.Context) (*window.WindowInfo, error) {
	output, err := exec.CommandContext(ctx, "gdbus", "call", "--session",
		"--dest", "org.gnome.Shell",
		"--object-path", "/org/gnome/Shell",
		"--method", "org.gnome.Shell.Eval",
		gnomeFocusScript).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to query GNOME Shell: %w", err)
	}
	return parseGnomeEval(string(output))
}

// parseGnomeEval parses "(true, '{...}')" as returned by Shell.Eval
func parseGnomeEval(output string) (*window.WindowInfo, error) {
	result := strings.TrimSpace(output)
	if !strings.HasPrefix(result, "(true,") {
		return nil, fmt.Errorf("GNOME Shell.Eval refused the query (unsafe mode disabled?)")
	}

	start := strings.Index(result, "{")
	end := strings.LastIndex(result, "}")
	if start == -1 || end == -1 {
		if strings.Contains(result, "null") {
			return nil, window.ErrNoFocusedWindow
		}
		return nil, fmt.Errorf("unexpected GNOME Shell.Eval output: %s", result)
	}

	payload := strings.ReplaceAll(result[start:end+1], `\"`, `"`)

	var win gnomeWindow
	if err := json.Unmarshal([]byte(payload), &win); err != nil {
		return nil, fmt.Errorf("failed to parse GNOME window: %w", err)
	}

	info := &window.WindowInfo{
		AppName:     win.WMClass,
		WindowTitle: win.Title,
	}
	if info.AppName == "" {
		info.AppName = "unknown"
	}
	if win.PID > 0 {
		info.PID = uint32(win.PID)
	}
	return info, nil
}

const kdeFocusScript = `
var c = workspace.activeClient;
if (c) { print(c.resourceClass + "|" + c.pid + "|" + c.caption); }
`

func (d *Detector) focusedWindowKDE(ctx context.Context) (*window.WindowInfo, error) {
	output, err := exec.CommandContext(ctx, "qdbus", "org.kde.KWin", "/Scripting",
		"org.kde.kwin.Scripting.loadScript", kdeFocusScript).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to query KDE window: %w", err)
	}
	return parseKDEOutput(string(output))
}

// parseKDEOutput parses "class|pid|caption"; the caption may contain '|'
func parseKDEOutput(output string) (*window.WindowInfo, error) {
	line := strings.TrimSpace(output)
	if line == "" {
		return nil, window.ErrNoFocusedWindow
	}

	parts := strings.SplitN(line, "|", 3)
	info := &window.WindowInfo{AppName: parts[0]}
	if len(parts) >= 2 {
		if pid, err := strconv.ParseUint(parts[1], 10, 32); err == nil {
			info.PID = uint32(pid)
		}
	}
	if len(parts) == 3 {
		info.WindowTitle = parts[2]
	}
	if info.AppName == "" {
		info.AppName = "unknown"
	}
	return info, nil
}

func processName(pid uint32) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Idle returns idle time where the compositor exposes it and the lock state
func (d *Detector) Idle(ctx context.Context) (*window.IdleInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idleMs, err := d.idleMilliseconds(ctx)
	if err != nil {
		return nil, err
	}

	return &window.IdleInfo{
		IdleSeconds: idleMs / 1000,
		IsLocked:    d.lockerRunning(ctx) || d.lock.IsLocked(ctx),
	}, nil
}

var uint64Pattern = regexp.MustCompile(`(\d+)`)

func (d *Detector) idleMilliseconds(ctx context.Context) (uint64, error) {
	switch d.compositor {
	case "gnome":
		output, err := exec.CommandContext(ctx, "gdbus", "call", "--session",
			"--dest", "org.gnome.Mutter.IdleMonitor",
			"--object-path", "/org/gnome/Mutter/IdleMonitor/Core",
			"--method", "org.gnome.Mutter.IdleMonitor.GetIdletime").Output()
		if err != nil {
			return 0, fmt.Errorf("failed to query Mutter idle monitor: %w", err)
		}
		return parseIdleMilliseconds(string(output))
	case "kde":
		output, err := exec.CommandContext(ctx, "qdbus", "org.freedesktop.ScreenSaver",
			"/ScreenSaver", "GetSessionIdleTime").Output()
		if err != nil {
			return 0, fmt.Errorf("failed to query KDE idle time: %w", err)
		}
		return parseIdleMilliseconds(string(output))
	default:
		// sway and Hyprland only expose idle through ext-idle-notify, which
		// requires a Wayland client; lock state still applies.
		return 0, nil
	}
}

// parseIdleMilliseconds extracts the number from "(uint64 1234,)" or "1234"
func parseIdleMilliseconds(output string) (uint64, error) {
	match := uint64Pattern.FindString(strings.TrimPrefix(strings.TrimSpace(output), "(uint64"))
	if match == "" {
		return 0, fmt.Errorf("unexpected idle time output: %q", output)
	}
	return strconv.ParseUint(match, 10, 64)
}

func (d *Detector) lockerRunning(ctx context.Context) bool {
	lockers := []string{"swaylock", "waylock", "gtklock", "hyprlock"}
	for _, locker := range lockers {
		if err := exec.CommandContext(ctx, "pgrep", "-x", locker).Run(); err == nil {
			return true
		}
	}
	return false
}

// Close cleans up resources
func (d *Detector) Close() error {
	return nil
}
