// Package browser recognizes browser windows and resolves the active tab
// behind them.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/pkg/window"
)

// known maps lowercase executable or WM_CLASS names to display names
var known = map[string]string{
	"chrome":           "Google Chrome",
	"google-chrome":    "Google Chrome",
	"chromium":         "Chromium",
	"chromium-browser": "Chromium",
	"firefox":          "Mozilla Firefox",
	"firefox-esr":      "Mozilla Firefox",
	"msedge":           "Microsoft Edge",
	"microsoft-edge":   "Microsoft Edge",
	"opera":            "Opera",
	"brave":            "Brave Browser",
	"brave-browser":    "Brave Browser",
	"vivaldi":          "Vivaldi",
	"vivaldi-stable":   "Vivaldi",
	"iexplore":         "Internet Explorer",
}

// chromium browsers expose the DevTools HTTP endpoint
var chromium = map[string]bool{
	"Google Chrome":  true,
	"Chromium":       true,
	"Microsoft Edge": true,
	"Brave Browser":  true,
	"Opera":          true,
	"Vivaldi":        true,
}

// titleSuffixes are appended by browsers to the page title
var titleSuffixes = []string{
	" - Google Chrome",
	" - Chromium",
	" - Mozilla Firefox",
	" — Mozilla Firefox",
	" - Microsoft​ Edge",
	" - Microsoft Edge",
	" - Brave",
	" - Opera",
	" - Vivaldi",
	" - Internet Explorer",
}

// Name returns the display name of a known browser for an app or process
// name, with or without a .exe suffix
func Name(appName string) (string, bool) {
	key := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(appName)), ".exe")
	name, ok := known[key]
	return name, ok
}

// IsBrowser reports whether the window belongs to a known browser
func IsBrowser(info *window.WindowInfo) bool {
	if info == nil {
		return false
	}
	if _, ok := Name(info.AppName); ok {
		return true
	}
	_, ok := Name(info.ProcessName)
	return ok
}

// StripTitle removes the browser's own name from a window title
func StripTitle(title string) string {
	for _, suffix := range titleSuffixes {
		if strings.HasSuffix(title, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(title, suffix))
		}
	}
	return strings.TrimSpace(title)
}

// Domain returns the host of rawURL without a leading www.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Hostname()
	return strings.TrimPrefix(host, "www.")
}

// Resolver looks up the active tab of a browser window. It queries the
// Chromium remote debugging endpoint on each configured port and falls back
// to the window title when no port answers.
type Resolver struct {
	ports  []int
	client *http.Client
	host   string
}

// NewResolver creates a Resolver querying 127.0.0.1 on ports with a per
// request timeout
func NewResolver(ports []int, timeout time.Duration) *Resolver {
	return &Resolver{
		ports:  ports,
		client: &http.Client{Timeout: timeout},
		host:   "127.0.0.1",
	}
}

type devToolsTarget struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Resolve returns the tab for a browser window, or nil if info is not a
// browser. Only context cancellation is reported as an error; a failed
// DevTools lookup degrades to the stripped window title.
func (r *Resolver) Resolve(ctx context.Context, info *window.WindowInfo) (*models.BrowserTab, error) {
	name, ok := Name(info.AppName)
	if !ok {
		if name, ok = Name(info.ProcessName); !ok {
			return nil, nil
		}
	}

	tab := &models.BrowserTab{
		BrowserName: name,
		TabTitle:    StripTitle(info.WindowTitle),
	}

	if !chromium[name] || len(r.ports) == 0 {
		return tab, nil
	}

	for _, port := range r.ports {
		targets, err := r.targets(ctx, port)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if target, found := matchTarget(targets, tab.TabTitle); found {
			tab.URL = target.URL
			tab.Domain = Domain(target.URL)
			break
		}
	}

	return tab, nil
}

func (r *Resolver) targets(ctx context.Context, port int) ([]devToolsTarget, error) {
	endpoint := fmt.Sprintf("http://%s/json/list", net.JoinHostPort(r.host, strconv.Itoa(port)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("devtools %d: status %d", port, resp.StatusCode)
	}

	var targets []devToolsTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		log.Printf("Invalid DevTools response on port %d: %v", port, err)
		return nil, err
	}
	return targets, nil
}

// matchTarget prefers an exact title match, then containment either way
func matchTarget(targets []devToolsTarget, title string) (devToolsTarget, bool) {
	if title == "" {
		return devToolsTarget{}, false
	}
	for _, t := range targets {
		if t.Type == "page" && t.Title == title {
			return t, true
		}
	}
	for _, t := range targets {
		if t.Type != "page" || t.Title == "" {
			continue
		}
		if strings.Contains(title, t.Title) || strings.Contains(t.Title, title) {
			return t, true
		}
	}
	return devToolsTarget{}, false
}
