package tracker

import (
	"context"
	"errors"
	"strings"

	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/pkg/window"
)

// AppIdentity names the foreground app. Two identities are the same session
// when app name and window title match.
type AppIdentity struct {
	AppName     string             `json:"app_name"`
	WindowTitle string             `json:"window_title"`
	Browser     *models.BrowserTab `json:"browser,omitempty"`
}

// NoForeground is reported when nothing holds focus
var NoForeground = AppIdentity{}

func (a AppIdentity) IsNone() bool {
	return a.AppName == ""
}

func (a AppIdentity) Same(b AppIdentity) bool {
	return a.AppName == b.AppName && a.WindowTitle == b.WindowTitle
}

// WindowSource is the part of a window.Detector the ForegroundProbe needs
type WindowSource interface {
	FocusedWindow(ctx context.Context) (*window.WindowInfo, error)
}

// TabResolver resolves the active tab of a browser window. It returns nil
// for windows that are not browsers.
type TabResolver interface {
	Resolve(ctx context.Context, info *window.WindowInfo) (*models.BrowserTab, error)
}

// ForegroundProbe reads the focused window and, for browsers, its tab
type ForegroundProbe struct {
	source WindowSource
	tabs   TabResolver
}

// NewForegroundProbe creates a probe. tabs may be nil to skip tab lookup.
func NewForegroundProbe(source WindowSource, tabs TabResolver) *ForegroundProbe {
	return &ForegroundProbe{source: source, tabs: tabs}
}

func (p *ForegroundProbe) Sample(ctx context.Context) (AppIdentity, error) {
	info, err := p.source.FocusedWindow(ctx)
	if err != nil {
		if errors.Is(err, window.ErrNoFocusedWindow) {
			return NoForeground, nil
		}
		return NoForeground, &ProbeError{Probe: "foreground", Err: err}
	}
	if info == nil || strings.TrimSpace(info.AppName) == "" {
		return NoForeground, nil
	}

	app := AppIdentity{
		AppName:     strings.ToLower(strings.TrimSpace(info.AppName)),
		WindowTitle: info.WindowTitle,
	}

	if p.tabs == nil {
		return app, nil
	}

	tab, err := p.tabs.Resolve(ctx, info)
	if err != nil || tab == nil {
		return app, nil
	}
	app.Browser = tab
	if tab.TabTitle != "" {
		app.WindowTitle = tab.TabTitle
	}
	return app, nil
}
