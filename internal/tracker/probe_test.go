package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/pkg/window"
)

type fakeWindowSource struct {
	info *window.WindowInfo
	err  error
}

func (f *fakeWindowSource) FocusedWindow(ctx context.Context) (*window.WindowInfo, error) {
	return f.info, f.err
}

type fakeTabs struct {
	tab *models.BrowserTab
	err error
}

func (f *fakeTabs) Resolve(ctx context.Context, info *window.WindowInfo) (*models.BrowserTab, error) {
	return f.tab, f.err
}

func TestForegroundProbeSample(t *testing.T) {
	probe := NewForegroundProbe(&fakeWindowSource{info: &window.WindowInfo{AppName: "Code", WindowTitle: "main.go"}}, nil)

	got, err := probe.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error: %v", err)
	}
	if got.AppName != "code" || got.WindowTitle != "main.go" {
		t.Errorf("Sample() = %+v, want code/main.go", got)
	}
}

func TestForegroundProbeNoFocus(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeWindowSource
	}{
		{"sentinel", &fakeWindowSource{err: window.ErrNoFocusedWindow}},
		{"wrapped sentinel", &fakeWindowSource{err: fmt.Errorf("x11: %w", window.ErrNoFocusedWindow)}},
		{"nil info", &fakeWindowSource{}},
		{"blank app", &fakeWindowSource{info: &window.WindowInfo{AppName: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewForegroundProbe(tt.source, nil).Sample(context.Background())
			if err != nil {
				t.Fatalf("Sample() error: %v", err)
			}
			if !got.IsNone() {
				t.Errorf("Sample() = %+v, want NoForeground", got)
			}
		})
	}
}

func TestForegroundProbeError(t *testing.T) {
	probe := NewForegroundProbe(&fakeWindowSource{err: errors.New("connection refused")}, nil)

	got, err := probe.Sample(context.Background())
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) || probeErr.Probe != "foreground" {
		t.Errorf("Sample() error = %v, want foreground ProbeError", err)
	}
	if !got.IsNone() {
		t.Errorf("Sample() on error = %+v, want NoForeground", got)
	}
}

func TestForegroundProbeBrowserTab(t *testing.T) {
	source := &fakeWindowSource{info: &window.WindowInfo{AppName: "Google-chrome", WindowTitle: "Docs - Google Chrome"}}
	tab := &models.BrowserTab{BrowserName: "Google Chrome", TabTitle: "Docs", URL: "https://docs.example"}

	got, err := NewForegroundProbe(source, &fakeTabs{tab: tab}).Sample(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Browser != tab || got.WindowTitle != "Docs" {
		t.Errorf("Sample() = %+v, want resolved tab", got)
	}
}

func TestForegroundProbeBrowserFallback(t *testing.T) {
	source := &fakeWindowSource{info: &window.WindowInfo{AppName: "chrome", WindowTitle: "Docs - Google Chrome"}}

	got, err := NewForegroundProbe(source, &fakeTabs{err: context.DeadlineExceeded}).Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error: %v", err)
	}
	if got.Browser != nil || got.WindowTitle != "Docs - Google Chrome" {
		t.Errorf("Sample() = %+v, want plain window title", got)
	}
}

func TestAppIdentitySame(t *testing.T) {
	a := AppIdentity{AppName: "code", WindowTitle: "a.go"}
	if !a.Same(AppIdentity{AppName: "code", WindowTitle: "a.go", Browser: &models.BrowserTab{}}) {
		t.Error("Same() false for equal name and title")
	}
	if a.Same(AppIdentity{AppName: "code", WindowTitle: "b.go"}) {
		t.Error("Same() true for different titles")
	}
}
