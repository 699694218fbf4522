package window

import (
	"context"
	"errors"
	"testing"
)

type MockDetector struct {
	windowInfo    *WindowInfo
	idleInfo      *IdleInfo
	windowErr     error
	isAvailable   bool
	displayServer string
	closeError    error
}

func (m *MockDetector) FocusedWindow(ctx context.Context) (*WindowInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.windowErr != nil {
		return nil, m.windowErr
	}
	return m.windowInfo, nil
}

func (m *MockDetector) Idle(ctx context.Context) (*IdleInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.idleInfo, nil
}

func (m *MockDetector) IsAvailable() bool {
	return m.isAvailable
}

func (m *MockDetector) DisplayServer() string {
	return m.displayServer
}

func (m *MockDetector) Close() error {
	return m.closeError
}

func TestMockDetector(t *testing.T) {
	var _ Detector = (*MockDetector)(nil)

	mock := &MockDetector{
		windowInfo: &WindowInfo{
			AppName:       "TestApp",
			WindowTitle:   "Test Window",
			ProcessName:   "test",
			DisplayServer: "x11",
		},
		idleInfo:      &IdleInfo{IdleSeconds: 12},
		isAvailable:   true,
		displayServer: "x11",
	}

	ctx := context.Background()

	windowInfo, err := mock.FocusedWindow(ctx)
	if err != nil {
		t.Errorf("FocusedWindow() error: %v", err)
	}
	if windowInfo.AppName != "TestApp" {
		t.Errorf("AppName = %s, want TestApp", windowInfo.AppName)
	}

	idleInfo, err := mock.Idle(ctx)
	if err != nil {
		t.Errorf("Idle() error: %v", err)
	}
	if idleInfo.IdleSeconds != 12 {
		t.Errorf("IdleSeconds = %d, want 12", idleInfo.IdleSeconds)
	}

	if err := mock.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNoFocusedWindowIsDistinguishable(t *testing.T) {
	mock := &MockDetector{windowErr: ErrNoFocusedWindow}

	_, err := mock.FocusedWindow(context.Background())
	if !errors.Is(err, ErrNoFocusedWindow) {
		t.Errorf("FocusedWindow() error = %v, want ErrNoFocusedWindow", err)
	}
}

func TestCanceledContext(t *testing.T) {
	mock := &MockDetector{windowInfo: &WindowInfo{AppName: "x"}, idleInfo: &IdleInfo{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mock.FocusedWindow(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("FocusedWindow() error = %v, want context.Canceled", err)
	}
	if _, err := mock.Idle(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Idle() error = %v, want context.Canceled", err)
	}
}
