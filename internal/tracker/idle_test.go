package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/actionsum/activetime/pkg/window"
)

type fakeIdleSource struct {
	info *window.IdleInfo
	err  error
}

func (f *fakeIdleSource) Idle(ctx context.Context) (*window.IdleInfo, error) {
	return f.info, f.err
}

func TestIdleSignalThreshold(t *testing.T) {
	tests := []struct {
		name   string
		signal IdleSignal
		want   bool
	}{
		{"fresh input", IdleSignal{SecondsSinceInput: 0}, false},
		{"299 seconds", IdleSignal{SecondsSinceInput: 299}, false},
		{"300 seconds", IdleSignal{SecondsSinceInput: 300}, true},
		{"long idle", IdleSignal{SecondsSinceInput: 3600}, true},
		{"locked with fresh input", IdleSignal{SecondsSinceInput: 1, LockedOrSuspended: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.signal.IsIdle(300); got != tt.want {
				t.Errorf("IsIdle(300) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdleBecomesTrueAtThreshold(t *testing.T) {
	for s := uint64(0); s <= 300; s++ {
		got := IdleSignal{SecondsSinceInput: s}.IsIdle(300)
		if got != (s >= 300) {
			t.Fatalf("IsIdle(300) at %ds = %v", s, got)
		}
	}
}

func TestIdleMonitorSample(t *testing.T) {
	monitor := NewIdleMonitor(&fakeIdleSource{info: &window.IdleInfo{IdleSeconds: 42, IsLocked: true}})

	signal, err := monitor.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error: %v", err)
	}
	if signal.SecondsSinceInput != 42 || !signal.LockedOrSuspended {
		t.Errorf("Sample() = %+v", signal)
	}
}

func TestIdleMonitorFailsOpen(t *testing.T) {
	cause := errors.New("dbus unavailable")
	monitor := NewIdleMonitor(&fakeIdleSource{err: cause})

	signal, err := monitor.Sample(context.Background())
	if signal != (IdleSignal{}) {
		t.Errorf("Sample() on failure = %+v, want active zero signal", signal)
	}
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) || probeErr.Probe != "idle" {
		t.Errorf("Sample() error = %v, want idle ProbeError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Sample() error does not wrap cause")
	}
}

func TestThresholdSeconds(t *testing.T) {
	if got := thresholdSeconds(DefaultSettings().IdleThreshold); got != 300 {
		t.Errorf("thresholdSeconds(default) = %d, want 300", got)
	}
	if got := thresholdSeconds(-1); got != 0 {
		t.Errorf("thresholdSeconds(-1) = %d, want 0", got)
	}
}
