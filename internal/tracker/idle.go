package tracker

import (
	"context"
	"time"

	"github.com/actionsum/activetime/pkg/window"
)

// IdleSignal is one reading of the user's input activity
type IdleSignal struct {
	SecondsSinceInput uint64 `json:"seconds_since_input"`
	LockedOrSuspended bool   `json:"locked_or_suspended"`
}

// IsIdle is true when the session is locked or input has been absent for at
// least thresholdSeconds
func (s IdleSignal) IsIdle(thresholdSeconds uint64) bool {
	return s.LockedOrSuspended || s.SecondsSinceInput >= thresholdSeconds
}

// IdleSource is the part of a window.Detector the IdleMonitor needs
type IdleSource interface {
	Idle(ctx context.Context) (*window.IdleInfo, error)
}

// IdleMonitor reads idle time and lock state from the display server
type IdleMonitor struct {
	source IdleSource
}

func NewIdleMonitor(source IdleSource) *IdleMonitor {
	return &IdleMonitor{source: source}
}

// Sample never fails closed: on error it returns an active signal together
// with a *ProbeError for the caller to log.
func (m *IdleMonitor) Sample(ctx context.Context) (IdleSignal, error) {
	info, err := m.source.Idle(ctx)
	if err != nil {
		return IdleSignal{}, &ProbeError{Probe: "idle", Err: err}
	}
	if info == nil {
		return IdleSignal{}, nil
	}
	return IdleSignal{
		SecondsSinceInput: info.IdleSeconds,
		LockedOrSuspended: info.IsLocked,
	}, nil
}

func thresholdSeconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Second)
}
