package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrProbeTimeout means the OS queries did not answer within one tick
	ErrProbeTimeout = errors.New("probe timed out")
	// ErrInvalidSettings is returned by Start for a non-positive interval or threshold
	ErrInvalidSettings = errors.New("invalid tracker settings")
)

// ProbeError is a transient OS query failure. The tracker recovers from it
// locally and never surfaces it past the log and error table.
type ProbeError struct {
	Probe string // "idle" or "foreground"
	Err   error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s probe: %v", e.Probe, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
