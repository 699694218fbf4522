package utils

import (
	"fmt"
	"math"
)

// RoundSeconds rounds fractional seconds to whole seconds for display.
// Stored durations keep their sub-second precision.
func RoundSeconds(seconds float64) int64 {
	return int64(math.Round(math.Abs(seconds)))
}

// FormatRoundedUnit renders seconds in its largest whole unit: 45s, 12m, 3h
func FormatRoundedUnit(seconds float64) string {
	s := RoundSeconds(seconds)
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	if s >= 3600 {
		return fmt.Sprintf("%dh", s/3600)
	}
	return fmt.Sprintf("%dm", s/60)
}

// FormatDuration renders seconds as 2h05m, 12m30s or 45s
func FormatDuration(seconds float64) string {
	s := RoundSeconds(seconds)
	switch {
	case s >= 3600:
		return fmt.Sprintf("%dh%02dm", s/3600, (s%3600)/60)
	case s >= 60:
		return fmt.Sprintf("%dm%02ds", s/60, s%60)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
