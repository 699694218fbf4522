package tracker

import "time"

// Clock abstracts time so ticks are deterministic in tests
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location, or the local zone when nil.
// Session dates follow this location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
