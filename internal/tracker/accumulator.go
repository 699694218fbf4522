package tracker

import (
	"time"

	"github.com/actionsum/activetime/internal/models"
)

// Sample is one tick's reading
type Sample struct {
	Time time.Time
	App  AppIdentity
	Idle bool
}

// Active is false for idle samples and for samples with no foreground app
func (s Sample) Active() bool {
	return !s.Idle && !s.App.IsNone()
}

// State is the accumulator's position: NoSession when Open is false,
// OpenSession(App, Start) otherwise
type State struct {
	Open       bool
	App        AppIdentity
	Start      time.Time
	LastSample time.Time
}

// Accumulator turns samples into closed sessions. Its methods are pure:
// they return the next state and never mutate the one passed in.
type Accumulator struct {
	// SuspendGap closes the open session at the previous sample when two
	// samples are further apart than this. Zero disables the check.
	SuspendGap time.Duration
}

// Observe feeds one sample. Zero or more sessions are returned: more than
// one when the open session crosses midnight.
func (a Accumulator) Observe(st State, s Sample) (State, []models.Session) {
	var closed []models.Session

	if st.Open && a.interrupted(st, s.Time) {
		closed = append(closed, split(st.App, st.Start, st.LastSample)...)
		st = State{LastSample: st.LastSample}
	}

	switch {
	case !st.Open && s.Active():
		st = State{Open: true, App: s.App, Start: s.Time}

	case st.Open && s.Active() && st.App.Same(s.App):
		// continuing sessions still split at midnight
		segments := split(st.App, st.Start, s.Time)
		if len(segments) > 1 {
			closed = append(closed, segments[:len(segments)-1]...)
			st.Start = segments[len(segments)-1].StartTime
		}
		if s.App.Browser != nil {
			st.App.Browser = s.App.Browser
		}

	case st.Open && s.Active():
		closed = append(closed, split(st.App, st.Start, s.Time)...)
		st = State{Open: true, App: s.App, Start: s.Time}

	case st.Open:
		closed = append(closed, split(st.App, st.Start, s.Time)...)
		st = State{}
	}

	st.LastSample = s.Time
	return st, closed
}

// Close ends the open session at now, used on stop
func (a Accumulator) Close(st State, now time.Time) (State, []models.Session) {
	if !st.Open {
		return State{LastSample: st.LastSample}, nil
	}
	return State{LastSample: st.LastSample}, split(st.App, st.Start, now)
}

// interrupted reports a suspend gap or a clock that moved backwards
func (a Accumulator) interrupted(st State, t time.Time) bool {
	if st.LastSample.IsZero() {
		return false
	}
	if t.Before(st.LastSample) {
		return true
	}
	return a.SuspendGap > 0 && t.Sub(st.LastSample) > a.SuspendGap
}

// split cuts [start, end) at each midnight in start's location. An empty
// interval yields nothing.
func split(app AppIdentity, start, end time.Time) []models.Session {
	var sessions []models.Session
	for start.Before(end) {
		stop := end
		if midnight := models.NextMidnight(start); midnight.Before(end) {
			stop = midnight
		}
		sessions = append(sessions, newSession(app, start, stop))
		start = stop
	}
	return sessions
}

func newSession(app AppIdentity, start, end time.Time) models.Session {
	s := models.Session{
		AppName:     app.AppName,
		WindowTitle: app.WindowTitle,
		StartTime:   start,
		EndTime:     end,
		Duration:    end.Sub(start).Seconds(),
		Date:        models.DateOf(start),
	}
	if app.Browser != nil {
		tab := *app.Browser
		s.Browser = &tab
	}
	return s
}
