package tracker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/actionsum/activetime/internal/models"

	"github.com/google/uuid"
)

// flushTimeout bounds a single append
const flushTimeout = 5 * time.Second

// IdleSampler is satisfied by *IdleMonitor
type IdleSampler interface {
	Sample(ctx context.Context) (IdleSignal, error)
}

// AppSampler is satisfied by *ForegroundProbe
type AppSampler interface {
	Sample(ctx context.Context) (AppIdentity, error)
}

// Store receives closed sessions and recovered errors
type Store interface {
	Append(ctx context.Context, s models.Session) error
	RecordError(ctx context.Context, entry models.ErrorLog) error
}

// Settings are fixed for the lifetime of one Start/Stop cycle
type Settings struct {
	Interval      time.Duration
	IdleThreshold time.Duration
	SuspendGap    time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Interval:      1 * time.Second,
		IdleThreshold: 300 * time.Second,
		SuspendGap:    30 * time.Second,
	}
}

func (s Settings) validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidSettings, s.Interval)
	}
	if s.IdleThreshold <= 0 {
		return fmt.Errorf("%w: idle threshold must be positive, got %v", ErrInvalidSettings, s.IdleThreshold)
	}
	if s.SuspendGap < 0 {
		return fmt.Errorf("%w: suspend gap cannot be negative", ErrInvalidSettings)
	}
	return nil
}

// Status is a read-only snapshot of the tracker
type Status struct {
	Tracking         bool      `json:"tracking"`
	CurrentlyIdle    bool      `json:"currently_idle"`
	CurrentApp       string    `json:"current_app,omitempty"`
	CurrentTitle     string    `json:"current_title,omitempty"`
	SessionOpenSince time.Time `json:"session_open_since,omitempty"`
	LastSampleTime   time.Time `json:"last_sample_time,omitempty"`
	IdleSince        time.Time `json:"idle_since,omitempty"`
	SecondsIdle      uint64    `json:"seconds_idle"`
	Degraded         bool      `json:"degraded"`
	SessionsSaved    int       `json:"sessions_saved"`
	SessionsDropped  int       `json:"sessions_dropped"`
	TicksSkipped     int       `json:"ticks_skipped"`
	EventsDropped    int64     `json:"events_dropped"`
}

// Tracker owns the polling loop. Only the loop goroutine touches the
// accumulator state; readers get Status snapshots.
type Tracker struct {
	idle   IdleSampler
	app    AppSampler
	store  Store
	clock  Clock
	logger *log.Logger
	fatal  error

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	settings Settings
	acc      Accumulator

	// loop-owned
	state       State
	activeSince time.Time
	idleSince   time.Time
	lastErr     map[string]string
	counters    Status

	status atomic.Pointer[Status]

	subsMu        sync.Mutex
	subs          map[chan Event]struct{}
	eventsDropped atomic.Int64
}

type Option func(*Tracker)

func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithStoreFatal marks the tracker as running against a fallback store
// because the real one failed with err
func WithStoreFatal(err error) Option {
	return func(t *Tracker) { t.fatal = err }
}

func New(idle IdleSampler, app AppSampler, store Store, opts ...Option) *Tracker {
	t := &Tracker{
		idle:     idle,
		app:      app,
		store:    store,
		clock:    SystemClock{},
		logger:   log.Default(),
		settings: DefaultSettings(),
		lastErr:  make(map[string]string),
		subs:     make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.acc = Accumulator{SuspendGap: t.settings.SuspendGap}
	t.counters.Degraded = t.fatal != nil
	t.publish(false)
	return t
}

// Start launches the polling loop and returns. Calling it while the loop is
// running does nothing; settings only change across a Stop/Start cycle.
// The loop ends when Stop is called or ctx is canceled.
func (t *Tracker) Start(ctx context.Context, settings Settings) error {
	if err := settings.validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		select {
		case <-t.done:
			// loop ended on its own context; start a fresh one
		default:
			return nil
		}
	}

	t.settings = settings
	t.acc = Accumulator{SuspendGap: settings.SuspendGap}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	t.publish(true)
	if t.fatal != nil {
		t.emit(Event{Kind: EventStoreFatal, Time: t.clock.Now(), Err: t.fatal})
	}
	t.logger.Printf("Starting tracker with %v poll interval, %v idle threshold", settings.Interval, settings.IdleThreshold)

	go t.run(loopCtx, done)
	return nil
}

// Stop cancels the loop, waits for it to flush the open session, and
// returns. It is safe to call concurrently and when not running.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.mu.Lock()
	if t.done == done {
		t.cancel = nil
		t.done = nil
	}
	t.mu.Unlock()
	return nil
}

// Status returns the latest snapshot
func (t *Tracker) Status() Status {
	return *t.status.Load()
}

// Running reports whether the polling loop is active
func (t *Tracker) Running() bool {
	return t.Status().Tracking
}

func (t *Tracker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.settings.Interval)
	defer ticker.Stop()

	t.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			t.flush()
			t.logger.Println("Tracker stopped")
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

type probeResult struct {
	idle    IdleSignal
	idleErr error
	app     AppIdentity
	appErr  error
}

// tick samples both probes, bounded by one interval, and feeds the
// accumulator. A timed out or failed foreground query skips the tick.
func (t *Tracker) tick(ctx context.Context) {
	now := t.clock.Now()

	probeCtx, cancel := context.WithTimeout(ctx, t.settings.Interval)
	defer cancel()

	results := make(chan probeResult, 1)
	go func() {
		var r probeResult
		r.idle, r.idleErr = t.idle.Sample(probeCtx)
		r.app, r.appErr = t.app.Sample(probeCtx)
		results <- r
	}()

	var r probeResult
	timedOut := false
	select {
	case r = <-results:
		// a probe that gave up on the deadline counts as a timeout
		timedOut = probeCtx.Err() != nil && (r.idleErr != nil || r.appErr != nil)
	case <-probeCtx.Done():
		timedOut = true
	}
	if ctx.Err() != nil {
		return
	}
	if timedOut {
		t.counters.TicksSkipped++
		t.recordError(ctx, "tick", ErrProbeTimeout)
		t.publish(true)
		return
	}

	if r.idleErr != nil {
		t.recordError(ctx, "idle", r.idleErr)
	} else {
		t.clearError("idle")
	}

	if r.appErr != nil {
		t.counters.TicksSkipped++
		t.recordError(ctx, "foreground", r.appErr)
		t.publish(true)
		return
	}
	t.clearError("foreground")
	t.clearError("tick")

	t.observe(ctx, Sample{
		Time: now,
		App:  r.app,
		Idle: r.idle.IsIdle(thresholdSeconds(t.settings.IdleThreshold)),
	})
	t.counters.SecondsIdle = r.idle.SecondsSinceInput
	t.publish(true)
}

func (t *Tracker) observe(ctx context.Context, s Sample) {
	prev := t.state

	var sessions []models.Session
	t.state, sessions = t.acc.Observe(prev, s)

	for _, session := range sessions {
		t.persist(ctx, session)
	}

	wasOpen := prev.Open
	if prev.Open && t.acc.interrupted(prev, s.Time) {
		// the session ended at the last sample before the gap
		t.wentIdle(prev.LastSample)
		wasOpen = false
	}

	switch {
	case wasOpen && !t.state.Open:
		t.wentIdle(s.Time)

	case !wasOpen && t.state.Open:
		t.becameActive(s.Time)

	case !wasOpen && !t.state.Open && t.idleSince.IsZero():
		t.idleSince = s.Time
	}
}

func (t *Tracker) wentIdle(at time.Time) {
	t.idleSince = at
	t.emit(Event{Kind: EventWentIdle, Time: at, Duration: at.Sub(t.activeSince)})
}

func (t *Tracker) becameActive(at time.Time) {
	if !t.idleSince.IsZero() {
		idle := at.Sub(t.idleSince)
		if idle < 0 {
			idle = 0
		}
		t.emit(Event{Kind: EventBecameActive, Time: at, Duration: idle})
	}
	t.activeSince = at
	t.idleSince = time.Time{}
}

// flush closes the open session at the current time
func (t *Tracker) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	var sessions []models.Session
	t.state, sessions = t.acc.Close(t.state, t.clock.Now())
	for _, session := range sessions {
		t.persist(ctx, session)
	}
	t.activeSince = time.Time{}
	t.idleSince = time.Time{}
	t.publish(false)
}

// persist hands s to the store. A failed append drops the session.
func (t *Tracker) persist(ctx context.Context, s models.Session) {
	// a stop arriving mid-append must not abort the write
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	s.ID = uuid.NewString()

	if err := t.store.Append(ctx, s); err != nil {
		t.counters.SessionsDropped++
		t.logger.Printf("Failed to save session for %s (%.1fs dropped): %v", s.AppName, s.Duration, err)
		t.emit(Event{Kind: EventStoreError, Time: s.EndTime, Session: &s, Err: err})
		t.recordError(ctx, "store", err)
		return
	}

	t.counters.SessionsSaved++
	t.clearError("store")
	t.emit(Event{Kind: EventSessionSaved, Time: s.EndTime, Session: &s})
}

// recordError logs err and stores it unless it repeats the last error of
// the same source
func (t *Tracker) recordError(ctx context.Context, source string, err error) {
	msg := err.Error()
	if t.lastErr[source] == msg {
		return
	}
	t.lastErr[source] = msg
	t.logger.Printf("Tracker %s error: %v", source, err)

	if ctx.Err() != nil {
		return
	}
	entry := models.ErrorLog{Timestamp: t.clock.Now(), Source: source, ErrorMsg: msg}
	if dbErr := t.store.RecordError(ctx, entry); dbErr != nil {
		t.logger.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	}
}

func (t *Tracker) clearError(source string) {
	delete(t.lastErr, source)
}

func (t *Tracker) publish(tracking bool) {
	st := t.counters
	st.Tracking = tracking
	st.EventsDropped = t.eventsDropped.Load()
	st.LastSampleTime = t.state.LastSample
	if t.state.Open {
		st.CurrentlyIdle = false
		st.CurrentApp = t.state.App.AppName
		st.CurrentTitle = t.state.App.WindowTitle
		st.SessionOpenSince = t.state.Start
	} else {
		st.CurrentlyIdle = tracking && !t.state.LastSample.IsZero()
		st.IdleSince = t.idleSince
	}
	t.status.Store(&st)
}
