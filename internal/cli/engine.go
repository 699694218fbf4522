package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/actionsum/activetime/internal/browser"
	"github.com/actionsum/activetime/internal/category"
	"github.com/actionsum/activetime/internal/config"
	"github.com/actionsum/activetime/internal/database"
	"github.com/actionsum/activetime/internal/goals"
	"github.com/actionsum/activetime/internal/reporter"
	"github.com/actionsum/activetime/internal/tracker"
	"github.com/actionsum/activetime/internal/web"
	"github.com/actionsum/activetime/pkg/detector"
	"github.com/actionsum/activetime/pkg/utils"
	"github.com/actionsum/activetime/pkg/window"
)

// stopTimeout bounds the final flush on shutdown
const stopTimeout = 10 * time.Second

// openStore opens the database. When the file is corrupt and the memory
// fallback is enabled it returns a MemoryStore and the original error as
// degraded.
func openStore(ctx context.Context, cfg *config.Config) (store database.Store, degraded error, err error) {
	repo, err := openRepository(ctx, cfg)
	if err == nil {
		return repo, nil, nil
	}
	if errors.Is(err, database.ErrCorrupt) && cfg.Tracker.MemoryFallback {
		log.Printf("Database unusable, tracking in memory only: %v", err)
		return database.NewMemoryStore(), err, nil
	}
	return nil, nil, err
}

func openRepository(ctx context.Context, cfg *config.Config) (*database.Repository, error) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return database.NewRepository(db), nil
}

func loadCategories(cfg *config.Config) *category.Manager {
	path, err := cfg.CategoriesPath()
	if err != nil {
		log.Printf("Using default categories: %v", err)
		return category.NewManager()
	}
	cats, err := category.Load(path)
	if err != nil {
		log.Printf("Using default categories: %v", err)
		return category.NewManager()
	}
	return cats
}

func loadGoals(cfg *config.Config) *goals.Manager {
	path, err := cfg.GoalsPath()
	if err != nil {
		log.Printf("Using default goals: %v", err)
		return goals.NewManager()
	}
	m, err := goals.Load(path)
	if err != nil {
		log.Printf("Using default goals: %v", err)
		return goals.NewManager()
	}
	return m
}

func settingsFrom(cfg *config.Config) tracker.Settings {
	return tracker.Settings{
		Interval:      cfg.Tracker.PollInterval,
		IdleThreshold: cfg.Tracker.IdleThreshold,
		SuspendGap:    cfg.Tracker.SuspendGap,
	}
}

// engine is one running tracker with its store and detector
type engine struct {
	cfg      *config.Config
	loc      *time.Location
	store    database.Store
	detector window.Detector
	tracker  *tracker.Tracker
}

func newEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, degraded, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	det := detector.NewOrNull()
	log.Printf("Window detector initialized: %s", det.DisplayServer())

	var tabs tracker.TabResolver
	if cfg.Browser.Enabled {
		tabs = browser.NewResolver(cfg.Browser.DevToolsPorts, cfg.Browser.Timeout)
	}

	opts := []tracker.Option{tracker.WithClock(tracker.SystemClock{Location: loc})}
	if degraded != nil {
		opts = append(opts, tracker.WithStoreFatal(degraded))
	}

	tr := tracker.New(
		tracker.NewIdleMonitor(det),
		tracker.NewForegroundProbe(det, tabs),
		store,
		opts...,
	)

	return &engine{cfg: cfg, loc: loc, store: store, detector: det, tracker: tr}, nil
}

// run tracks, and serves the web API when withWeb is set, until ctx ends
func (e *engine) run(ctx context.Context, withWeb bool) error {
	defer e.close()

	g, gctx := errgroup.WithContext(ctx)

	if err := e.tracker.Start(gctx, settingsFrom(e.cfg)); err != nil {
		return err
	}

	events, unsubscribe := e.tracker.Subscribe(64)
	checker := goals.NewChecker(e.store, loadGoals(e.cfg))
	g.Go(func() error {
		defer unsubscribe()
		logEvents(gctx, events, checker)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return e.tracker.Stop(stopCtx)
	})

	if withWeb {
		rep := reporter.New(e.store, loadCategories(e.cfg), e.loc)
		handler := web.NewHandler(e.store, e.tracker, rep, e.loc)
		server := web.NewServer(e.cfg.WebAddress(), handler)
		g.Go(func() error {
			if err := server.Run(gctx); err != nil {
				return fmt.Errorf("web server: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()
	st := e.tracker.Status()
	log.Printf("Tracker stopped: %d sessions saved, %d dropped, %d ticks skipped, %d events dropped",
		st.SessionsSaved, st.SessionsDropped, st.TicksSkipped, st.EventsDropped)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (e *engine) close() {
	if err := e.detector.Close(); err != nil {
		log.Printf("Failed to close detector: %v", err)
	}
	if err := e.store.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

// logEvents logs tracker events and, after each saved session, any goal
// warning not yet reported this hour
func logEvents(ctx context.Context, events <-chan tracker.Event, checker *goals.Checker) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case tracker.EventWentIdle:
				log.Printf("Went idle after %s active", utils.FormatDuration(ev.Duration.Seconds()))
			case tracker.EventBecameActive:
				log.Printf("Active again after %s idle", utils.FormatDuration(ev.Duration.Seconds()))
			case tracker.EventSessionSaved:
				if checker != nil && ev.Session != nil {
					logGoalWarnings(ctx, checker, ev.Session.Date)
				}
			case tracker.EventStoreError:
				log.Printf("Session dropped: %v", ev.Err)
			case tracker.EventStoreFatal:
				log.Printf("Running without a database: %v", ev.Err)
			}
		}
	}
}

func logGoalWarnings(ctx context.Context, checker *goals.Checker, date string) {
	warnings, err := checker.Pending(ctx, date)
	if err != nil {
		log.Printf("Failed to check goals: %v", err)
		return
	}
	for _, w := range warnings {
		log.Printf("Goal %s: %s", w.Severity, w.Message)
	}
}
