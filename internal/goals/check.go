package goals

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/pkg/utils"
)

type Kind string

const (
	DailyLimitExceeded Kind = "daily_limit_exceeded"
	DailyLimitWarning  Kind = "daily_limit_warning"
	AppLimitExceeded   Kind = "app_limit_exceeded"
	AppLimitWarning    Kind = "app_limit_warning"
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Warning is one limit that is close to or past its value
type Warning struct {
	Kind     Kind          `json:"kind"`
	App      string        `json:"app,omitempty"`
	Severity Severity      `json:"severity"`
	Used     time.Duration `json:"used"`
	Limit    time.Duration `json:"limit"`
	Progress float64       `json:"progress"`
	Message  string        `json:"message"`
}

// ID identifies the warning for notification de-duplication
func (w Warning) ID() string {
	if w.App == "" {
		return string(w.Kind)
	}
	return string(w.Kind) + ":" + w.App
}

// UsageSource is satisfied by database.Store
type UsageSource interface {
	QueryByDate(ctx context.Context, date string) ([]models.AppUsage, error)
}

// Checker evaluates goals against stored usage and remembers which warnings
// it already notified about in the current hour.
type Checker struct {
	source UsageSource
	goals  *Manager
	now    func() time.Time

	mu   sync.Mutex
	sent map[string]string // warning ID -> hour it was last notified
}

func NewChecker(source UsageSource, goals *Manager) *Checker {
	return &Checker{
		source: source,
		goals:  goals,
		now:    time.Now,
		sent:   make(map[string]string),
	}
}

// Check returns every warning for date (YYYY-MM-DD), the daily limit first
// and then apps by name
func (c *Checker) Check(ctx context.Context, date string) ([]Warning, error) {
	settings := c.goals.Settings()
	if !settings.DailyLimitEnabled && !settings.AppLimitsEnabled {
		return nil, nil
	}

	usage, err := c.source.QueryByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("querying usage for %s: %w", date, err)
	}
	return Evaluate(settings, usage), nil
}

// Evaluate applies settings to one day's per-app usage
func Evaluate(settings Settings, usage []models.AppUsage) []Warning {
	var warnings []Warning

	if settings.DailyLimitEnabled {
		var total float64
		for _, u := range usage {
			total += u.TotalSeconds
		}
		if w, ok := evaluate(settings, "", seconds(total), settings.DailyLimit); ok {
			warnings = append(warnings, w)
		}
	}

	if settings.AppLimitsEnabled && len(settings.AppLimits) > 0 {
		used := make(map[string]float64)
		for _, u := range usage {
			used[appKey(u.AppName)] += u.TotalSeconds
		}
		apps := make([]string, 0, len(used))
		for app := range used {
			apps = append(apps, app)
		}
		sort.Strings(apps)

		for _, app := range apps {
			limit, ok := settings.AppLimits[app]
			if !ok {
				continue
			}
			if w, ok := evaluate(settings, app, seconds(used[app]), limit); ok {
				warnings = append(warnings, w)
			}
		}
	}
	return warnings
}

func evaluate(settings Settings, app string, used, limit time.Duration) (Warning, bool) {
	if limit <= 0 {
		return Warning{}, false
	}
	progress := float64(used) / float64(limit)

	w := Warning{App: app, Used: used, Limit: limit, Progress: progress}
	label := "Daily screen time"
	if app != "" {
		label = app
	}

	switch {
	case progress >= 1:
		w.Severity = SeverityCritical
		w.Kind = DailyLimitExceeded
		if app != "" {
			w.Kind = AppLimitExceeded
		}
		w.Message = fmt.Sprintf("%s: limit exceeded (%s / %s)", label,
			utils.FormatDuration(used.Seconds()), utils.FormatDuration(limit.Seconds()))
	case progress >= settings.WarnAt:
		w.Severity = SeverityWarning
		w.Kind = DailyLimitWarning
		if app != "" {
			w.Kind = AppLimitWarning
		}
		w.Message = fmt.Sprintf("%s: approaching limit (%d%% used)", label, int(progress*100))
	default:
		return Warning{}, false
	}
	return w, true
}

// Pending checks date and returns only the warnings not yet notified in the
// current hour. It returns nothing when notifications are disabled.
func (c *Checker) Pending(ctx context.Context, date string) ([]Warning, error) {
	if !c.goals.Settings().NotificationsEnabled {
		return nil, nil
	}

	warnings, err := c.Check(ctx, date)
	if err != nil {
		return nil, err
	}

	var due []Warning
	for _, w := range warnings {
		if c.ShouldNotify(w) {
			due = append(due, w)
		}
	}
	return due, nil
}

// ShouldNotify reports whether w has not been notified in the current hour
// and marks it notified
func (c *Checker) ShouldNotify(w Warning) bool {
	hour := c.now().Format("2006-01-02-15")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sent[w.ID()] == hour {
		return false
	}
	c.sent[w.ID()] = hour
	return true
}

// ResetNotifications forgets every notified warning
func (c *Checker) ResetNotifications() {
	c.mu.Lock()
	c.sent = make(map[string]string)
	c.mu.Unlock()
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
