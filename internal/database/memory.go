package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/actionsum/activetime/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. It backs the degraded mode
// used when the database file is unreadable; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions []models.Session
	errors   []models.ErrorLog
	nextErr  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(ctx context.Context, s models.Session) error {
	if err := validateSession(&s); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return writeError("append", err)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Browser != nil {
		tab := *s.Browser
		s.Browser = &tab
	}
	s.CreatedAt = time.Now()

	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) QueryByDate(ctx context.Context, date string) ([]models.AppUsage, error) {
	if err := checkDate("query_by_date", date); err != nil {
		return nil, err
	}
	return m.usage(func(s models.Session) bool { return s.Date == date }), nil
}

func (m *MemoryStore) QueryRange(ctx context.Context, from, to string) (map[string]models.DailySummary, error) {
	if err := checkRange("query_range", from, to); err != nil {
		return nil, err
	}

	m.mu.RLock()
	dates := make(map[string]bool)
	for _, s := range m.sessions {
		if s.Date >= from && s.Date <= to {
			dates[s.Date] = true
		}
	}
	m.mu.RUnlock()

	byDate := make(map[string]models.DailySummary, len(dates))
	for date := range dates {
		d := date
		byDate[d] = summarize(d, m.usage(func(s models.Session) bool { return s.Date == d }))
	}
	return byDate, nil
}

func (m *MemoryStore) QueryAppsInRange(ctx context.Context, from, to string) ([]models.AppUsage, error) {
	if err := checkRange("query_apps_in_range", from, to); err != nil {
		return nil, err
	}
	return m.usage(func(s models.Session) bool { return s.Date >= from && s.Date <= to }), nil
}

func (m *MemoryStore) QuerySessions(ctx context.Context, date string) ([]models.Session, error) {
	if err := checkDate("query_sessions", date); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := []models.Session{}
	for _, s := range m.sessions {
		if s.Date == date {
			sessions = append(sessions, s)
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	return sessions, nil
}

func (m *MemoryStore) QueryBrowserByDate(ctx context.Context, date string) ([]models.BrowserUsage, error) {
	if err := checkDate("query_browser_by_date", date); err != nil {
		return nil, err
	}

	m.mu.RLock()
	type key struct{ browser, title string }
	totals := make(map[key]*models.BrowserUsage)
	for _, s := range m.sessions {
		if s.Date != date || s.Browser == nil {
			continue
		}
		k := key{s.Browser.BrowserName, s.Browser.TabTitle}
		u, ok := totals[k]
		if !ok {
			u = &models.BrowserUsage{BrowserName: k.browser, TabTitle: k.title}
			totals[k] = u
		}
		if s.Browser.URL > u.URL {
			u.URL = s.Browser.URL
		}
		if s.Browser.Domain > u.Domain {
			u.Domain = s.Browser.Domain
		}
		u.TotalSeconds += s.Duration
		u.VisitCount++
	}
	m.mu.RUnlock()

	usage := make([]models.BrowserUsage, 0, len(totals))
	for _, u := range totals {
		usage = append(usage, *u)
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].TotalSeconds != usage[j].TotalSeconds {
			return usage[i].TotalSeconds > usage[j].TotalSeconds
		}
		return usage[i].TabTitle < usage[j].TabTitle
	})
	return usage, nil
}

func (m *MemoryStore) RecordError(ctx context.Context, entry models.ErrorLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.errors) - 1; i >= 0; i-- {
		if m.errors[i].Source != entry.Source {
			continue
		}
		if m.errors[i].ErrorMsg == entry.ErrorMsg {
			m.errors[i].Count++
			m.errors[i].Timestamp = entry.Timestamp
			return nil
		}
		break
	}

	m.nextErr++
	entry.ID = m.nextErr
	if entry.Count == 0 {
		entry.Count = 1
	}
	m.errors = append(m.errors, entry)
	return nil
}

func (m *MemoryStore) RecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	logs := make([]models.ErrorLog, len(m.errors))
	copy(logs, m.errors)
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].Timestamp.Equal(logs[j].Timestamp) {
			return logs[i].Timestamp.After(logs[j].Timestamp)
		}
		return logs[i].ID > logs[j].ID
	})
	if limit >= 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (m *MemoryStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	m.sessions = nil
	m.errors = nil
	m.nextErr = 0
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) usage(match func(models.Session) bool) []models.AppUsage {
	m.mu.RLock()
	totals := make(map[string]*models.AppUsage)
	for _, s := range m.sessions {
		if !match(s) {
			continue
		}
		u, ok := totals[s.AppName]
		if !ok {
			u = &models.AppUsage{AppName: s.AppName}
			totals[s.AppName] = u
		}
		u.TotalSeconds += s.Duration
		u.SessionCount++
	}
	m.mu.RUnlock()

	usage := make([]models.AppUsage, 0, len(totals))
	for _, u := range totals {
		usage = append(usage, *u)
	}
	sortUsage(usage)
	return usage
}

var _ Store = (*MemoryStore)(nil)
