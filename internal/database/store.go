package database

import (
	"context"
	"sort"

	"github.com/actionsum/activetime/internal/models"
)

// Store is the tracking store surface shared by Repository and MemoryStore.
// Append is called only by the tracker; everything else is read or
// explicit user action.
type Store interface {
	Append(ctx context.Context, s models.Session) error
	QueryByDate(ctx context.Context, date string) ([]models.AppUsage, error)
	QueryRange(ctx context.Context, from, to string) (map[string]models.DailySummary, error)
	QueryAppsInRange(ctx context.Context, from, to string) ([]models.AppUsage, error)
	QuerySessions(ctx context.Context, date string) ([]models.Session, error)
	QueryBrowserByDate(ctx context.Context, date string) ([]models.BrowserUsage, error)
	RecordError(ctx context.Context, entry models.ErrorLog) error
	RecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error)
	ClearAll(ctx context.Context) error
	Close() error
}

// sortUsage orders by duration descending, app name ascending on ties
func sortUsage(usage []models.AppUsage) {
	sort.SliceStable(usage, func(i, j int) bool {
		if usage[i].TotalSeconds != usage[j].TotalSeconds {
			return usage[i].TotalSeconds > usage[j].TotalSeconds
		}
		return usage[i].AppName < usage[j].AppName
	})
}

// summarize builds a DailySummary from usage already sorted by sortUsage
func summarize(date string, usage []models.AppUsage) models.DailySummary {
	summary := models.DailySummary{Date: date}
	for _, u := range usage {
		summary.TotalActiveSeconds += u.TotalSeconds
		summary.SessionCount += u.SessionCount
	}
	if len(usage) > 0 {
		summary.TopAppName = usage[0].AppName
		summary.TopAppSeconds = usage[0].TotalSeconds
	}
	return summary
}
