package database

import (
	"context"
	"time"

	"github.com/actionsum/activetime/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the SQLite-backed Store
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Append persists s and refreshes its date's summary in one transaction
func (r *Repository) Append(ctx context.Context, s models.Session) error {
	if err := validateSession(&s); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&s).Error; err != nil {
			return errors.Wrap(err, "failed to insert session")
		}

		if s.Browser != nil {
			visit := models.BrowserVisit{
				SessionID:   s.ID,
				BrowserName: s.Browser.BrowserName,
				TabTitle:    s.Browser.TabTitle,
				URL:         s.Browser.URL,
				Domain:      s.Browser.Domain,
				StartTime:   s.StartTime,
				EndTime:     s.EndTime,
				Duration:    s.Duration,
				Date:        s.Date,
			}
			if err := tx.Create(&visit).Error; err != nil {
				return errors.Wrap(err, "failed to insert browser visit")
			}
		}

		usage, err := appUsageByDate(tx, s.Date)
		if err != nil {
			return err
		}
		summary := summarize(s.Date, usage)

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_active_seconds", "top_app_name", "top_app_seconds", "session_count", "updated_at"}),
		}).Create(&summary)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to upsert daily summary")
		}
		return nil
	})

	return writeError("append", err)
}

func appUsageByDate(tx *gorm.DB, date string) ([]models.AppUsage, error) {
	var usage []models.AppUsage
	result := tx.Model(&models.Session{}).
		Select("app_name, SUM(duration) AS total_seconds, COUNT(*) AS session_count").
		Where("date = ?", date).
		Group("app_name").
		Order("total_seconds DESC, app_name ASC").
		Scan(&usage)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query app usage")
	}
	return usage, nil
}

// QueryByDate returns per-app totals for date, longest first
func (r *Repository) QueryByDate(ctx context.Context, date string) ([]models.AppUsage, error) {
	if err := checkDate("query_by_date", date); err != nil {
		return nil, err
	}
	usage, err := appUsageByDate(r.db.WithContext(ctx), date)
	if err != nil {
		return nil, err
	}
	if usage == nil {
		usage = []models.AppUsage{}
	}
	return usage, nil
}

// QueryRange returns the daily summaries for from..to inclusive. Dates with
// no tracked time are absent from the map.
func (r *Repository) QueryRange(ctx context.Context, from, to string) (map[string]models.DailySummary, error) {
	if err := checkRange("query_range", from, to); err != nil {
		return nil, err
	}

	var summaries []models.DailySummary
	result := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC").
		Find(&summaries)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query daily summaries")
	}

	byDate := make(map[string]models.DailySummary, len(summaries))
	for _, s := range summaries {
		byDate[s.Date] = s
	}
	return byDate, nil
}

// QueryAppsInRange returns per-app totals across from..to inclusive
func (r *Repository) QueryAppsInRange(ctx context.Context, from, to string) ([]models.AppUsage, error) {
	if err := checkRange("query_apps_in_range", from, to); err != nil {
		return nil, err
	}

	usage := []models.AppUsage{}
	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Select("app_name, SUM(duration) AS total_seconds, COUNT(*) AS session_count").
		Where("date BETWEEN ? AND ?", from, to).
		Group("app_name").
		Order("total_seconds DESC, app_name ASC").
		Scan(&usage)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query app usage")
	}
	return usage, nil
}

// QuerySessions returns the sessions of date in start order
func (r *Repository) QuerySessions(ctx context.Context, date string) ([]models.Session, error) {
	if err := checkDate("query_sessions", date); err != nil {
		return nil, err
	}

	sessions := []models.Session{}
	result := r.db.WithContext(ctx).Where("date = ?", date).Order("start_time ASC").Find(&sessions)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query sessions")
	}
	return sessions, nil
}

// QueryBrowserByDate returns per-tab browser totals for date, longest first
func (r *Repository) QueryBrowserByDate(ctx context.Context, date string) ([]models.BrowserUsage, error) {
	if err := checkDate("query_browser_by_date", date); err != nil {
		return nil, err
	}

	usage := []models.BrowserUsage{}
	result := r.db.WithContext(ctx).Model(&models.BrowserVisit{}).
		Select("browser_name, tab_title, MAX(url) AS url, MAX(domain) AS domain, SUM(duration) AS total_seconds, COUNT(*) AS visit_count").
		Where("date = ?", date).
		Group("browser_name, tab_title").
		Order("total_seconds DESC, tab_title ASC").
		Scan(&usage)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query browser usage")
	}
	return usage, nil
}

// RecordError stores entry, folding it into the latest row when that row
// has the same source and message
func (r *Repository) RecordError(ctx context.Context, entry models.ErrorLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest models.ErrorLog
		result := tx.Where("source = ?", entry.Source).Order("id DESC").Limit(1).Find(&latest)
		if result.Error != nil {
			return errors.Wrap(result.Error, "failed to read error log")
		}

		if result.RowsAffected > 0 && latest.ErrorMsg == entry.ErrorMsg {
			result = tx.Model(&latest).Updates(map[string]interface{}{
				"count":     gorm.Expr("count + 1"),
				"timestamp": entry.Timestamp,
			})
			return errors.Wrap(result.Error, "failed to update error log")
		}

		entry.ID = 0
		if entry.Count == 0 {
			entry.Count = 1
		}
		return errors.Wrap(tx.Create(&entry).Error, "failed to insert error log")
	})

	return writeError("record_error", err)
}

// RecentErrors returns up to limit error rows, newest first
func (r *Repository) RecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	logs := []models.ErrorLog{}
	result := r.db.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error log")
	}
	return logs, nil
}

// ClearAll removes every tracked row and resets autoincrement counters,
// leaving the schema as a fresh Initialize would
func (r *Repository) ClearAll(ctx context.Context) error {
	tables := []string{"browser_visits", "sessions", "daily_summaries", "error_logs"}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return errors.Wrapf(err, "failed to clear %s", table)
			}
		}
		if tx.Migrator().HasTable("sqlite_sequence") {
			if err := tx.Exec("DELETE FROM sqlite_sequence WHERE name IN ?", tables).Error; err != nil {
				return errors.Wrap(err, "failed to reset sequences")
			}
		}
		return nil
	})

	return writeError("clear_all", err)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

var _ Store = (*Repository)(nil)
