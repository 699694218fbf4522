package models

import (
	"time"

	"github.com/jinzhu/now"
)

// DateLayout is the calendar-date format used for Session.Date and summary keys
const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's location
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a DateLayout date in loc
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, loc)
}

// NextMidnight returns the first instant of the day after t, in t's location
func NextMidnight(t time.Time) time.Time {
	return now.With(t).BeginningOfDay().AddDate(0, 0, 1)
}

// Session is one contiguous interval of active use of a single app identity
type Session struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	AppName     string    `gorm:"not null;index:idx_sessions_date_app,priority:2" json:"app_name"`
	WindowTitle string    `gorm:"not null" json:"window_title"`
	StartTime   time.Time `gorm:"not null;index" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	Duration    float64   `gorm:"not null" json:"duration"` // Duration in seconds
	Date        string    `gorm:"not null;size:10;index:idx_sessions_date_app,priority:1" json:"date"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Browser is set for sessions of a recognized browser; it is stored in
	// browser_visits, not in the sessions table.
	Browser *BrowserTab `gorm:"-" json:"browser,omitempty"`
}

// Span returns EndTime - StartTime
func (s Session) Span() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// BrowserTab is what the browser sub-probe resolved for a browser window
type BrowserTab struct {
	BrowserName string `json:"browser_name"`
	TabTitle    string `json:"tab_title"`
	URL         string `json:"url,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// BrowserVisit records the browser tab behind a browser session
type BrowserVisit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"not null;size:36;index" json:"session_id"`
	BrowserName string    `gorm:"not null" json:"browser_name"`
	TabTitle    string    `gorm:"not null" json:"tab_title"`
	URL         string    `json:"url"`
	Domain      string    `gorm:"index" json:"domain"`
	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	Duration    float64   `gorm:"not null" json:"duration"`
	Date        string    `gorm:"not null;size:10;index" json:"date"`
}

// DailySummary is the derived per-date aggregate owned by the store
type DailySummary struct {
	Date               string    `gorm:"primaryKey;size:10" json:"date"`
	TotalActiveSeconds float64   `gorm:"not null;default:0" json:"total_active_seconds"`
	TopAppName         string    `json:"top_app_name"`
	TopAppSeconds      float64   `gorm:"not null;default:0" json:"top_app_seconds"`
	SessionCount       int       `gorm:"not null;default:0" json:"session_count"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AppUsage is one row of a per-date usage query
type AppUsage struct {
	AppName      string  `json:"app_name"`
	TotalSeconds float64 `json:"total_seconds"`
	SessionCount int     `json:"session_count"`
}

// BrowserUsage is one row of a per-date browser query
type BrowserUsage struct {
	BrowserName  string  `json:"browser_name"`
	TabTitle     string  `json:"tab_title"`
	URL          string  `json:"url,omitempty"`
	Domain       string  `json:"domain,omitempty"`
	TotalSeconds float64 `json:"total_seconds"`
	VisitCount   int     `json:"visit_count"`
}
