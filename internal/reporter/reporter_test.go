package reporter

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/actionsum/activetime/internal/category"
	"github.com/actionsum/activetime/internal/database"
	"github.com/actionsum/activetime/internal/models"
)

// 2025-03-12 is a Wednesday
var wednesday = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func newTestReporter(t *testing.T, sessions ...models.Session) (*Reporter, *database.MemoryStore) {
	t.Helper()

	store := database.NewMemoryStore()
	for _, s := range sessions {
		if err := store.Append(context.Background(), s); err != nil {
			t.Fatalf("Append(%s) failed: %v", s.AppName, err)
		}
	}

	r := New(store, category.NewManager(), time.UTC)
	r.now = func() time.Time { return wednesday }
	return r, store
}

func session(app string, start time.Time, d time.Duration) models.Session {
	return models.Session{
		AppName:     app,
		WindowTitle: app,
		StartTime:   start,
		EndTime:     start.Add(d),
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestPeriod(t *testing.T) {
	r, _ := newTestReporter(t)

	tests := []struct {
		periodType string
		wantStart  string
		wantEnd    string
		wantType   string
	}{
		{"day", "2025-03-12", "2025-03-13", "day"},
		{"today", "2025-03-12", "2025-03-13", "day"},
		{"yesterday", "2025-03-11", "2025-03-12", "yesterday"},
		{"week", "2025-03-10", "2025-03-17", "week"},
		{"month", "2025-03-01", "2025-04-01", "month"},
	}

	for _, tt := range tests {
		t.Run(tt.periodType, func(t *testing.T) {
			period, err := r.Period(tt.periodType, wednesday)
			if err != nil {
				t.Fatalf("Period() error = %v", err)
			}
			if got := models.DateOf(period.Start); got != tt.wantStart {
				t.Errorf("Start = %s, want %s", got, tt.wantStart)
			}
			if got := models.DateOf(period.End); got != tt.wantEnd {
				t.Errorf("End = %s, want %s", got, tt.wantEnd)
			}
			if period.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", period.Type, tt.wantType)
			}
		})
	}

	if _, err := r.Period("fortnight", wednesday); err == nil {
		t.Error("Period(fortnight) expected error")
	}
}

func TestPeriod_WeekStartsMonday(t *testing.T) {
	r, _ := newTestReporter(t)

	sunday := time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC)
	period, err := r.Period("week", sunday)
	if err != nil {
		t.Fatalf("Period() error = %v", err)
	}
	if got := models.DateOf(period.Start); got != "2025-03-10" {
		t.Errorf("week of Sunday starts %s, want 2025-03-10", got)
	}
}

func TestReportAt_Day(t *testing.T) {
	day := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	r, _ := newTestReporter(t,
		session("code", day, time.Hour),
		session("firefox", day.Add(time.Hour), 30*time.Minute),
		session("code", day.Add(2*time.Hour), 30*time.Minute),
		// previous day is outside the period
		session("spotify", day.AddDate(0, 0, -1), time.Hour),
	)

	report, err := r.ReportAt(context.Background(), "day", wednesday)
	if err != nil {
		t.Fatalf("ReportAt() error = %v", err)
	}

	if len(report.Apps) != 2 {
		t.Fatalf("expected 2 apps, got %d: %+v", len(report.Apps), report.Apps)
	}
	if report.TopApp != "code" {
		t.Errorf("TopApp = %s, want code", report.TopApp)
	}
	if !near(report.TotalSeconds, 7200) {
		t.Errorf("TotalSeconds = %v, want 7200", report.TotalSeconds)
	}
	if !near(report.TotalHours, 2) {
		t.Errorf("TotalHours = %v, want 2", report.TotalHours)
	}

	code := report.Apps[0]
	if code.AppName != "code" || code.SessionCount != 2 || !near(code.Percentage, 75) {
		t.Errorf("unexpected code summary: %+v", code)
	}
	if code.Category != string(category.Productive) {
		t.Errorf("code category = %s, want productive", code.Category)
	}
	if report.Apps[1].Category != string(category.Neutral) {
		t.Errorf("firefox category = %s, want neutral", report.Apps[1].Category)
	}

	if len(report.Categories) != 2 || report.Categories[0].Category != string(category.Productive) {
		t.Errorf("unexpected categories: %+v", report.Categories)
	}
	if report.ActiveDays != 1 || len(report.Days) != 1 {
		t.Errorf("ActiveDays = %d, Days = %d, want 1", report.ActiveDays, len(report.Days))
	}
	if !near(report.DailyAverage, 7200) {
		t.Errorf("DailyAverage = %v, want 7200", report.DailyAverage)
	}
}

func TestReportAt_WeekAveragesElapsedDays(t *testing.T) {
	monday := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	r, _ := newTestReporter(t,
		session("code", monday, time.Hour),
		session("code", monday.AddDate(0, 0, 2), 30*time.Minute),
	)

	report, err := r.ReportAt(context.Background(), "week", wednesday)
	if err != nil {
		t.Fatalf("ReportAt() error = %v", err)
	}

	if report.ActiveDays != 2 {
		t.Errorf("ActiveDays = %d, want 2", report.ActiveDays)
	}
	// Monday through Wednesday have elapsed
	if !near(report.DailyAverage, 1800) {
		t.Errorf("DailyAverage = %v, want 1800", report.DailyAverage)
	}
	if len(report.Days) != 2 || report.Days[0].Date != "2025-03-10" || report.Days[1].Date != "2025-03-12" {
		t.Errorf("Days not sorted by date: %+v", report.Days)
	}
}

func TestReportAt_Empty(t *testing.T) {
	r, _ := newTestReporter(t)

	report, err := r.ReportAt(context.Background(), "month", wednesday)
	if err != nil {
		t.Fatalf("ReportAt() error = %v", err)
	}
	if len(report.Apps) != 0 || report.TotalSeconds != 0 || report.TopApp != "" {
		t.Errorf("expected empty report, got %+v", report)
	}
	if report.ProductivityScore != 50 {
		t.Errorf("ProductivityScore = %v, want 50", report.ProductivityScore)
	}

	text := r.FormatReportText(report)
	if !strings.Contains(text, "No activity recorded") {
		t.Errorf("text report missing empty notice:\n%s", text)
	}
}

func TestProductivityScore(t *testing.T) {
	app := func(cat category.Category, seconds float64) models.AppSummary {
		return models.AppSummary{AppName: string(cat), Category: string(cat), TotalSeconds: seconds}
	}

	tests := []struct {
		name string
		apps []models.AppSummary
		want float64
	}{
		{"no activity", nil, 50},
		{"only entertainment", []models.AppSummary{app(category.Entertainment, 3600)}, 20},
		{"only social", []models.AppSummary{app(category.Social, 600)}, 30},
		{"only uncategorized", []models.AppSummary{app(category.Uncategorized, 600)}, 50},
		{"productive clamps to 100", []models.AppSummary{app(category.Productive, 60)}, 100},
		{"half productive half entertainment", []models.AppSummary{
			app(category.Productive, 1800),
			app(category.Entertainment, 1800),
		}, 85},
		{"rounded to one decimal", []models.AppSummary{
			app(category.Social, 1000),
			app(category.Uncategorized, 2000),
		}, 43.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProductivityScore(tt.apps); got != tt.want {
				t.Errorf("ProductivityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreak(t *testing.T) {
	monday := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	r, _ := newTestReporter(t,
		session("spotify", monday, time.Hour),
		session("code", monday.AddDate(0, 0, 1), time.Hour),
		session("code", monday.AddDate(0, 0, 2), time.Hour),
		session("spotify", monday.AddDate(0, 0, 2).Add(time.Hour), 10*time.Minute),
	)

	streak, err := r.Streak(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("Streak() error = %v", err)
	}
	if streak != 2 {
		t.Errorf("Streak() = %d, want 2", streak)
	}

	// no activity on Thursday ends the streak at zero
	streak, err = r.Streak(context.Background(), wednesday.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Streak() error = %v", err)
	}
	if streak != 0 {
		t.Errorf("Streak() on an empty day = %d, want 0", streak)
	}
}

func TestRangePeriod(t *testing.T) {
	r, _ := newTestReporter(t)

	period, err := r.RangePeriod("2025-03-01", "2025-03-03")
	if err != nil {
		t.Fatalf("RangePeriod() error = %v", err)
	}
	if got := models.DateOf(period.End); got != "2025-03-04" {
		t.Errorf("End = %s, want 2025-03-04", got)
	}

	if _, err := r.RangePeriod("2025-03-05", "2025-03-01"); err == nil {
		t.Error("expected error for reversed range")
	}
	if _, err := r.RangePeriod("03/01/2025", "2025-03-01"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestFormatReport(t *testing.T) {
	day := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	r, _ := newTestReporter(t,
		session("a-very-long-application-name-that-overflows", day, 90*time.Minute),
		session("code", day.Add(2*time.Hour), 45*time.Second),
	)

	report, err := r.ReportAt(context.Background(), "day", wednesday)
	if err != nil {
		t.Fatalf("ReportAt() error = %v", err)
	}

	text := r.FormatReportText(report)
	for _, want := range []string{"Activity Report - day", "1h30m", "45s", "a-very-long-application-nam...", "By category:"} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q:\n%s", want, text)
		}
	}

	js, err := r.FormatReportJSON(report)
	if err != nil {
		t.Fatalf("FormatReportJSON() error = %v", err)
	}
	if !strings.Contains(js, `"top_app": "a-very-long-application-name-that-overflows"`) {
		t.Errorf("JSON report missing top_app:\n%s", js)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("abcdefghijkl", 10); got != "abcdefg..." {
		t.Errorf("truncate() = %q, want abcdefg...", got)
	}
}
