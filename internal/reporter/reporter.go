package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/actionsum/activetime/internal/category"
	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/pkg/utils"

	"github.com/jinzhu/now"
)

// streakLimit bounds how far back Streak looks
const streakLimit = 365

// productiveScore is the score at which a day counts toward a streak
const productiveScore = 50

// Querier is the read side of the tracking store
type Querier interface {
	QueryRange(ctx context.Context, from, to string) (map[string]models.DailySummary, error)
	QueryAppsInRange(ctx context.Context, from, to string) ([]models.AppUsage, error)
}

// Categorizer maps app names to categories
type Categorizer interface {
	CategoryOf(appName string) category.Category
}

// Reporter handles report generation
type Reporter struct {
	store      Querier
	categories Categorizer
	loc        *time.Location
	now        func() time.Time
}

// New creates a new reporter. Periods are computed in loc.
func New(store Querier, categories Categorizer, loc *time.Location) *Reporter {
	if loc == nil {
		loc = time.Local
	}
	if categories == nil {
		categories = category.NewManager()
	}
	return &Reporter{
		store:      store,
		categories: categories,
		loc:        loc,
		now:        time.Now,
	}
}

// GenerateReport generates a report for the specified period containing now
func (r *Reporter) GenerateReport(ctx context.Context, periodType string) (*models.Report, error) {
	return r.ReportAt(ctx, periodType, r.now())
}

// ReportAt generates a report for the period containing at
func (r *Reporter) ReportAt(ctx context.Context, periodType string, at time.Time) (*models.Report, error) {
	period, err := r.Period(periodType, at)
	if err != nil {
		return nil, err
	}
	return r.ReportRange(ctx, *period, at)
}

// ReportRange builds a report over period. Days after at do not count
// toward the daily average.
func (r *Reporter) ReportRange(ctx context.Context, period models.ReportPeriod, at time.Time) (*models.Report, error) {
	from := models.DateOf(period.Start)
	to := models.DateOf(period.End.Add(-time.Nanosecond))

	usage, err := r.store.QueryAppsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get app usage: %w", err)
	}

	byDate, err := r.store.QueryRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily summaries: %w", err)
	}

	apps := r.summarizeApps(usage)

	var totalSeconds float64
	for _, app := range apps {
		totalSeconds += app.TotalSeconds
	}

	days := make([]models.DailySummary, 0, len(byDate))
	for _, day := range byDate {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	report := &models.Report{
		Period:            period,
		Apps:              apps,
		Categories:        summarizeCategories(apps, totalSeconds),
		Days:              days,
		TotalSeconds:      totalSeconds,
		TotalMinutes:      totalSeconds / 60.0,
		TotalHours:        totalSeconds / 3600.0,
		ActiveDays:        len(days),
		ProductivityScore: ProductivityScore(apps),
		GeneratedAt:       r.now(),
	}
	if len(apps) > 0 {
		report.TopApp = apps[0].AppName
	}
	if elapsed := elapsedDays(period, at.In(r.loc)); elapsed > 0 {
		report.DailyAverage = totalSeconds / float64(elapsed)
	}

	return report, nil
}

// summarizeApps keeps the store's order: longest first, ties by name
func (r *Reporter) summarizeApps(usage []models.AppUsage) []models.AppSummary {
	var totalSeconds float64
	for _, u := range usage {
		totalSeconds += u.TotalSeconds
	}

	apps := make([]models.AppSummary, 0, len(usage))
	for _, u := range usage {
		app := models.AppSummary{
			AppName:      u.AppName,
			Category:     string(r.categories.CategoryOf(u.AppName)),
			TotalSeconds: u.TotalSeconds,
			TotalMinutes: u.TotalSeconds / 60.0,
			TotalHours:   u.TotalSeconds / 3600.0,
			SessionCount: u.SessionCount,
		}
		if totalSeconds > 0 {
			app.Percentage = (u.TotalSeconds / totalSeconds) * 100.0
		}
		apps = append(apps, app)
	}
	return apps
}

func summarizeCategories(apps []models.AppSummary, totalSeconds float64) []models.CategorySummary {
	totals := make(map[string]float64)
	for _, app := range apps {
		totals[app.Category] += app.TotalSeconds
	}

	summaries := make([]models.CategorySummary, 0, len(totals))
	for _, cat := range category.Categories() {
		seconds, ok := totals[string(cat)]
		if !ok {
			continue
		}
		summary := models.CategorySummary{Category: string(cat), TotalSeconds: seconds}
		if totalSeconds > 0 {
			summary.Percentage = seconds / totalSeconds * 100.0
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalSeconds > summaries[j].TotalSeconds
	})
	return summaries
}

// ProductivityScore weights each app's time by its category and maps the
// result onto 0..100 around a neutral 50, rounded to one decimal
func ProductivityScore(apps []models.AppSummary) float64 {
	var total, weighted float64
	for _, app := range apps {
		total += app.TotalSeconds
		weighted += app.TotalSeconds * category.Category(app.Category).Weight()
	}
	if total == 0 {
		return 50
	}

	score := 50 + (weighted/total)*100
	score = math.Max(0, math.Min(100, score))
	return math.Round(score*10) / 10
}

// Streak counts consecutive days ending at the day of at whose score is
// at least 50. Days without activity end the streak.
func (r *Reporter) Streak(ctx context.Context, at time.Time) (int, error) {
	day := now.With(at.In(r.loc)).BeginningOfDay()

	streak := 0
	for i := 0; i < streakLimit; i++ {
		date := models.DateOf(day.AddDate(0, 0, -i))
		usage, err := r.store.QueryAppsInRange(ctx, date, date)
		if err != nil {
			return 0, fmt.Errorf("failed to get app usage for %s: %w", date, err)
		}
		if len(usage) == 0 || ProductivityScore(r.summarizeApps(usage)) < productiveScore {
			break
		}
		streak++
	}
	return streak, nil
}

// Period calculates the time range for the report. Weeks start on Monday.
func (r *Reporter) Period(periodType string, at time.Time) (*models.ReportPeriod, error) {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: r.loc}
	t := cfg.With(at.In(r.loc))

	var start, end time.Time
	switch periodType {
	case "day", "today":
		periodType = "day"
		start = t.BeginningOfDay()
		end = start.AddDate(0, 0, 1)

	case "yesterday":
		start = t.BeginningOfDay().AddDate(0, 0, -1)
		end = start.AddDate(0, 0, 1)

	case "week":
		start = t.BeginningOfWeek()
		end = start.AddDate(0, 0, 7)

	case "month":
		start = t.BeginningOfMonth()
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, yesterday, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// RangePeriod builds a custom period covering from..to inclusive
func (r *Reporter) RangePeriod(from, to string) (*models.ReportPeriod, error) {
	start, err := models.ParseDate(from, r.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	last, err := models.ParseDate(to, r.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if last.Before(start) {
		return nil, fmt.Errorf("from %s is after to %s", from, to)
	}
	return &models.ReportPeriod{Start: start, End: last.AddDate(0, 0, 1), Type: "range"}, nil
}

// elapsedDays counts the calendar days of period up to and including at
func elapsedDays(period models.ReportPeriod, at time.Time) int {
	end := period.End
	if cutoff := models.NextMidnight(at); cutoff.Before(end) {
		end = cutoff
	}

	days := 0
	for d := period.Start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Activity Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total Time: %s (%.2fh)\n", utils.FormatDuration(report.TotalSeconds), report.TotalHours)

	if len(report.Apps) == 0 {
		b.WriteString("\nNo activity recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Active Days: %d  Daily Average: %s  Productivity: %.1f/100\n\n",
		report.ActiveDays, utils.FormatDuration(report.DailyAverage), report.ProductivityScore)

	fmt.Fprintf(&b, "%-30s %-14s %10s %10s %9s\n", "Application", "Category", "Time", "Sessions", "Percent")
	b.WriteString(strings.Repeat("-", 80) + "\n")

	for _, app := range report.Apps {
		fmt.Fprintf(&b, "%-30s %-14s %10s %10d %8.1f%%\n",
			truncate(app.AppName, 30),
			app.Category,
			utils.FormatDuration(app.TotalSeconds),
			app.SessionCount,
			app.Percentage)
	}

	if len(report.Categories) > 0 {
		b.WriteString("\nBy category:\n")
		for _, cat := range report.Categories {
			fmt.Fprintf(&b, "  %-14s %10s %8.1f%%\n", cat.Category, utils.FormatDuration(cat.TotalSeconds), cat.Percentage)
		}
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
