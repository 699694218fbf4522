package models

import "time"

type AppSummary struct {
	AppName      string  `json:"app_name"`
	Category     string  `json:"category"`
	TotalSeconds float64 `json:"total_seconds"`
	TotalMinutes float64 `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	SessionCount int     `json:"session_count"`
	Percentage   float64 `json:"percentage,omitempty"`
}

type CategorySummary struct {
	Category     string  `json:"category"`
	TotalSeconds float64 `json:"total_seconds"`
	Percentage   float64 `json:"percentage"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period            ReportPeriod      `json:"period"`
	Apps              []AppSummary      `json:"apps"`
	Categories        []CategorySummary `json:"categories"`
	Days              []DailySummary    `json:"days"`
	TotalSeconds      float64           `json:"total_seconds"`
	TotalMinutes      float64           `json:"total_minutes"`
	TotalHours        float64           `json:"total_hours"`
	ActiveDays        int               `json:"active_days"`
	DailyAverage      float64           `json:"daily_average_seconds"`
	TopApp            string            `json:"top_app,omitempty"`
	ProductivityScore float64           `json:"productivity_score"`
	GeneratedAt       time.Time         `json:"generated_at"`
}
