package models

import (
	"time"
)

// ErrorLog records a failure the tracker recovered from
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Source    string    `gorm:"not null;default:''" json:"source"` // "idle", "foreground", "store"
	ErrorMsg  string    `gorm:"not null" json:"error_msg"`
	Count     int       `gorm:"not null;default:1" json:"count"` // repeats folded into this row
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
