package models

import "time"

// SyncLog is the append-only audit trail of reconciliation passes. Rows are
// never mutated.
type SyncLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    *uint     `json:"course_id,omitempty"`
	Source      string    `gorm:"size:128;not null" json:"source"`
	RowsAdded   int       `gorm:"not null;default:0" json:"rows_added"`
	RowsUpdated int       `gorm:"not null;default:0" json:"rows_updated"`
	Notes       string    `gorm:"type:text" json:"notes"`
	SyncedAt    time.Time `gorm:"autoCreateTime" json:"synced_at"`
}
