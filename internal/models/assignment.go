package models

import "time"

// Assignment is one piece of coursework for a course. MaxScore may be unknown
// at creation and inferred later from graded submissions. IsActive marks
// assignments currently surfaced by a feed; pruned assignments are deleted
// outright, so inactive rows only appear between partial syncs.
type Assignment struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ExternalID string   `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	CourseID   uint     `gorm:"not null" json:"course_id"`
	Title      string   `gorm:"size:512;not null" json:"title"`
	MaxScore   *float64 `json:"max_score"`
	// Upstream creation timestamp, not a gorm-managed column. Set explicitly
	// on insert; fill-forward only on later syncs.
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
