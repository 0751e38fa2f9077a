package models

import "time"

// CourseSummary is the cached per-(student, course) rollup. It is derived
// state: every column except the pair itself can be dropped and recomputed
// from Submission and Assignment rows. NeedsRebuild marks rows invalidated by
// a submission write; writers set it explicitly on every insert (a column
// default would make gorm drop the false written by a rebuild).
type CourseSummary struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StudentID       uint      `gorm:"not null;uniqueIndex:idx_summary_pair" json:"student_id"`
	CourseID        uint      `gorm:"not null;uniqueIndex:idx_summary_pair" json:"course_id"`
	TotalAssigned   int       `gorm:"not null;default:0" json:"total_assigned"`
	TotalSubmitted  int       `gorm:"not null;default:0" json:"total_submitted"`
	TotalMissing    int       `gorm:"not null;default:0" json:"total_missing"`
	TotalLate       int       `gorm:"not null;default:0" json:"total_late"`
	TotalGraded     int       `gorm:"not null;default:0" json:"total_graded"`
	AvgSubmittedPct *float64  `json:"avg_submitted_pct"`
	AvgAllPct       *float64  `json:"avg_all_pct"`
	PointsEarned    float64   `gorm:"not null;default:0" json:"points_earned"`
	PointsPossible  float64   `gorm:"not null;default:0" json:"points_possible"`
	NeedsRebuild    bool      `gorm:"not null" json:"needs_rebuild"`
	LastSynced      time.Time `json:"last_synced"`
	Student         Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Course          Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
