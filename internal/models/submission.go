package models

import "time"

// Submission statuses. These match the upstream export vocabulary exactly; a
// row never stores anything outside this set.
const (
	StatusMissing   = "Missing"
	StatusSubmitted = "Submitted"
	StatusLate      = "Late"
	StatusGraded    = "Graded"
	StatusFlagged   = "Flagged"
)

// AllowedStatuses is the closed set of submission status values.
var AllowedStatuses = map[string]bool{
	StatusMissing:   true,
	StatusSubmitted: true,
	StatusLate:      true,
	StatusGraded:    true,
	StatusFlagged:   true,
}

// Submission is the per-(student, assignment) observation. Rows are created
// lazily on first sight and mutated in place on later syncs. UpdatedAt moves
// only when an observable field actually changes; the staleness check on
// course summaries depends on that.
type Submission struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	StudentID    uint     `gorm:"not null;uniqueIndex:idx_submission_pair" json:"student_id"`
	AssignmentID uint     `gorm:"not null;uniqueIndex:idx_submission_pair" json:"assignment_id"`
	Status       string   `gorm:"size:32;not null" json:"status"`
	ScoreRaw     *string  `gorm:"size:64" json:"score_raw"`
	ScorePoints  *float64 `json:"score_points"`
	ScoreMax     *float64 `json:"score_max"`
	ScorePct     *float64 `json:"score_pct"`

	// Student flag workflow: a student disputes a Missing classification, a
	// teacher approves or denies it.
	FlaggedByStudent bool       `gorm:"not null;default:false" json:"flagged_by_student"`
	FlagNote         *string    `gorm:"type:text" json:"flag_note,omitempty"`
	FlaggedAt        *time.Time `json:"flagged_at,omitempty"`
	FlagVerified     bool       `gorm:"not null;default:false" json:"flag_verified"`
	FlagVerifiedAt   *time.Time `json:"flag_verified_at,omitempty"`
	FlagVerifiedBy   *string    `gorm:"size:255" json:"flag_verified_by,omitempty"`

	ProofFileID     *string    `gorm:"size:255" json:"proof_file_id,omitempty"`
	ProofFileType   *string    `gorm:"size:32" json:"proof_file_type,omitempty"`
	ProofCaption    *string    `gorm:"type:text" json:"proof_caption,omitempty"`
	ProofUploadedAt *time.Time `json:"proof_uploaded_at,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Student    Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Assignment Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// HasScore reports whether a numeric score has been recorded.
func (s Submission) HasScore() bool {
	return s.ScorePoints != nil
}
