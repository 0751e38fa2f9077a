package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/grading"
	"github.com/classpulse/classpulse-api/internal/models"
)

var (
	// ErrNotFlaggable is returned when a student flags work that does not
	// currently count as missing.
	ErrNotFlaggable = errors.New("submission is not effectively missing")
	// ErrAlreadyFlagged is returned on a duplicate unresolved flag.
	ErrAlreadyFlagged = errors.New("submission already has a pending flag")
)

// PendingFlag is one unresolved student flag with its display context.
type PendingFlag struct {
	SubmissionID    uint       `json:"submission_id"`
	StudentID       uint       `json:"student_id"`
	StudentName     string     `json:"student_name"`
	AssignmentID    uint       `json:"assignment_id"`
	AssignmentTitle string     `json:"assignment_title"`
	CourseID        uint       `json:"course_id"`
	FlagNote        *string    `json:"flag_note"`
	FlaggedAt       *time.Time `json:"flagged_at"`
}

// FlagRepository manages the student dispute workflow over submissions.
type FlagRepository interface {
	Flag(ctx context.Context, studentID, assignmentID uint, note *string) (models.Submission, error)
	PendingFlags(ctx context.Context, courseID *uint) ([]PendingFlag, error)
	Verify(ctx context.Context, submissionID uint, approved bool, verifiedBy string) (studentID, courseID uint, err error)
}

type flagRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewFlagRepository instantiates the repository.
func NewFlagRepository(db *gorm.DB) FlagRepository {
	return &flagRepository{db: db, now: time.Now}
}

// Flag records a student dispute on a missing submission. Only work that is
// effectively missing can be flagged. The Flagged status is a display state
// and a later sync pass may overwrite it with fresh feed data; the pending
// flag itself lives in flagged_by_student and survives until a teacher
// resolves it.
func (r *flagRepository) Flag(ctx context.Context, studentID, assignmentID uint, note *string) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}

	if submission.FlaggedByStudent && !submission.FlagVerified {
		return models.Submission{}, ErrAlreadyFlagged
	}
	if !grading.EffectivelyMissing(submission.Status, submission.ScorePoints) {
		return models.Submission{}, ErrNotFlaggable
	}

	flaggedAt := r.now()
	updates := map[string]interface{}{
		"status":             models.StatusFlagged,
		"flagged_by_student": true,
		"flag_note":          note,
		"flagged_at":         flaggedAt,
		"flag_verified":      false,
		"flag_verified_at":   nil,
		"flag_verified_by":   nil,
	}
	if err := r.db.WithContext(ctx).Model(&submission).Updates(updates).Error; err != nil {
		return models.Submission{}, err
	}

	submission.Status = models.StatusFlagged
	submission.FlaggedByStudent = true
	submission.FlagNote = note
	submission.FlaggedAt = &flaggedAt
	submission.FlagVerified = false
	return submission, nil
}

func (r *flagRepository) PendingFlags(ctx context.Context, courseID *uint) ([]PendingFlag, error) {
	query := r.db.WithContext(ctx).
		Table("submissions sub").
		Select(`sub.id AS submission_id,
			sub.student_id AS student_id,
			students.full_name AS student_name,
			sub.assignment_id AS assignment_id,
			assignments.title AS assignment_title,
			assignments.course_id AS course_id,
			sub.flag_note AS flag_note,
			sub.flagged_at AS flagged_at`).
		Joins("JOIN students ON students.id = sub.student_id").
		Joins("JOIN assignments ON assignments.id = sub.assignment_id").
		Where("sub.flagged_by_student = ? AND sub.flag_verified = ?", true, false).
		Order("sub.flagged_at ASC")
	if courseID != nil {
		query = query.Where("assignments.course_id = ?", *courseID)
	}

	var flags []PendingFlag
	if err := query.Scan(&flags).Error; err != nil {
		return nil, err
	}
	return flags, nil
}

// Verify resolves a pending flag. Approval credits the work as Submitted;
// denial reverts it to Missing. Either way the flag is closed and the
// affected pair is returned so the caller can invalidate its summary.
func (r *flagRepository) Verify(ctx context.Context, submissionID uint, approved bool, verifiedBy string) (uint, uint, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).First(&submission, submissionID).Error
	if err != nil {
		return 0, 0, err
	}
	if !submission.FlaggedByStudent || submission.FlagVerified {
		return 0, 0, gorm.ErrRecordNotFound
	}

	status := models.StatusMissing
	if approved {
		status = models.StatusSubmitted
	}
	verifiedAt := r.now()
	updates := map[string]interface{}{
		"status":           status,
		"flag_verified":    true,
		"flag_verified_at": verifiedAt,
		"flag_verified_by": verifiedBy,
	}
	if !approved {
		updates["flagged_by_student"] = false
	}
	if err := r.db.WithContext(ctx).Model(&submission).Updates(updates).Error; err != nil {
		return 0, 0, err
	}

	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, submission.AssignmentID).Error; err != nil {
		return 0, 0, err
	}
	return submission.StudentID, assignment.CourseID, nil
}
