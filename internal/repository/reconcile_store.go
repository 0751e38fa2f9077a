package repository

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/feed"
	"github.com/classpulse/classpulse-api/internal/grading"
	"github.com/classpulse/classpulse-api/internal/models"
)

// ReconcileStats counts the row changes of one or more reconciliation passes.
type ReconcileStats struct {
	CoursesAdded       int `json:"courses_added"`
	CoursesUpdated     int `json:"courses_updated"`
	StudentsAdded      int `json:"students_added"`
	StudentsUpdated    int `json:"students_updated"`
	EnrollmentsAdded   int `json:"enrollments_added"`
	AssignmentsAdded   int `json:"assignments_added"`
	AssignmentsUpdated int `json:"assignments_updated"`
	AssignmentsPruned  int `json:"assignments_pruned"`
	SubmissionsAdded   int `json:"submissions_added"`
	SubmissionsUpdated int `json:"submissions_updated"`
	SummariesMarked    int `json:"summaries_marked"`
	SyncLogsAdded      int `json:"sync_logs_added"`
}

// Merge accumulates another pass's counters into this one.
func (s *ReconcileStats) Merge(other ReconcileStats) {
	s.CoursesAdded += other.CoursesAdded
	s.CoursesUpdated += other.CoursesUpdated
	s.StudentsAdded += other.StudentsAdded
	s.StudentsUpdated += other.StudentsUpdated
	s.EnrollmentsAdded += other.EnrollmentsAdded
	s.AssignmentsAdded += other.AssignmentsAdded
	s.AssignmentsUpdated += other.AssignmentsUpdated
	s.AssignmentsPruned += other.AssignmentsPruned
	s.SubmissionsAdded += other.SubmissionsAdded
	s.SubmissionsUpdated += other.SubmissionsUpdated
	s.SummariesMarked += other.SummariesMarked
	s.SyncLogsAdded += other.SyncLogsAdded
}

// HasChanges reports whether any row was actually written.
func (s ReconcileStats) HasChanges() bool {
	return s != ReconcileStats{}
}

// AssignmentMeta is the merged metadata for one assignment across every
// observation of a feed.
type AssignmentMeta struct {
	Title     string
	MaxScore  *float64
	CreatedAt *time.Time
}

// epochFallback stands in for an unknown upstream creation time so that
// windowed pruning can still reason about the row.
var epochFallback = time.Unix(0, 0).UTC()

// ReconcileStore is the unit of work for one reconciliation pass. It is bound
// to a single transaction; the owning service decides commit or rollback.
type ReconcileStore struct {
	tx *gorm.DB
}

// NewReconcileStore binds a store to an open transaction.
func NewReconcileStore(tx *gorm.DB) *ReconcileStore {
	return &ReconcileStore{tx: tx}
}

// UpsertSchool resolves or creates a school by its unique name.
func (s *ReconcileStore) UpsertSchool(name string) (uint, error) {
	var school models.School
	err := s.tx.Where("name = ?", name).First(&school).Error
	if err == nil {
		return school.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	school = models.School{Name: name}
	if err := s.tx.Create(&school).Error; err != nil {
		return 0, err
	}
	return school.ID, nil
}

// UpsertCourse resolves or creates a course by external id. Name and school
// follow the latest sync.
func (s *ReconcileStore) UpsertCourse(externalID, name string, schoolID uint, stats *ReconcileStats) (uint, error) {
	var course models.Course
	err := s.tx.Where("external_id = ?", externalID).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		course = models.Course{ExternalID: externalID, Name: name, SchoolID: schoolID}
		if err := s.tx.Create(&course).Error; err != nil {
			return 0, err
		}
		stats.CoursesAdded++
		return course.ID, nil
	}
	if err != nil {
		return 0, err
	}

	if course.Name != name || course.SchoolID != schoolID {
		updates := map[string]interface{}{"name": name, "school_id": schoolID}
		if err := s.tx.Model(&models.Course{}).Where("id = ?", course.ID).Updates(updates).Error; err != nil {
			return 0, err
		}
		stats.CoursesUpdated++
	}
	return course.ID, nil
}

// UpsertStudent resolves or creates a student by external id; the full name
// follows the latest sync.
func (s *ReconcileStore) UpsertStudent(externalID, fullName string, stats *ReconcileStats) (uint, error) {
	var student models.Student
	err := s.tx.Where("external_id = ?", externalID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		student = models.Student{ExternalID: externalID, FullName: fullName}
		if err := s.tx.Create(&student).Error; err != nil {
			return 0, err
		}
		stats.StudentsAdded++
		return student.ID, nil
	}
	if err != nil {
		return 0, err
	}

	if student.FullName != fullName {
		if err := s.tx.Model(&models.Student{}).Where("id = ?", student.ID).
			Update("full_name", fullName).Error; err != nil {
			return 0, err
		}
		stats.StudentsUpdated++
	}
	return student.ID, nil
}

// EnsureEnrollment creates the enrollment link on first observation.
// Enrollments are append-only: reconciliation never removes them.
func (s *ReconcileStore) EnsureEnrollment(studentID, courseID uint, stats *ReconcileStats) error {
	var count int64
	if err := s.tx.Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	enrollment := models.Enrollment{StudentID: studentID, CourseID: courseID}
	if err := s.tx.Create(&enrollment).Error; err != nil {
		return err
	}
	stats.EnrollmentsAdded++
	return nil
}

// UpsertAssignment writes merged assignment metadata, applying the
// tie-breaks against the stored row: longer title wins and a non-empty title
// is never replaced by an empty one; max_score keeps the maximum of both
// values (tolerant of partial-grading exports, a heuristic rather than a
// correctness guarantee); created_at is fill-forward only. The row is always
// re-activated.
func (s *ReconcileStore) UpsertAssignment(courseID uint, externalID string, meta AssignmentMeta, stats *ReconcileStats) (uint, error) {
	createdAt := epochFallback
	if meta.CreatedAt != nil {
		createdAt = *meta.CreatedAt
	}
	title := meta.Title
	if title == "" {
		title = externalID
	}

	var assignment models.Assignment
	err := s.tx.Where("external_id = ?", externalID).First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		assignment = models.Assignment{
			ExternalID: externalID,
			CourseID:   courseID,
			Title:      title,
			MaxScore:   meta.MaxScore,
			CreatedAt:  createdAt,
			IsActive:   true,
		}
		if err := s.tx.Create(&assignment).Error; err != nil {
			return 0, err
		}
		stats.AssignmentsAdded++
		return assignment.ID, nil
	}
	if err != nil {
		return 0, err
	}

	updates := map[string]interface{}{}
	if preferred := PickTitle(assignment.Title, title); preferred != assignment.Title {
		updates["title"] = preferred
	}
	if merged := mergeMaxScore(assignment.MaxScore, meta.MaxScore); !floatPtrEqual(merged, assignment.MaxScore) {
		updates["max_score"] = merged
	}
	if (assignment.CreatedAt.IsZero() || assignment.CreatedAt.Equal(epochFallback)) && meta.CreatedAt != nil {
		updates["created_at"] = *meta.CreatedAt
	}
	if assignment.CourseID != courseID {
		updates["course_id"] = courseID
	}

	if len(updates) > 0 {
		updates["is_active"] = true
		if err := s.tx.Model(&models.Assignment{}).Where("id = ?", assignment.ID).Updates(updates).Error; err != nil {
			return 0, err
		}
		stats.AssignmentsUpdated++
	} else if !assignment.IsActive {
		if err := s.tx.Model(&models.Assignment{}).Where("id = ?", assignment.ID).
			Update("is_active", true).Error; err != nil {
			return 0, err
		}
	}
	return assignment.ID, nil
}

// PruneAssignments deletes assignments of the course that were not observed
// in the feed. With a window, only rows created inside it are eligible: a
// partial sync must never delete assignments it did not ask about. Without a
// window the feed is authoritative for the whole course.
func (s *ReconcileStore) PruneAssignments(courseID uint, observedExternalIDs map[string]bool, window feed.Window, stats *ReconcileStats) (int, error) {
	query := s.tx.Where("course_id = ?", courseID)
	if len(observedExternalIDs) > 0 {
		ids := make([]string, 0, len(observedExternalIDs))
		for id := range observedExternalIDs {
			ids = append(ids, id)
		}
		query = query.Where("external_id NOT IN ?", ids)
	}
	if window.Start != nil {
		query = query.Where("created_at >= ?", *window.Start)
	}
	if window.End != nil {
		query = query.Where("created_at <= ?", *window.End)
	}

	result := query.Delete(&models.Assignment{})
	if result.Error != nil {
		return 0, result.Error
	}
	pruned := int(result.RowsAffected)
	stats.AssignmentsPruned += pruned
	return pruned, nil
}

// UpsertSubmission writes a derived submission, but only when an observable
// field actually changed; a no-op sync must not bump updated_at, or the
// summary staleness check would fire for nothing. Returns whether a row was
// written.
func (s *ReconcileStore) UpsertSubmission(studentID, assignmentID uint, derived grading.Result, stats *ReconcileStats) (bool, error) {
	var existing models.Submission
	err := s.tx.Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		submission := models.Submission{
			StudentID:    studentID,
			AssignmentID: assignmentID,
			Status:       derived.Status,
			ScoreRaw:     derived.ScoreRaw,
			ScorePoints:  derived.ScorePoints,
			ScoreMax:     derived.ScoreMax,
			ScorePct:     derived.ScorePct,
		}
		if err := s.tx.Create(&submission).Error; err != nil {
			return false, err
		}
		stats.SubmissionsAdded++
		return true, nil
	}
	if err != nil {
		return false, err
	}

	changed := existing.Status != derived.Status ||
		!stringPtrEqual(existing.ScoreRaw, derived.ScoreRaw) ||
		!floatPtrEqual(existing.ScorePoints, derived.ScorePoints) ||
		!floatPtrEqual(existing.ScoreMax, derived.ScoreMax) ||
		!floatPtrEqual(existing.ScorePct, derived.ScorePct)
	if !changed {
		return false, nil
	}

	updates := map[string]interface{}{
		"status":       derived.Status,
		"score_raw":    derived.ScoreRaw,
		"score_points": derived.ScorePoints,
		"score_max":    derived.ScoreMax,
		"score_pct":    derived.ScorePct,
	}
	if err := s.tx.Model(&models.Submission{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return false, err
	}
	stats.SubmissionsUpdated++
	return true, nil
}

// MarkSummaryDirty flags the (student, course) summary for rebuild, creating
// a placeholder row when none exists yet.
func (s *ReconcileStore) MarkSummaryDirty(studentID, courseID uint, stats *ReconcileStats) error {
	result := s.tx.Model(&models.CourseSummary{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Update("needs_rebuild", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		stats.SummariesMarked++
		return nil
	}

	placeholder := models.CourseSummary{
		StudentID:    studentID,
		CourseID:     courseID,
		NeedsRebuild: true,
	}
	if err := s.tx.Create(&placeholder).Error; err != nil {
		return err
	}
	stats.SummariesMarked++
	return nil
}

// AppendSyncLog writes the audit row summarizing one pass.
func (s *ReconcileStore) AppendSyncLog(courseID *uint, source string, rowsAdded, rowsUpdated int, notes string, stats *ReconcileStats) error {
	entry := models.SyncLog{
		CourseID:    courseID,
		Source:      source,
		RowsAdded:   rowsAdded,
		RowsUpdated: rowsUpdated,
		Notes:       notes,
	}
	if err := s.tx.Create(&entry).Error; err != nil {
		return err
	}
	stats.SyncLogsAdded++
	return nil
}

// PickTitle resolves two title candidates: the longer one wins, and a
// non-empty title is never replaced by an empty one.
func PickTitle(existing, candidate string) string {
	if candidate == "" {
		return existing
	}
	if existing == "" {
		return candidate
	}
	if len(candidate) > len(existing) {
		return candidate
	}
	return existing
}

func mergeMaxScore(existing, incoming *float64) *float64 {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}
	merged := math.Max(*existing, *incoming)
	return &merged
}

const floatTolerance = 1e-6

func floatPtrEqual(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return math.Abs(*a-*b) <= floatTolerance
}

func stringPtrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
