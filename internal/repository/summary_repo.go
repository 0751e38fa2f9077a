package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classpulse/classpulse-api/internal/grading"
	"github.com/classpulse/classpulse-api/internal/models"
)

// ErrNoEnrollment indicates a student has no enrollment to resolve a course from.
var ErrNoEnrollment = errors.New("student has no enrollment")

// SummaryPair identifies one (student, course) rollup.
type SummaryPair struct {
	StudentID uint `json:"student_id"`
	CourseID  uint `json:"course_id"`
}

// AtRiskRow is one entry of the at-risk listing.
type AtRiskRow struct {
	StudentID     uint     `json:"student_id"`
	FullName      string   `json:"full_name"`
	ChatID        *string  `json:"chat_id,omitempty"`
	CourseID      uint     `json:"course_id"`
	CourseName    string   `json:"course_name"`
	TotalMissing  int      `json:"total_missing"`
	TotalAssigned int      `json:"total_assigned"`
	AvgAllPct     *float64 `json:"avg_all_pct"`
}

// SummaryRepository owns the per-(student, course) rollup rows: reads,
// recomputation and dirty tracking.
type SummaryRepository interface {
	Get(ctx context.Context, studentID, courseID uint) (models.CourseSummary, error)
	NeedsRefresh(ctx context.Context, studentID, courseID uint) (bool, error)
	Rebuild(ctx context.Context, studentID, courseID uint) (models.CourseSummary, error)
	MarkDirty(ctx context.Context, studentID, courseID uint) error
	ListDirtyPairs(ctx context.Context, limit int) ([]SummaryPair, error)
	ListAllPairs(ctx context.Context) ([]SummaryPair, error)
	DefaultCourseFor(ctx context.Context, studentID uint) (uint, error)
	ListAtRisk(ctx context.Context, threshold int) ([]AtRiskRow, error)
}

type summaryRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSummaryRepository instantiates the repository.
func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db, now: time.Now}
}

func (r *summaryRepository) Get(ctx context.Context, studentID, courseID uint) (models.CourseSummary, error) {
	var summary models.CourseSummary
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&summary).Error
	if err != nil {
		return models.CourseSummary{}, err
	}
	return summary, nil
}

// NeedsRefresh decides whether a summary read must recompute first: the row
// is missing, flagged dirty, or older than the latest submission or
// assignment activity for the pair. The check is advisory; an extra rebuild
// is acceptable, a permanently stale answer is not.
func (r *summaryRepository) NeedsRefresh(ctx context.Context, studentID, courseID uint) (bool, error) {
	var summary models.CourseSummary
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if summary.NeedsRebuild {
		return true, nil
	}

	// Plain column reads instead of MAX(): sqlite drops the column type on
	// aggregates, so a MAX(updated_at) comes back as bare text and fails to
	// scan into time.Time.
	var latestSubmission []time.Time
	err = r.db.WithContext(ctx).Model(&models.Submission{}).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("submissions.student_id = ? AND assignments.course_id = ?", studentID, courseID).
		Order("submissions.updated_at DESC").
		Limit(1).
		Pluck("submissions.updated_at", &latestSubmission).Error
	if err != nil {
		return false, err
	}
	if len(latestSubmission) > 0 && latestSubmission[0].After(summary.LastSynced) {
		return true, nil
	}

	var latestAssignment []time.Time
	err = r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Limit(1).
		Pluck("created_at", &latestAssignment).Error
	if err != nil {
		return false, err
	}
	if len(latestAssignment) > 0 && latestAssignment[0].After(summary.LastSynced) {
		return true, nil
	}

	return false, nil
}

// summaryTotals is the raw aggregation scanned from the rebuild query.
type summaryTotals struct {
	TotalAssigned  int
	TotalSubmitted int
	TotalMissing   int
	TotalLate      int
	TotalGraded    int
	GradedPctSum   float64
	PointsEarned   float64
	PointsPossible float64
}

// rebuildQuery aggregates one student's standing in one course. Possible
// points fall back to the highest score_max ever observed for the assignment
// when the assignment's own max is unset; an absent submission row counts as
// fully missing. The effective-status predicates are spliced in from the
// grading package so this query cannot drift from the Go rules.
var rebuildQuery = fmt.Sprintf(`
	WITH course_assignments AS (
		SELECT a.id AS assignment_id,
		       COALESCE(
		           a.max_score,
		           (SELECT MAX(s2.score_max)
		            FROM submissions s2
		            WHERE s2.assignment_id = a.id AND s2.score_max IS NOT NULL),
		           0
		       ) AS possible_points
		FROM assignments a
		WHERE a.course_id = ?
	),
	student_rows AS (
		SELECT ca.possible_points,
		       COALESCE(sub.score_points, 0) AS earned_points,
		       sub.score_pct AS score_pct,
		       CASE WHEN %s THEN 1 ELSE 0 END AS is_missing,
		       CASE WHEN %s THEN 1 ELSE 0 END AS is_submitted,
		       CASE WHEN sub.status = 'Late' AND %s THEN 1 ELSE 0 END AS is_late,
		       CASE WHEN sub.score_pct IS NOT NULL AND %s THEN 1 ELSE 0 END AS is_graded
		FROM course_assignments ca
		LEFT JOIN submissions sub
		  ON sub.assignment_id = ca.assignment_id AND sub.student_id = ?
	)
	SELECT COUNT(*) AS total_assigned,
	       COALESCE(SUM(is_submitted), 0) AS total_submitted,
	       COALESCE(SUM(is_missing), 0) AS total_missing,
	       COALESCE(SUM(is_late), 0) AS total_late,
	       COALESCE(SUM(is_graded), 0) AS total_graded,
	       COALESCE(SUM(CASE WHEN is_graded = 1 THEN score_pct END), 0) AS graded_pct_sum,
	       COALESCE(SUM(earned_points), 0) AS points_earned,
	       COALESCE(SUM(possible_points), 0) AS points_possible
	FROM student_rows`,
	grading.MissingCondition,
	grading.SubmittedCondition,
	grading.SubmittedCondition,
	grading.SubmittedCondition,
)

func (r *summaryRepository) Rebuild(ctx context.Context, studentID, courseID uint) (models.CourseSummary, error) {
	var totals summaryTotals
	if err := r.db.WithContext(ctx).Raw(rebuildQuery, courseID, studentID).Scan(&totals).Error; err != nil {
		return models.CourseSummary{}, err
	}

	summary := models.CourseSummary{
		StudentID:      studentID,
		CourseID:       courseID,
		TotalAssigned:  totals.TotalAssigned,
		TotalSubmitted: totals.TotalSubmitted,
		TotalMissing:   totals.TotalMissing,
		TotalLate:      totals.TotalLate,
		TotalGraded:    totals.TotalGraded,
		PointsEarned:   totals.PointsEarned,
		PointsPossible: totals.PointsPossible,
		NeedsRebuild:   false,
		LastSynced:     r.now().UTC(),
	}

	// Two distinct averages: avg_submitted_pct is row-weighted over graded
	// work, avg_all_pct is points-weighted over everything assigned.
	if totals.TotalGraded > 0 {
		avg := grading.RoundPct(totals.GradedPctSum/float64(totals.TotalGraded), 100)
		summary.AvgSubmittedPct = &avg
	}
	if totals.PointsPossible > 0 {
		avg := grading.RoundPct(totals.PointsEarned, totals.PointsPossible)
		summary.AvgAllPct = &avg
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_assigned", "total_submitted", "total_missing", "total_late",
			"total_graded", "avg_submitted_pct", "avg_all_pct",
			"points_earned", "points_possible", "needs_rebuild", "last_synced",
		}),
	}).Create(&summary).Error
	if err != nil {
		return models.CourseSummary{}, err
	}
	return summary, nil
}

func (r *summaryRepository) MarkDirty(ctx context.Context, studentID, courseID uint) error {
	result := r.db.WithContext(ctx).Model(&models.CourseSummary{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Update("needs_rebuild", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	placeholder := models.CourseSummary{StudentID: studentID, CourseID: courseID, NeedsRebuild: true}
	return r.db.WithContext(ctx).Create(&placeholder).Error
}

const dirtyPairsQuery = `
	SELECT student_id, course_id FROM (
		SELECT e.student_id AS student_id, e.course_id AS course_id
		FROM enrollments e
		LEFT JOIN course_summaries cs
		  ON cs.student_id = e.student_id AND cs.course_id = e.course_id
		WHERE cs.id IS NULL OR cs.needs_rebuild = ?

		UNION

		SELECT sub.student_id AS student_id, a.course_id AS course_id
		FROM submissions sub
		JOIN assignments a ON a.id = sub.assignment_id
		LEFT JOIN course_summaries cs
		  ON cs.student_id = sub.student_id AND cs.course_id = a.course_id
		WHERE cs.id IS NULL OR cs.needs_rebuild = ?
	) pairs
	ORDER BY student_id, course_id
	LIMIT ?`

func (r *summaryRepository) ListDirtyPairs(ctx context.Context, limit int) ([]SummaryPair, error) {
	var pairs []SummaryPair
	err := r.db.WithContext(ctx).Raw(dirtyPairsQuery, true, true, limit).Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	return pairs, nil
}

const allPairsQuery = `
	SELECT student_id, course_id FROM (
		SELECT student_id, course_id FROM enrollments
		UNION
		SELECT sub.student_id AS student_id, a.course_id AS course_id
		FROM submissions sub
		JOIN assignments a ON a.id = sub.assignment_id
	) pairs
	ORDER BY student_id, course_id`

func (r *summaryRepository) ListAllPairs(ctx context.Context) ([]SummaryPair, error) {
	var pairs []SummaryPair
	if err := r.db.WithContext(ctx).Raw(allPairsQuery).Scan(&pairs).Error; err != nil {
		return nil, err
	}
	return pairs, nil
}

// DefaultCourseFor resolves a student's most recent enrollment, for callers
// that do not name a course explicitly.
func (r *summaryRepository) DefaultCourseFor(ctx context.Context, studentID uint) (uint, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNoEnrollment
	}
	if err != nil {
		return 0, err
	}
	return enrollment.CourseID, nil
}

func (r *summaryRepository) ListAtRisk(ctx context.Context, threshold int) ([]AtRiskRow, error) {
	var rows []AtRiskRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT s.id AS student_id,
		        s.full_name AS full_name,
		        s.chat_id AS chat_id,
		        c.id AS course_id,
		        c.name AS course_name,
		        cs.total_missing AS total_missing,
		        cs.total_assigned AS total_assigned,
		        cs.avg_all_pct AS avg_all_pct
		 FROM course_summaries cs
		 JOIN students s ON s.id = cs.student_id
		 JOIN courses c ON c.id = cs.course_id
		 WHERE cs.total_missing >= ?
		 ORDER BY cs.total_missing DESC, s.full_name ASC`,
		threshold,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
