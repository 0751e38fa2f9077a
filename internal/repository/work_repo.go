package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/grading"
)

// WorkItem is one assignment row in a student work listing.
type WorkItem struct {
	AssignmentID     uint      `json:"assignment_id"`
	Title            string    `json:"title"`
	Status           string    `json:"status"`
	ScoreRaw         *string   `json:"score_raw"`
	ScorePct         *float64  `json:"score_pct"`
	CreatedAt        time.Time `json:"created_at"`
	FlaggedByStudent bool      `json:"flagged_by_student"`
}

// WorkRepository lists a student's work classified by effective status.
type WorkRepository interface {
	ListMissing(ctx context.Context, studentID uint, limit int) ([]WorkItem, error)
	ListSubmitted(ctx context.Context, studentID uint) ([]WorkItem, error)
	ListGrades(ctx context.Context, studentID uint, limit int) ([]WorkItem, error)
}

type workRepository struct {
	db *gorm.DB
}

// NewWorkRepository instantiates the repository.
func NewWorkRepository(db *gorm.DB) WorkRepository {
	return &workRepository{db: db}
}

// listMissingQuery uses the shared effective-missing predicate: a row marked
// Submitted but never graded still lands here.
var listMissingQuery = fmt.Sprintf(`
	SELECT a.id AS assignment_id,
	       a.title AS title,
	       sub.status AS status,
	       sub.score_raw AS score_raw,
	       sub.score_pct AS score_pct,
	       a.created_at AS created_at,
	       sub.flagged_by_student AS flagged_by_student
	FROM submissions sub
	JOIN assignments a ON a.id = sub.assignment_id
	WHERE sub.student_id = ? AND %s
	ORDER BY a.created_at ASC`,
	grading.MissingCondition,
)

var listSubmittedQuery = fmt.Sprintf(`
	SELECT a.id AS assignment_id,
	       a.title AS title,
	       sub.status AS status,
	       sub.score_raw AS score_raw,
	       sub.score_pct AS score_pct,
	       a.created_at AS created_at,
	       sub.flagged_by_student AS flagged_by_student
	FROM submissions sub
	JOIN assignments a ON a.id = sub.assignment_id
	WHERE sub.student_id = ? AND %s
	ORDER BY a.created_at DESC`,
	grading.SubmittedCondition,
)

func (r *workRepository) ListMissing(ctx context.Context, studentID uint, limit int) ([]WorkItem, error) {
	query := listMissingQuery
	args := []interface{}{studentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var items []WorkItem
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *workRepository) ListSubmitted(ctx context.Context, studentID uint) ([]WorkItem, error) {
	var items []WorkItem
	if err := r.db.WithContext(ctx).Raw(listSubmittedQuery, studentID).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *workRepository) ListGrades(ctx context.Context, studentID uint, limit int) ([]WorkItem, error) {
	query := `
		SELECT a.id AS assignment_id,
		       a.title AS title,
		       sub.status AS status,
		       sub.score_raw AS score_raw,
		       sub.score_pct AS score_pct,
		       a.created_at AS created_at,
		       sub.flagged_by_student AS flagged_by_student
		FROM submissions sub
		JOIN assignments a ON a.id = sub.assignment_id
		WHERE sub.student_id = ?
		ORDER BY a.created_at DESC`
	args := []interface{}{studentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var items []WorkItem
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
