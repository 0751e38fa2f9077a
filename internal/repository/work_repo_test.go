package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse-api/internal/models"
)

func TestListMissingUsesEffectiveStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWorkRepository(db)
	studentID, courseID := seedCoursework(t, db)
	ctx := context.Background()

	// Submitted-but-ungraded work must show up as missing.
	a4 := models.Assignment{ExternalID: "a-4", CourseID: courseID, Title: "Four", MaxScore: floatPtr(10), IsActive: true}
	require.NoError(t, db.Create(&a4).Error)
	require.NoError(t, db.Create(&models.Submission{
		StudentID: studentID, AssignmentID: a4.ID, Status: models.StatusSubmitted,
	}).Error)

	items, err := repo.ListMissing(ctx, studentID, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Four", items[0].Title)

	limited, err := repo.ListMissing(ctx, studentID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestListSubmittedExcludesZeroScores(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWorkRepository(db)
	studentID, courseID := seedCoursework(t, db)
	ctx := context.Background()

	a4 := models.Assignment{ExternalID: "a-4", CourseID: courseID, Title: "Four", MaxScore: floatPtr(10), IsActive: true}
	require.NoError(t, db.Create(&a4).Error)
	require.NoError(t, db.Create(&models.Submission{
		StudentID: studentID, AssignmentID: a4.ID,
		Status: models.StatusGraded, ScorePoints: floatPtr(0), ScoreMax: floatPtr(10), ScorePct: floatPtr(0),
	}).Error)

	items, err := repo.ListSubmitted(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.NotEqual(t, "Four", item.Title)
	}
}

func TestListGradesReturnsEverySubmissionRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWorkRepository(db)
	studentID, _ := seedCoursework(t, db)

	items, err := repo.ListGrades(context.Background(), studentID, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	limited, err := repo.ListGrades(context.Background(), studentID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}
