package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse-api/internal/models"
)

func TestFlagOnlyMissingWork(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFlagRepository(db)
	studentID, courseID := seedCoursework(t, db)
	ctx := context.Background()

	a4 := models.Assignment{ExternalID: "a-4", CourseID: courseID, Title: "Four", MaxScore: floatPtr(10), IsActive: true}
	require.NoError(t, db.Create(&a4).Error)
	require.NoError(t, db.Create(&models.Submission{
		StudentID: studentID, AssignmentID: a4.ID, Status: models.StatusMissing,
	}).Error)

	submission, err := repo.Flag(ctx, studentID, a4.ID, strPtr("turned it in on paper"))
	require.NoError(t, err)
	require.Equal(t, models.StatusFlagged, submission.Status)
	require.True(t, submission.FlaggedByStudent)

	// A second flag on the same pending row is rejected.
	_, err = repo.Flag(ctx, studentID, a4.ID, nil)
	require.ErrorIs(t, err, ErrAlreadyFlagged)

	// Graded work cannot be flagged.
	var a1 models.Assignment
	require.NoError(t, db.Where("external_id = ?", "a-1").First(&a1).Error)
	_, err = repo.Flag(ctx, studentID, a1.ID, nil)
	require.ErrorIs(t, err, ErrNotFlaggable)
}

func TestVerifyFlagApproval(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFlagRepository(db)
	studentID, courseID := seedCoursework(t, db)
	ctx := context.Background()

	a4 := models.Assignment{ExternalID: "a-4", CourseID: courseID, Title: "Four", MaxScore: floatPtr(10), IsActive: true}
	require.NoError(t, db.Create(&a4).Error)
	require.NoError(t, db.Create(&models.Submission{
		StudentID: studentID, AssignmentID: a4.ID, Status: models.StatusMissing,
	}).Error)

	flagged, err := repo.Flag(ctx, studentID, a4.ID, nil)
	require.NoError(t, err)

	pending, err := repo.PendingFlags(ctx, nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, flagged.ID, pending[0].SubmissionID)
	require.Equal(t, "Four", pending[0].AssignmentTitle)

	gotStudent, gotCourse, err := repo.Verify(ctx, flagged.ID, true, "teacher@example.com")
	require.NoError(t, err)
	require.Equal(t, studentID, gotStudent)
	require.Equal(t, courseID, gotCourse)

	var resolved models.Submission
	require.NoError(t, db.First(&resolved, flagged.ID).Error)
	require.Equal(t, models.StatusSubmitted, resolved.Status)
	require.True(t, resolved.FlagVerified)
	require.Equal(t, "teacher@example.com", *resolved.FlagVerifiedBy)

	pending, err = repo.PendingFlags(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestVerifyFlagDenialRevertsToMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFlagRepository(db)
	studentID, courseID := seedCoursework(t, db)
	ctx := context.Background()

	a4 := models.Assignment{ExternalID: "a-4", CourseID: courseID, Title: "Four", MaxScore: floatPtr(10), IsActive: true}
	require.NoError(t, db.Create(&a4).Error)
	require.NoError(t, db.Create(&models.Submission{
		StudentID: studentID, AssignmentID: a4.ID, Status: models.StatusMissing,
	}).Error)

	flagged, err := repo.Flag(ctx, studentID, a4.ID, nil)
	require.NoError(t, err)

	_, _, err = repo.Verify(ctx, flagged.ID, false, "teacher@example.com")
	require.NoError(t, err)

	var resolved models.Submission
	require.NoError(t, db.First(&resolved, flagged.ID).Error)
	require.Equal(t, models.StatusMissing, resolved.Status)
	require.False(t, resolved.FlaggedByStudent)
	require.True(t, resolved.FlagVerified)
}
