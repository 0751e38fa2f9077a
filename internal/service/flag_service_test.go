package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/repository"
)

func TestFlagVerifyMarksSummaryDirty(t *testing.T) {
	db := setupTestDB(t)
	summaryRepo := repository.NewSummaryRepository(db)
	svc := NewFlagService(repository.NewFlagRepository(db), summaryRepo, testLogger())
	studentID, courseID := seedSummaryData(t, db)
	ctx := context.Background()

	// Settle the summary first so the dirty mark is observable.
	_, err := summaryRepo.Rebuild(ctx, studentID, courseID)
	require.NoError(t, err)

	var a3 models.Assignment
	require.NoError(t, db.Where("external_id = ?", "a-3").First(&a3).Error)
	require.NoError(t, db.Create(&models.Submission{
		StudentID: studentID, AssignmentID: a3.ID, Status: models.StatusMissing,
	}).Error)

	flagged, err := svc.Flag(ctx, studentID, a3.ID, strPtr("submitted on paper"))
	require.NoError(t, err)
	require.Equal(t, models.StatusFlagged, flagged.Status)

	require.NoError(t, svc.Verify(ctx, flagged.ID, true, "teacher@example.com"))

	var summary models.CourseSummary
	require.NoError(t, db.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&summary).Error)
	require.True(t, summary.NeedsRebuild)

	var resolved models.Submission
	require.NoError(t, db.First(&resolved, flagged.ID).Error)
	require.Equal(t, models.StatusSubmitted, resolved.Status)
}

func TestFlagRejectsGradedWork(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFlagService(repository.NewFlagRepository(db), repository.NewSummaryRepository(db), testLogger())
	studentID, _ := seedSummaryData(t, db)

	var a1 models.Assignment
	require.NoError(t, db.Where("external_id = ?", "a-1").First(&a1).Error)

	_, err := svc.Flag(context.Background(), studentID, a1.ID, nil)
	require.ErrorIs(t, err, repository.ErrNotFlaggable)
}
