package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/repository"
)

func TestRepairWorkerRepairsDirtySummaries(t *testing.T) {
	db := setupTestDB(t)
	summaries := NewSummaryService(repository.NewSummaryRepository(db), nil, testConfig(), testLogger())
	studentID, courseID := seedSummaryData(t, db)

	worker := NewRepairWorker(summaries, 10*time.Millisecond, 200, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		var summary models.CourseSummary
		err := db.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&summary).Error
		return err == nil && !summary.NeedsRebuild
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}
