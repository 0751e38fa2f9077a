package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse-api/internal/models"
)

func TestSyncLogList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncLogRepository(db)
	ctx := context.Background()

	courseA := uint(1)
	courseB := uint(2)
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseA, Source: "report", SyncedAt: base}).Error)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseB, Source: "report", SyncedAt: base.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseA, Source: "classroom", SyncedAt: base.Add(2 * time.Hour)}).Error)

	logs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.Equal(t, "classroom", logs[0].Source)

	logs, err = repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
}

func TestSyncLogListByCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncLogRepository(db)
	ctx := context.Background()

	courseA := uint(1)
	courseB := uint(2)
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseA, Source: "report", SyncedAt: base}).Error)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseB, Source: "report", SyncedAt: base.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseA, Source: "classroom", SyncedAt: base.Add(2 * time.Hour)}).Error)

	logs, err := repo.ListByCourse(ctx, courseA, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "classroom", logs[0].Source)
	require.Equal(t, "report", logs[1].Source)

	logs, err = repo.ListByCourse(ctx, 99, 0)
	require.NoError(t, err)
	require.Empty(t, logs)
}
