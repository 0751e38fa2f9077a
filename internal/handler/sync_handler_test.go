package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/config"
	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/repository"
)

func setupLogsApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SyncLog{}))

	h := NewSyncHandler(nil, nil, repository.NewSyncLogRepository(db), nil, config.Config{})
	app := fiber.New()
	app.Get("/api/v2/sync/logs", h.Logs)
	return app, db
}

func TestLogsRouteCourseFilter(t *testing.T) {
	app, db := setupLogsApp(t)

	courseA := uint(1)
	courseB := uint(2)
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseA, Source: "report", SyncedAt: base}).Error)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseB, Source: "report", SyncedAt: base.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.SyncLog{CourseID: &courseA, Source: "classroom", SyncedAt: base.Add(2 * time.Hour)}).Error)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/sync/logs", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var logs []models.SyncLog
	require.NoError(t, json.Unmarshal(payload, &logs))
	require.Len(t, logs, 3)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/sync/logs?course_id=1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope = decodeEnvelope(t, resp)
	payload, err = json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &logs))
	require.Len(t, logs, 2)
	for _, entry := range logs {
		require.Equal(t, courseA, *entry.CourseID)
	}
}
