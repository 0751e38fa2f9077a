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
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/config"
	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/repository"
	"github.com/classpulse/classpulse-api/internal/service"
	"github.com/classpulse/classpulse-api/internal/utils"
)

func setupApp(t *testing.T) (*fiber.App, uint) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.School{}, &models.Course{}, &models.Student{}, &models.Enrollment{},
		&models.Assignment{}, &models.Submission{}, &models.CourseSummary{}, &models.SyncLog{},
	))

	school := models.School{Name: "Test School"}
	require.NoError(t, db.Create(&school).Error)
	course := models.Course{ExternalID: "c-100", Name: "Algebra I", SchoolID: school.ID}
	require.NoError(t, db.Create(&course).Error)
	student := models.Student{ExternalID: "1001", FullName: "Alice"}
	require.NoError(t, db.Create(&student).Error)
	require.NoError(t, db.Create(&models.Enrollment{StudentID: student.ID, CourseID: course.ID}).Error)

	assignment := models.Assignment{
		ExternalID: "a-1", CourseID: course.ID, Title: "Worksheet",
		MaxScore: func() *float64 { v := 10.0; return &v }(),
		CreatedAt: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), IsActive: true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	logger := zerolog.Nop()
	cfg := config.Config{AtRiskThreshold: 3}
	summaryRepo := repository.NewSummaryRepository(db)
	students := service.NewStudentService(repository.NewStudentRepository(db), repository.NewWorkRepository(db), logger)
	summaries := service.NewSummaryService(summaryRepo, nil, cfg, logger)
	flags := service.NewFlagService(repository.NewFlagRepository(db), summaryRepo, logger)

	h := NewStudentHandler(students, summaries, flags)
	app := fiber.New()
	app.Get("/api/v2/students/find", h.Find)
	app.Get("/api/v2/students/:id/summary", h.Summary)
	app.Get("/api/v2/students/:id/work/missing", h.Missing)
	return app, student.ID
}

func decodeEnvelope(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()
	var envelope utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func TestFindStudentRoute(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/students/find?q=1001", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)
	require.NotNil(t, envelope.Data)
}

func TestFindStudentNotFound(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/students/find?q=nobody", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.False(t, envelope.Success)
}

func TestSummaryRouteDefaultsCourse(t *testing.T) {
	app, studentID := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v2/students/%d/summary", studentID), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)

	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var summary models.CourseSummary
	require.NoError(t, json.Unmarshal(payload, &summary))
	require.Equal(t, 1, summary.TotalAssigned)
	require.Equal(t, 1, summary.TotalMissing)
}

func TestWorkRouteRejectsBadID(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/students/abc/work/missing", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
