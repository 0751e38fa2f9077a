package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/config"
	"github.com/classpulse/classpulse-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.School{},
		&models.Course{},
		&models.Student{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.CourseSummary{},
		&models.SyncLog{},
	))
	return db
}

func testConfig() config.Config {
	return config.Config{
		SchoolName:             "Test School",
		ReportSource:           "report_export_sync",
		ClassroomSource:        "classroom_live_sync",
		ZeroScoreCountsMissing: true,
		AtRiskThreshold:        3,
	}
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }
