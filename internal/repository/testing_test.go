package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/models"
)

// setupTestDB opens a fresh in-memory database per test, named after the test
// so parallel tests never share state.
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

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }
