package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/models"
)

// StudentRepository defines lookup operations for students.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	FindByExternalID(ctx context.Context, externalID string) ([]models.Student, error)
	FindByName(ctx context.Context, name string) ([]models.Student, error)
	Find(ctx context.Context, query string) ([]models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) FindByExternalID(ctx context.Context, externalID string) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("external_id = ?", strings.TrimSpace(externalID)).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) FindByName(ctx context.Context, name string) ([]models.Student, error) {
	var students []models.Student
	pattern := "%" + strings.TrimSpace(name) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(full_name) LIKE LOWER(?)", pattern).
		Order("full_name").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

// Find tries an exact external-id match first and falls back to a name
// search, the lookup order the bot collaborator expects.
func (r *studentRepository) Find(ctx context.Context, query string) ([]models.Student, error) {
	trimmed := strings.TrimSpace(query)
	if isNumeric(trimmed) {
		students, err := r.FindByExternalID(ctx, trimmed)
		if err != nil {
			return nil, err
		}
		if len(students) > 0 {
			return students, nil
		}
	}
	return r.FindByName(ctx, trimmed)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
