package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/repository"
)

// ErrStudentNotFound indicates no student matched a lookup.
var ErrStudentNotFound = errors.New("student not found")

// StudentService serves student lookups and per-student work listings.
type StudentService struct {
	students repository.StudentRepository
	work     repository.WorkRepository
	logger   zerolog.Logger
}

// NewStudentService builds the service from its repositories.
func NewStudentService(students repository.StudentRepository, work repository.WorkRepository, logger zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		work:     work,
		logger:   logger.With().Str("component", "student_service").Logger(),
	}
}

// Find resolves a free-form query, external id first and name second.
func (s *StudentService) Find(ctx context.Context, query string) ([]models.Student, error) {
	students, err := s.students.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, ErrStudentNotFound
	}
	return students, nil
}

// Get loads one student by primary key.
func (s *StudentService) Get(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Student{}, ErrStudentNotFound
	}
	return student, err
}

// Missing lists the student's effectively missing work, oldest first.
func (s *StudentService) Missing(ctx context.Context, studentID uint, limit int) ([]repository.WorkItem, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	return s.work.ListMissing(ctx, studentID, limit)
}

// Submitted lists the student's credited work, newest first.
func (s *StudentService) Submitted(ctx context.Context, studentID uint) ([]repository.WorkItem, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	return s.work.ListSubmitted(ctx, studentID)
}

// Grades lists every submission row for the student, newest first.
func (s *StudentService) Grades(ctx context.Context, studentID uint, limit int) ([]repository.WorkItem, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	return s.work.ListGrades(ctx, studentID, limit)
}
