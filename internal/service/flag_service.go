package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/repository"
)

// FlagService runs the student dispute workflow and keeps summaries coherent
// with flag resolutions.
type FlagService struct {
	flags     repository.FlagRepository
	summaries repository.SummaryRepository
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewFlagService builds the service from its repositories.
func NewFlagService(flags repository.FlagRepository, summaries repository.SummaryRepository, logger zerolog.Logger) *FlagService {
	return &FlagService{
		flags:     flags,
		summaries: summaries,
		logger:    logger.With().Str("component", "flag_service").Logger(),
		tracer:    otel.Tracer("service/flag"),
	}
}

// Flag records a student dispute on missing work.
func (s *FlagService) Flag(ctx context.Context, studentID, assignmentID uint, note *string) (models.Submission, error) {
	ctx, span := s.tracer.Start(ctx, "FlagSubmission")
	defer span.End()

	submission, err := s.flags.Flag(ctx, studentID, assignmentID, note)
	if err != nil {
		return models.Submission{}, err
	}

	s.logger.Info().
		Uint("student_id", studentID).
		Uint("assignment_id", assignmentID).
		Msg("submission flagged by student")
	return submission, nil
}

// Pending lists unresolved flags, optionally scoped to one course.
func (s *FlagService) Pending(ctx context.Context, courseID *uint) ([]repository.PendingFlag, error) {
	return s.flags.PendingFlags(ctx, courseID)
}

// Verify resolves a flag and marks the affected summary for rebuild, since
// the resolution changes the student's effective standing.
func (s *FlagService) Verify(ctx context.Context, submissionID uint, approved bool, verifiedBy string) error {
	ctx, span := s.tracer.Start(ctx, "VerifyFlag")
	defer span.End()

	studentID, courseID, err := s.flags.Verify(ctx, submissionID, approved, verifiedBy)
	if err != nil {
		return err
	}

	// A dirty-mark failure is tolerable; the repair worker catches the pair
	// on its next sweep.
	if err := s.summaries.MarkDirty(ctx, studentID, courseID); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to mark summary dirty after flag resolution")
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Bool("approved", approved).
		Str("verified_by", verifiedBy).
		Msg("flag resolved")
	return nil
}
