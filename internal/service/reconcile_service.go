package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/config"
	"github.com/classpulse/classpulse-api/internal/feed"
	"github.com/classpulse/classpulse-api/internal/grading"
	"github.com/classpulse/classpulse-api/internal/observability"
	"github.com/classpulse/classpulse-api/internal/repository"
)

// ErrNoFeeds indicates a batch pass had nothing usable to reconcile.
var ErrNoFeeds = errors.New("no usable feeds in batch")

// ReconcileOptions tunes a single reconciliation pass.
type ReconcileOptions struct {
	// Source tags the audit log rows for this pass.
	Source string
	// Window bounds the pass by assignment creation time. Pruning never
	// touches rows outside it.
	Window feed.Window
	// Prune removes assignments of the course that the feed did not mention.
	// Only set when the feed is authoritative for the window.
	Prune bool
	// DryRun executes the full pass and rolls it back, reporting the stats
	// the real run would produce.
	DryRun bool
}

// ReconcileService folds normalized course feeds into the canonical store.
// Each course is one transaction: a failed course never taints another.
type ReconcileService struct {
	db            *gorm.DB
	parser        *feed.ReportParser
	schoolName    string
	zeroAsMissing bool
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewReconcileService builds the service from its dependencies.
func NewReconcileService(db *gorm.DB, parser *feed.ReportParser, cfg config.Config, logger zerolog.Logger) *ReconcileService {
	return &ReconcileService{
		db:            db,
		parser:        parser,
		schoolName:    cfg.SchoolName,
		zeroAsMissing: cfg.ZeroScoreCountsMissing,
		logger:        logger.With().Str("component", "reconcile_service").Logger(),
		tracer:        otel.Tracer("service/reconcile"),
	}
}

// ReconcileReports parses report export documents and reconciles each
// resulting course feed. A document that fails to parse is skipped with a
// warning; the pass fails only when nothing was usable.
func (s *ReconcileService) ReconcileReports(ctx context.Context, documents []string, opts ReconcileOptions) (repository.ReconcileStats, error) {
	ctx, span := s.tracer.Start(ctx, "ReconcileReports")
	defer span.End()

	var stats repository.ReconcileStats
	usable := 0
	for i, doc := range documents {
		courseFeed, err := s.parser.Parse(doc)
		if err != nil {
			s.logger.Warn().Err(err).Int("document", i).Msg("skipping unparsable report document")
			continue
		}

		courseStats, err := s.ReconcileFeed(ctx, courseFeed, opts)
		if err != nil {
			s.logger.Error().Err(err).
				Str("course_external_id", courseFeed.Course.ExternalID).
				Msg("report reconciliation failed for course")
			continue
		}
		stats.Merge(courseStats)
		usable++
	}

	if usable == 0 && len(documents) > 0 {
		return stats, ErrNoFeeds
	}
	span.SetAttributes(attribute.Int("courses", usable))
	return stats, nil
}

// SyncClassroom pulls every visible course from the live feed and reconciles
// each one. Per-course failures are isolated and logged.
func (s *ReconcileService) SyncClassroom(ctx context.Context, adapter *feed.ClassroomAdapter, opts ReconcileOptions) (repository.ReconcileStats, error) {
	ctx, span := s.tracer.Start(ctx, "SyncClassroom")
	defer span.End()

	courses, err := adapter.Courses(ctx)
	if err != nil {
		return repository.ReconcileStats{}, err
	}

	var stats repository.ReconcileStats
	usable := 0
	for _, course := range courses {
		courseFeed, err := adapter.FetchCourse(ctx, course, opts.Window)
		if err != nil {
			s.logger.Error().Err(err).Str("course_external_id", course.ID).Msg("live feed fetch failed")
			continue
		}

		courseStats, err := s.ReconcileFeed(ctx, courseFeed, opts)
		if err != nil {
			s.logger.Error().Err(err).Str("course_external_id", course.ID).Msg("live reconciliation failed for course")
			continue
		}
		stats.Merge(courseStats)
		usable++
	}

	if usable == 0 && len(courses) > 0 {
		return stats, ErrNoFeeds
	}
	span.SetAttributes(attribute.Int("courses", usable))
	return stats, nil
}

// ReconcileFeed folds one course feed into the store inside a single
// transaction. The feed must be fully materialized before this is called; no
// upstream I/O happens while the transaction is open.
func (s *ReconcileService) ReconcileFeed(ctx context.Context, courseFeed *feed.CourseFeed, opts ReconcileOptions) (repository.ReconcileStats, error) {
	ctx, span := s.tracer.Start(ctx, "ReconcileFeed", trace.WithAttributes(
		attribute.String("course_external_id", courseFeed.Course.ExternalID),
		attribute.Bool("dry_run", opts.DryRun),
	))
	defer span.End()

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return repository.ReconcileStats{}, tx.Error
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	store := repository.NewReconcileStore(tx)
	stats := repository.ReconcileStats{}

	schoolID, err := store.UpsertSchool(s.schoolName)
	if err != nil {
		return repository.ReconcileStats{}, err
	}
	courseID, err := store.UpsertCourse(courseFeed.Course.ExternalID, courseFeed.Course.Name, schoolID, &stats)
	if err != nil {
		return repository.ReconcileStats{}, err
	}

	// Assignment metadata is merged across every observation of the feed
	// before any row is written, so upsert order cannot change the outcome.
	merged := mergeAssignmentMeta(courseFeed)
	assignmentIDs := make(map[string]uint, len(merged))
	observed := make(map[string]bool, len(merged))
	for externalID, meta := range merged {
		id, err := store.UpsertAssignment(courseID, externalID, meta, &stats)
		if err != nil {
			return repository.ReconcileStats{}, err
		}
		assignmentIDs[externalID] = id
		observed[externalID] = true
	}

	for _, student := range courseFeed.Students {
		studentID, err := store.UpsertStudent(student.ExternalID, student.FullName, &stats)
		if err != nil {
			return repository.ReconcileStats{}, err
		}
		if err := store.EnsureEnrollment(studentID, courseID, &stats); err != nil {
			return repository.ReconcileStats{}, err
		}

		changed := false
		for i := range student.Observations {
			obs := &student.Observations[i]
			assignmentID, ok := assignmentIDs[obs.AssignmentExternalID]
			if !ok {
				continue
			}
			derived := grading.Derive(obs.Submission, merged[obs.AssignmentExternalID].MaxScore, s.zeroAsMissing)
			wrote, err := store.UpsertSubmission(studentID, assignmentID, derived, &stats)
			if err != nil {
				return repository.ReconcileStats{}, err
			}
			changed = changed || wrote
		}

		if changed {
			if err := store.MarkSummaryDirty(studentID, courseID, &stats); err != nil {
				return repository.ReconcileStats{}, err
			}
		}
	}

	if opts.Prune {
		if _, err := store.PruneAssignments(courseID, observed, opts.Window, &stats); err != nil {
			return repository.ReconcileStats{}, err
		}
	}

	notes := fmt.Sprintf("students=%d assignments=%d pruned=%d",
		len(courseFeed.Students), len(merged), stats.AssignmentsPruned)
	if opts.DryRun {
		notes = "dry-run " + notes
	}
	rowsAdded := stats.SubmissionsAdded + stats.AssignmentsAdded
	rowsUpdated := stats.SubmissionsUpdated + stats.AssignmentsUpdated
	if err := store.AppendSyncLog(&courseID, opts.Source, rowsAdded, rowsUpdated, notes, &stats); err != nil {
		return repository.ReconcileStats{}, err
	}

	if opts.DryRun {
		// Full execution, then rollback: the stats report what a real run
		// would have written.
		tx.Rollback()
		committed = true
		observability.SyncPasses.WithLabelValues(opts.Source, "dry_run").Inc()
		return stats, nil
	}

	if err := tx.Commit().Error; err != nil {
		observability.SyncPasses.WithLabelValues(opts.Source, "error").Inc()
		return repository.ReconcileStats{}, err
	}
	committed = true

	observability.SyncPasses.WithLabelValues(opts.Source, "ok").Inc()
	observability.RowsWritten.WithLabelValues("submissions").Add(float64(stats.SubmissionsAdded + stats.SubmissionsUpdated))
	observability.RowsWritten.WithLabelValues("assignments").Add(float64(stats.AssignmentsAdded + stats.AssignmentsUpdated))

	s.logger.Info().
		Str("source", opts.Source).
		Str("course_external_id", courseFeed.Course.ExternalID).
		Int("submissions_added", stats.SubmissionsAdded).
		Int("submissions_updated", stats.SubmissionsUpdated).
		Int("assignments_pruned", stats.AssignmentsPruned).
		Msg("reconciled course feed")
	return stats, nil
}

// mergeAssignmentMeta collapses per-observation assignment metadata into one
// record per external id: longer title wins, max score keeps the maximum,
// created_at keeps the earliest timestamp seen.
func mergeAssignmentMeta(courseFeed *feed.CourseFeed) map[string]repository.AssignmentMeta {
	merged := make(map[string]repository.AssignmentMeta)
	for _, student := range courseFeed.Students {
		for _, obs := range student.Observations {
			meta := merged[obs.AssignmentExternalID]
			meta.Title = repository.PickTitle(meta.Title, obs.Title)
			meta.MaxScore = maxFloatPtr(meta.MaxScore, obs.MaxScore)
			meta.CreatedAt = earliestTime(meta.CreatedAt, obs.CreatedAt)
			merged[obs.AssignmentExternalID] = meta
		}
	}
	return merged
}

func maxFloatPtr(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *b > *a {
		return b
	}
	return a
}

func earliestTime(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Before(*a) {
		return b
	}
	return a
}
