package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/classpulse/classpulse-api/internal/config"
	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/observability"
	"github.com/classpulse/classpulse-api/internal/repository"
)

// SummaryService serves per-(student, course) rollups with read-through
// freshness: a stale or missing summary is recomputed before it is returned,
// so a read never observes numbers older than the underlying submissions.
type SummaryService struct {
	summaries repository.SummaryRepository
	cache     *redis.Client
	cfg       config.Config
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSummaryService builds the service. cache may be nil; at-risk listings
// then skip caching entirely.
func NewSummaryService(summaries repository.SummaryRepository, cache *redis.Client, cfg config.Config, logger zerolog.Logger) *SummaryService {
	return &SummaryService{
		summaries: summaries,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.With().Str("component", "summary_service").Logger(),
		tracer:    otel.Tracer("service/summary"),
	}
}

// Get returns the summary for the pair, rebuilding it first when stale. A
// courseID of zero resolves to the student's most recent enrollment.
func (s *SummaryService) Get(ctx context.Context, studentID, courseID uint) (models.CourseSummary, error) {
	ctx, span := s.tracer.Start(ctx, "GetSummary")
	defer span.End()

	if courseID == 0 {
		resolved, err := s.summaries.DefaultCourseFor(ctx, studentID)
		if err != nil {
			return models.CourseSummary{}, err
		}
		courseID = resolved
	}
	span.SetAttributes(attribute.Int("course_id", int(courseID)))

	stale, err := s.summaries.NeedsRefresh(ctx, studentID, courseID)
	if err != nil {
		return models.CourseSummary{}, err
	}
	if stale {
		summary, err := s.summaries.Rebuild(ctx, studentID, courseID)
		if err != nil {
			return models.CourseSummary{}, err
		}
		observability.SummariesRebuilt.Inc()
		return summary, nil
	}
	return s.summaries.Get(ctx, studentID, courseID)
}

// Rebuild recomputes one pair unconditionally. Operator-triggered rebuilds
// go through here rather than Get so a row that merely looks fresh is still
// recomputed.
func (s *SummaryService) Rebuild(ctx context.Context, studentID, courseID uint) (models.CourseSummary, error) {
	ctx, span := s.tracer.Start(ctx, "RebuildPair")
	defer span.End()
	span.SetAttributes(attribute.Int("course_id", int(courseID)))

	summary, err := s.summaries.Rebuild(ctx, studentID, courseID)
	if err != nil {
		return models.CourseSummary{}, err
	}
	observability.SummariesRebuilt.Inc()
	return summary, nil
}

// RebuildDirty recomputes up to limit flagged pairs, tolerating per-pair
// failures. Returns how many pairs were rebuilt.
func (s *SummaryService) RebuildDirty(ctx context.Context, limit int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "RebuildDirty")
	defer span.End()

	pairs, err := s.summaries.ListDirtyPairs(ctx, limit)
	if err != nil {
		return 0, err
	}

	rebuilt := 0
	for _, pair := range pairs {
		if _, err := s.summaries.Rebuild(ctx, pair.StudentID, pair.CourseID); err != nil {
			s.logger.Error().Err(err).
				Uint("student_id", pair.StudentID).
				Uint("course_id", pair.CourseID).
				Msg("summary rebuild failed")
			continue
		}
		rebuilt++
		observability.SummariesRebuilt.Inc()
	}
	span.SetAttributes(attribute.Int("rebuilt", rebuilt))
	return rebuilt, nil
}

// RebuildAll recomputes every known pair regardless of dirty state.
func (s *SummaryService) RebuildAll(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "RebuildAll")
	defer span.End()

	pairs, err := s.summaries.ListAllPairs(ctx)
	if err != nil {
		return 0, err
	}

	rebuilt := 0
	for _, pair := range pairs {
		if _, err := s.summaries.Rebuild(ctx, pair.StudentID, pair.CourseID); err != nil {
			s.logger.Error().Err(err).
				Uint("student_id", pair.StudentID).
				Uint("course_id", pair.CourseID).
				Msg("summary rebuild failed")
			continue
		}
		rebuilt++
		observability.SummariesRebuilt.Inc()
	}
	return rebuilt, nil
}

// ListAtRisk returns students whose missing count meets the threshold. The
// listing is cached briefly; cache errors degrade to a direct read.
func (s *SummaryService) ListAtRisk(ctx context.Context, threshold int) ([]repository.AtRiskRow, error) {
	ctx, span := s.tracer.Start(ctx, "ListAtRisk")
	defer span.End()

	if threshold <= 0 {
		threshold = s.cfg.AtRiskThreshold
	}
	cacheKey := fmt.Sprintf("classpulse:at_risk:%d", threshold)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var rows []repository.AtRiskRow
			if err := json.Unmarshal([]byte(cached), &rows); err == nil {
				observability.AtRiskCacheHits.Inc()
				return rows, nil
			}
		}
	}

	rows, err := s.summaries.ListAtRisk(ctx, threshold)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(rows)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cfg.AtRiskCacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache at-risk listing")
			}
		}
	}
	return rows, nil
}
