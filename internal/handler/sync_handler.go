package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/classpulse/classpulse-api/internal/config"
	"github.com/classpulse/classpulse-api/internal/dto"
	"github.com/classpulse/classpulse-api/internal/feed"
	"github.com/classpulse/classpulse-api/internal/models"
	"github.com/classpulse/classpulse-api/internal/service"
	"github.com/classpulse/classpulse-api/internal/utils"
)

// SyncHandler exposes the reconciliation entrypoints, summary rebuilds and
// the sync audit log.
type SyncHandler struct {
	reconciler *service.ReconcileService
	summaries  *service.SummaryService
	syncLogs   service.SyncLogLister
	classroom  *feed.ClassroomAdapter
	cfg        config.Config
	validate   *validator.Validate
}

// NewSyncHandler builds the handler. classroom may be nil when no live-feed
// client is configured.
func NewSyncHandler(reconciler *service.ReconcileService, summaries *service.SummaryService, syncLogs service.SyncLogLister, classroom *feed.ClassroomAdapter, cfg config.Config) *SyncHandler {
	return &SyncHandler{
		reconciler: reconciler,
		summaries:  summaries,
		syncLogs:   syncLogs,
		classroom:  classroom,
		cfg:        cfg,
		validate:   validator.New(),
	}
}

// SyncReports reconciles posted report export documents.
func (h *SyncHandler) SyncReports(c *fiber.Ctx) error {
	var req dto.ReportSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.reconciler.ReconcileReports(c.UserContext(), req.Reports, service.ReconcileOptions{
		Source: h.cfg.ReportSource,
		Prune:  req.Prune,
		DryRun: req.DryRun,
	})
	if errors.Is(err, service.ErrNoFeeds) {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "no usable report documents")
	}
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "report sync failed")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "report sync complete", stats)
}

// SyncClassroom runs a live-feed pass over every visible course.
func (h *SyncHandler) SyncClassroom(c *fiber.Ctx) error {
	if h.classroom == nil {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "live feed is not configured")
	}

	var req dto.ClassroomSyncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	window, err := resolveRequestWindow(req)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.reconciler.SyncClassroom(c.UserContext(), h.classroom, service.ReconcileOptions{
		Source: h.cfg.ClassroomSource,
		Window: window,
		Prune:  true,
		DryRun: req.DryRun,
	})
	if errors.Is(err, service.ErrNoFeeds) {
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "no courses could be synced")
	}
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "classroom sync failed")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "classroom sync complete", stats)
}

// Rebuild recomputes summaries: one pair, all dirty pairs, or everything.
func (h *SyncHandler) Rebuild(c *fiber.Ctx) error {
	var req dto.RebuildRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	ctx := c.UserContext()
	switch {
	case req.StudentID != 0 && req.CourseID != 0:
		summary, err := h.summaries.Rebuild(ctx, req.StudentID, req.CourseID)
		if err != nil {
			return utils.SendError(c, fiber.StatusInternalServerError, "summary rebuild failed")
		}
		return utils.SendSuccess(c, fiber.StatusOK, "summary rebuilt", summary)
	case req.All:
		rebuilt, err := h.summaries.RebuildAll(ctx)
		if err != nil {
			return utils.SendError(c, fiber.StatusInternalServerError, "bulk rebuild failed")
		}
		return utils.SendSuccess(c, fiber.StatusOK, "summaries rebuilt", fiber.Map{"rebuilt": rebuilt})
	default:
		rebuilt, err := h.summaries.RebuildDirty(ctx, h.cfg.RepairBatchSize)
		if err != nil {
			return utils.SendError(c, fiber.StatusInternalServerError, "dirty rebuild failed")
		}
		return utils.SendSuccess(c, fiber.StatusOK, "dirty summaries rebuilt", fiber.Map{"rebuilt": rebuilt})
	}
}

// Logs lists recent sync audit rows, optionally scoped to one course.
func (h *SyncHandler) Logs(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	var logs []models.SyncLog
	var err error
	if courseID, convErr := strconv.Atoi(c.Query("course_id")); convErr == nil && courseID > 0 {
		logs, err = h.syncLogs.ListByCourse(c.UserContext(), uint(courseID), limit)
	} else {
		logs, err = h.syncLogs.List(c.UserContext(), limit)
	}
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list sync logs")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "sync logs listed", logs)
}

func resolveRequestWindow(req dto.ClassroomSyncRequest) (feed.Window, error) {
	var start, end *time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return feed.Window{}, err
		}
		start = &parsed
	}
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return feed.Window{}, err
		}
		end = &parsed
	}
	return feed.ResolveWindow(req.Days, start, end, time.Now())
}
