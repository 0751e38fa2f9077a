package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/dto"
	"github.com/classpulse/classpulse-api/internal/service"
	"github.com/classpulse/classpulse-api/internal/utils"
)

// TeacherHandler serves the teacher-facing views: the at-risk listing and the
// pending-flag review queue.
type TeacherHandler struct {
	summaries *service.SummaryService
	flags     *service.FlagService
	validate  *validator.Validate
}

// NewTeacherHandler builds the handler.
func NewTeacherHandler(summaries *service.SummaryService, flags *service.FlagService) *TeacherHandler {
	return &TeacherHandler{
		summaries: summaries,
		flags:     flags,
		validate:  validator.New(),
	}
}

// AtRisk lists students whose missing count meets the threshold.
func (h *TeacherHandler) AtRisk(c *fiber.Ctx) error {
	threshold, _ := strconv.Atoi(c.Query("threshold", "0"))

	rows, err := h.summaries.ListAtRisk(c.UserContext(), threshold)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list at-risk students")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "at-risk students listed", rows)
}

// PendingFlags lists unresolved student flags, optionally per course.
func (h *TeacherHandler) PendingFlags(c *fiber.Ctx) error {
	var courseID *uint
	if raw := c.Query("course_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
		}
		id := uint(parsed)
		courseID = &id
	}

	flags, err := h.flags.Pending(c.UserContext(), courseID)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list pending flags")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "pending flags listed", flags)
}

// VerifyFlag approves or denies one pending flag.
func (h *TeacherHandler) VerifyFlag(c *fiber.Ctx) error {
	var req dto.VerifyFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	err := h.flags.Verify(c.UserContext(), req.SubmissionID, *req.Approved, req.VerifiedBy)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "no pending flag for submission")
	}
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to verify flag")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "flag resolved", nil)
}
