package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classpulse/classpulse-api/internal/dto"
	"github.com/classpulse/classpulse-api/internal/repository"
	"github.com/classpulse/classpulse-api/internal/service"
	"github.com/classpulse/classpulse-api/internal/utils"
)

// StudentHandler serves student lookups, work listings, summaries and the
// flag submission endpoint.
type StudentHandler struct {
	students  *service.StudentService
	summaries *service.SummaryService
	flags     *service.FlagService
	validate  *validator.Validate
}

// NewStudentHandler builds the handler.
func NewStudentHandler(students *service.StudentService, summaries *service.SummaryService, flags *service.FlagService) *StudentHandler {
	return &StudentHandler{
		students:  students,
		summaries: summaries,
		flags:     flags,
		validate:  validator.New(),
	}
}

// Find resolves a free-form query to students, external id first.
func (h *StudentHandler) Find(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "query parameter q is required")
	}

	students, err := h.students.Find(c.UserContext(), query)
	if errors.Is(err, service.ErrStudentNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "no student matched the query")
	}
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to search students")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "students found", students)
}

// Summary returns the read-through course summary for a student. course_id
// defaults to the student's most recent enrollment.
func (h *StudentHandler) Summary(c *fiber.Ctx) error {
	studentID, err := pathID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	courseID, _ := strconv.ParseUint(c.Query("course_id", "0"), 10, 64)

	summary, err := h.summaries.Get(c.UserContext(), studentID, uint(courseID))
	switch {
	case errors.Is(err, repository.ErrNoEnrollment):
		return utils.SendError(c, fiber.StatusNotFound, "student has no enrollment")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "summary not found")
	case err != nil:
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load summary")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "summary loaded", summary)
}

// Missing lists the student's effectively missing work.
func (h *StudentHandler) Missing(c *fiber.Ctx) error {
	return h.listWork(c, func(studentID uint, limit int) (interface{}, error) {
		return h.students.Missing(c.UserContext(), studentID, limit)
	})
}

// Submitted lists the student's credited work.
func (h *StudentHandler) Submitted(c *fiber.Ctx) error {
	return h.listWork(c, func(studentID uint, _ int) (interface{}, error) {
		return h.students.Submitted(c.UserContext(), studentID)
	})
}

// Grades lists every submission row for the student.
func (h *StudentHandler) Grades(c *fiber.Ctx) error {
	return h.listWork(c, func(studentID uint, limit int) (interface{}, error) {
		return h.students.Grades(c.UserContext(), studentID, limit)
	})
}

func (h *StudentHandler) listWork(c *fiber.Ctx, list func(studentID uint, limit int) (interface{}, error)) error {
	studentID, err := pathID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "0"))

	items, err := list(studentID, limit)
	if errors.Is(err, service.ErrStudentNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	}
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list work")
	}
	return utils.SendSuccess(c, fiber.StatusOK, "work listed", items)
}

// Flag records a student dispute on a missing submission.
func (h *StudentHandler) Flag(c *fiber.Ctx) error {
	studentID, err := pathID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	assignmentID, err := pathID(c, "assignmentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	var req dto.FlagRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.flags.Flag(c.UserContext(), studentID, assignmentID, req.Note)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, repository.ErrAlreadyFlagged):
		return utils.SendError(c, fiber.StatusConflict, "submission already has a pending flag")
	case errors.Is(err, repository.ErrNotFlaggable):
		return utils.SendError(c, fiber.StatusConflict, "only missing work can be flagged")
	case err != nil:
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to flag submission")
	}
	return utils.SendSuccess(c, fiber.StatusCreated, "submission flagged", submission)
}

func pathID(c *fiber.Ctx, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || value == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(value), nil
}
