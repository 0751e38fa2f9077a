// Package router wires handlers to routes.
package router

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/classpulse/classpulse-api/internal/handler"
)

// Handlers groups everything route registration needs.
type Handlers struct {
	Health  *handler.HealthHandler
	Student *handler.StudentHandler
	Teacher *handler.TeacherHandler
	Sync    *handler.SyncHandler
}

// Register attaches all routes to the app.
func Register(app *fiber.App, h Handlers) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")
	v1.Get("/health", h.Health.Check)

	v2 := app.Group("/api/v2")

	students := v2.Group("/students")
	students.Get("/find", h.Student.Find)
	students.Get("/:id/summary", h.Student.Summary)
	students.Get("/:id/work/missing", h.Student.Missing)
	students.Get("/:id/work/submitted", h.Student.Submitted)
	students.Get("/:id/work/grades", h.Student.Grades)
	students.Post("/:id/flags/:assignmentID", h.Student.Flag)

	teacher := v2.Group("/teacher")
	teacher.Get("/at-risk", h.Teacher.AtRisk)

	flags := v2.Group("/flags")
	flags.Get("/pending", h.Teacher.PendingFlags)
	flags.Post("/verify", h.Teacher.VerifyFlag)

	sync := v2.Group("/sync")
	sync.Post("/report", h.Sync.SyncReports)
	sync.Post("/classroom", h.Sync.SyncClassroom)
	sync.Get("/logs", h.Sync.Logs)

	v2.Post("/summaries/rebuild", h.Sync.Rebuild)
}
