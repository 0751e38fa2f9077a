package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/classpulse/classpulse-api/internal/config"
	"github.com/classpulse/classpulse-api/internal/utils"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	cfg config.Config
}

// NewHealthHandler builds the handler.
func NewHealthHandler(cfg config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// Check reports service identity and liveness.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return utils.SendSuccess(c, fiber.StatusOK, "ok", fiber.Map{
		"app": h.cfg.AppName,
		"env": h.cfg.AppEnv,
	})
}
