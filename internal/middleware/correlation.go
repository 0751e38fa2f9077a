package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CorrelationHeader carries the request correlation id end to end.
const CorrelationHeader = "X-Correlation-ID"

// CorrelationKey is the fiber locals key the id is stored under.
const CorrelationKey = "correlation_id"

// Correlation assigns every request a correlation id, honoring one supplied
// by the caller.
func Correlation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(CorrelationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(CorrelationKey, id)
		c.Set(CorrelationHeader, id)
		return c.Next()
	}
}
