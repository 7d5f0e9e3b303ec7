package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"medcard_backend/internals/constants"
)

// RequestID reuses X-Request-ID when the client sends one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(fiber.HeaderXRequestID)
		if rid == "" {
			rid = utils.UUIDv4()
		}
		c.Locals(constants.LocalRequest, rid)
		c.Set(fiber.HeaderXRequestID, rid)
		return c.Next()
	}
}
