package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "medcard_backend/internals/helpers"
)

// newIPLimiter keys on client IP; max <= 0 disables the limiter.
func newIPLimiter(max int, window time.Duration, message string) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// GlobalRateLimiter applies to every endpoint.
func GlobalRateLimiter(max int) fiber.Handler {
	return newIPLimiter(max, time.Minute, "too many requests, try again later")
}

// LoginRateLimiter is stricter and guards password guessing.
func LoginRateLimiter(max int) fiber.Handler {
	return newIPLimiter(max, time.Minute, "too many login attempts, try again in a minute")
}

func RegisterRateLimiter(max int) fiber.Handler {
	return newIPLimiter(max, 5*time.Minute, "too many registrations, wait a few minutes")
}
