package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LocRawToken is the Locals key holding the verified bearer token.
const LocRawToken = "raw_token"

// GetRawAccessToken returns the access token from Locals, falling back to
// the Authorization header.
func GetRawAccessToken(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocRawToken).(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return BearerToken(c.Get(fiber.HeaderAuthorization))
}

// BearerToken extracts the token from "Bearer <token>" (case-insensitive scheme).
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	const p = "bearer "
	if len(header) <= len(p) || !strings.EqualFold(header[:len(p)], p) {
		return ""
	}
	return strings.TrimSpace(header[len(p):])
}

func SetRawAccessToken(c *fiber.Ctx, raw string) {
	if raw = strings.TrimSpace(raw); raw != "" {
		c.Locals(LocRawToken, raw)
	}
}
