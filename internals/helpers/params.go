package helper

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ParseUUIDParam parses a path param or returns a 400 *fiber.Error.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// ParseIndexParam parses a non-negative integer path param.
func ParseIndexParam(c *fiber.Ctx, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(c.Params(name)))
	if err != nil || n < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}
