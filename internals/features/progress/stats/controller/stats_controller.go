package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/progress/stats/dto"
	"medcard_backend/internals/features/progress/stats/service"
	helper "medcard_backend/internals/helpers"
)

type StatsController struct {
	DB *gorm.DB
}

func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{DB: db}
}

// GET /api/u/themes/stats
func (ctl *StatsController) Themes(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	stats, err := service.Themes(c.UserContext(), ctl.DB, userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}
	out := make([]dto.ThemeStatsResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, dto.NewThemeStatsResponse(s))
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/u/themes/:id/stats
func (ctl *StatsController) Theme(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	themeID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	s, err := service.Theme(c.UserContext(), ctl.DB, userID, themeID)
	if errors.Is(err, service.ErrThemeNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "theme not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}
	return helper.JsonOK(c, "ok", dto.NewThemeStatsResponse(*s))
}
