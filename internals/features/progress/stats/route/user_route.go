package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/progress/stats/controller"
)

func StatsUserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewStatsController(db)

	// registered before any /themes/:id route
	r.Get("/themes/stats", ctl.Themes)
	r.Get("/themes/:id/stats", ctl.Theme)
}
