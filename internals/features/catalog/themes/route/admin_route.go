package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/themes/controller"
)

// ThemeAdminRoutes mounts staff CRUD under /api/a/themes.
func ThemeAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewThemeController(db)

	g := r.Group("/themes")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Patch("/:id", ctl.Update)
	g.Delete("/:id", ctl.Delete)
}
