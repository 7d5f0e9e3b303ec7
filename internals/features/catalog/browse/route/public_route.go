package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/browse/controller"
)

// BrowsePublicRoutes mounts the read-only catalog.
func BrowsePublicRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewBrowseController(db)

	r.Get("/themes", ctl.Themes)
	r.Get("/themes/:id", ctl.Theme)
	r.Get("/tickets/:id", ctl.Ticket)
	r.Get("/questions/:id", ctl.Question)
	r.Get("/search", ctl.Search)
}
