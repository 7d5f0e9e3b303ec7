package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/tickets/controller"
)

// TicketAdminRoutes mounts staff CRUD under /api/a/tickets.
func TicketAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewTicketController(db)

	g := r.Group("/tickets")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Patch("/:id", ctl.Update)
	g.Delete("/:id", ctl.Delete)
}
