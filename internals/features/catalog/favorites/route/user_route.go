package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/favorites/controller"
)

func FavoriteUserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewFavoriteController(db)

	g := r.Group("/favorites")
	g.Get("/", ctl.List)
	g.Post("/toggle", ctl.Toggle)
	g.Get("/check", ctl.Check)
}
