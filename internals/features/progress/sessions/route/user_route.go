package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/progress/sessions/controller"
)

// SessionUserRoutes mounts ticket taking and error practice.
func SessionUserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewSessionController(db)

	t := r.Group("/tickets/:id")
	t.Post("/start", ctl.Start)
	t.Get("/questions/:index", ctl.Question)
	t.Post("/questions/:index/answer", ctl.Answer)
	t.Post("/questions/:index/next", ctl.Next)
	t.Get("/progress", ctl.Progress)
	t.Get("/results", ctl.Results)
	t.Post("/retake", ctl.Retake)

	r.Get("/errors", ctl.Errors)
	r.Post("/errors/practice", ctl.Practice)
}
