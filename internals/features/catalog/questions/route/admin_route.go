package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/questions/controller"
)

// QuestionAdminRoutes mounts staff question and answer management.
func QuestionAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewQuestionController(db)

	q := r.Group("/questions")
	q.Get("/", ctl.List)
	q.Post("/", ctl.Create)
	q.Patch("/:id", ctl.Update)
	q.Delete("/:id", ctl.Delete)
	q.Post("/:id/clone", ctl.Clone)
	q.Post("/:id/answers", ctl.CreateAnswer)

	a := r.Group("/answers")
	a.Patch("/:id", ctl.UpdateAnswer)
	a.Delete("/:id", ctl.DeleteAnswer)
}
