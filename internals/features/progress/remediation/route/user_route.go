package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/progress/remediation/controller"
)

func RemediationUserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewRemediationController(db)
	r.Get("/remediation-runs/:id", ctl.GetRun)
}
