package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	remediationRoute "medcard_backend/internals/features/progress/remediation/route"
	sessionRoute "medcard_backend/internals/features/progress/sessions/route"
	statsRoute "medcard_backend/internals/features/progress/stats/route"
)

/* ===================== USER (PRIVATE) ===================== */
func ProgressUserRoutes(r fiber.Router, db *gorm.DB) {
	statsRoute.StatsUserRoutes(r, db)
	sessionRoute.SessionUserRoutes(r, db)
	remediationRoute.RemediationUserRoutes(r, db)
}
