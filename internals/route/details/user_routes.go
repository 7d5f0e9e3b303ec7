package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	profileRoute "medcard_backend/internals/features/users/user_profiles/route"
)

/* ===================== USER (PRIVATE) ===================== */
func UserRoutes(r fiber.Router, db *gorm.DB) {
	profileRoute.UserProfileRoutes(r, db)
}
