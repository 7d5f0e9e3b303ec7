package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/users/user_profiles/controller"
)

// UserProfileRoutes mounts /profile under the authenticated user group.
func UserProfileRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewUserProfileController(db)

	profile := r.Group("/profile")
	profile.Get("/", ctl.GetMine)
	profile.Patch("/", ctl.PatchMine)
}
