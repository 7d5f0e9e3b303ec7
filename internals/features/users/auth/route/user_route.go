package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/configs"
	controller "medcard_backend/internals/features/users/auth/controller"
	rateLimiter "medcard_backend/internals/middlewares"
	authMiddleware "medcard_backend/internals/middlewares/auth"
)

// AuthRoutes mounts /api/auth.
func AuthRoutes(app *fiber.App, db *gorm.DB) {
	authController := controller.NewAuthController(db)

	baseAuth := app.Group("/api/auth")

	baseAuth.Post("/login", rateLimiter.LoginRateLimiter(configs.App.LoginRateLimitMax), authController.Login)
	baseAuth.Post("/register", rateLimiter.RegisterRateLimiter(configs.App.RegisterRateLimitMax), authController.Register)

	protected := baseAuth.Group("", authMiddleware.AuthMiddleware(db))
	protected.Post("/logout", authController.Logout)
	protected.Post("/change-password", authController.ChangePassword)
	protected.Get("/me", authController.Me)
}
