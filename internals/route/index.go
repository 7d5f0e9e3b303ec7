package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/constants"
	authMiddleware "medcard_backend/internals/middlewares/auth"
	routeDetails "medcard_backend/internals/route/details"
)

var startTime = time.Now()

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== AUTH =====================
	// registered before the groups: the /api/a prefix also matches /api/auth
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, db)

	// ===================== GROUPS =====================
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	log.Println("[INFO] Setting up PRIVATE (user) group...")
	private := app.Group("/api/u", authMiddleware.AuthMiddleware(db))

	log.Println("[INFO] Setting up ADMIN group (Auth + staff)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRoles(constants.RoleErrorStaff("content management"), constants.StaffOnly...),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Catalog routes...")
	routeDetails.CatalogPublicRoutes(public, db)
	routeDetails.CatalogUserRoutes(private, db)
	routeDetails.CatalogAdminRoutes(admin, db)

	log.Println("[INFO] Mounting Progress routes...")
	routeDetails.ProgressUserRoutes(private, db)

	log.Println("[INFO] Mounting User routes...")
	routeDetails.UserRoutes(private, db)
}
