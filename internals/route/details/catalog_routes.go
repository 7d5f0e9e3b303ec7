package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	browseRoute "medcard_backend/internals/features/catalog/browse/route"
	favoriteRoute "medcard_backend/internals/features/catalog/favorites/route"
	questionRoute "medcard_backend/internals/features/catalog/questions/route"
	themeRoute "medcard_backend/internals/features/catalog/themes/route"
	ticketRoute "medcard_backend/internals/features/catalog/tickets/route"
)

/* ===================== PUBLIC ===================== */
func CatalogPublicRoutes(r fiber.Router, db *gorm.DB) {
	browseRoute.BrowsePublicRoutes(r, db)
}

/* ===================== USER (PRIVATE) ===================== */
func CatalogUserRoutes(r fiber.Router, db *gorm.DB) {
	favoriteRoute.FavoriteUserRoutes(r, db)
}

/* ===================== STAFF ===================== */
func CatalogAdminRoutes(r fiber.Router, db *gorm.DB) {
	themeRoute.ThemeAdminRoutes(r, db)
	ticketRoute.TicketAdminRoutes(r, db)
	questionRoute.QuestionAdminRoutes(r, db)
}
