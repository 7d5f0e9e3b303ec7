package seeds

import (
	"log"
	"path/filepath"

	"gorm.io/gorm"

	"medcard_backend/internals/constants"
	userModel "medcard_backend/internals/features/users/user/model"
	catalog "medcard_backend/internals/seeds/catalog"
	users "medcard_backend/internals/seeds/users/auth"
)

// RunAllSeeds loads the demo accounts, then the catalog authored by the
// first staff account.
func RunAllSeeds(db *gorm.DB, dir string) {
	//* User
	users.SeedUsersFromJSON(db, filepath.Join(dir, "data_users.json"))

	var staff userModel.UserModel
	if err := db.Where("role = ?", constants.RoleStaff).Order("created_at ASC").Take(&staff).Error; err != nil {
		log.Printf("[WARN] no staff account, catalog seed skipped: %v", err)
		return
	}

	//* Catalog
	catalog.SeedCatalogFromJSON(db, filepath.Join(dir, "data_catalog.json"), staff.ID)
}
