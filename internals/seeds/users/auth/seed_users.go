package user

import (
	"encoding/json"
	"log"
	"os"
	"strings"

	"gorm.io/gorm"

	authHelper "medcard_backend/internals/features/users/auth/helper"
	"medcard_backend/internals/features/users/user/model"
	profileModel "medcard_backend/internals/features/users/user_profiles/model"
)

type UserSeed struct {
	UserName     string `json:"user_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	PasswordHint string `json:"password_hint"`
}

// SeedUsersFromJSON inserts users that do not exist yet, each with a profile.
func SeedUsersFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Reading users seed:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Printf("[ERROR] read users seed: %v", err)
		return
	}

	var inputs []UserSeed
	if err := json.Unmarshal(file, &inputs); err != nil {
		log.Printf("[ERROR] decode users seed: %v", err)
		return
	}

	for _, data := range inputs {
		var n int64
		if err := db.Model(&model.UserModel{}).Where("user_name = ?", data.UserName).Count(&n).Error; err == nil && n > 0 {
			log.Printf("ℹ️ user '%s' already exists, skipped.", data.UserName)
			continue
		}

		hashedPassword, err := authHelper.HashPassword(data.Password)
		if err != nil {
			log.Printf("[ERROR] hash password for '%s': %v", data.UserName, err)
			continue
		}

		newUser := model.UserModel{
			UserName: data.UserName,
			Password: hashedPassword,
			Role:     data.Role,
			IsActive: true,
		}
		if email := strings.TrimSpace(data.Email); email != "" {
			newUser.Email = &email
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&newUser).Error; err != nil {
				return err
			}
			return tx.Create(&profileModel.UserProfileModel{UserID: newUser.ID, PasswordHint: data.PasswordHint}).Error
		})
		if err != nil {
			log.Printf("[ERROR] insert user '%s': %v", data.UserName, err)
		} else {
			log.Printf("✅ inserted user '%s' (%s)", data.UserName, newUser.Role)
		}
	}
}
