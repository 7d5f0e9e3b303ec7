package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authModel "medcard_backend/internals/features/users/auth/model"
	userModel "medcard_backend/internals/features/users/user/model"
)

/* ====================== USER ====================== */

func FindUserByEmailOrUsername(db *gorm.DB, identifier string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.Where("email = ? OR user_name = ?", identifier, identifier).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(db *gorm.DB, userID uuid.UUID) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.Take(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(db *gorm.DB, user *userModel.UserModel) error {
	return db.Create(user).Error
}

func UpdateUserPassword(db *gorm.DB, userID uuid.UUID, newHash string) error {
	return db.Model(&userModel.UserModel{}).Where("id = ?", userID).Update("password", newHash).Error
}

func IsUsernameTaken(db *gorm.DB, username string) (bool, error) {
	if username == "" {
		return false, errors.New("username cannot be empty")
	}
	var n int64
	if err := db.Model(&userModel.UserModel{}).Where("user_name = ?", username).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func IsEmailTaken(db *gorm.DB, email string) (bool, error) {
	var n int64
	if err := db.Model(&userModel.UserModel{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

/* ====================== BLACKLIST TOKEN ====================== */

// BlacklistToken is idempotent: a token already listed is left alone.
func BlacklistToken(db *gorm.DB, token string, ttl time.Duration) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoNothing: true,
	}).Create(&authModel.TokenBlacklist{
		Token:     token,
		ExpiredAt: time.Now().UTC().Add(ttl),
	}).Error
}

func IsTokenBlacklisted(db *gorm.DB, token string) (bool, error) {
	var n int64
	if err := db.Model(&authModel.TokenBlacklist{}).Where("token = ?", token).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// CleanupExpiredBlacklist hard-deletes rows that expired before cutoff.
func CleanupExpiredBlacklist(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Unscoped().Where("expired_at < ?", cutoff).Delete(&authModel.TokenBlacklist{})
	return res.RowsAffected, res.Error
}
