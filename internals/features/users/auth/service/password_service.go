package service

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authHelper "medcard_backend/internals/features/users/auth/helper"
	"medcard_backend/internals/features/users/auth/dto"
	authRepo "medcard_backend/internals/features/users/auth/repository"
	helper "medcard_backend/internals/helpers"
)

// ========================== CHANGE PASSWORD ==========================
func ChangePassword(db *gorm.DB, c *fiber.Ctx) error {
	var input dto.ChangePasswordRequest
	if err := c.BodyParser(&input); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid input format")
	}

	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	user, err := authRepo.FindUserByID(db, userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "user not found")
	}

	if err := authHelper.CheckPasswordHash(user.Password, input.CurrentPassword); err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "current password incorrect")
	}
	if err := authHelper.ValidatePassword(input.NewPassword); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	if input.ConfirmPassword != "" && input.ConfirmPassword != input.NewPassword {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, "passwords do not match")
	}

	newHash, err := authHelper.HashPassword(input.NewPassword)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to hash new password")
	}
	if err := authRepo.UpdateUserPassword(db, userID, newHash); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to update password")
	}

	return helper.JsonUpdated(c, "password changed successfully", nil)
}
