package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	userModel "medcard_backend/internals/features/users/user/model"
	"medcard_backend/internals/features/users/user_profiles/dto"
	"medcard_backend/internals/features/users/user_profiles/service"
	helper "medcard_backend/internals/helpers"
)

type UserProfileController struct {
	DB *gorm.DB
}

func NewUserProfileController(db *gorm.DB) *UserProfileController {
	return &UserProfileController{DB: db}
}

// GET /api/u/profile
func (ctl *UserProfileController) GetMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var user userModel.UserModel
	if err := ctl.DB.WithContext(c.UserContext()).Take(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "user not found")
		}
		log.Println("[ERROR] profile user lookup:", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "DB error")
	}

	p, err := service.EnsureProfile(c.UserContext(), ctl.DB, userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load profile")
	}
	return helper.JsonOK(c, "profile", dto.NewUserProfileResponse(&user, p))
}

// PATCH /api/u/profile
func (ctl *UserProfileController) PatchMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	req, err := dto.BindUpdate(c)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return helper.FromFiberError(c, err)
		}
		return helper.ValidationError(c, err)
	}

	var user userModel.UserModel
	if err := ctl.DB.WithContext(c.UserContext()).Take(&user, "id = ?", userID).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "user not found")
	}

	p, err := service.EnsureProfile(c.UserContext(), ctl.DB, userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load profile")
	}
	if req.PasswordHint != nil {
		if p, err = service.UpdateHint(c.UserContext(), ctl.DB, userID, *req.PasswordHint); err != nil {
			log.Println("[ERROR] update hint:", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "failed to update profile")
		}
	}
	return helper.JsonUpdated(c, "profile updated", dto.NewUserProfileResponse(&user, p))
}
