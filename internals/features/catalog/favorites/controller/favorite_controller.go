package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/favorites/dto"
	"medcard_backend/internals/features/catalog/favorites/model"
	"medcard_backend/internals/features/catalog/favorites/service"
	helper "medcard_backend/internals/helpers"
)

type FavoriteController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewFavoriteController(db *gorm.DB) *FavoriteController {
	return &FavoriteController{DB: db, Validator: validator.New()}
}

func favoriteError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidTarget):
		return helper.JsonError(c, fiber.StatusBadRequest, "kind must be theme or ticket")
	case errors.Is(err, service.ErrTargetNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "target not found")
	}
	return helper.JsonError(c, fiber.StatusInternalServerError, "favorites unavailable")
}

// GET /api/u/favorites
func (ctl *FavoriteController) List(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	entries, err := service.List(c.UserContext(), ctl.DB, userID)
	if err != nil {
		return favoriteError(c, err)
	}
	out := make([]dto.FavoriteResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.NewFavoriteResponse(e))
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /api/u/favorites/toggle {kind, id}
func (ctl *FavoriteController) Toggle(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.ToggleFavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	added, err := service.Toggle(c.UserContext(), ctl.DB, userID, req.Target())
	if err != nil {
		return favoriteError(c, err)
	}
	msg := "removed from favorites"
	if added {
		msg = "added to favorites"
	}
	return helper.JsonOK(c, msg, dto.FavoriteStateResponse{Target: req.Target(), IsFavorite: added})
}

// GET /api/u/favorites/check?kind=&id=
func (ctl *FavoriteController) Check(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Query("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	t, ok := model.ParseTarget(c.Query("kind"), id)
	if !ok {
		return favoriteError(c, service.ErrInvalidTarget)
	}

	fav, err := service.IsFavorite(c.UserContext(), ctl.DB, userID, t)
	if err != nil {
		return favoriteError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FavoriteStateResponse{Target: t, IsFavorite: fav})
}
