package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/themes/dto"
	"medcard_backend/internals/features/catalog/themes/model"
	themeService "medcard_backend/internals/features/catalog/themes/service"
	helper "medcard_backend/internals/helpers"
)

type ThemeController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewThemeController(db *gorm.DB) *ThemeController {
	return &ThemeController{
		DB:        db,
		Validator: validator.New(),
	}
}

// GET /api/a/themes?q=&page=&per_page=
func (ctl *ThemeController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 200)

	tx := ctl.DB.WithContext(c.UserContext()).Model(&model.ThemeModel{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		tx = tx.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count themes")
	}
	var rows []model.ThemeModel
	if err := tx.Order(model.OrderBy).Offset(p.Offset).Limit(p.Limit).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to list themes")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	counts, err := themeService.ActiveTicketCounts(c.UserContext(), ctl.DB, ids)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count tickets")
	}

	out := make([]dto.ThemeResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.NewThemeResponse(&rows[i], counts[rows[i].ID]))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p, len(out)))
}

// POST /api/a/themes
func (ctl *ThemeController) Create(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.CreateThemeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	m := req.ToModel(userID)
	if err := ctl.DB.WithContext(c.UserContext()).Create(m).Error; err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "theme created", dto.NewThemeResponse(m, 0))
}

// PATCH /api/a/themes/:id
func (ctl *ThemeController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.UpdateThemeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var m model.ThemeModel
	if err := ctl.DB.WithContext(c.UserContext()).Take(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "theme not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "DB error")
	}
	if up := req.ToUpdates(); len(up) > 0 {
		if err := ctl.DB.WithContext(c.UserContext()).Model(&m).Updates(up).Error; err != nil {
			return helper.FromFiberError(c, err)
		}
		if err := ctl.DB.WithContext(c.UserContext()).Take(&m, "id = ?", id).Error; err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "DB error")
		}
	}

	counts, err := themeService.ActiveTicketCounts(c.UserContext(), ctl.DB, []uuid.UUID{m.ID})
	if err != nil {
		log.Printf("[ERROR] count tickets theme=%s: %v", m.ID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count tickets")
	}
	return helper.JsonUpdated(c, "theme updated", dto.NewThemeResponse(&m, counts[m.ID]))
}

// DELETE /api/a/themes/:id removes the theme with all of its tickets.
func (ctl *ThemeController) Delete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.ThemeModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fiber.NewError(fiber.StatusNotFound, "theme not found")
		}
		return themeService.PurgeTheme(tx, id)
	})
	if err != nil {
		log.Printf("[ERROR] delete theme %s: %v", id, err)
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "theme deleted", fiber.Map{"id": id})
}
