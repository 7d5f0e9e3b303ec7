package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	themeModel "medcard_backend/internals/features/catalog/themes/model"
	"medcard_backend/internals/features/catalog/tickets/dto"
	"medcard_backend/internals/features/catalog/tickets/model"
	ticketService "medcard_backend/internals/features/catalog/tickets/service"
	helper "medcard_backend/internals/helpers"
)

type TicketController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewTicketController(db *gorm.DB) *TicketController {
	return &TicketController{
		DB:        db,
		Validator: validator.New(),
	}
}

func (ctl *TicketController) ensureTheme(c *fiber.Ctx, themeID uuid.UUID) error {
	var n int64
	if err := ctl.DB.WithContext(c.UserContext()).Model(&themeModel.ThemeModel{}).
		Where("id = ?", themeID).Count(&n).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if n == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "theme not found")
	}
	return nil
}

// GET /api/a/tickets?theme_id=&q=&page=&per_page=
func (ctl *TicketController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 200)

	tx := ctl.DB.WithContext(c.UserContext()).Model(&model.TicketModel{}).
		Where("kind = ?", model.TicketKindPermanent)
	if raw := strings.TrimSpace(c.Query("theme_id")); raw != "" {
		themeID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid theme_id")
		}
		tx = tx.Where("theme_id = ?", themeID)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		tx = tx.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count tickets")
	}

	var rows []model.TicketModel
	if err := tx.Order(model.OrderBy).Offset(p.Offset).Limit(p.Limit).Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to list tickets")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	counts, err := ticketService.ActiveQuestionCounts(c.UserContext(), ctl.DB, ids)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count questions")
	}

	out := make([]dto.TicketResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.NewTicketResponse(&rows[i], counts[rows[i].ID]))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p, len(out)))
}

// POST /api/a/tickets
func (ctl *TicketController) Create(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	if err := ctl.ensureTheme(c, req.ThemeID); err != nil {
		return helper.FromFiberError(c, err)
	}

	m := req.ToModel(userID)
	if err := ctl.DB.WithContext(c.UserContext()).Create(m).Error; err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "ticket created", dto.NewTicketResponse(m, 0))
}

// PATCH /api/a/tickets/:id
func (ctl *TicketController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	if req.ThemeID != nil {
		if err := ctl.ensureTheme(c, *req.ThemeID); err != nil {
			return helper.FromFiberError(c, err)
		}
	}

	var m model.TicketModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("id = ? AND kind = ?", id, model.TicketKindPermanent).
		Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "ticket not found")
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

	n, err := ticketService.ActiveQuestionCount(c.UserContext(), ctl.DB, m.ID)
	if err != nil {
		log.Printf("[ERROR] count questions ticket=%s: %v", m.ID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count questions")
	}
	return helper.JsonUpdated(c, "ticket updated", dto.NewTicketResponse(&m, n))
}

// DELETE /api/a/tickets/:id
func (ctl *TicketController) Delete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var m model.TicketModel
		if err := tx.Where("id = ? AND kind = ?", id, model.TicketKindPermanent).Take(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "ticket not found")
			}
			return err
		}
		return ticketService.PurgeTickets(tx, []uuid.UUID{m.ID})
	})
	if err != nil {
		log.Printf("[ERROR] delete ticket %s: %v", id, err)
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "ticket deleted", fiber.Map{"id": id})
}
