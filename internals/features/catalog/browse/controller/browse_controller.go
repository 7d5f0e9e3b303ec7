package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/browse/dto"
	"medcard_backend/internals/features/catalog/browse/service"
	themeService "medcard_backend/internals/features/catalog/themes/service"
	ticketService "medcard_backend/internals/features/catalog/tickets/service"
	helper "medcard_backend/internals/helpers"
)

type BrowseController struct {
	DB *gorm.DB
}

func NewBrowseController(db *gorm.DB) *BrowseController {
	return &BrowseController{DB: db}
}

// GET /api/public/themes
func (ctl *BrowseController) Themes(c *fiber.Ctx) error {
	themes, err := service.ActiveThemes(c.UserContext(), ctl.DB)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load themes")
	}
	ids := make([]uuid.UUID, 0, len(themes))
	for _, t := range themes {
		ids = append(ids, t.ID)
	}
	counts, err := themeService.ActiveTicketCounts(c.UserContext(), ctl.DB, ids)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count tickets")
	}

	out := make([]dto.ThemeView, 0, len(themes))
	for i := range themes {
		out = append(out, dto.NewThemeView(&themes[i], counts[themes[i].ID]))
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/public/themes/:id
func (ctl *BrowseController) Theme(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	theme, tickets, err := service.ThemeWithTickets(c.UserContext(), ctl.DB, id)
	if errors.Is(err, service.ErrThemeNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "theme not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load theme")
	}

	ids := make([]uuid.UUID, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	counts, err := ticketService.ActiveQuestionCounts(c.UserContext(), ctl.DB, ids)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count questions")
	}

	out := dto.ThemeDetail{
		ThemeView: dto.NewThemeView(theme, int64(len(tickets))),
		Tickets:   make([]dto.TicketView, 0, len(tickets)),
	}
	for i := range tickets {
		out.Tickets = append(out.Tickets, dto.NewTicketView(&tickets[i], counts[tickets[i].ID]))
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/public/tickets/:id
func (ctl *BrowseController) Ticket(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	t, err := ticketService.FindPublic(c.UserContext(), ctl.DB, id)
	if errors.Is(err, ticketService.ErrTicketNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "ticket not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load ticket")
	}
	qs, err := service.ActiveQuestions(c.UserContext(), ctl.DB, t.ID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load questions")
	}

	out := dto.TicketDetail{
		TicketView: dto.NewTicketView(t, len(qs)),
		Questions:  make([]dto.QuestionView, 0, len(qs)),
	}
	for i := range qs {
		out.Questions = append(out.Questions, dto.NewQuestionView(&qs[i]))
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /api/public/questions/:id
func (ctl *BrowseController) Question(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	q, err := service.PublicQuestion(c.UserContext(), ctl.DB, id)
	if errors.Is(err, service.ErrQuestionNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "question not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load question")
	}
	return helper.JsonOK(c, "ok", dto.NewQuestionDetail(q))
}

// GET /api/public/search?q=
func (ctl *BrowseController) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	res, err := service.Search(c.UserContext(), ctl.DB, q)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "search failed")
	}

	out := dto.SearchResponse{
		Query:     q,
		Themes:    make([]dto.ThemeView, 0, len(res.Themes)),
		Tickets:   make([]dto.TicketView, 0, len(res.Tickets)),
		Questions: make([]dto.QuestionView, 0, len(res.Questions)),
	}
	for i := range res.Themes {
		out.Themes = append(out.Themes, dto.NewThemeView(&res.Themes[i], 0))
	}
	for i := range res.Tickets {
		out.Tickets = append(out.Tickets, dto.NewTicketView(&res.Tickets[i], 0))
	}
	for i := range res.Questions {
		out.Questions = append(out.Questions, dto.NewQuestionView(&res.Questions[i]))
	}
	return helper.JsonOK(c, "ok", out)
}
