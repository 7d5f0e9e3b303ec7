package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/features/progress/sessions/dto"
	"medcard_backend/internals/features/progress/sessions/service"
	helper "medcard_backend/internals/helpers"
)

type SessionController struct {
	DB *gorm.DB
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{DB: db}
}

func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "ticket not found")
	case errors.Is(err, service.ErrProgressNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "ticket not started")
	case errors.Is(err, service.ErrEmptySelection),
		errors.Is(err, service.ErrInvalidIndex),
		errors.Is(err, service.ErrInvalidMode):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	log.Printf("[SessionService] %s %s: %v", c.Method(), c.Path(), err)
	return helper.FromFiberError(c, err)
}

func redirect(c *fiber.Ctx, r *service.Redirect) error {
	msg := "continue"
	switch r.Kind {
	case service.RedirectResults:
		msg = "show results"
	case service.RedirectAggregateResults:
		msg = "show error practice results"
	}
	return helper.JsonOK(c, msg, r)
}

// userAndTicket reads the caller and the :id ticket param.
func userAndTicket(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	ticketID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, ticketID, nil
}

// POST /api/u/tickets/:id/start
func (ctl *SessionController) Start(c *fiber.Ctx) error {
	userID, ticketID, err := userAndTicket(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	r, err := service.Start(c.UserContext(), ctl.DB, userID, ticketID)
	if err != nil {
		return sessionError(c, err)
	}
	return redirect(c, r)
}

// GET /api/u/tickets/:id/questions/:index
func (ctl *SessionController) Question(c *fiber.Ctx) error {
	userID, ticketID, err := userAndTicket(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	index, err := helper.ParseIndexParam(c, "index")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	view, r, err := service.PresentQuestion(c.UserContext(), ctl.DB, userID, ticketID, index)
	if err != nil {
		return sessionError(c, err)
	}
	if r != nil {
		return redirect(c, r)
	}
	return helper.JsonOK(c, "ok", dto.NewQuestionViewResponse(view))
}

// POST /api/u/tickets/:id/questions/:index/answer {answer_ids: [...]}
func (ctl *SessionController) Answer(c *fiber.Ctx) error {
	userID, ticketID, err := userAndTicket(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	index, err := helper.ParseIndexParam(c, "index")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}

	res, r, err := service.SubmitAnswer(c.UserContext(), ctl.DB, userID, ticketID, index, req.AnswerIDs)
	if err != nil {
		return sessionError(c, err)
	}
	if r != nil {
		return redirect(c, r)
	}
	return helper.JsonOK(c, "answer saved", dto.NewSubmitResponse(res))
}

// POST /api/u/tickets/:id/questions/:index/next
func (ctl *SessionController) Next(c *fiber.Ctx) error {
	userID, ticketID, err := userAndTicket(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	index, err := helper.ParseIndexParam(c, "index")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	r, err := service.Advance(c.UserContext(), ctl.DB, userID, ticketID, index)
	if err != nil {
		return sessionError(c, err)
	}
	return redirect(c, r)
}

// GET /api/u/tickets/:id/progress
func (ctl *SessionController) Progress(c *fiber.Ctx) error {
	userID, ticketID, err := userAndTicket(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	v, err := service.GetProgress(c.UserContext(), ctl.DB, userID, ticketID)
	if err != nil {
		return sessionError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.NewProgressResponse(v))
}

// GET /api/u/tickets/:id/results
func (ctl *SessionController) Results(c *fiber.Ctx) error {
	userID, ticketID, err := userAndTicket(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	v, r, err := service.Results(c.UserContext(), ctl.DB, userID, ticketID)
	if err != nil {
		return sessionError(c, err)
	}
	if r != nil {
		return redirect(c, r)
	}
	return helper.JsonOK(c, "ok", dto.NewResultsResponse(v))
}

// POST /api/u/tickets/:id/retake?mode=all|errors
func (ctl *SessionController) Retake(c *fiber.Ctx) error {
	userID, ticketID, err := userAndTicket(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	mode := service.RetakeMode(strings.ToLower(strings.TrimSpace(c.Query("mode", string(service.RetakeAll)))))

	r, err := service.Retake(c.UserContext(), ctl.DB, userID, ticketID, mode)
	if errors.Is(err, service.ErrNothingToRetake) {
		return helper.JsonOK(c, "no wrong answers to retake", service.ToResults(ticketID))
	}
	if err != nil {
		return sessionError(c, err)
	}
	return redirect(c, r)
}

// GET /api/u/errors
func (ctl *SessionController) Errors(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	entries, err := service.ErrorList(c.UserContext(), ctl.DB, userID)
	if err != nil {
		return sessionError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.NewErrorListResponse(entries))
}

// POST /api/u/errors/practice
func (ctl *SessionController) Practice(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	r, run, err := service.StartErrorPractice(c.UserContext(), ctl.DB, userID)
	if errors.Is(err, service.ErrNothingToRetake) {
		return helper.JsonOK(c, "no errors to practice", nil)
	}
	if err != nil {
		return sessionError(c, err)
	}
	return helper.JsonCreated(c, "error practice started", dto.PracticeResponse{
		Redirect:    *r,
		RunCode:     run.Code,
		ErrorsCount: run.StartedErrorCount,
	})
}
