package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/questions/dto"
	"medcard_backend/internals/features/catalog/questions/model"
	questionService "medcard_backend/internals/features/catalog/questions/service"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	helper "medcard_backend/internals/helpers"
)

type QuestionController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewQuestionController(db *gorm.DB) *QuestionController {
	return &QuestionController{
		DB:        db,
		Validator: validator.New(),
	}
}

func answersOrdered(tx *gorm.DB) *gorm.DB {
	return tx.Order(model.AnswerOrderBy)
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, questionService.ErrQuestionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "question not found")
	case errors.Is(err, questionService.ErrNoTargetTickets):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

// GET /api/a/questions?ticket_id=&q=&page=&per_page=
func (ctl *QuestionController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 200)

	tx := ctl.DB.WithContext(c.UserContext()).Model(&model.QuestionModel{}).
		Where("ticket_id IN (?)", ctl.DB.Model(&ticketModel.TicketModel{}).
			Select("id").Where("kind = ?", ticketModel.TicketKindPermanent))
	if raw := strings.TrimSpace(c.Query("ticket_id")); raw != "" {
		ticketID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid ticket_id")
		}
		tx = tx.Where("ticket_id = ?", ticketID)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		tx = tx.Where("LOWER(text) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to count questions")
	}
	var rows []model.QuestionModel
	if err := tx.Preload("Answers", answersOrdered).
		Order(model.OrderBy).Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to list questions")
	}

	out := make([]dto.QuestionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.NewQuestionResponse(&rows[i]))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p, len(out)))
}

// POST /api/a/questions
func (ctl *QuestionController) Create(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	if err := req.CheckAnswerSet(); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	q := req.ToModel(userID)
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&ticketModel.TicketModel{}).
			Where("id = ? AND kind = ?", req.TicketID, ticketModel.TicketKindPermanent).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ticket not found")
		}
		if err := tx.Omit("Answers").Create(q).Error; err != nil {
			return err
		}
		if len(req.Answers) == 0 {
			return nil
		}
		answers := make([]model.AnswerModel, 0, len(req.Answers))
		for i := range req.Answers {
			answers = append(answers, req.Answers[i].ToModel(q.ID))
		}
		if err := tx.Create(&answers).Error; err != nil {
			return err
		}
		q.Answers = answers
		return nil
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "question created", dto.NewQuestionResponse(q))
}

// PATCH /api/a/questions/:id; text, image and order reach every clone.
func (ctl *QuestionController) Update(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.UpdateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var out *model.QuestionModel
	var propagated int64
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		q, err := questionService.FindWithAnswers(c.UserContext(), tx, id)
		if err != nil {
			return mapServiceError(err)
		}
		if up := req.ToUpdates(); len(up) > 0 {
			if err := tx.Model(&model.QuestionModel{}).Where("id = ?", id).Updates(up).Error; err != nil {
				return err
			}
			if q, err = questionService.FindWithAnswers(c.UserContext(), tx, id); err != nil {
				return err
			}
		}
		if propagated, err = questionService.PropagateToClones(tx, q); err != nil {
			return err
		}
		out = q
		return nil
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if propagated > 0 {
		log.Printf("[INFO] question %s propagated to %d clones", id, propagated)
	}
	return helper.JsonUpdated(c, "question updated", dto.NewQuestionResponse(out))
}

// DELETE /api/a/questions/:id
func (ctl *QuestionController) Delete(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		return mapServiceError(questionService.DeleteQuestion(tx, id))
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "question deleted", fiber.Map{"id": id})
}

// POST /api/a/questions/:id/clone {ticket_ids: [...]}
func (ctl *QuestionController) Clone(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.CloneQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var res *questionService.CloneResult
	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		src, err := questionService.FindWithAnswers(c.UserContext(), tx, id)
		if err != nil {
			return mapServiceError(err)
		}
		res, err = questionService.CloneToTickets(tx, src, req.TicketIDs, userID)
		return mapServiceError(err)
	})
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	out := dto.CloneResponse{
		Created: make([]dto.QuestionResponse, 0, len(res.Created)),
		Skipped: res.Skipped,
	}
	for i := range res.Created {
		out.Created = append(out.Created, dto.NewQuestionResponse(&res.Created[i]))
	}
	return helper.JsonCreated(c, "question cloned", out)
}

/* ===============================
   Answers
=================================*/

// POST /api/a/questions/:id/answers
func (ctl *QuestionController) CreateAnswer(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.AnswerInput
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var n int64
	if err := ctl.DB.WithContext(c.UserContext()).Model(&model.QuestionModel{}).
		Where("id = ?", id).Count(&n).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "DB error")
	}
	if n == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "question not found")
	}

	a := req.ToModel(id)
	if err := ctl.DB.WithContext(c.UserContext()).Create(&a).Error; err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "answer created", dto.NewAnswerResponse(&a))
}

// PATCH /api/a/answers/:id
func (ctl *QuestionController) UpdateAnswer(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.UpdateAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var a model.AnswerModel
	if err := ctl.DB.WithContext(c.UserContext()).Take(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "answer not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "DB error")
	}
	if up := req.ToUpdates(); len(up) > 0 {
		if err := ctl.DB.WithContext(c.UserContext()).Model(&a).Updates(up).Error; err != nil {
			return helper.FromFiberError(c, err)
		}
		if err := ctl.DB.WithContext(c.UserContext()).Take(&a, "id = ?", id).Error; err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "DB error")
		}
	}
	return helper.JsonUpdated(c, "answer updated", dto.NewAnswerResponse(&a))
}

// DELETE /api/a/answers/:id
func (ctl *QuestionController) DeleteAnswer(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	res := ctl.DB.WithContext(c.UserContext()).Where("id = ?", id).Delete(&model.AnswerModel{})
	if res.Error != nil {
		return helper.FromFiberError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "answer not found")
	}
	return helper.JsonDeleted(c, "answer deleted", fiber.Map{"id": id})
}
