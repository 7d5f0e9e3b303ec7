package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"medcard_backend/internals/features/catalog/questions/model"
)

var ErrAnswerSetInvalid = errors.New("a question needs at least 2 active answers and at least 1 correct")

type AnswerInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
	IsActive  *bool  `json:"is_active"`
	SortOrder *int   `json:"sort_order" validate:"omitempty,min=0"`
}

func (a *AnswerInput) ToModel(questionID uuid.UUID) model.AnswerModel {
	m := model.AnswerModel{
		QuestionID: questionID,
		Text:       strings.TrimSpace(a.Text),
		IsCorrect:  a.IsCorrect,
		IsActive:   true,
	}
	if a.IsActive != nil {
		m.IsActive = *a.IsActive
	}
	if a.SortOrder != nil {
		m.SortOrder = *a.SortOrder
	}
	return m
}

type CreateQuestionRequest struct {
	TicketID  uuid.UUID     `json:"ticket_id" validate:"required"`
	Text      string        `json:"text" validate:"required"`
	ImageURL  *string       `json:"image_url" validate:"omitempty,url"`
	IsActive  *bool         `json:"is_active"`
	SortOrder *int          `json:"sort_order" validate:"omitempty,min=0"`
	Answers   []AnswerInput `json:"answers" validate:"omitempty,dive"`
}

// CheckAnswerSet enforces the editorial rule when answers are supplied.
func (r *CreateQuestionRequest) CheckAnswerSet() error {
	if len(r.Answers) == 0 {
		return nil
	}
	active, correct := 0, 0
	for _, a := range r.Answers {
		if a.IsActive != nil && !*a.IsActive {
			continue
		}
		active++
		if a.IsCorrect {
			correct++
		}
	}
	if active < 2 || correct < 1 {
		return ErrAnswerSetInvalid
	}
	return nil
}

func (r *CreateQuestionRequest) ToModel(createdBy uuid.UUID) *model.QuestionModel {
	m := &model.QuestionModel{
		TicketID:  r.TicketID,
		Text:      strings.TrimSpace(r.Text),
		ImageURL:  r.ImageURL,
		IsActive:  true,
		CreatedBy: createdBy,
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.SortOrder != nil {
		m.SortOrder = *r.SortOrder
	}
	return m
}

type UpdateQuestionRequest struct {
	Text      *string `json:"text" validate:"omitempty,min=1"`
	ImageURL  *string `json:"image_url" validate:"omitempty"`
	IsActive  *bool   `json:"is_active"`
	SortOrder *int    `json:"sort_order" validate:"omitempty,min=0"`
}

// ToUpdates maps the request to columns. An empty image_url clears the image.
func (r *UpdateQuestionRequest) ToUpdates() map[string]any {
	up := map[string]any{}
	if r.Text != nil {
		up["text"] = strings.TrimSpace(*r.Text)
	}
	if r.ImageURL != nil {
		if s := strings.TrimSpace(*r.ImageURL); s == "" {
			up["image_url"] = nil
		} else {
			up["image_url"] = s
		}
	}
	if r.IsActive != nil {
		up["is_active"] = *r.IsActive
	}
	if r.SortOrder != nil {
		up["sort_order"] = *r.SortOrder
	}
	return up
}

type UpdateAnswerRequest struct {
	Text      *string `json:"text" validate:"omitempty,min=1"`
	IsCorrect *bool   `json:"is_correct"`
	IsActive  *bool   `json:"is_active"`
	SortOrder *int    `json:"sort_order" validate:"omitempty,min=0"`
}

func (r *UpdateAnswerRequest) ToUpdates() map[string]any {
	up := map[string]any{}
	if r.Text != nil {
		up["text"] = strings.TrimSpace(*r.Text)
	}
	if r.IsCorrect != nil {
		up["is_correct"] = *r.IsCorrect
	}
	if r.IsActive != nil {
		up["is_active"] = *r.IsActive
	}
	if r.SortOrder != nil {
		up["sort_order"] = *r.SortOrder
	}
	return up
}

type CloneQuestionRequest struct {
	TicketIDs []uuid.UUID `json:"ticket_ids" validate:"required,min=1"`
}

type AnswerResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
}

func NewAnswerResponse(a *model.AnswerModel) AnswerResponse {
	return AnswerResponse{ID: a.ID, Text: a.Text, IsCorrect: a.IsCorrect, IsActive: a.IsActive, SortOrder: a.SortOrder}
}

type QuestionResponse struct {
	ID                 uuid.UUID        `json:"id"`
	TicketID           uuid.UUID        `json:"ticket_id"`
	Text               string           `json:"text"`
	ImageURL           *string          `json:"image_url,omitempty"`
	IsActive           bool             `json:"is_active"`
	SortOrder          int              `json:"sort_order"`
	OriginalQuestionID *uuid.UUID       `json:"original_question_id,omitempty"`
	Answers            []AnswerResponse `json:"answers"`
	CreatedAt          time.Time        `json:"created_at"`
}

func NewQuestionResponse(q *model.QuestionModel) QuestionResponse {
	answers := make([]AnswerResponse, 0, len(q.Answers))
	for i := range q.Answers {
		answers = append(answers, NewAnswerResponse(&q.Answers[i]))
	}
	return QuestionResponse{
		ID:                 q.ID,
		TicketID:           q.TicketID,
		Text:               q.Text,
		ImageURL:           q.ImageURL,
		IsActive:           q.IsActive,
		SortOrder:          q.SortOrder,
		OriginalQuestionID: q.OriginalQuestionID,
		Answers:            answers,
		CreatedAt:          q.CreatedAt,
	}
}

type CloneResponse struct {
	Created []QuestionResponse `json:"created"`
	Skipped []uuid.UUID        `json:"skipped_ticket_ids"`
}
