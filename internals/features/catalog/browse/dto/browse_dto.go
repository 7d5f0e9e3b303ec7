package dto

import (
	"github.com/google/uuid"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	themeModel "medcard_backend/internals/features/catalog/themes/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
)

type ThemeView struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	TicketsCount int64     `json:"tickets_count"`
}

func NewThemeView(m *themeModel.ThemeModel, tickets int64) ThemeView {
	return ThemeView{ID: m.ID, Title: m.Title, Description: m.Description, TicketsCount: tickets}
}

type TicketView struct {
	ID             uuid.UUID  `json:"id"`
	ThemeID        *uuid.UUID `json:"theme_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	QuestionsCount int        `json:"questions_count"`
}

func NewTicketView(m *ticketModel.TicketModel, questions int) TicketView {
	return TicketView{ID: m.ID, ThemeID: m.ThemeID, Title: m.Title, Description: m.Description, QuestionsCount: questions}
}

type ThemeDetail struct {
	ThemeView
	Tickets []TicketView `json:"tickets"`
}

type QuestionView struct {
	ID       uuid.UUID `json:"id"`
	TicketID uuid.UUID `json:"ticket_id"`
	Text     string    `json:"text"`
	ImageURL *string   `json:"image_url,omitempty"`
}

func NewQuestionView(q *questionModel.QuestionModel) QuestionView {
	return QuestionView{ID: q.ID, TicketID: q.TicketID, Text: q.Text, ImageURL: q.ImageURL}
}

type TicketDetail struct {
	TicketView
	Questions []QuestionView `json:"questions"`
}

// AnswerView never exposes correctness.
type AnswerView struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

type QuestionDetail struct {
	QuestionView
	Answers []AnswerView `json:"answers"`
}

func NewQuestionDetail(q *questionModel.QuestionModel) QuestionDetail {
	out := QuestionDetail{QuestionView: NewQuestionView(q), Answers: make([]AnswerView, 0, len(q.Answers))}
	for _, a := range q.Answers {
		out.Answers = append(out.Answers, AnswerView{ID: a.ID, Text: a.Text})
	}
	return out
}

type SearchResponse struct {
	Query     string         `json:"q"`
	Themes    []ThemeView    `json:"themes"`
	Tickets   []TicketView   `json:"tickets"`
	Questions []QuestionView `json:"questions"`
}
