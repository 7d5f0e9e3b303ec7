package dto

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
	"medcard_backend/internals/features/progress/sessions/service"
)

type SubmitAnswerRequest struct {
	AnswerIDs []uuid.UUID `json:"answer_ids"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type QuestionPayload struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	ImageURL *string   `json:"image_url,omitempty"`
}

type AnswerOption struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

type PriorAnswer struct {
	SelectedAnswerIDs []uuid.UUID `json:"selected_answer_ids"`
	IsCorrect         bool        `json:"is_correct"`
	AnsweredAt        time.Time   `json:"answered_at"`
}

type QuestionViewResponse struct {
	TicketID    uuid.UUID       `json:"ticket_id"`
	TicketTitle string          `json:"ticket_title"`
	Index       int             `json:"index"`
	Total       int             `json:"total"`
	Position    string          `json:"position"`
	IsLast      bool            `json:"is_last"`
	Question    QuestionPayload `json:"question"`
	Answers     []AnswerOption  `json:"answers"`
	Prior       *PriorAnswer    `json:"prior_answer,omitempty"`
}

func NewQuestionViewResponse(v *service.QuestionView) QuestionViewResponse {
	out := QuestionViewResponse{
		TicketID:    v.Ticket.ID,
		TicketTitle: v.Ticket.Title,
		Index:       v.Index,
		Total:       v.Total,
		Position:    fmt.Sprintf("%d/%d", v.Index+1, v.Total),
		IsLast:      v.IsLast,
		Question:    QuestionPayload{ID: v.Question.ID, Text: v.Question.Text, ImageURL: v.Question.ImageURL},
		Answers:     make([]AnswerOption, 0, len(v.Answers)),
	}
	for _, a := range v.Answers {
		out.Answers = append(out.Answers, AnswerOption{ID: a.ID, Text: a.Text})
	}
	if v.Prior != nil {
		out.Prior = &PriorAnswer{
			SelectedAnswerIDs: v.Prior.SelectedIDs(),
			IsCorrect:         v.Prior.IsCorrect,
			AnsweredAt:        v.Prior.AnsweredAt,
		}
	}
	return out
}

type SubmitResponse struct {
	QuestionID        uuid.UUID   `json:"question_id"`
	IsCorrect         bool        `json:"is_correct"`
	SelectedAnswerIDs []uuid.UUID `json:"selected_answer_ids"`
	CorrectAnswerIDs  []uuid.UUID `json:"correct_answer_ids"`
	CorrectAnswers    int         `json:"correct_answers"`
	NextIndex         int         `json:"next_index"`
	IsLast            bool        `json:"is_last"`
	RemainingErrors   *int        `json:"remaining_errors,omitempty"`
}

func NewSubmitResponse(r *service.SubmitResult) SubmitResponse {
	return SubmitResponse{
		QuestionID:        r.QuestionID,
		IsCorrect:         r.IsCorrect,
		SelectedAnswerIDs: r.SelectedIDs,
		CorrectAnswerIDs:  r.CorrectAnswerIDs,
		CorrectAnswers:    r.CorrectAnswers,
		NextIndex:         r.NextIndex,
		IsLast:            r.IsLast,
		RemainingErrors:   r.RemainingErrors,
	}
}

type ProgressResponse struct {
	TicketID             uuid.UUID `json:"ticket_id"`
	CurrentQuestionIndex int       `json:"current_question_index"`
	TotalQuestions       int       `json:"total_questions"`
	CorrectAnswers       int       `json:"correct_answers"`
	Percentage           float64   `json:"percentage"`
	Remaining            int       `json:"remaining"`
	IsCompleted          bool      `json:"is_completed"`
	StartedAt            time.Time `json:"started_at"`
	TimeSpent            string    `json:"time_spent"`
}

func NewProgressResponse(v *service.ProgressView) ProgressResponse {
	p := v.Progress
	return ProgressResponse{
		TicketID:             p.TicketID,
		CurrentQuestionIndex: p.CurrentQuestionIndex,
		TotalQuestions:       p.TotalQuestions,
		CorrectAnswers:       p.CorrectAnswers,
		Percentage:           round1(v.Percentage),
		Remaining:            v.Remaining,
		IsCompleted:          p.IsCompleted,
		StartedAt:            p.StartedAt,
		TimeSpent:            sessionModel.FormatDuration(v.TimeSpent),
	}
}

type ReviewAnswer struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
}

type ReviewResponse struct {
	Question          QuestionPayload `json:"question"`
	Answers           []ReviewAnswer  `json:"answers"`
	SelectedAnswerIDs []uuid.UUID     `json:"selected_answer_ids"`
	CorrectAnswerIDs  []uuid.UUID     `json:"correct_answer_ids"`
	IsCorrect         bool            `json:"is_correct"`
	AnsweredAt        time.Time       `json:"answered_at"`
}

func reviewAnswers(q *questionModel.QuestionModel) []ReviewAnswer {
	active := q.ActiveAnswers()
	out := make([]ReviewAnswer, 0, len(active))
	for _, a := range active {
		out = append(out, ReviewAnswer{ID: a.ID, Text: a.Text, IsCorrect: a.IsCorrect})
	}
	return out
}

func NewReviewResponse(r service.Review) ReviewResponse {
	return ReviewResponse{
		Question:          QuestionPayload{ID: r.Question.ID, Text: r.Question.Text, ImageURL: r.Question.ImageURL},
		Answers:           reviewAnswers(&r.Question),
		SelectedAnswerIDs: r.SelectedIDs,
		CorrectAnswerIDs:  r.CorrectAnswerIDs,
		IsCorrect:         r.IsCorrect,
		AnsweredAt:        r.AnsweredAt,
	}
}

type ResultsResponse struct {
	TicketID         uuid.UUID        `json:"ticket_id"`
	TicketTitle      string           `json:"ticket_title"`
	TotalQuestions   int              `json:"total_questions"`
	CorrectAnswers   int              `json:"correct_answers"`
	Mistakes         int              `json:"mistakes"`
	Accuracy         float64          `json:"accuracy"`
	TimeSpentSeconds int64            `json:"time_spent_seconds"`
	TimeSpent        string           `json:"time_spent"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	Answers          []ReviewResponse `json:"answers"`
	WrongAnswers     []ReviewResponse `json:"wrong_answers"`
}

func NewResultsResponse(v *service.ResultsView) ResultsResponse {
	p := v.Progress
	out := ResultsResponse{
		TicketID:         v.Ticket.ID,
		TicketTitle:      v.Ticket.Title,
		TotalQuestions:   p.TotalQuestions,
		CorrectAnswers:   p.CorrectAnswers,
		Mistakes:         p.Mistakes(),
		Accuracy:         round1(v.Accuracy),
		TimeSpentSeconds: int64(v.TimeSpent / time.Second),
		TimeSpent:        sessionModel.FormatDuration(v.TimeSpent),
		StartedAt:        p.StartedAt,
		CompletedAt:      p.CompletedAt,
		Answers:          make([]ReviewResponse, 0, len(v.Answers)),
		WrongAnswers:     make([]ReviewResponse, 0, len(v.Wrong)),
	}
	for _, r := range v.Answers {
		out.Answers = append(out.Answers, NewReviewResponse(r))
	}
	for _, r := range v.Wrong {
		out.WrongAnswers = append(out.WrongAnswers, NewReviewResponse(r))
	}
	return out
}

type ErrorItem struct {
	QuestionID        uuid.UUID      `json:"question_id"`
	TicketID          uuid.UUID      `json:"ticket_id"`
	TicketTitle       string         `json:"ticket_title"`
	Text              string         `json:"text"`
	ImageURL          *string        `json:"image_url,omitempty"`
	Answers           []ReviewAnswer `json:"answers"`
	SelectedAnswerIDs []uuid.UUID    `json:"selected_answer_ids"`
	CorrectAnswerIDs  []uuid.UUID    `json:"correct_answer_ids"`
	AnsweredAt        time.Time      `json:"answered_at"`
}

type ErrorListResponse struct {
	Count int         `json:"count"`
	Items []ErrorItem `json:"items"`
}

func NewErrorListResponse(entries []service.ErrorEntry) ErrorListResponse {
	out := ErrorListResponse{Count: len(entries), Items: make([]ErrorItem, 0, len(entries))}
	for i := range entries {
		e := &entries[i]
		out.Items = append(out.Items, ErrorItem{
			QuestionID:        e.Question.ID,
			TicketID:          e.Question.TicketID,
			TicketTitle:       e.TicketTitle,
			Text:              e.Question.Text,
			ImageURL:          e.Question.ImageURL,
			Answers:           reviewAnswers(&e.Question),
			SelectedAnswerIDs: e.SelectedIDs,
			CorrectAnswerIDs:  e.Question.CorrectAnswerIDs(),
			AnsweredAt:        e.AnsweredAt,
		})
	}
	return out
}

type PracticeResponse struct {
	service.Redirect
	RunCode     string `json:"run_code"`
	ErrorsCount int    `json:"errors_count"`
}
