package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestionModel is one multiple-choice question inside a ticket.
//
// OriginalQuestionID links a staff clone to the question it was cloned from.
// SourceQuestionID links a remediation copy to the permanent question it mirrors.
type QuestionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID  uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	ImageURL  *string   `gorm:"type:text" json:"image_url,omitempty"`
	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	OriginalQuestionID *uuid.UUID `gorm:"type:uuid;index" json:"original_question_id,omitempty"`
	SourceQuestionID   *uuid.UUID `gorm:"type:uuid;index" json:"source_question_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Answers []AnswerModel `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (QuestionModel) TableName() string {
	return "questions"
}

// OrderBy is the authored order of questions inside a ticket.
const OrderBy = "sort_order ASC, created_at ASC"

func (m *QuestionModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ActiveAnswers filters the preloaded answers.
func (m *QuestionModel) ActiveAnswers() []AnswerModel {
	out := make([]AnswerModel, 0, len(m.Answers))
	for _, a := range m.Answers {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out
}

// CorrectAnswerIDs returns the ids of active correct answers.
func (m *QuestionModel) CorrectAnswerIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, 2)
	for _, a := range m.Answers {
		if a.IsActive && a.IsCorrect {
			out = append(out, a.ID)
		}
	}
	return out
}

// AnswerModel is one option of a question.
type AnswerModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"question_id"`
	Text           string     `gorm:"type:text;not null" json:"text"`
	IsCorrect      bool       `gorm:"not null" json:"is_correct"`
	IsActive       bool       `gorm:"not null" json:"is_active"`
	SortOrder      int        `gorm:"not null;default:0" json:"sort_order"`
	SourceAnswerID *uuid.UUID `gorm:"type:uuid;index" json:"source_answer_id,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AnswerModel) TableName() string {
	return "answers"
}

const AnswerOrderBy = "sort_order ASC, created_at ASC"

func (m *AnswerModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
