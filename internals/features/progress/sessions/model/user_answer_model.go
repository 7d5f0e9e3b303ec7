package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserAnswerModel is the latest submission of a user for a question.
type UserAnswerModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_answers_user_question" json:"user_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_answers_user_question;index" json:"question_id"`

	SelectedAnswerIDs datatypes.JSON `gorm:"not null" json:"selected_answer_ids"`
	IsCorrect         bool           `gorm:"not null;index" json:"is_correct"`
	AnsweredAt        time.Time      `gorm:"not null" json:"answered_at"`
}

func (UserAnswerModel) TableName() string {
	return "user_answers"
}

func (m *UserAnswerModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if len(m.SelectedAnswerIDs) == 0 {
		m.SelectedAnswerIDs = EmptyJSONList
	}
	if m.AnsweredAt.IsZero() {
		m.AnsweredAt = time.Now()
	}
	return nil
}

func (m *UserAnswerModel) SelectedIDs() []uuid.UUID {
	ids, _ := DecodeIDs(m.SelectedAnswerIDs)
	return ids
}
