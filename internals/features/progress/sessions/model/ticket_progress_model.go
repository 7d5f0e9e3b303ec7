package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EmptyJSONList is stored instead of NULL so scanning never sees a null JSON column.
var EmptyJSONList = datatypes.JSON("[]")

// TicketProgressModel tracks one user's pass through one ticket.
// question_order is the shuffled sequence of question ids; an empty list means
// the sequence has not been generated yet.
type TicketProgressModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_ticket_progress_user_ticket" json:"user_id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_ticket_progress_user_ticket;index" json:"ticket_id"`

	CurrentQuestionIndex int        `gorm:"not null;default:0" json:"current_question_index"`
	IsCompleted          bool       `gorm:"not null" json:"is_completed"`
	StartedAt            time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CorrectAnswers       int        `gorm:"not null;default:0" json:"correct_answers"`
	TotalQuestions       int        `gorm:"not null;default:0" json:"total_questions"`
	TimeSpentSeconds     *int64     `json:"time_spent_seconds,omitempty"`

	QuestionOrder datatypes.JSON `gorm:"not null" json:"question_order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TicketProgressModel) TableName() string {
	return "ticket_progress"
}

func (m *TicketProgressModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if len(m.QuestionOrder) == 0 {
		m.QuestionOrder = EmptyJSONList
	}
	if m.StartedAt.IsZero() {
		m.StartedAt = time.Now()
	}
	return nil
}

// QuestionOrderIDs decodes the persisted sequence.
func (m *TicketProgressModel) QuestionOrderIDs() ([]uuid.UUID, error) {
	return DecodeIDs(m.QuestionOrder)
}

// HasQuestionOrder reports whether a sequence was persisted for this attempt.
func (m *TicketProgressModel) HasQuestionOrder() bool {
	ids, err := m.QuestionOrderIDs()
	return err == nil && len(ids) > 0
}

// ProgressPercentage is index / total * 100.
func (m *TicketProgressModel) ProgressPercentage() float64 {
	if m.TotalQuestions == 0 {
		return 0
	}
	return float64(m.CurrentQuestionIndex) / float64(m.TotalQuestions) * 100
}

func (m *TicketProgressModel) RemainingQuestions() int {
	if r := m.TotalQuestions - m.CurrentQuestionIndex; r > 0 {
		return r
	}
	return 0
}

// Accuracy is correct / total * 100, 0 for an empty ticket.
func (m *TicketProgressModel) Accuracy() float64 {
	return Accuracy(m.CorrectAnswers, m.TotalQuestions)
}

func (m *TicketProgressModel) Mistakes() int {
	if d := m.TotalQuestions - m.CorrectAnswers; d > 0 {
		return d
	}
	return 0
}

// TimeSpent returns the stored duration once completed, the running duration otherwise.
func (m *TicketProgressModel) TimeSpent(now time.Time) time.Duration {
	if m.IsCompleted && m.TimeSpentSeconds != nil {
		return time.Duration(*m.TimeSpentSeconds) * time.Second
	}
	if m.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(m.StartedAt)
}

func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// FormatDuration renders "1h 2m 3s", "2m 3s" or "3s".
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func EncodeIDs(ids []uuid.UUID) (datatypes.JSON, error) {
	if len(ids) == 0 {
		return EmptyJSONList, nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func DecodeIDs(raw datatypes.JSON) ([]uuid.UUID, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}
	return ids, nil
}
