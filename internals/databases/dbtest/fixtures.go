package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/constants"
	questionModel "medcard_backend/internals/features/catalog/questions/model"
	themeModel "medcard_backend/internals/features/catalog/themes/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	userModel "medcard_backend/internals/features/users/user/model"
	profileModel "medcard_backend/internals/features/users/user_profiles/model"
)

// User creates an active user with an empty profile.
func User(t testing.TB, db *gorm.DB, name, role string) *userModel.UserModel {
	t.Helper()
	if role == "" {
		role = constants.RoleUser
	}
	u := &userModel.UserModel{UserName: name, Password: "x", Role: role, IsActive: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	if err := db.Create(&profileModel.UserProfileModel{UserID: u.ID}).Error; err != nil {
		t.Fatalf("create profile %s: %v", name, err)
	}
	return u
}

func Theme(t testing.TB, db *gorm.DB, createdBy uuid.UUID, title string) *themeModel.ThemeModel {
	t.Helper()
	th := &themeModel.ThemeModel{Title: title, IsActive: true, CreatedBy: createdBy}
	if err := db.Create(th).Error; err != nil {
		t.Fatalf("create theme %s: %v", title, err)
	}
	return th
}

// Ticket creates an active permanent ticket.
func Ticket(t testing.TB, db *gorm.DB, themeID *uuid.UUID, createdBy uuid.UUID, title string) *ticketModel.TicketModel {
	t.Helper()
	tk := &ticketModel.TicketModel{
		ThemeID:   themeID,
		Title:     title,
		IsActive:  true,
		CreatedBy: createdBy,
		Kind:      ticketModel.TicketKindPermanent,
	}
	if err := db.Create(tk).Error; err != nil {
		t.Fatalf("create ticket %s: %v", title, err)
	}
	return tk
}

// Option describes one answer of a fixture question.
type Option struct {
	Text    string
	Correct bool
}

// Question creates an active question with active answers in the given order.
func Question(t testing.TB, db *gorm.DB, ticketID, createdBy uuid.UUID, text string, sortOrder int, options ...Option) *questionModel.QuestionModel {
	t.Helper()
	q := &questionModel.QuestionModel{
		TicketID:  ticketID,
		Text:      text,
		IsActive:  true,
		SortOrder: sortOrder,
		CreatedBy: createdBy,
	}
	if err := db.Omit("Answers").Create(q).Error; err != nil {
		t.Fatalf("create question %q: %v", text, err)
	}
	for i, o := range options {
		a := questionModel.AnswerModel{QuestionID: q.ID, Text: o.Text, IsCorrect: o.Correct, IsActive: true, SortOrder: i}
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("create answer %q: %v", o.Text, err)
		}
		q.Answers = append(q.Answers, a)
	}
	return q
}

// Correct returns the ids of the correct answers of q.
func Correct(q *questionModel.QuestionModel) []uuid.UUID {
	return q.CorrectAnswerIDs()
}

// Wrong returns the id of the first incorrect answer of q.
func Wrong(t testing.TB, q *questionModel.QuestionModel) []uuid.UUID {
	t.Helper()
	for _, a := range q.Answers {
		if !a.IsCorrect {
			return []uuid.UUID{a.ID}
		}
	}
	t.Fatalf("question %q has no wrong answer", q.Text)
	return nil
}

// YesNo is the common two-option question: "yes" is correct.
var YesNo = []Option{{Text: "yes", Correct: true}, {Text: "no"}}
