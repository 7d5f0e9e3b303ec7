package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"medcard_backend/internals/constants"
	"medcard_backend/internals/databases/dbtest"
	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
)

func TestSearch(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	theme := dbtest.Theme(t, db, staff.ID, "Cardiology basics")
	ticket := dbtest.Ticket(t, db, &theme.ID, staff.ID, "Heart rhythm")
	hidden := dbtest.Ticket(t, db, &theme.ID, staff.ID, "Heart failure")
	if err := db.Model(hidden).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}
	dbtest.Question(t, db, ticket.ID, staff.ID, "What does the HEART pump?", 0, dbtest.YesNo...)
	dbtest.Question(t, db, hidden.ID, staff.ID, "Heart in a hidden ticket", 0, dbtest.YesNo...)

	res, err := Search(ctx, db, "  heart ")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Themes) != 0 || len(res.Tickets) != 1 || len(res.Questions) != 1 {
		t.Fatalf("themes=%d tickets=%d questions=%d", len(res.Themes), len(res.Tickets), len(res.Questions))
	}
	if res.Tickets[0].ID != ticket.ID {
		t.Fatal("inactive ticket matched")
	}

	res, err = Search(ctx, db, "CARDIO")
	if err != nil || len(res.Themes) != 1 {
		t.Fatalf("theme search: %v %+v", err, res)
	}

	res, err = Search(ctx, db, "   ")
	if err != nil || len(res.Themes)+len(res.Tickets)+len(res.Questions) != 0 {
		t.Fatalf("blank search: %v %+v", err, res)
	}
}

func TestPublicQuestionHidesInactiveAnswers(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	ticket := dbtest.Ticket(t, db, nil, staff.ID, "T")
	q := dbtest.Question(t, db, ticket.ID, staff.ID, "Q", 0,
		dbtest.Option{Text: "a", Correct: true},
		dbtest.Option{Text: "b"},
		dbtest.Option{Text: "c"},
	)
	if err := db.Model(&questionModel.AnswerModel{}).Where("id = ?", q.Answers[1].ID).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	got, err := PublicQuestion(ctx, db, q.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Answers) != 2 || got.Answers[0].Text != "a" || got.Answers[1].Text != "c" {
		t.Fatalf("answers %+v", got.Answers)
	}

	owner := staff.ID
	origID := ticket.ID
	temp := &ticketModel.TicketModel{
		Title: "temp", IsActive: true, CreatedBy: staff.ID,
		Kind: ticketModel.TicketKindTemporaryFor, OriginalTicketID: &origID, OwnerUserID: &owner,
	}
	if err := db.Create(temp).Error; err != nil {
		t.Fatal(err)
	}
	tq := dbtest.Question(t, db, temp.ID, staff.ID, "copy", 0, dbtest.YesNo...)
	if _, err := PublicQuestion(ctx, db, tq.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("temporary question exposed: %v", err)
	}
	if _, err := PublicQuestion(ctx, db, uuid.New()); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("missing question: %v", err)
	}
}

func TestThemeWithTickets(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	theme := dbtest.Theme(t, db, staff.ID, "Pharmacology")
	dbtest.Ticket(t, db, &theme.ID, staff.ID, "T1")
	dbtest.Ticket(t, db, &theme.ID, staff.ID, "T2")

	got, tickets, err := ThemeWithTickets(ctx, db, theme.ID)
	if err != nil || got.ID != theme.ID || len(tickets) != 2 {
		t.Fatalf("theme %+v tickets %d err %v", got, len(tickets), err)
	}
	if _, _, err := ThemeWithTickets(ctx, db, uuid.New()); !errors.Is(err, ErrThemeNotFound) {
		t.Fatalf("missing theme: %v", err)
	}
}
