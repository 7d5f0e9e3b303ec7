package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/constants"
	"medcard_backend/internals/databases/dbtest"
	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

func storeAnswer(t *testing.T, db *gorm.DB, userID uuid.UUID, q *questionModel.QuestionModel, correct bool, at time.Time) {
	t.Helper()
	selected := dbtest.Correct(q)
	if !correct {
		selected = dbtest.Wrong(t, q)
	}
	enc, err := sessionModel.EncodeIDs(selected)
	if err != nil {
		t.Fatal(err)
	}
	if err := UpsertUserAnswer(db, &sessionModel.UserAnswerModel{
		UserID:            userID,
		QuestionID:        q.ID,
		SelectedAnswerIDs: enc,
		IsCorrect:         correct,
		AnsweredAt:        at,
	}); err != nil {
		t.Fatal(err)
	}
}

func answerOf(t *testing.T, db *gorm.DB, userID, questionID uuid.UUID) *sessionModel.UserAnswerModel {
	t.Helper()
	var ua sessionModel.UserAnswerModel
	err := db.Where("user_id = ? AND question_id = ?", userID, questionID).Take(&ua).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return &ua
}

func TestUpsertUserAnswerKeepsOneRow(t *testing.T) {
	db := dbtest.Open(t)
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	user := dbtest.User(t, db, "student", "")
	tk := dbtest.Ticket(t, db, nil, staff.ID, "T")
	q := dbtest.Question(t, db, tk.ID, staff.ID, "Q", 0, dbtest.YesNo...)

	now := time.Now()
	storeAnswer(t, db, user.ID, q, false, now)
	storeAnswer(t, db, user.ID, q, true, now.Add(time.Second))

	var n int64
	db.Model(&sessionModel.UserAnswerModel{}).Where("user_id = ?", user.ID).Count(&n)
	if n != 1 {
		t.Fatalf("rows = %d", n)
	}
	if ua := answerOf(t, db, user.ID, q.ID); ua == nil || !ua.IsCorrect {
		t.Fatalf("latest answer not kept: %+v", ua)
	}
}

func TestWrongQuestionIDsIgnoresTemporaryAndInactive(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	user := dbtest.User(t, db, "student", "")
	tk := dbtest.Ticket(t, db, nil, staff.ID, "T")
	q1 := dbtest.Question(t, db, tk.ID, staff.ID, "Q1", 0, dbtest.YesNo...)
	q2 := dbtest.Question(t, db, tk.ID, staff.ID, "Q2", 1, dbtest.YesNo...)
	q3 := dbtest.Question(t, db, tk.ID, staff.ID, "Q3", 2, dbtest.YesNo...)
	q4 := dbtest.Question(t, db, tk.ID, staff.ID, "Q4", 3, dbtest.YesNo...)

	base := time.Now()
	storeAnswer(t, db, user.ID, q1, false, base)
	storeAnswer(t, db, user.ID, q2, false, base.Add(time.Minute))
	storeAnswer(t, db, user.ID, q3, true, base.Add(2*time.Minute))
	storeAnswer(t, db, user.ID, q4, false, base.Add(3*time.Minute))
	if err := db.Model(q4).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	ids, err := WrongQuestionIDs(ctx, db, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != q2.ID || ids[1] != q1.ID {
		t.Fatalf("wrong ids = %v", ids)
	}

	// answers on a temporary copy never count as errors
	var temp *ticketModel.TicketModel
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		temp, err = CreateFromOriginal(tx, user.ID, tk, []questionModel.QuestionModel{*q1})
		return err
	})
	if err != nil || temp == nil {
		t.Fatalf("create temp: %v", err)
	}
	var copies []questionModel.QuestionModel
	db.Preload("Answers").Where("ticket_id = ?", temp.ID).Find(&copies)
	if len(copies) != 1 || copies[0].SourceQuestionID == nil || *copies[0].SourceQuestionID != q1.ID {
		t.Fatalf("copies = %+v", copies)
	}
	storeAnswer(t, db, user.ID, &copies[0], false, base.Add(4*time.Minute))

	ids, err = WrongQuestionIDs(ctx, db, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != q2.ID {
		t.Fatalf("wrong ids after retake = %v", ids)
	}
}

func TestCreateFromOriginalNothingToCopy(t *testing.T) {
	db := dbtest.Open(t)
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	tk := dbtest.Ticket(t, db, nil, staff.ID, "T")

	temp, err := CreateFromOriginal(db, staff.ID, tk, nil)
	if err != nil || temp != nil {
		t.Fatalf("got %+v %v", temp, err)
	}
}

func TestCopySkipsInactiveAnswers(t *testing.T) {
	db := dbtest.Open(t)
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	user := dbtest.User(t, db, "student", "")
	tk := dbtest.Ticket(t, db, nil, staff.ID, "Anatomy")
	q := dbtest.Question(t, db, tk.ID, staff.ID, "Q", 0,
		dbtest.Option{Text: "right", Correct: true},
		dbtest.Option{Text: "wrong"},
		dbtest.Option{Text: "retired"},
	)
	if err := db.Model(&q.Answers[2]).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}
	q.Answers[2].IsActive = false

	temp, err := CreateFromOriginal(db, user.ID, tk, []questionModel.QuestionModel{*q})
	if err != nil {
		t.Fatal(err)
	}
	if temp.Title != "Anatomy"+RetakeTitleSuffix || temp.Kind != ticketModel.TicketKindTemporaryFor {
		t.Fatalf("temp ticket %+v", temp)
	}
	var answers []questionModel.AnswerModel
	db.Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.ticket_id = ?", temp.ID).Find(&answers)
	if len(answers) != 2 {
		t.Fatalf("copied answers = %d, want 2", len(answers))
	}
	for _, a := range answers {
		if a.SourceAnswerID == nil {
			t.Fatalf("answer %q has no source", a.Text)
		}
	}
}

func TestReconcileFallsBackToText(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	user := dbtest.User(t, db, "student", "")
	tk := dbtest.Ticket(t, db, nil, staff.ID, "T")
	q1 := dbtest.Question(t, db, tk.ID, staff.ID, "Q1", 0, dbtest.YesNo...)
	q2 := dbtest.Question(t, db, tk.ID, staff.ID, "Q2", 1, dbtest.YesNo...)
	if err := db.Create(&sessionModel.TicketProgressModel{UserID: user.ID, TicketID: tk.ID, TotalQuestions: 2}).Error; err != nil {
		t.Fatal(err)
	}

	temp, err := CreateFromOriginal(db, user.ID, tk, []questionModel.QuestionModel{*q1, *q2})
	if err != nil {
		t.Fatal(err)
	}
	var copies []questionModel.QuestionModel
	db.Preload("Answers").Where("ticket_id = ?", temp.ID).Order("sort_order").Find(&copies)
	if len(copies) != 2 {
		t.Fatalf("copies = %d", len(copies))
	}
	// drop the lineage of the first copy; it must still resolve by text
	if err := db.Model(&copies[0]).Update("source_question_id", nil).Error; err != nil {
		t.Fatal(err)
	}
	copies[0].SourceQuestionID = nil

	now := time.Now()
	storeAnswer(t, db, user.ID, &copies[0], true, now)
	storeAnswer(t, db, user.ID, &copies[1], false, now)

	var n int
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = Reconcile(ctx, tx, user.ID, temp)
		return err
	})
	if err != nil || n != 2 {
		t.Fatalf("reconciled %d: %v", n, err)
	}

	ua1 := answerOf(t, db, user.ID, q1.ID)
	if ua1 == nil || !ua1.IsCorrect {
		t.Fatalf("q1 answer %+v", ua1)
	}
	if sel := ua1.SelectedIDs(); len(sel) != 1 || sel[0] != q1.CorrectAnswerIDs()[0] {
		t.Fatalf("q1 selection = %v", sel)
	}
	if ua2 := answerOf(t, db, user.ID, q2.ID); ua2 == nil || ua2.IsCorrect {
		t.Fatalf("q2 answer %+v", ua2)
	}

	var p sessionModel.TicketProgressModel
	db.Where("user_id = ? AND ticket_id = ?", user.ID, tk.ID).Take(&p)
	if p.CorrectAnswers != 1 || p.TotalQuestions != 2 {
		t.Fatalf("recount %d/%d", p.CorrectAnswers, p.TotalQuestions)
	}
}

func TestReconcileSkipsUnresolvableQuestion(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	user := dbtest.User(t, db, "student", "")
	tk := dbtest.Ticket(t, db, nil, staff.ID, "T")
	q := dbtest.Question(t, db, tk.ID, staff.ID, "Q", 0, dbtest.YesNo...)

	temp, err := CreateFromOriginal(db, user.ID, tk, []questionModel.QuestionModel{*q})
	if err != nil {
		t.Fatal(err)
	}
	var cp questionModel.QuestionModel
	db.Preload("Answers").Where("ticket_id = ?", temp.ID).Take(&cp)
	storeAnswer(t, db, user.ID, &cp, true, time.Now())

	// source gone and no text match
	if err := db.Model(&cp).Updates(map[string]any{"source_question_id": nil, "text": "edited"}).Error; err != nil {
		t.Fatal(err)
	}

	var out *Outcome
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = Teardown(ctx, tx, user.ID, temp)
		return err
	})
	if err != nil {
		t.Fatalf("teardown failed on an unresolvable question: %v", err)
	}
	if out.Aggregate || out.TicketID != tk.ID {
		t.Fatalf("outcome %+v", out)
	}
	if ua := answerOf(t, db, user.ID, q.ID); ua != nil {
		t.Fatalf("unexpected answer on source %+v", ua)
	}
	var n int64
	db.Model(&ticketModel.TicketModel{}).Where("id = ?", temp.ID).Count(&n)
	if n != 0 {
		t.Fatal("temporary ticket not removed")
	}
}

func TestRunLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	user := dbtest.User(t, db, "student", "")
	other := dbtest.User(t, db, "other", "")
	tk := dbtest.Ticket(t, db, nil, staff.ID, "T")
	q1 := dbtest.Question(t, db, tk.ID, staff.ID, "Q1", 0, dbtest.YesNo...)
	q2 := dbtest.Question(t, db, tk.ID, staff.ID, "Q2", 1, dbtest.YesNo...)

	if _, _, err := CreateFromAllErrors(ctx, db, user.ID); !errors.Is(err, ErrNoErrors) {
		t.Fatalf("no errors: %v", err)
	}

	now := time.Now()
	storeAnswer(t, db, user.ID, q1, false, now)
	storeAnswer(t, db, user.ID, q2, false, now.Add(time.Second))

	temp, run, err := CreateFromAllErrors(ctx, db, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if temp.Title != AggregateTitle || temp.Kind != ticketModel.TicketKindTemporaryAggregate {
		t.Fatalf("aggregate ticket %+v", temp)
	}
	mapping, err := run.Mapping()
	if err != nil || len(mapping) != 2 {
		t.Fatalf("mapping %v %v", mapping, err)
	}

	byCode, err := FindRun(ctx, db, user.ID, run.Code)
	if err != nil || byCode.ID != run.ID {
		t.Fatalf("find by code: %v", err)
	}
	if _, err := FindRun(ctx, db, user.ID, run.ID.String()); err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if _, err := FindRun(ctx, db, other.ID, run.Code); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("foreign run: %v", err)
	}

	// answer the copy of q1 correctly
	var cp questionModel.QuestionModel
	for copyID, src := range mapping {
		if src == q1.ID {
			db.Preload("Answers").Take(&cp, "id = ?", copyID)
		}
	}
	ua := &sessionModel.UserAnswerModel{UserID: user.ID, QuestionID: cp.ID, IsCorrect: true, AnsweredAt: time.Now()}
	var left int
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		left, err = ReconcileEager(ctx, tx, user.ID, &cp, ua)
		return err
	})
	if err != nil || left != 1 {
		t.Fatalf("eager reconcile left=%d err=%v", left, err)
	}
	if answerOf(t, db, user.ID, q1.ID) != nil {
		t.Fatal("resolved error still stored")
	}

	reloaded, _ := FindRun(ctx, db, user.ID, run.Code)
	s, err := Summarize(ctx, db, reloaded)
	if err != nil {
		t.Fatal(err)
	}
	if s.Remaining != 1 || s.Resolved != 1 {
		t.Fatalf("summary %+v", s)
	}

	var out *Outcome
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = Teardown(ctx, tx, user.ID, temp)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Aggregate || out.RunID == nil || *out.RunID != run.ID {
		t.Fatalf("outcome %+v", out)
	}
	closed, _ := FindRun(ctx, db, user.ID, run.Code)
	if closed.IsOpen() || closed.TicketID != nil || closed.RemainingErrorCount == nil || *closed.RemainingErrorCount != 1 {
		t.Fatalf("closed run %+v", closed)
	}
	if open, err := OpenRunForTicket(ctx, db, temp.ID); err != nil || open != nil {
		t.Fatalf("open run after teardown: %+v %v", open, err)
	}
}
