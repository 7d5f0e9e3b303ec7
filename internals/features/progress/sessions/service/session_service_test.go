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
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
	userModel "medcard_backend/internals/features/users/user/model"
	profileModel "medcard_backend/internals/features/users/user_profiles/model"
)

type fixture struct {
	db        *gorm.DB
	staff     *userModel.UserModel
	student   *userModel.UserModel
	ticket    *ticketModel.TicketModel
	questions map[uuid.UUID]*questionModel.QuestionModel
}

// newFixture builds one permanent ticket with n yes/no questions.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		db:        db,
		staff:     dbtest.User(t, db, "staff", constants.RoleStaff),
		student:   dbtest.User(t, db, "student", constants.RoleUser),
		questions: map[uuid.UUID]*questionModel.QuestionModel{},
	}
	theme := dbtest.Theme(t, db, f.staff.ID, "Cardiology")
	f.ticket = dbtest.Ticket(t, db, &theme.ID, f.staff.ID, "Ticket 1")
	for i := 0; i < n; i++ {
		q := dbtest.Question(t, db, f.ticket.ID, f.staff.ID, "Question "+string(rune('A'+i)), i, dbtest.YesNo...)
		f.questions[q.ID] = q
	}
	return f
}

func (f *fixture) addQuestions(t *testing.T, ticketID uuid.UUID, texts ...string) {
	t.Helper()
	for i, text := range texts {
		q := dbtest.Question(t, f.db, ticketID, f.staff.ID, text, i, dbtest.YesNo...)
		f.questions[q.ID] = q
	}
}

// answerFor picks the correct or a wrong option of the question shown,
// resolving copies through their source.
func (f *fixture) answerFor(t *testing.T, q questionModel.QuestionModel, correct bool) []uuid.UUID {
	t.Helper()
	for _, a := range q.Answers {
		if a.IsActive && a.IsCorrect == correct {
			return []uuid.UUID{a.ID}
		}
	}
	t.Fatalf("question %q has no option with correct=%v", q.Text, correct)
	return nil
}

// play answers every question of the attempt in order and finishes it.
// wrong holds the texts to answer incorrectly.
func (f *fixture) play(t *testing.T, ticketID uuid.UUID, wrong map[string]bool) *Redirect {
	t.Helper()
	ctx := context.Background()
	uid := f.student.ID

	r, err := Start(ctx, f.db, uid, ticketID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if r.Kind != RedirectQuestion {
		t.Fatalf("start redirect = %+v", r)
	}
	for i := 0; ; i++ {
		view, redirect, err := PresentQuestion(ctx, f.db, uid, ticketID, i)
		if err != nil {
			t.Fatalf("present %d: %v", i, err)
		}
		if redirect != nil {
			return redirect
		}
		res, _, err := SubmitAnswer(ctx, f.db, uid, ticketID, i, f.answerFor(t, view.Question, !wrong[view.Question.Text]))
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if res.IsCorrect == wrong[view.Question.Text] {
			t.Fatalf("question %q graded %v", view.Question.Text, res.IsCorrect)
		}
		if _, err := Advance(ctx, f.db, uid, ticketID, i); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
}

func (f *fixture) progress(t *testing.T, ticketID uuid.UUID) sessionModel.TicketProgressModel {
	t.Helper()
	var p sessionModel.TicketProgressModel
	if err := f.db.Where("user_id = ? AND ticket_id = ?", f.student.ID, ticketID).Take(&p).Error; err != nil {
		t.Fatalf("load progress: %v", err)
	}
	return p
}

func (f *fixture) profile(t *testing.T) profileModel.UserProfileModel {
	t.Helper()
	var p profileModel.UserProfileModel
	if err := f.db.Where("user_id = ?", f.student.ID).Take(&p).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return p
}

func (f *fixture) answer(t *testing.T, questionID uuid.UUID) (sessionModel.UserAnswerModel, bool) {
	t.Helper()
	var ua sessionModel.UserAnswerModel
	err := f.db.Where("user_id = ? AND question_id = ?", f.student.ID, questionID).Take(&ua).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ua, false
	}
	if err != nil {
		t.Fatalf("load answer: %v", err)
	}
	return ua, true
}

func (f *fixture) byText(text string) *questionModel.QuestionModel {
	for _, q := range f.questions {
		if q.Text == text {
			return q
		}
	}
	return nil
}

func TestQuestionSequenceIsPersistedAndReplayed(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()

	if _, err := Start(ctx, f.db, f.student.ID, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	p := f.progress(t, f.ticket.ID)
	if p.TotalQuestions != 6 || p.HasQuestionOrder() {
		t.Fatalf("fresh progress %+v", p)
	}

	first, err := LoadQuestionSequence(ctx, f.db, &p)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 6 {
		t.Fatalf("sequence length = %d", len(first))
	}
	seen := map[uuid.UUID]bool{}
	for _, q := range first {
		seen[q.ID] = true
	}
	if len(seen) != 6 {
		t.Fatal("sequence repeats questions")
	}

	reloaded := f.progress(t, f.ticket.ID)
	second, err := LoadQuestionSequence(ctx, f.db, &reloaded)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order changed at %d", i)
		}
	}

	for i := range first {
		view, redirect, err := PresentQuestion(ctx, f.db, f.student.ID, f.ticket.ID, i)
		if err != nil || redirect != nil {
			t.Fatalf("present %d: %v %+v", i, err, redirect)
		}
		if view.Question.ID != first[i].ID {
			t.Fatalf("index %d shows another question", i)
		}
		if view.IsLast != (i == len(first)-1) {
			t.Fatalf("index %d IsLast = %v", i, view.IsLast)
		}
	}
}

func TestInactiveQuestionsAreSkipped(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	hidden := f.byText("Question B")
	if err := f.db.Model(hidden).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := Start(ctx, f.db, f.student.ID, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	p := f.progress(t, f.ticket.ID)
	seq, err := LoadQuestionSequence(ctx, f.db, &p)
	if err != nil {
		t.Fatal(err)
	}
	if len(seq) != 2 || p.TotalQuestions != 2 {
		t.Fatalf("len=%d total=%d", len(seq), p.TotalQuestions)
	}
	for _, q := range seq {
		if q.ID == hidden.ID {
			t.Fatal("inactive question presented")
		}
	}
}

func TestQuestionsAddedAfterStartKeepTheDenominator(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	if _, err := Start(ctx, f.db, f.student.ID, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	if _, redirect, err := PresentQuestion(ctx, f.db, f.student.ID, f.ticket.ID, 0); err != nil || redirect != nil {
		t.Fatalf("present 0: %v %+v", err, redirect)
	}
	f.addQuestions(t, f.ticket.ID, "Late")

	if r := f.play(t, f.ticket.ID, nil); r.Kind != RedirectResults {
		t.Fatalf("finish redirect = %+v", r)
	}
	p := f.progress(t, f.ticket.ID)
	if p.TotalQuestions != 2 || p.CorrectAnswers != 2 || !p.IsCompleted {
		t.Fatalf("progress after late question = total %d correct %d completed %v",
			p.TotalQuestions, p.CorrectAnswers, p.IsCompleted)
	}
	if _, ok := f.answer(t, f.byText("Late").ID); ok {
		t.Fatal("late question was presented in the running attempt")
	}
}

func TestResumingRestartsTheClock(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	if _, err := Start(ctx, f.db, f.student.ID, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-72 * time.Hour)
	if err := f.db.Model(&sessionModel.TicketProgressModel{}).
		Where("user_id = ? AND ticket_id = ?", f.student.ID, f.ticket.ID).
		Update("started_at", stale).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := Start(ctx, f.db, f.student.ID, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	p := f.progress(t, f.ticket.ID)
	if time.Since(p.StartedAt) > time.Minute {
		t.Fatalf("started_at kept at %v after resume", p.StartedAt)
	}

	f.play(t, f.ticket.ID, nil)
	done := f.progress(t, f.ticket.ID)
	if done.TimeSpentSeconds == nil || *done.TimeSpentSeconds > 60 {
		t.Fatalf("time spent = %v", done.TimeSpentSeconds)
	}

	if _, err := Start(ctx, f.db, f.student.ID, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	if again := f.progress(t, f.ticket.ID); !again.StartedAt.Equal(done.StartedAt) {
		t.Fatalf("completed attempt clock moved: %v -> %v", done.StartedAt, again.StartedAt)
	}
}

func TestCompleteAttemptUpdatesProfileOnce(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	r := f.play(t, f.ticket.ID, map[string]bool{"Question C": true})
	if r.Kind != RedirectResults || r.TicketID != f.ticket.ID {
		t.Fatalf("final redirect = %+v", r)
	}

	p := f.progress(t, f.ticket.ID)
	if !p.IsCompleted || p.CompletedAt == nil || p.TimeSpentSeconds == nil {
		t.Fatalf("progress not completed: %+v", p)
	}
	if p.CorrectAnswers != 2 || p.TotalQuestions != 3 {
		t.Fatalf("counters %d/%d", p.CorrectAnswers, p.TotalQuestions)
	}

	// a second finalize is a no-op
	view, redirect, err := Results(ctx, f.db, f.student.ID, f.ticket.ID)
	if err != nil || redirect != nil {
		t.Fatalf("results: %v %+v", err, redirect)
	}
	if _, err := Finalize(ctx, f.db, f.student.ID, f.ticket, p.ID); err != nil {
		t.Fatal(err)
	}
	prof := f.profile(t)
	if prof.TicketsSolved != 1 || prof.CorrectAnswers != 2 || prof.MistakesMade != 1 {
		t.Fatalf("profile %+v", prof)
	}

	if len(view.Answers) != 3 || len(view.Wrong) != 1 || view.Wrong[0].Question.Text != "Question C" {
		t.Fatalf("results answers=%d wrong=%+v", len(view.Answers), view.Wrong)
	}
	if view.Accuracy < 66.6 || view.Accuracy > 66.7 {
		t.Fatalf("accuracy = %v", view.Accuracy)
	}

	// a completed ticket is never resumed
	r, err = Start(ctx, f.db, f.student.ID, f.ticket.ID)
	if err != nil || r.Kind != RedirectResults {
		t.Fatalf("start after completion: %+v %v", r, err)
	}
	_, r, err = SubmitAnswer(ctx, f.db, f.student.ID, f.ticket.ID, 0, f.answerFor(t, *f.byText("Question C"), true))
	if err != nil || r == nil || r.Kind != RedirectResults {
		t.Fatalf("submit after completion: %+v %v", r, err)
	}
	if got := f.progress(t, f.ticket.ID).CorrectAnswers; got != 2 {
		t.Fatalf("completed attempt changed: correct=%d", got)
	}
}

func TestResubmissionKeepsCounterInStep(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	uid := f.student.ID

	if _, err := Start(ctx, f.db, uid, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	view, _, err := PresentQuestion(ctx, f.db, uid, f.ticket.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	right := f.answerFor(t, view.Question, true)
	wrong := f.answerFor(t, view.Question, false)

	steps := []struct {
		selected []uuid.UUID
		want     int
	}{
		{right, 1},
		{right, 1},
		{wrong, 0},
		{wrong, 0},
		{right, 1},
	}
	for i, s := range steps {
		res, _, err := SubmitAnswer(ctx, f.db, uid, f.ticket.ID, 0, s.selected)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.CorrectAnswers != s.want || f.progress(t, f.ticket.ID).CorrectAnswers != s.want {
			t.Fatalf("step %d: correct = %d, want %d", i, res.CorrectAnswers, s.want)
		}
	}

	var n int64
	f.db.Model(&sessionModel.UserAnswerModel{}).Where("user_id = ?", uid).Count(&n)
	if n != 1 {
		t.Fatalf("user answers stored = %d, want 1", n)
	}

	view, _, err = PresentQuestion(ctx, f.db, uid, f.ticket.ID, 0)
	if err != nil || view.Prior == nil || !view.Prior.IsCorrect {
		t.Fatalf("prior answer not shown: %v %+v", err, view)
	}
}

func TestSubmitRejectsEmptyOrForeignSelection(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	uid := f.student.ID

	if _, err := Start(ctx, f.db, uid, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := SubmitAnswer(ctx, f.db, uid, f.ticket.ID, 0, nil); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("empty selection: %v", err)
	}
	if _, _, err := SubmitAnswer(ctx, f.db, uid, f.ticket.ID, 0, []uuid.UUID{uuid.New()}); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("foreign selection: %v", err)
	}
	if _, _, err := SubmitAnswer(ctx, f.db, uid, f.ticket.ID, -1, []uuid.UUID{uuid.New()}); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("negative index: %v", err)
	}
	if _, _, err := SubmitAnswer(ctx, f.db, uuid.New(), f.ticket.ID, 0, []uuid.UUID{uuid.New()}); !errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("no progress: %v", err)
	}
}

func TestMultipleCorrectAnswersNeedExactSet(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	uid := f.student.ID
	q := dbtest.Question(t, f.db, f.ticket.ID, f.staff.ID, "Pick two", 0,
		dbtest.Option{Text: "a", Correct: true},
		dbtest.Option{Text: "b", Correct: true},
		dbtest.Option{Text: "c"},
	)
	if _, err := Start(ctx, f.db, uid, f.ticket.ID); err != nil {
		t.Fatal(err)
	}

	a, b, c := q.Answers[0].ID, q.Answers[1].ID, q.Answers[2].ID
	cases := []struct {
		selected []uuid.UUID
		correct  bool
	}{
		{[]uuid.UUID{a}, false},
		{[]uuid.UUID{a, b, c}, false},
		{[]uuid.UUID{b, a}, true},
		{[]uuid.UUID{a, b, a}, true},
	}
	for i, tc := range cases {
		res, _, err := SubmitAnswer(ctx, f.db, uid, f.ticket.ID, 0, tc.selected)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if res.IsCorrect != tc.correct {
			t.Fatalf("case %d: correct = %v", i, res.IsCorrect)
		}
	}
}

func TestRetakeAllResetsAttemptAndProfile(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	uid := f.student.ID

	f.play(t, f.ticket.ID, map[string]bool{"Question A": true})
	r, err := Retake(ctx, f.db, uid, f.ticket.ID, RetakeAll)
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind != RedirectQuestion || r.QuestionIndex == nil || *r.QuestionIndex != 0 {
		t.Fatalf("retake redirect = %+v", r)
	}

	p := f.progress(t, f.ticket.ID)
	if p.IsCompleted || p.CompletedAt != nil || p.CorrectAnswers != 0 || p.CurrentQuestionIndex != 0 || p.HasQuestionOrder() {
		t.Fatalf("progress not reset: %+v", p)
	}
	var n int64
	f.db.Model(&sessionModel.UserAnswerModel{}).Where("user_id = ?", uid).Count(&n)
	if n != 0 {
		t.Fatalf("user answers left = %d", n)
	}
	prof := f.profile(t)
	if prof.TicketsSolved != 0 || prof.CorrectAnswers != 0 || prof.MistakesMade != 0 {
		t.Fatalf("profile not reverted: %+v", prof)
	}

	if _, err := Retake(ctx, f.db, uid, f.ticket.ID, "some"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("bad mode: %v", err)
	}
}

func TestRetakeErrorsReconcilesIntoOriginal(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	uid := f.student.ID

	f.play(t, f.ticket.ID, map[string]bool{"Question B": true})
	source := f.byText("Question B")

	r, err := Retake(ctx, f.db, uid, f.ticket.ID, RetakeErrors)
	if err != nil {
		t.Fatal(err)
	}
	tempID := r.TicketID
	if tempID == f.ticket.ID {
		t.Fatal("retake errors reused the original ticket")
	}
	var temp ticketModel.TicketModel
	if err := f.db.Take(&temp, "id = ?", tempID).Error; err != nil {
		t.Fatal(err)
	}
	if temp.Kind != ticketModel.TicketKindTemporaryFor || temp.OwnerUserID == nil || *temp.OwnerUserID != uid {
		t.Fatalf("temporary ticket %+v", temp)
	}
	if _, ok := f.answer(t, source.ID); ok {
		t.Fatal("wrong answer on the original was not cleared")
	}

	// nobody else can open it
	if _, err := Start(ctx, f.db, f.staff.ID, tempID); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("foreign user opened temp ticket: %v", err)
	}
	if _, err := Retake(ctx, f.db, uid, tempID, RetakeAll); !errors.Is(err, ErrNothingToRetake) {
		t.Fatalf("retake of temp ticket: %v", err)
	}

	r = f.play(t, tempID, nil)
	if r.Kind != RedirectResults || r.TicketID != f.ticket.ID {
		t.Fatalf("teardown redirect = %+v", r)
	}

	var left int64
	f.db.Model(&ticketModel.TicketModel{}).Where("id = ?", tempID).Count(&left)
	if left != 0 {
		t.Fatal("temporary ticket not removed")
	}
	f.db.Model(&questionModel.QuestionModel{}).Where("ticket_id = ?", tempID).Count(&left)
	if left != 0 {
		t.Fatal("temporary questions not removed")
	}

	ua, ok := f.answer(t, source.ID)
	if !ok || !ua.IsCorrect {
		t.Fatalf("original answer not reconciled: %+v", ua)
	}
	if got := ua.SelectedIDs(); len(got) != 1 || got[0] != source.CorrectAnswerIDs()[0] {
		t.Fatalf("selection not mapped onto source answers: %v", got)
	}
	if p := f.progress(t, f.ticket.ID); p.CorrectAnswers != 3 {
		t.Fatalf("original correct = %d, want 3", p.CorrectAnswers)
	}

	// nothing left to retake
	r, err = Retake(ctx, f.db, uid, f.ticket.ID, RetakeErrors)
	if !errors.Is(err, ErrNothingToRetake) {
		t.Fatalf("second retake errors: %+v %v", r, err)
	}
}

func TestErrorPracticeResolvesEagerly(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	uid := f.student.ID

	second := dbtest.Ticket(t, f.db, f.ticket.ThemeID, f.staff.ID, "Ticket 2")
	f.addQuestions(t, second.ID, "Question X", "Question Y")

	if _, _, err := StartErrorPractice(ctx, f.db, uid); !errors.Is(err, ErrNothingToRetake) {
		t.Fatalf("practice without errors: %v", err)
	}

	f.play(t, f.ticket.ID, map[string]bool{"Question A": true})
	f.play(t, second.ID, map[string]bool{"Question X": true})

	entries, err := ErrorList(ctx, f.db, uid)
	if err != nil || len(entries) != 2 {
		t.Fatalf("error list: %v %d", err, len(entries))
	}
	if entries[0].Question.Text != "Question X" || entries[0].TicketTitle != "Ticket 2" {
		t.Fatalf("most recent error first, got %+v", entries[0].Question.Text)
	}

	r, run, err := StartErrorPractice(ctx, f.db, uid)
	if err != nil {
		t.Fatal(err)
	}
	if run.StartedErrorCount != 2 || r.RunID == nil || *r.RunID != run.ID || run.Code == "" {
		t.Fatalf("run %+v redirect %+v", run, r)
	}
	aggregateID := r.TicketID

	// fix Question A, fail Question X again
	wrongText := map[string]bool{"Question X": true}
	var remaining []int
	for i := 0; ; i++ {
		view, redirect, err := PresentQuestion(ctx, f.db, uid, aggregateID, i)
		if err != nil {
			t.Fatal(err)
		}
		if redirect != nil {
			r = redirect
			break
		}
		res, _, err := SubmitAnswer(ctx, f.db, uid, aggregateID, i, f.answerFor(t, view.Question, !wrongText[view.Question.Text]))
		if err != nil {
			t.Fatal(err)
		}
		if res.RemainingErrors == nil {
			t.Fatal("remaining errors missing in practice mode")
		}
		remaining = append(remaining, *res.RemainingErrors)
	}
	if len(remaining) != 2 || remaining[1] != 1 {
		t.Fatalf("remaining after each answer = %v", remaining)
	}

	if r.Kind != RedirectAggregateResults || r.RunID == nil || *r.RunID != run.ID {
		t.Fatalf("practice redirect = %+v", r)
	}
	var closed remediationModel.RemediationRunModel
	if err := f.db.Take(&closed, "id = ?", run.ID).Error; err != nil {
		t.Fatal(err)
	}
	if closed.IsOpen() || closed.TicketID != nil || closed.ResolvedCount != 1 {
		t.Fatalf("run after practice %+v", closed)
	}
	if closed.RemainingErrorCount == nil || *closed.RemainingErrorCount != 1 {
		t.Fatalf("remaining_error_count = %v", closed.RemainingErrorCount)
	}

	if ua, ok := f.answer(t, f.byText("Question A").ID); ok {
		t.Fatalf("fixed error still on file: %+v", ua)
	}
	if ua, ok := f.answer(t, f.byText("Question X").ID); !ok || ua.IsCorrect {
		t.Fatalf("repeated error lost: %+v", ua)
	}
	if p := f.progress(t, f.ticket.ID); p.CorrectAnswers != 1 {
		t.Fatalf("ticket 1 correct = %d, want 1", p.CorrectAnswers)
	}

	var n int64
	f.db.Model(&ticketModel.TicketModel{}).Where("id = ?", aggregateID).Count(&n)
	if n != 0 {
		t.Fatal("aggregate ticket not removed")
	}
}

func TestNewPracticeClosesOlderRun(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	uid := f.student.ID

	f.play(t, f.ticket.ID, map[string]bool{"Question A": true, "Question B": true})
	_, first, err := StartErrorPractice(ctx, f.db, uid)
	if err != nil {
		t.Fatal(err)
	}
	r, second, err := StartErrorPractice(ctx, f.db, uid)
	if err != nil {
		t.Fatal(err)
	}

	var old remediationModel.RemediationRunModel
	if err := f.db.Take(&old, "id = ?", first.ID).Error; err != nil {
		t.Fatal(err)
	}
	if old.IsOpen() || old.TicketID != nil {
		t.Fatalf("older run still open: %+v", old)
	}
	var n int64
	f.db.Model(&ticketModel.TicketModel{}).Where("kind = ?", ticketModel.TicketKindTemporaryAggregate).Count(&n)
	if n != 1 {
		t.Fatalf("aggregate tickets = %d, want 1", n)
	}
	if second.StartedErrorCount != 2 || r.TicketID == *first.TicketID {
		t.Fatalf("second run %+v", second)
	}
}

func TestProgressView(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()
	uid := f.student.ID

	if _, err := GetProgress(ctx, f.db, uid, f.ticket.ID); !errors.Is(err, ErrProgressNotFound) {
		t.Fatalf("progress before start: %v", err)
	}
	if _, err := Start(ctx, f.db, uid, f.ticket.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := Advance(ctx, f.db, uid, f.ticket.ID, 0); err != nil {
		t.Fatal(err)
	}
	v, err := GetProgress(ctx, f.db, uid, f.ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Percentage != 25 || v.Remaining != 3 {
		t.Fatalf("percentage=%v remaining=%d", v.Percentage, v.Remaining)
	}
	r, err := Start(ctx, f.db, uid, f.ticket.ID)
	if err != nil || r.QuestionIndex == nil || *r.QuestionIndex != 1 {
		t.Fatalf("resume redirect = %+v %v", r, err)
	}
}

func TestCounterDelta(t *testing.T) {
	right := &sessionModel.UserAnswerModel{IsCorrect: true}
	wrong := &sessionModel.UserAnswerModel{IsCorrect: false}
	cases := []struct {
		prior   *sessionModel.UserAnswerModel
		correct bool
		want    int
	}{
		{nil, true, 1},
		{nil, false, 0},
		{wrong, true, 1},
		{right, false, -1},
		{right, true, 0},
		{wrong, false, 0},
	}
	for i, tc := range cases {
		if got := counterDelta(tc.prior, tc.correct); got != tc.want {
			t.Fatalf("case %d: delta = %d, want %d", i, got, tc.want)
		}
	}
}
