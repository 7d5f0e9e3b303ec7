package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	remediationService "medcard_backend/internals/features/progress/remediation/service"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
	profileService "medcard_backend/internals/features/users/user_profiles/service"
)

// Finalize completes an attempt exactly once. Only the call that flips
// is_completed stamps completion, updates the profile and tears down a
// temporary ticket; later calls just redirect to the results.
func Finalize(ctx context.Context, db *gorm.DB, userID uuid.UUID, t *ticketModel.TicketModel, progressID uuid.UUID) (*Redirect, error) {
	redirect := ToResults(t.ID)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p sessionModel.TicketProgressModel
		if err := tx.Take(&p, "id = ?", progressID).Error; err != nil {
			return err
		}

		now := time.Now()
		spent := int64(now.Sub(p.StartedAt) / time.Second)
		if spent < 0 {
			spent = 0
		}
		res := tx.Model(&sessionModel.TicketProgressModel{}).
			Where("id = ? AND is_completed = ?", p.ID, false).
			Updates(map[string]any{
				"is_completed":       true,
				"completed_at":       now,
				"time_spent_seconds": spent,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		delta := profileService.Delta{Correct: p.CorrectAnswers, Total: p.TotalQuestions}
		if err := profileService.ApplyCompletion(ctx, tx, userID, delta); err != nil {
			return err
		}
		log.Printf("[SessionService] finalize user=%s ticket=%s %d/%d", userID, t.ID, p.CorrectAnswers, p.TotalQuestions)

		if !t.IsTemporary() {
			return nil
		}
		out, err := remediationService.Teardown(ctx, tx, userID, t)
		if err != nil {
			return err
		}
		if out.Aggregate {
			redirect = &Redirect{Kind: RedirectAggregateResults, TicketID: out.TicketID, RunID: out.RunID}
		} else {
			redirect = ToResults(out.TicketID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redirect, nil
}

// Review is one answered question in the results view.
type Review struct {
	Question         questionModel.QuestionModel
	SelectedIDs      []uuid.UUID
	CorrectAnswerIDs []uuid.UUID
	IsCorrect        bool
	AnsweredAt       time.Time
}

// ResultsView summarizes a completed attempt.
type ResultsView struct {
	Ticket    *ticketModel.TicketModel
	Progress  *sessionModel.TicketProgressModel
	Accuracy  float64
	TimeSpent time.Duration
	Answers   []Review
	Wrong     []Review
}

// Results returns the summary of an attempt, finalizing it first when it is
// still running. A temporary ticket is gone after finalizing, so the caller
// gets the redirect of its teardown instead.
func Results(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID) (*ResultsView, *Redirect, error) {
	t, p, err := open(ctx, db, userID, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if !p.IsCompleted {
		r, err := Finalize(ctx, db, userID, t, p.ID)
		if err != nil {
			return nil, nil, err
		}
		if t.IsTemporary() {
			return nil, r, nil
		}
		if p, err = findProgress(db.WithContext(ctx), userID, t.ID); err != nil {
			return nil, nil, err
		}
	}

	seq, err := LoadQuestionSequence(ctx, db, p)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uuid.UUID, 0, len(seq))
	for _, q := range seq {
		ids = append(ids, q.ID)
	}
	var answers []sessionModel.UserAnswerModel
	if len(ids) > 0 {
		if err := db.WithContext(ctx).
			Where("user_id = ? AND question_id IN ?", userID, ids).
			Find(&answers).Error; err != nil {
			return nil, nil, err
		}
	}
	byQuestion := make(map[uuid.UUID]sessionModel.UserAnswerModel, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	view := &ResultsView{
		Ticket:    t,
		Progress:  p,
		Accuracy:  p.Accuracy(),
		TimeSpent: p.TimeSpent(time.Now()),
		Answers:   make([]Review, 0, len(answers)),
		Wrong:     []Review{},
	}
	for _, q := range seq {
		ua, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		r := Review{
			Question:         q,
			SelectedIDs:      ua.SelectedIDs(),
			CorrectAnswerIDs: q.CorrectAnswerIDs(),
			IsCorrect:        ua.IsCorrect,
			AnsweredAt:       ua.AnsweredAt,
		}
		view.Answers = append(view.Answers, r)
		if !r.IsCorrect {
			view.Wrong = append(view.Wrong, r)
		}
	}
	return view, nil, nil
}
