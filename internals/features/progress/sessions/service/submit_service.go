package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	remediationService "medcard_backend/internals/features/progress/remediation/service"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

// SubmitResult describes a stored answer.
type SubmitResult struct {
	QuestionID       uuid.UUID
	IsCorrect        bool
	SelectedIDs      []uuid.UUID
	CorrectAnswerIDs []uuid.UUID
	CorrectAnswers   int
	NextIndex        int
	IsLast           bool
	// set in error practice mode
	RemainingErrors *int
}

// filterSelected keeps distinct ids of the question's active answers.
func filterSelected(q *questionModel.QuestionModel, selected []uuid.UUID) []uuid.UUID {
	active := make(map[uuid.UUID]bool, len(q.Answers))
	for _, a := range q.Answers {
		if a.IsActive {
			active[a.ID] = true
		}
	}
	seen := make(map[uuid.UUID]bool, len(selected))
	out := make([]uuid.UUID, 0, len(selected))
	for _, id := range selected {
		if active[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// sameSet reports whether a and b hold the same distinct ids.
func sameSet(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	in := make(map[uuid.UUID]bool, len(a))
	for _, id := range a {
		in[id] = true
	}
	for _, id := range b {
		if !in[id] {
			return false
		}
	}
	return true
}

// counterDelta is the change to correct_answers for a (re)submission.
func counterDelta(prior *sessionModel.UserAnswerModel, correct bool) int {
	switch {
	case prior == nil && correct:
		return 1
	case prior == nil:
		return 0
	case !prior.IsCorrect && correct:
		return 1
	case prior.IsCorrect && !correct:
		return -1
	}
	return 0
}

// SubmitAnswer stores the user's selection for the question at index and
// keeps correct_answers in step with it. The progress row is locked for the
// whole transaction.
func SubmitAnswer(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID, index int, selected []uuid.UUID) (*SubmitResult, *Redirect, error) {
	if len(selected) == 0 {
		return nil, nil, ErrEmptySelection
	}
	if index < 0 {
		return nil, nil, ErrInvalidIndex
	}
	t, err := findTicket(ctx, db, userID, ticketID)
	if err != nil {
		return nil, nil, err
	}

	var (
		res      *SubmitResult
		redirect *Redirect
	)
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p sessionModel.TicketProgressModel
		if err := lockForUpdate(tx).
			Where("user_id = ? AND ticket_id = ?", userID, t.ID).
			Take(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProgressNotFound
			}
			return err
		}
		if p.IsCompleted {
			redirect = ToResults(t.ID)
			return nil
		}

		seq, err := LoadQuestionSequence(ctx, tx, &p)
		if err != nil {
			return err
		}
		if index >= len(seq) {
			redirect = ToResults(t.ID)
			return nil
		}
		q := seq[index]

		picked := filterSelected(&q, selected)
		if len(picked) == 0 {
			return ErrEmptySelection
		}
		correctIDs := q.CorrectAnswerIDs()
		isCorrect := sameSet(picked, correctIDs)

		prior, err := priorAnswer(tx, userID, q.ID)
		if err != nil {
			return err
		}
		enc, err := sessionModel.EncodeIDs(picked)
		if err != nil {
			return err
		}
		ua := &sessionModel.UserAnswerModel{
			UserID:            userID,
			QuestionID:        q.ID,
			SelectedAnswerIDs: enc,
			IsCorrect:         isCorrect,
			AnsweredAt:        time.Now(),
		}
		if err := remediationService.UpsertUserAnswer(tx, ua); err != nil {
			return err
		}

		switch d := counterDelta(prior, isCorrect); {
		case d > 0:
			err = tx.Model(&sessionModel.TicketProgressModel{}).Where("id = ?", p.ID).
				Update("correct_answers", gorm.Expr("correct_answers + ?", d)).Error
			p.CorrectAnswers += d
		case d < 0:
			err = tx.Model(&sessionModel.TicketProgressModel{}).Where("id = ?", p.ID).
				Update("correct_answers", gorm.Expr("CASE WHEN correct_answers > ? THEN correct_answers - ? ELSE 0 END", -d, -d)).Error
			if p.CorrectAnswers += d; p.CorrectAnswers < 0 {
				p.CorrectAnswers = 0
			}
		}
		if err != nil {
			return err
		}

		res = &SubmitResult{
			QuestionID:       q.ID,
			IsCorrect:        isCorrect,
			SelectedIDs:      picked,
			CorrectAnswerIDs: correctIDs,
			CorrectAnswers:   p.CorrectAnswers,
			NextIndex:        index + 1,
			IsLast:           index == len(seq)-1,
		}

		if t.Kind == ticketModel.TicketKindTemporaryAggregate {
			left, err := remediationService.ReconcileEager(ctx, tx, userID, &q, ua)
			if err != nil {
				return err
			}
			res.RemainingErrors = &left
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if res != nil {
		log.Printf("[SessionService] submit user=%s ticket=%s index=%d correct=%t", userID, t.ID, index, res.IsCorrect)
	}
	return res, redirect, nil
}
