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
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	remediationService "medcard_backend/internals/features/progress/remediation/service"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
	profileService "medcard_backend/internals/features/users/user_profiles/service"
)

type RetakeMode string

const (
	RetakeAll    RetakeMode = "all"
	RetakeErrors RetakeMode = "errors"
)

// Retake restarts a permanent ticket. RetakeAll wipes the attempt and
// reverses its profile contribution; RetakeErrors builds a temporary ticket
// from the questions answered wrong.
func Retake(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID, mode RetakeMode) (*Redirect, error) {
	t, err := findTicket(ctx, db, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if t.IsTemporary() {
		return nil, ErrNothingToRetake
	}
	switch mode {
	case RetakeAll:
		return retakeAll(ctx, db, userID, t)
	case RetakeErrors:
		return retakeErrors(ctx, db, userID, t)
	}
	return nil, ErrInvalidMode
}

func questionIDsOf(tx *gorm.DB, ticketID uuid.UUID) *gorm.DB {
	return tx.Model(&questionModel.QuestionModel{}).Select("id").Where("ticket_id = ?", ticketID)
}

func retakeAll(ctx context.Context, db *gorm.DB, userID uuid.UUID, t *ticketModel.TicketModel) (*Redirect, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p sessionModel.TicketProgressModel
		err := lockForUpdate(tx).Where("user_id = ? AND ticket_id = ?", userID, t.ID).Take(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_, err = getOrCreateProgress(ctx, tx, userID, t.ID)
			return err
		}
		if err != nil {
			return err
		}

		if p.IsCompleted {
			delta := profileService.Delta{Correct: p.CorrectAnswers, Total: p.TotalQuestions}
			if err := profileService.RevertCompletion(ctx, tx, userID, delta); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ? AND question_id IN (?)", userID, questionIDsOf(tx, t.ID)).
			Delete(&sessionModel.UserAnswerModel{}).Error; err != nil {
			return err
		}

		var total int64
		if err := tx.Model(&questionModel.QuestionModel{}).
			Where("ticket_id = ? AND is_active = ?", t.ID, true).
			Count(&total).Error; err != nil {
			return err
		}
		return tx.Model(&sessionModel.TicketProgressModel{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{
				"current_question_index": 0,
				"is_completed":           false,
				"completed_at":           nil,
				"correct_answers":        0,
				"total_questions":        total,
				"time_spent_seconds":     nil,
				"question_order":         sessionModel.EmptyJSONList,
				"started_at":             time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[SessionService] retake all user=%s ticket=%s", userID, t.ID)
	return ToQuestion(t.ID, 0), nil
}

// FailedQuestions returns the active questions of a ticket the user last
// answered wrong, with answers loaded.
func FailedQuestions(tx *gorm.DB, userID, ticketID uuid.UUID) ([]questionModel.QuestionModel, error) {
	var qs []questionModel.QuestionModel
	err := tx.
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order(questionModel.AnswerOrderBy) }).
		Where("ticket_id = ? AND is_active = ?", ticketID, true).
		Where("id IN (?)", tx.Model(&sessionModel.UserAnswerModel{}).
			Select("question_id").Where("user_id = ? AND is_correct = ?", userID, false)).
		Order(questionModel.OrderBy).
		Find(&qs).Error
	return qs, err
}

func retakeErrors(ctx context.Context, db *gorm.DB, userID uuid.UUID, t *ticketModel.TicketModel) (*Redirect, error) {
	var temp *ticketModel.TicketModel
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		failed, err := FailedQuestions(tx, userID, t.ID)
		if err != nil {
			return err
		}
		if temp, err = remediationService.CreateFromOriginal(tx, userID, t, failed); err != nil {
			return err
		}
		if temp == nil {
			return ErrNothingToRetake
		}
		_, err = getOrCreateProgress(ctx, tx, userID, temp.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToQuestion(temp.ID, 0), nil
}

// StartErrorPractice opens a ticket with every question the user currently
// has wrong.
func StartErrorPractice(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*Redirect, *remediationModel.RemediationRunModel, error) {
	temp, run, err := remediationService.CreateFromAllErrors(ctx, db, userID)
	if errors.Is(err, remediationService.ErrNoErrors) {
		return nil, nil, ErrNothingToRetake
	}
	if err != nil {
		return nil, nil, err
	}
	if _, err := getOrCreateProgress(ctx, db, userID, temp.ID); err != nil {
		return nil, nil, err
	}
	r := ToQuestion(temp.ID, 0)
	r.RunID = &run.ID
	return r, run, nil
}

// ErrorEntry is one current mistake of the user.
type ErrorEntry struct {
	Question    questionModel.QuestionModel
	TicketTitle string
	SelectedIDs []uuid.UUID
	AnsweredAt  time.Time
}

// ErrorList returns the user's current wrong answers on permanent tickets,
// most recent first.
func ErrorList(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]ErrorEntry, error) {
	ids, err := remediationService.WrongQuestionIDs(ctx, db, userID)
	if err != nil || len(ids) == 0 {
		return []ErrorEntry{}, err
	}
	db = db.WithContext(ctx)

	var qs []questionModel.QuestionModel
	if err := db.Preload("Answers", func(tx *gorm.DB) *gorm.DB { return tx.Order(questionModel.AnswerOrderBy) }).
		Where("id IN ?", ids).Find(&qs).Error; err != nil {
		return nil, err
	}
	var answers []sessionModel.UserAnswerModel
	if err := db.Where("user_id = ? AND question_id IN ?", userID, ids).Find(&answers).Error; err != nil {
		return nil, err
	}
	ticketIDs := make([]uuid.UUID, 0, len(qs))
	for _, q := range qs {
		ticketIDs = append(ticketIDs, q.TicketID)
	}
	var tickets []ticketModel.TicketModel
	if err := db.Select("id", "title").Where("id IN ?", ticketIDs).Find(&tickets).Error; err != nil {
		return nil, err
	}

	titles := make(map[uuid.UUID]string, len(tickets))
	for _, t := range tickets {
		titles[t.ID] = t.Title
	}
	byQuestion := make(map[uuid.UUID]questionModel.QuestionModel, len(qs))
	for _, q := range qs {
		byQuestion[q.ID] = q
	}
	uaByQuestion := make(map[uuid.UUID]sessionModel.UserAnswerModel, len(answers))
	for _, a := range answers {
		uaByQuestion[a.QuestionID] = a
	}

	out := make([]ErrorEntry, 0, len(ids))
	for _, id := range ids {
		q, ok := byQuestion[id]
		if !ok {
			continue
		}
		ua := uaByQuestion[id]
		out = append(out, ErrorEntry{
			Question:    q,
			TicketTitle: titles[q.TicketID],
			SelectedIDs: ua.SelectedIDs(),
			AnsweredAt:  ua.AnsweredAt,
		})
	}
	return out, nil
}
