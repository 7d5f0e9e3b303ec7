package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	ticketService "medcard_backend/internals/features/catalog/tickets/service"
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

var errSourceNotFound = errors.New("source question not found")

// UpsertUserAnswer writes the latest submission of a user for a question.
func UpsertUserAnswer(tx *gorm.DB, ua *sessionModel.UserAnswerModel) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_answer_ids", "is_correct", "answered_at"}),
	}).Create(ua).Error
}

// RecountProgress rebuilds correct_answers and total_questions of the user's
// progress on a ticket from the stored answers. A missing progress is skipped.
func RecountProgress(ctx context.Context, tx *gorm.DB, userID, ticketID uuid.UUID) error {
	tx = tx.WithContext(ctx)
	var correct int64
	if err := tx.Model(&sessionModel.UserAnswerModel{}).
		Where("user_id = ? AND is_correct = ?", userID, true).
		Where("question_id IN (?)", tx.Model(&questionModel.QuestionModel{}).
			Select("id").Where("ticket_id = ? AND is_active = ?", ticketID, true)).
		Count(&correct).Error; err != nil {
		return err
	}
	total, err := ticketService.ActiveQuestionCount(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	return tx.Model(&sessionModel.TicketProgressModel{}).
		Where("user_id = ? AND ticket_id = ?", userID, ticketID).
		Updates(map[string]any{
			"correct_answers": correct,
			"total_questions": total,
		}).Error
}

func findQuestion(tx *gorm.DB, id uuid.UUID) (*questionModel.QuestionModel, error) {
	var q questionModel.QuestionModel
	err := tx.Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order(questionModel.AnswerOrderBy) }).
		Take(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errSourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// findByText matches on exact text among questions of permanent tickets,
// restricted to one ticket when ticketID is set.
func findByText(tx *gorm.DB, text string, ticketID *uuid.UUID) (*questionModel.QuestionModel, error) {
	q := tx.Model(&questionModel.QuestionModel{}).
		Where("text = ?", text).
		Where("ticket_id IN (?)", tx.Model(&ticketModel.TicketModel{}).
			Select("id").Where("kind = ?", ticketModel.TicketKindPermanent))
	if ticketID != nil {
		q = q.Where("ticket_id = ?", *ticketID)
	}
	var ids []uuid.UUID
	if err := q.Order("created_at ASC").Limit(1).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errSourceNotFound
	}
	return findQuestion(tx, ids[0])
}

// resolveSource walks lineage first, then the run mapping, then text.
func resolveSource(tx *gorm.DB, temp *questionModel.QuestionModel, mapping map[uuid.UUID]uuid.UUID, originalTicketID *uuid.UUID) (*questionModel.QuestionModel, error) {
	if temp.SourceQuestionID != nil {
		src, err := findQuestion(tx, *temp.SourceQuestionID)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, errSourceNotFound) {
			return nil, err
		}
	}
	if id, ok := mapping[temp.ID]; ok {
		src, err := findQuestion(tx, id)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, errSourceNotFound) {
			return nil, err
		}
	}
	return findByText(tx, temp.Text, originalTicketID)
}

// mapSelected translates answer ids of a copy to the source's answers,
// by lineage then by text. Unmatched ids are dropped.
func mapSelected(temp, src *questionModel.QuestionModel, selected []uuid.UUID) []uuid.UUID {
	tempByID := make(map[uuid.UUID]questionModel.AnswerModel, len(temp.Answers))
	for _, a := range temp.Answers {
		tempByID[a.ID] = a
	}
	srcIDs := make(map[uuid.UUID]bool, len(src.Answers))
	srcByText := make(map[string]uuid.UUID, len(src.Answers))
	for _, a := range src.Answers {
		srcIDs[a.ID] = true
		if _, dup := srcByText[strings.TrimSpace(a.Text)]; !dup {
			srcByText[strings.TrimSpace(a.Text)] = a.ID
		}
	}

	out := make([]uuid.UUID, 0, len(selected))
	for _, id := range selected {
		a, ok := tempByID[id]
		if !ok {
			continue
		}
		if a.SourceAnswerID != nil && srcIDs[*a.SourceAnswerID] {
			out = append(out, *a.SourceAnswerID)
			continue
		}
		if sid, ok := srcByText[strings.TrimSpace(a.Text)]; ok {
			out = append(out, sid)
		}
	}
	return out
}

// Reconcile copies the user's answers on a temporary_for ticket onto the
// questions of the original ticket, then recounts the original progress.
// Questions that cannot be resolved are logged and skipped.
func Reconcile(ctx context.Context, tx *gorm.DB, userID uuid.UUID, temp *ticketModel.TicketModel) (int, error) {
	originalID, ok := temp.OriginalID()
	if !ok {
		return 0, fmt.Errorf("ticket %s is not a temporary_for ticket", temp.ID)
	}
	tx = tx.WithContext(ctx)

	var questions []questionModel.QuestionModel
	if err := tx.Preload("Answers").
		Where("ticket_id = ? AND is_active = ?", temp.ID, true).
		Find(&questions).Error; err != nil {
		return 0, err
	}
	if len(questions) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	var answers []sessionModel.UserAnswerModel
	if err := tx.Where("user_id = ? AND question_id IN ?", userID, ids).Find(&answers).Error; err != nil {
		return 0, err
	}
	byQuestion := make(map[uuid.UUID]sessionModel.UserAnswerModel, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	reconciled := 0
	for i := range questions {
		q := &questions[i]
		ua, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		err := tx.Transaction(func(sp *gorm.DB) error {
			src, err := resolveSource(sp, q, nil, &originalID)
			if err != nil {
				return err
			}
			selected, err := sessionModel.EncodeIDs(mapSelected(q, src, ua.SelectedIDs()))
			if err != nil {
				return err
			}
			return UpsertUserAnswer(sp, &sessionModel.UserAnswerModel{
				UserID:            userID,
				QuestionID:        src.ID,
				SelectedAnswerIDs: selected,
				IsCorrect:         ua.IsCorrect,
				AnsweredAt:        ua.AnsweredAt,
			})
		})
		if err != nil {
			log.Printf("[Reconcile] skip question=%s temp_ticket=%s: %v", q.ID, temp.ID, err)
			continue
		}
		reconciled++
	}

	if err := RecountProgress(ctx, tx, userID, originalID); err != nil {
		return reconciled, err
	}
	return reconciled, nil
}

// ReconcileEager applies one aggregate-mode submission to the source question:
// a correct answer clears the source's wrong answer, a wrong one is recorded
// on the source. It returns the run's remaining error count.
func ReconcileEager(ctx context.Context, tx *gorm.DB, userID uuid.UUID, temp *questionModel.QuestionModel, ua *sessionModel.UserAnswerModel) (int, error) {
	tx = tx.WithContext(ctx)

	run, err := OpenRunForTicket(ctx, tx, temp.TicketID)
	if err != nil {
		return 0, err
	}
	var mapping map[uuid.UUID]uuid.UUID
	if run != nil {
		if mapping, err = run.Mapping(); err != nil {
			return 0, err
		}
	}

	src, err := resolveSource(tx, temp, mapping, nil)
	if errors.Is(err, errSourceNotFound) {
		log.Printf("[Reconcile] no source for question=%s", temp.ID)
		return remaining(ctx, tx, run)
	}
	if err != nil {
		return 0, err
	}

	if ua.IsCorrect {
		res := tx.Where("user_id = ? AND question_id = ? AND is_correct = ?", userID, src.ID, false).
			Delete(&sessionModel.UserAnswerModel{})
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected > 0 && run != nil {
			if err := tx.Model(&remediationModel.RemediationRunModel{}).
				Where("id = ?", run.ID).
				Update("resolved_count", gorm.Expr("resolved_count + ?", res.RowsAffected)).Error; err != nil {
				return 0, err
			}
		}
	} else {
		selected, err := sessionModel.EncodeIDs(mapSelected(temp, src, ua.SelectedIDs()))
		if err != nil {
			return 0, err
		}
		if err := UpsertUserAnswer(tx, &sessionModel.UserAnswerModel{
			UserID:            userID,
			QuestionID:        src.ID,
			SelectedAnswerIDs: selected,
			IsCorrect:         false,
			AnsweredAt:        ua.AnsweredAt,
		}); err != nil {
			return 0, err
		}
	}

	if err := RecountProgress(ctx, tx, userID, src.TicketID); err != nil {
		return 0, err
	}
	return remaining(ctx, tx, run)
}

func remaining(ctx context.Context, tx *gorm.DB, run *remediationModel.RemediationRunModel) (int, error) {
	if run == nil {
		return 0, nil
	}
	n, err := RemainingErrors(ctx, tx, run)
	if err != nil {
		return 0, err
	}
	if err := tx.Model(&remediationModel.RemediationRunModel{}).
		Where("id = ?", run.ID).
		Update("remaining_error_count", n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Outcome tells the caller where to send the user after teardown.
type Outcome struct {
	Aggregate bool
	// original ticket for temporary_for, the removed ticket for aggregates
	TicketID uuid.UUID
	RunID    *uuid.UUID
}

// Teardown finishes a completed temporary ticket and deletes it with its
// questions, answers, user answers and progress. Run inside a transaction.
func Teardown(ctx context.Context, tx *gorm.DB, userID uuid.UUID, temp *ticketModel.TicketModel) (*Outcome, error) {
	tx = tx.WithContext(ctx)

	switch temp.Kind {
	case ticketModel.TicketKindTemporaryFor:
		n, err := Reconcile(ctx, tx, userID, temp)
		if err != nil {
			return nil, err
		}
		originalID, _ := temp.OriginalID()
		if err := ticketService.PurgeTickets(tx, []uuid.UUID{temp.ID}); err != nil {
			return nil, err
		}
		log.Printf("[Remediation] teardown ticket=%s reconciled=%d original=%s", temp.ID, n, originalID)
		return &Outcome{TicketID: originalID}, nil

	case ticketModel.TicketKindTemporaryAggregate:
		out := &Outcome{Aggregate: true, TicketID: temp.ID}
		run, err := OpenRunForTicket(ctx, tx, temp.ID)
		if err != nil {
			return nil, err
		}
		if run != nil {
			left, err := CloseRun(ctx, tx, run)
			if err != nil {
				return nil, err
			}
			out.RunID = &run.ID
			log.Printf("[Remediation] closed run=%s remaining=%d", run.ID, left)
		} else {
			log.Printf("[Remediation] aggregate ticket=%s has no open run", temp.ID)
		}
		if err := ticketService.PurgeTickets(tx, []uuid.UUID{temp.ID}); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("ticket %s is not temporary", temp.ID)
}

// RunSummary is the aggregate results view of a run.
type RunSummary struct {
	Run       *remediationModel.RemediationRunModel
	Remaining int
	Resolved  int
	Duration  time.Duration
}

func Summarize(ctx context.Context, db *gorm.DB, run *remediationModel.RemediationRunModel) (*RunSummary, error) {
	s := &RunSummary{Run: run, Resolved: run.ResolvedCount}
	if run.IsOpen() || run.RemainingErrorCount == nil {
		n, err := RemainingErrors(ctx, db, run)
		if err != nil {
			return nil, err
		}
		s.Remaining = n
	} else {
		s.Remaining = *run.RemainingErrorCount
	}
	end := time.Now()
	if run.ClosedAt != nil {
		end = *run.ClosedAt
	}
	s.Duration = end.Sub(run.CreatedAt)
	return s, nil
}
