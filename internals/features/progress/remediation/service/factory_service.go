package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	questionService "medcard_backend/internals/features/catalog/questions/service"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	ticketService "medcard_backend/internals/features/catalog/tickets/service"
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

var (
	ErrNoErrors    = errors.New("no wrong answers to practice")
	ErrRunNotFound = errors.New("remediation run not found")
)

const (
	RetakeTitleSuffix = " - Retake errors"
	AggregateTitle    = "Error practice"
)

// WrongQuestionIDs returns the permanent, active questions the user last
// answered wrong, most recent first.
func WrongQuestionIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).
		Table("user_answers AS ua").
		Joins("JOIN questions q ON q.id = ua.question_id").
		Joins("JOIN tickets t ON t.id = q.ticket_id").
		Where("ua.user_id = ? AND ua.is_correct = ?", userID, false).
		Where("q.is_active = ? AND t.kind = ?", true, ticketModel.TicketKindPermanent).
		Order("ua.answered_at DESC").
		Pluck("ua.question_id", &ids).Error
	return ids, err
}

func loadWithAnswers(tx *gorm.DB, ids []uuid.UUID) ([]questionModel.QuestionModel, error) {
	var qs []questionModel.QuestionModel
	if err := tx.
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order(questionModel.AnswerOrderBy) }).
		Where("id IN ?", ids).
		Find(&qs).Error; err != nil {
		return nil, err
	}
	// keep the caller's order
	byID := make(map[uuid.UUID]questionModel.QuestionModel, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]questionModel.QuestionModel, 0, len(qs))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// CreateFromOriginal builds a temporary_for ticket holding copies of the
// failed questions and clears the user's wrong answers on the originals.
// It returns nil when there is nothing to copy. Run inside a transaction.
func CreateFromOriginal(tx *gorm.DB, userID uuid.UUID, original *ticketModel.TicketModel, failed []questionModel.QuestionModel) (*ticketModel.TicketModel, error) {
	if len(failed) == 0 {
		return nil, nil
	}

	originalID := original.ID
	owner := userID
	temp := &ticketModel.TicketModel{
		ThemeID:          original.ThemeID,
		Title:            original.Title + RetakeTitleSuffix,
		Description:      original.Description,
		IsActive:         true,
		SortOrder:        original.SortOrder,
		CreatedBy:        userID,
		Kind:             ticketModel.TicketKindTemporaryFor,
		OriginalTicketID: &originalID,
		OwnerUserID:      &owner,
	}
	if err := tx.Create(temp).Error; err != nil {
		return nil, fmt.Errorf("create temporary ticket: %w", err)
	}

	sourceIDs := make([]uuid.UUID, 0, len(failed))
	for i := range failed {
		if _, err := questionService.CopyQuestion(tx, &failed[i], temp.ID, userID, questionService.LineageSource); err != nil {
			return nil, fmt.Errorf("copy question %s: %w", failed[i].ID, err)
		}
		sourceIDs = append(sourceIDs, failed[i].ID)
	}

	if err := tx.Where("user_id = ? AND question_id IN ? AND is_correct = ?", userID, sourceIDs, false).
		Delete(&sessionModel.UserAnswerModel{}).Error; err != nil {
		return nil, err
	}

	log.Printf("[Remediation] user=%s retake ticket=%s from=%s questions=%d", userID, temp.ID, original.ID, len(failed))
	return temp, nil
}

// CreateFromAllErrors copies every question the user currently has wrong into
// one temporary_aggregate ticket backed by a RemediationRun. Older open runs
// of the user are closed and their tickets removed first.
func CreateFromAllErrors(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*ticketModel.TicketModel, *remediationModel.RemediationRunModel, error) {
	var (
		temp *ticketModel.TicketModel
		run  *remediationModel.RemediationRunModel
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeOpenRuns(ctx, tx, userID); err != nil {
			return err
		}

		ids, err := WrongQuestionIDs(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNoErrors
		}
		sources, err := loadWithAnswers(tx, ids)
		if err != nil {
			return err
		}

		owner := userID
		temp = &ticketModel.TicketModel{
			Title:       AggregateTitle,
			Description: fmt.Sprintf("%d questions answered wrong", len(sources)),
			IsActive:    true,
			CreatedBy:   userID,
			Kind:        ticketModel.TicketKindTemporaryAggregate,
			OwnerUserID: &owner,
		}
		if err := tx.Create(temp).Error; err != nil {
			return fmt.Errorf("create aggregate ticket: %w", err)
		}

		mapping := make(map[uuid.UUID]uuid.UUID, len(sources))
		for i := range sources {
			// authored order is meaningless across tickets
			sources[i].SortOrder = i
			cp, err := questionService.CopyQuestion(tx, &sources[i], temp.ID, userID, questionService.LineageSource)
			if err != nil {
				return fmt.Errorf("copy question %s: %w", sources[i].ID, err)
			}
			mapping[cp.ID] = sources[i].ID
		}

		ticketID := temp.ID
		remaining := len(sources)
		run = &remediationModel.RemediationRunModel{
			UserID:              userID,
			TicketID:            &ticketID,
			StartedErrorCount:   len(sources),
			RemainingErrorCount: &remaining,
		}
		if err := run.SetMapping(mapping); err != nil {
			return err
		}
		return tx.Create(run).Error
	})
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[Remediation] user=%s run=%s code=%s errors=%d", userID, run.ID, run.Code, run.StartedErrorCount)
	return temp, run, nil
}

// closeOpenRuns closes every open run of the user and drops its ticket.
func closeOpenRuns(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	var runs []remediationModel.RemediationRunModel
	if err := tx.WithContext(ctx).
		Where("user_id = ? AND closed_at IS NULL", userID).
		Find(&runs).Error; err != nil {
		return err
	}
	for i := range runs {
		if _, err := CloseRun(ctx, tx, &runs[i]); err != nil {
			return err
		}
		if runs[i].TicketID != nil {
			if err := ticketService.PurgeTickets(tx, []uuid.UUID{*runs[i].TicketID}); err != nil {
				return err
			}
		}
	}
	return nil
}

// CloseRun stamps closed_at and the remaining error count and clears the
// ticket reference. The returned run still carries the old TicketID.
func CloseRun(ctx context.Context, tx *gorm.DB, run *remediationModel.RemediationRunModel) (int, error) {
	remaining, err := RemainingErrors(ctx, tx, run)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	res := tx.WithContext(ctx).Model(&remediationModel.RemediationRunModel{}).
		Where("id = ? AND closed_at IS NULL", run.ID).
		Updates(map[string]any{
			"closed_at":             now,
			"remaining_error_count": remaining,
			"ticket_id":             nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	run.ClosedAt = &now
	run.RemainingErrorCount = &remaining
	return remaining, nil
}

// RemainingErrors counts the run's source questions that are still wrong.
func RemainingErrors(ctx context.Context, db *gorm.DB, run *remediationModel.RemediationRunModel) (int, error) {
	mapping, err := run.Mapping()
	if err != nil {
		return 0, err
	}
	if len(mapping) == 0 {
		return 0, nil
	}
	sources := make([]uuid.UUID, 0, len(mapping))
	for _, src := range mapping {
		sources = append(sources, src)
	}
	var n int64
	if err := db.WithContext(ctx).Model(&sessionModel.UserAnswerModel{}).
		Where("user_id = ? AND question_id IN ? AND is_correct = ?", run.UserID, sources, false).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// OpenRunForTicket returns the open run backing an aggregate ticket, or nil.
func OpenRunForTicket(ctx context.Context, db *gorm.DB, ticketID uuid.UUID) (*remediationModel.RemediationRunModel, error) {
	var run remediationModel.RemediationRunModel
	err := db.WithContext(ctx).
		Where("ticket_id = ? AND closed_at IS NULL", ticketID).
		Order("created_at DESC").
		Take(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindRun loads a run of the user by id or public code.
func FindRun(ctx context.Context, db *gorm.DB, userID uuid.UUID, idOrCode string) (*remediationModel.RemediationRunModel, error) {
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if id, err := uuid.Parse(idOrCode); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("code = ?", idOrCode)
	}
	var run remediationModel.RemediationRunModel
	err := q.Take(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
