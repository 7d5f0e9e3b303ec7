package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	favoriteModel "medcard_backend/internals/features/catalog/favorites/model"
	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

var ErrTicketNotFound = errors.New("ticket not found")

// FindVisible loads an active ticket the user may open. Temporary tickets
// of other users are reported as not found.
func FindVisible(ctx context.Context, db *gorm.DB, ticketID, userID uuid.UUID) (*ticketModel.TicketModel, error) {
	var t ticketModel.TicketModel
	if err := db.WithContext(ctx).Take(&t, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if !t.VisibleTo(userID) {
		return nil, ErrTicketNotFound
	}
	return &t, nil
}

// FindPublic loads an active permanent ticket.
func FindPublic(ctx context.Context, db *gorm.DB, ticketID uuid.UUID) (*ticketModel.TicketModel, error) {
	var t ticketModel.TicketModel
	err := db.WithContext(ctx).
		Where("id = ? AND is_active = ? AND kind = ?", ticketID, true, ticketModel.TicketKindPermanent).
		Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ActiveQuestionCount(ctx context.Context, db *gorm.DB, ticketID uuid.UUID) (int, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&questionModel.QuestionModel{}).
		Where("ticket_id = ? AND is_active = ?", ticketID, true).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// ActiveQuestionCounts returns ticket id -> active question count.
func ActiveQuestionCounts(ctx context.Context, db *gorm.DB, ticketIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TicketID uuid.UUID
		N        int
	}
	if err := db.WithContext(ctx).Model(&questionModel.QuestionModel{}).
		Select("ticket_id, COUNT(*) AS n").
		Where("ticket_id IN ? AND is_active = ?", ticketIDs, true).
		Group("ticket_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TicketID] = r.N
	}
	return out, nil
}

// PurgeTickets deletes tickets together with everything hanging off them:
// temporary tickets derived from them, questions, answers, user answers,
// progress rows and favorites. Remediation runs lose their ticket reference.
// Run it inside a transaction.
func PurgeTickets(tx *gorm.DB, ticketIDs []uuid.UUID) error {
	if len(ticketIDs) == 0 {
		return nil
	}

	var derived []uuid.UUID
	if err := tx.Model(&ticketModel.TicketModel{}).
		Where("original_ticket_id IN ? AND id NOT IN ?", ticketIDs, ticketIDs).
		Pluck("id", &derived).Error; err != nil {
		return err
	}
	if err := PurgeTickets(tx, derived); err != nil {
		return err
	}

	var questionIDs []uuid.UUID
	if err := tx.Model(&questionModel.QuestionModel{}).
		Where("ticket_id IN ?", ticketIDs).
		Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if len(questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", questionIDs).Delete(&sessionModel.UserAnswerModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN ?", questionIDs).Delete(&questionModel.AnswerModel{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&questionModel.QuestionModel{}).
			Where("original_question_id IN ?", questionIDs).
			Update("original_question_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", questionIDs).Delete(&questionModel.QuestionModel{}).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("ticket_id IN ?", ticketIDs).Delete(&sessionModel.TicketProgressModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("target_kind = ? AND target_id IN ?", favoriteModel.TargetTicket, ticketIDs).
		Delete(&favoriteModel.FavoriteModel{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&remediationModel.RemediationRunModel{}).
		Where("ticket_id IN ?", ticketIDs).
		Update("ticket_id", nil).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ticketIDs).Delete(&ticketModel.TicketModel{}).Error
}
