package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoTargetTickets  = errors.New("no target tickets given")
)

// Lineage selects which back-reference a copy records.
type Lineage int

const (
	// LineageClone is a staff clone: original_question_id, all answers copied.
	LineageClone Lineage = iota
	// LineageSource is a remediation copy: source_question_id/source_answer_id,
	// active answers only.
	LineageSource
)

// FindWithAnswers loads a question with its answers in authored order.
func FindWithAnswers(ctx context.Context, db *gorm.DB, id uuid.UUID) (*questionModel.QuestionModel, error) {
	var q questionModel.QuestionModel
	err := db.WithContext(ctx).
		Preload("Answers", func(tx *gorm.DB) *gorm.DB { return tx.Order(questionModel.AnswerOrderBy) }).
		Take(&q, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CopyQuestion creates a copy of src (answers preloaded) inside ticketID.
func CopyQuestion(tx *gorm.DB, src *questionModel.QuestionModel, ticketID, createdBy uuid.UUID, lineage Lineage) (*questionModel.QuestionModel, error) {
	cp := &questionModel.QuestionModel{
		TicketID:  ticketID,
		Text:      src.Text,
		ImageURL:  src.ImageURL,
		IsActive:  true,
		SortOrder: src.SortOrder,
		CreatedBy: createdBy,
	}
	switch lineage {
	case LineageClone:
		root := src.ID
		if src.OriginalQuestionID != nil {
			root = *src.OriginalQuestionID
		}
		cp.OriginalQuestionID = &root
		cp.IsActive = src.IsActive
	case LineageSource:
		srcID := src.ID
		cp.SourceQuestionID = &srcID
	}

	if err := tx.Omit("Answers").Create(cp).Error; err != nil {
		return nil, err
	}

	answers := make([]questionModel.AnswerModel, 0, len(src.Answers))
	for _, a := range src.Answers {
		if lineage == LineageSource && !a.IsActive {
			continue
		}
		na := questionModel.AnswerModel{
			QuestionID: cp.ID,
			Text:       a.Text,
			IsCorrect:  a.IsCorrect,
			IsActive:   a.IsActive,
			SortOrder:  a.SortOrder,
		}
		if lineage == LineageSource {
			srcAnswerID := a.ID
			na.SourceAnswerID = &srcAnswerID
		}
		answers = append(answers, na)
	}
	if len(answers) > 0 {
		if err := tx.Create(&answers).Error; err != nil {
			return nil, err
		}
	}
	cp.Answers = answers
	return cp, nil
}

// CloneResult lists what CloneToTickets created and skipped.
type CloneResult struct {
	Created []questionModel.QuestionModel
	Skipped []uuid.UUID
}

// CloneToTickets copies a question into every target permanent ticket that
// does not already hold it or a clone of it.
func CloneToTickets(tx *gorm.DB, src *questionModel.QuestionModel, ticketIDs []uuid.UUID, createdBy uuid.UUID) (*CloneResult, error) {
	if len(ticketIDs) == 0 {
		return nil, ErrNoTargetTickets
	}

	root := src.ID
	if src.OriginalQuestionID != nil {
		root = *src.OriginalQuestionID
	}

	var validIDs []uuid.UUID
	if err := tx.Model(&ticketModel.TicketModel{}).
		Where("id IN ? AND kind = ?", ticketIDs, ticketModel.TicketKindPermanent).
		Pluck("id", &validIDs).Error; err != nil {
		return nil, err
	}
	valid := make(map[uuid.UUID]bool, len(validIDs))
	for _, id := range validIDs {
		valid[id] = true
	}

	var holding []uuid.UUID
	if err := tx.Model(&questionModel.QuestionModel{}).
		Where("id = ? OR original_question_id = ?", root, root).
		Pluck("ticket_id", &holding).Error; err != nil {
		return nil, err
	}
	held := make(map[uuid.UUID]bool, len(holding))
	for _, id := range holding {
		held[id] = true
	}

	res := &CloneResult{}
	seen := map[uuid.UUID]bool{}
	for _, tid := range ticketIDs {
		if seen[tid] {
			continue
		}
		seen[tid] = true
		if !valid[tid] || held[tid] {
			res.Skipped = append(res.Skipped, tid)
			continue
		}
		cp, err := CopyQuestion(tx, src, tid, createdBy, LineageClone)
		if err != nil {
			return nil, fmt.Errorf("clone into ticket %s: %w", tid, err)
		}
		res.Created = append(res.Created, *cp)
	}
	return res, nil
}

// PropagateToClones pushes text, image and order of an original question to its clones.
func PropagateToClones(tx *gorm.DB, original *questionModel.QuestionModel) (int64, error) {
	if original.OriginalQuestionID != nil {
		return 0, nil
	}
	res := tx.Model(&questionModel.QuestionModel{}).
		Where("original_question_id = ?", original.ID).
		Updates(map[string]any{
			"text":       original.Text,
			"image_url":  original.ImageURL,
			"sort_order": original.SortOrder,
		})
	return res.RowsAffected, res.Error
}

// DeleteQuestion removes a question with its answers and user answers.
// Clones of it become standalone questions.
func DeleteQuestion(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("question_id = ?", id).Delete(&sessionModel.UserAnswerModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("question_id = ?", id).Delete(&questionModel.AnswerModel{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&questionModel.QuestionModel{}).
		Where("original_question_id = ?", id).
		Update("original_question_id", nil).Error; err != nil {
		return err
	}
	res := tx.Where("id = ?", id).Delete(&questionModel.QuestionModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
