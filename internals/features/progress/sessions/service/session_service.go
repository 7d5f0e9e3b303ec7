package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	ticketService "medcard_backend/internals/features/catalog/tickets/service"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrProgressNotFound = errors.New("progress not found")
	ErrEmptySelection   = errors.New("select at least one answer")
	ErrNothingToRetake  = errors.New("nothing to retake")
	ErrInvalidIndex     = errors.New("invalid question index")
	ErrInvalidMode      = errors.New("retake mode must be all or errors")
)

type RedirectKind string

const (
	RedirectQuestion         RedirectKind = "question"
	RedirectResults          RedirectKind = "results"
	RedirectAggregateResults RedirectKind = "aggregate_results"
)

// Redirect tells the client which view to open next.
type Redirect struct {
	Kind          RedirectKind `json:"redirect"`
	TicketID      uuid.UUID    `json:"ticket_id"`
	QuestionIndex *int         `json:"question_index,omitempty"`
	RunID         *uuid.UUID   `json:"run_id,omitempty"`
}

func ToQuestion(ticketID uuid.UUID, index int) *Redirect {
	return &Redirect{Kind: RedirectQuestion, TicketID: ticketID, QuestionIndex: &index}
}

func ToResults(ticketID uuid.UUID) *Redirect {
	return &Redirect{Kind: RedirectResults, TicketID: ticketID}
}

// lockForUpdate adds FOR UPDATE where the dialect has row locks.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func findTicket(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID) (*ticketModel.TicketModel, error) {
	t, err := ticketService.FindVisible(ctx, db, ticketID, userID)
	if errors.Is(err, ticketService.ErrTicketNotFound) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

func findProgress(tx *gorm.DB, userID, ticketID uuid.UUID) (*sessionModel.TicketProgressModel, error) {
	var p sessionModel.TicketProgressModel
	err := tx.Where("user_id = ? AND ticket_id = ?", userID, ticketID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// open loads a visible ticket and the user's progress on it.
func open(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID) (*ticketModel.TicketModel, *sessionModel.TicketProgressModel, error) {
	t, err := findTicket(ctx, db, userID, ticketID)
	if err != nil {
		return nil, nil, err
	}
	p, err := findProgress(db.WithContext(ctx), userID, t.ID)
	if err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

// getOrCreateProgress snapshots the active question count on creation.
func getOrCreateProgress(ctx context.Context, tx *gorm.DB, userID, ticketID uuid.UUID) (*sessionModel.TicketProgressModel, error) {
	tx = tx.WithContext(ctx)
	p, err := findProgress(tx, userID, ticketID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProgressNotFound) {
		return nil, err
	}

	total, err := ticketService.ActiveQuestionCount(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	fresh := sessionModel.TicketProgressModel{
		UserID:         userID,
		TicketID:       ticketID,
		StartedAt:      time.Now(),
		TotalQuestions: total,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "ticket_id"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}
	return findProgress(tx, userID, ticketID)
}

// Start opens a ticket for the user. A completed ticket is never resumed;
// resuming an unfinished one restarts its clock.
func Start(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID) (*Redirect, error) {
	t, err := findTicket(ctx, db, userID, ticketID)
	if err != nil {
		return nil, err
	}
	p, err := getOrCreateProgress(ctx, db, userID, t.ID)
	if err != nil {
		return nil, err
	}
	if p.IsCompleted {
		return ToResults(t.ID), nil
	}
	// time spent counts from the latest (re)entry, not from the first visit
	if err := db.WithContext(ctx).Model(&sessionModel.TicketProgressModel{}).
		Where("id = ? AND is_completed = ?", p.ID, false).
		Update("started_at", time.Now()).Error; err != nil {
		return nil, err
	}
	return ToQuestion(t.ID, p.CurrentQuestionIndex), nil
}

func activeQuestions(tx *gorm.DB, ticketID uuid.UUID) ([]questionModel.QuestionModel, error) {
	var qs []questionModel.QuestionModel
	err := tx.
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order(questionModel.AnswerOrderBy) }).
		Where("ticket_id = ? AND is_active = ?", ticketID, true).
		Order(questionModel.OrderBy).
		Find(&qs).Error
	return qs, err
}

// replay orders questions by a persisted id list, dropping ids that are
// no longer active.
func replay(qs []questionModel.QuestionModel, order []uuid.UUID) []questionModel.QuestionModel {
	byID := make(map[uuid.UUID]questionModel.QuestionModel, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]questionModel.QuestionModel, 0, len(order))
	for _, id := range order {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

// LoadQuestionSequence returns the questions of an attempt in the order the
// user sees them. The first call shuffles the active questions and persists
// the order; later calls replay it.
func LoadQuestionSequence(ctx context.Context, db *gorm.DB, p *sessionModel.TicketProgressModel) ([]questionModel.QuestionModel, error) {
	db = db.WithContext(ctx)
	qs, err := activeQuestions(db, p.TicketID)
	if err != nil {
		return nil, err
	}
	if order, err := p.QuestionOrderIDs(); err == nil && len(order) > 0 {
		return replay(qs, order), nil
	}
	if len(qs) == 0 {
		return qs, nil
	}

	var seq []questionModel.QuestionModel
	err = db.Transaction(func(tx *gorm.DB) error {
		var locked sessionModel.TicketProgressModel
		if err := lockForUpdate(tx).Take(&locked, "id = ?", p.ID).Error; err != nil {
			return err
		}
		// another request may have persisted an order meanwhile
		if order, err := locked.QuestionOrderIDs(); err == nil && len(order) > 0 {
			p.QuestionOrder = locked.QuestionOrder
			seq = replay(qs, order)
			return nil
		}

		seq = make([]questionModel.QuestionModel, len(qs))
		copy(seq, qs)
		rand.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })

		ids := make([]uuid.UUID, 0, len(seq))
		for _, q := range seq {
			ids = append(ids, q.ID)
		}
		enc, err := sessionModel.EncodeIDs(ids)
		if err != nil {
			return err
		}
		if err := tx.Model(&sessionModel.TicketProgressModel{}).
			Where("id = ?", p.ID).
			Update("question_order", enc).Error; err != nil {
			return fmt.Errorf("persist question order: %w", err)
		}
		p.QuestionOrder = enc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seq, nil
}

// QuestionView is one question as presented to the user.
type QuestionView struct {
	Ticket   *ticketModel.TicketModel
	Progress *sessionModel.TicketProgressModel
	Question questionModel.QuestionModel
	Answers  []questionModel.AnswerModel
	Prior    *sessionModel.UserAnswerModel
	Index    int
	Total    int
	IsLast   bool
}

func shuffledAnswers(q *questionModel.QuestionModel) []questionModel.AnswerModel {
	out := q.ActiveAnswers()
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func priorAnswer(tx *gorm.DB, userID, questionID uuid.UUID) (*sessionModel.UserAnswerModel, error) {
	var ua sessionModel.UserAnswerModel
	err := tx.Where("user_id = ? AND question_id = ?", userID, questionID).Take(&ua).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ua, nil
}

// PresentQuestion returns the question at index, or finalizes the attempt
// when index is past the end of the sequence.
func PresentQuestion(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID, index int) (*QuestionView, *Redirect, error) {
	if index < 0 {
		return nil, nil, ErrInvalidIndex
	}
	t, p, err := open(ctx, db, userID, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if p.IsCompleted {
		return nil, ToResults(t.ID), nil
	}

	seq, err := LoadQuestionSequence(ctx, db, p)
	if err != nil {
		return nil, nil, err
	}
	if index >= len(seq) {
		r, err := Finalize(ctx, db, userID, t, p.ID)
		return nil, r, err
	}

	q := seq[index]
	prior, err := priorAnswer(db.WithContext(ctx), userID, q.ID)
	if err != nil {
		return nil, nil, err
	}
	return &QuestionView{
		Ticket:   t,
		Progress: p,
		Question: q,
		Answers:  shuffledAnswers(&q),
		Prior:    prior,
		Index:    index,
		Total:    len(seq),
		IsLast:   index == len(seq)-1,
	}, nil, nil
}

// Advance moves the attempt to the question after index.
func Advance(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID, index int) (*Redirect, error) {
	if index < 0 {
		return nil, ErrInvalidIndex
	}
	t, p, err := open(ctx, db, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if p.IsCompleted {
		return ToResults(t.ID), nil
	}
	next := index + 1
	if err := db.WithContext(ctx).Model(&sessionModel.TicketProgressModel{}).
		Where("id = ?", p.ID).
		Update("current_question_index", next).Error; err != nil {
		return nil, err
	}
	return ToQuestion(t.ID, next), nil
}

// ProgressView is the in-flight state of an attempt.
type ProgressView struct {
	Ticket     *ticketModel.TicketModel
	Progress   *sessionModel.TicketProgressModel
	Percentage float64
	Remaining  int
	TimeSpent  time.Duration
}

func GetProgress(ctx context.Context, db *gorm.DB, userID, ticketID uuid.UUID) (*ProgressView, error) {
	t, p, err := open(ctx, db, userID, ticketID)
	if err != nil {
		return nil, err
	}
	return &ProgressView{
		Ticket:     t,
		Progress:   p,
		Percentage: p.ProgressPercentage(),
		Remaining:  p.RemainingQuestions(),
		TimeSpent:  p.TimeSpent(time.Now()),
	}, nil
}
