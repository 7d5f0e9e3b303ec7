package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	themeModel "medcard_backend/internals/features/catalog/themes/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
)

var (
	ErrThemeNotFound    = errors.New("theme not found")
	ErrQuestionNotFound = errors.New("question not found")
)

// SearchLimit caps each section of a search result.
const SearchLimit = 20

func activePermanentTickets(db *gorm.DB) *gorm.DB {
	return db.Model(&ticketModel.TicketModel{}).
		Where("is_active = ? AND kind = ?", true, ticketModel.TicketKindPermanent)
}

func ActiveThemes(ctx context.Context, db *gorm.DB) ([]themeModel.ThemeModel, error) {
	var rows []themeModel.ThemeModel
	err := db.WithContext(ctx).Where("is_active = ?", true).Order(themeModel.OrderBy).Find(&rows).Error
	return rows, err
}

// ThemeWithTickets loads an active theme and its active permanent tickets.
func ThemeWithTickets(ctx context.Context, db *gorm.DB, id uuid.UUID) (*themeModel.ThemeModel, []ticketModel.TicketModel, error) {
	var theme themeModel.ThemeModel
	err := db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).Take(&theme).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrThemeNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var tickets []ticketModel.TicketModel
	if err := activePermanentTickets(db.WithContext(ctx)).
		Where("theme_id = ?", id).
		Order(ticketModel.OrderBy).
		Find(&tickets).Error; err != nil {
		return nil, nil, err
	}
	return &theme, tickets, nil
}

// ActiveQuestions returns the active questions of a ticket in authored order.
func ActiveQuestions(ctx context.Context, db *gorm.DB, ticketID uuid.UUID) ([]questionModel.QuestionModel, error) {
	var rows []questionModel.QuestionModel
	err := db.WithContext(ctx).
		Where("ticket_id = ? AND is_active = ?", ticketID, true).
		Order(questionModel.OrderBy).
		Find(&rows).Error
	return rows, err
}

// PublicQuestion loads an active question of an active permanent ticket,
// with its active answers only.
func PublicQuestion(ctx context.Context, db *gorm.DB, id uuid.UUID) (*questionModel.QuestionModel, error) {
	var q questionModel.QuestionModel
	err := db.WithContext(ctx).
		Preload("Answers", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_active = ?", true).Order(questionModel.AnswerOrderBy)
		}).
		Where("id = ? AND is_active = ?", id, true).
		Where("ticket_id IN (?)", activePermanentTickets(db).Select("id")).
		Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

type SearchResult struct {
	Themes    []themeModel.ThemeModel
	Tickets   []ticketModel.TicketModel
	Questions []questionModel.QuestionModel
}

// Search runs a case-insensitive substring match over active themes,
// active permanent tickets and their active questions.
func Search(ctx context.Context, db *gorm.DB, q string) (*SearchResult, error) {
	res := &SearchResult{}
	q = strings.TrimSpace(q)
	if q == "" {
		return res, nil
	}
	like := "%" + strings.ToLower(q) + "%"
	db = db.WithContext(ctx)

	if err := db.Where("is_active = ?", true).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like).
		Order(themeModel.OrderBy).Limit(SearchLimit).
		Find(&res.Themes).Error; err != nil {
		return nil, err
	}
	if err := activePermanentTickets(db).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like).
		Order(ticketModel.OrderBy).Limit(SearchLimit).
		Find(&res.Tickets).Error; err != nil {
		return nil, err
	}
	if err := db.Where("is_active = ? AND LOWER(text) LIKE ?", true, like).
		Where("ticket_id IN (?)", activePermanentTickets(db).Select("id")).
		Order(questionModel.OrderBy).Limit(SearchLimit).
		Find(&res.Questions).Error; err != nil {
		return nil, err
	}
	return res, nil
}
