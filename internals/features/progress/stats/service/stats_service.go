package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	themeModel "medcard_backend/internals/features/catalog/themes/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	ticketService "medcard_backend/internals/features/catalog/tickets/service"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

var ErrThemeNotFound = errors.New("theme not found")

const (
	ColorSecondary = "secondary"
	ColorInfo      = "info"
	ColorSuccess   = "success"
	ColorWarning   = "warning"
	ColorDanger    = "danger"
)

// AccuracyColor grades a finished result.
func AccuracyColor(accuracy float64) string {
	switch {
	case accuracy >= 80:
		return ColorSuccess
	case accuracy >= 60:
		return ColorWarning
	}
	return ColorDanger
}

// TicketColor is secondary without progress and info while in progress.
func TicketColor(hasProgress, completed bool, accuracy float64) string {
	switch {
	case !hasProgress:
		return ColorSecondary
	case !completed:
		return ColorInfo
	}
	return AccuracyColor(accuracy)
}

type TicketStats struct {
	TicketID    uuid.UUID
	Title       string
	Total       int
	Correct     int
	Mistakes    int
	Accuracy    float64
	IsCompleted bool
	HasProgress bool
	Color       string
}

type ThemeStats struct {
	ThemeID          uuid.UUID
	Title            string
	TicketsCount     int
	CompletedTickets int
	Total            int
	Correct          int
	Mistakes         int
	Accuracy         float64
	Color            string
	Tickets          []TicketStats
}

// wrongCounts returns ticket id -> wrong answers on file for the user.
func wrongCounts(ctx context.Context, db *gorm.DB, userID uuid.UUID, ticketIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		TicketID uuid.UUID
		N        int
	}
	if err := db.WithContext(ctx).
		Table("user_answers AS ua").
		Select("q.ticket_id AS ticket_id, COUNT(*) AS n").
		Joins("JOIN questions q ON q.id = ua.question_id").
		Where("ua.user_id = ? AND ua.is_correct = ? AND q.is_active = ? AND q.ticket_id IN ?", userID, false, true, ticketIDs).
		Group("q.ticket_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.TicketID] = r.N
	}
	return out, nil
}

// ForTickets computes per ticket stats for the user.
func ForTickets(ctx context.Context, db *gorm.DB, userID uuid.UUID, tickets []ticketModel.TicketModel) ([]TicketStats, error) {
	ids := make([]uuid.UUID, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	out := make([]TicketStats, 0, len(tickets))
	if len(ids) == 0 {
		return out, nil
	}

	var progress []sessionModel.TicketProgressModel
	if err := db.WithContext(ctx).
		Where("user_id = ? AND ticket_id IN ?", userID, ids).
		Find(&progress).Error; err != nil {
		return nil, err
	}
	byTicket := make(map[uuid.UUID]sessionModel.TicketProgressModel, len(progress))
	for _, p := range progress {
		byTicket[p.TicketID] = p
	}
	counts, err := ticketService.ActiveQuestionCounts(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	wrong, err := wrongCounts(ctx, db, userID, ids)
	if err != nil {
		return nil, err
	}

	for _, t := range tickets {
		s := TicketStats{TicketID: t.ID, Title: t.Title}
		p, ok := byTicket[t.ID]
		if !ok {
			s.Total = counts[t.ID]
			s.Color = TicketColor(false, false, 0)
			out = append(out, s)
			continue
		}
		s.HasProgress = true
		s.IsCompleted = p.IsCompleted
		s.Total = p.TotalQuestions
		s.Correct = p.CorrectAnswers
		if p.IsCompleted {
			s.Mistakes = p.Mistakes()
		} else {
			s.Mistakes = wrong[t.ID]
		}
		s.Accuracy = sessionModel.Accuracy(s.Correct, s.Total)
		s.Color = TicketColor(true, s.IsCompleted, s.Accuracy)
		out = append(out, s)
	}
	return out, nil
}

// aggregate sums ticket stats that have progress. Themes have no info state.
func aggregate(theme *themeModel.ThemeModel, tickets []TicketStats) ThemeStats {
	s := ThemeStats{ThemeID: theme.ID, Title: theme.Title, TicketsCount: len(tickets), Tickets: tickets}
	touched := false
	for _, t := range tickets {
		if !t.HasProgress {
			continue
		}
		touched = true
		s.Total += t.Total
		s.Correct += t.Correct
		s.Mistakes += t.Mistakes
		if t.IsCompleted {
			s.CompletedTickets++
		}
	}
	s.Accuracy = sessionModel.Accuracy(s.Correct, s.Total)
	if !touched {
		s.Color = ColorSecondary
	} else {
		s.Color = AccuracyColor(s.Accuracy)
	}
	return s
}

func themeTickets(ctx context.Context, db *gorm.DB, themeIDs []uuid.UUID) ([]ticketModel.TicketModel, error) {
	var tickets []ticketModel.TicketModel
	err := db.WithContext(ctx).
		Where("theme_id IN ? AND is_active = ? AND kind = ?", themeIDs, true, ticketModel.TicketKindPermanent).
		Order(ticketModel.OrderBy).
		Find(&tickets).Error
	return tickets, err
}

// Themes returns stats for every active theme, without ticket detail.
func Themes(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]ThemeStats, error) {
	var themes []themeModel.ThemeModel
	if err := db.WithContext(ctx).Where("is_active = ?", true).Order(themeModel.OrderBy).Find(&themes).Error; err != nil {
		return nil, err
	}
	out := make([]ThemeStats, 0, len(themes))
	if len(themes) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(themes))
	for _, t := range themes {
		ids = append(ids, t.ID)
	}
	tickets, err := themeTickets(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	stats, err := ForTickets(ctx, db, userID, tickets)
	if err != nil {
		return nil, err
	}
	byTheme := map[uuid.UUID][]TicketStats{}
	for i, t := range tickets {
		if t.ThemeID != nil {
			byTheme[*t.ThemeID] = append(byTheme[*t.ThemeID], stats[i])
		}
	}
	for i := range themes {
		s := aggregate(&themes[i], byTheme[themes[i].ID])
		s.Tickets = nil
		out = append(out, s)
	}
	return out, nil
}

// Theme returns the stats of one active theme with its tickets.
func Theme(ctx context.Context, db *gorm.DB, userID, themeID uuid.UUID) (*ThemeStats, error) {
	var theme themeModel.ThemeModel
	err := db.WithContext(ctx).Where("id = ? AND is_active = ?", themeID, true).Take(&theme).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrThemeNotFound
	}
	if err != nil {
		return nil, err
	}
	tickets, err := themeTickets(ctx, db, []uuid.UUID{theme.ID})
	if err != nil {
		return nil, err
	}
	stats, err := ForTickets(ctx, db, userID, tickets)
	if err != nil {
		return nil, err
	}
	s := aggregate(&theme, stats)
	return &s, nil
}

