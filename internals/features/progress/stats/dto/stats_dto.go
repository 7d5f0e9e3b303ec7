package dto

import (
	"math"

	"github.com/google/uuid"

	"medcard_backend/internals/features/progress/stats/service"
)

type TicketStatsResponse struct {
	TicketID    uuid.UUID `json:"ticket_id"`
	Title       string    `json:"title"`
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	Mistakes    int       `json:"mistakes"`
	Accuracy    float64   `json:"accuracy"`
	IsCompleted bool      `json:"is_completed"`
	Color       string    `json:"color"`
}

type ThemeStatsResponse struct {
	ThemeID          uuid.UUID             `json:"theme_id"`
	Title            string                `json:"title"`
	TicketsCount     int                   `json:"tickets_count"`
	CompletedTickets int                   `json:"completed_tickets"`
	Total            int                   `json:"total"`
	Correct          int                   `json:"correct"`
	Mistakes         int                   `json:"mistakes"`
	Accuracy         float64               `json:"accuracy"`
	Color            string                `json:"color"`
	Tickets          []TicketStatsResponse `json:"tickets,omitempty"`
}

// Round1 keeps one decimal for display.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func NewTicketStatsResponse(s service.TicketStats) TicketStatsResponse {
	return TicketStatsResponse{
		TicketID:    s.TicketID,
		Title:       s.Title,
		Total:       s.Total,
		Correct:     s.Correct,
		Mistakes:    s.Mistakes,
		Accuracy:    Round1(s.Accuracy),
		IsCompleted: s.IsCompleted,
		Color:       s.Color,
	}
}

func NewThemeStatsResponse(s service.ThemeStats) ThemeStatsResponse {
	out := ThemeStatsResponse{
		ThemeID:          s.ThemeID,
		Title:            s.Title,
		TicketsCount:     s.TicketsCount,
		CompletedTickets: s.CompletedTickets,
		Total:            s.Total,
		Correct:          s.Correct,
		Mistakes:         s.Mistakes,
		Accuracy:         Round1(s.Accuracy),
		Color:            s.Color,
	}
	if s.Tickets != nil {
		out.Tickets = make([]TicketStatsResponse, 0, len(s.Tickets))
		for _, t := range s.Tickets {
			out.Tickets = append(out.Tickets, NewTicketStatsResponse(t))
		}
	}
	return out
}
