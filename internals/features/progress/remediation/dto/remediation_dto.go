package dto

import (
	"time"

	"github.com/google/uuid"

	"medcard_backend/internals/features/progress/remediation/service"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

// RunResponse is the aggregate results view of an error practice run.
type RunResponse struct {
	ID                uuid.UUID  `json:"id"`
	Code              string     `json:"code"`
	TicketID          *uuid.UUID `json:"ticket_id,omitempty"`
	StartedErrorCount int        `json:"started_error_count"`
	ResolvedCount     int        `json:"resolved_count"`
	RemainingErrors   int        `json:"remaining_error_count"`
	IsClosed          bool       `json:"is_closed"`
	Duration          string     `json:"duration"`
	StartedAt         time.Time  `json:"started_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
}

func NewRunResponse(s *service.RunSummary) RunResponse {
	r := s.Run
	return RunResponse{
		ID:                r.ID,
		Code:              r.Code,
		TicketID:          r.TicketID,
		StartedErrorCount: r.StartedErrorCount,
		ResolvedCount:     s.Resolved,
		RemainingErrors:   s.Remaining,
		IsClosed:          !r.IsOpen(),
		Duration:          sessionModel.FormatDuration(s.Duration),
		StartedAt:         r.CreatedAt,
		ClosedAt:          r.ClosedAt,
	}
}
