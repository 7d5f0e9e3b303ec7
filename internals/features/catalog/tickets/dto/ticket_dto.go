package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"medcard_backend/internals/features/catalog/tickets/model"
)

type CreateTicketRequest struct {
	ThemeID     uuid.UUID `json:"theme_id" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	IsActive    *bool     `json:"is_active"`
	SortOrder   *int      `json:"sort_order" validate:"omitempty,min=0"`
}

func (r *CreateTicketRequest) ToModel(createdBy uuid.UUID) *model.TicketModel {
	themeID := r.ThemeID
	m := &model.TicketModel{
		ThemeID:     &themeID,
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		IsActive:    true,
		CreatedBy:   createdBy,
		Kind:        model.TicketKindPermanent,
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.SortOrder != nil {
		m.SortOrder = *r.SortOrder
	}
	return m
}

type UpdateTicketRequest struct {
	ThemeID     *uuid.UUID `json:"theme_id"`
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description"`
	IsActive    *bool      `json:"is_active"`
	SortOrder   *int       `json:"sort_order" validate:"omitempty,min=0"`
}

// ToUpdates returns only the fields present in the request.
func (r *UpdateTicketRequest) ToUpdates() map[string]any {
	up := map[string]any{}
	if r.ThemeID != nil {
		up["theme_id"] = *r.ThemeID
	}
	if r.Title != nil {
		up["title"] = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		up["description"] = strings.TrimSpace(*r.Description)
	}
	if r.IsActive != nil {
		up["is_active"] = *r.IsActive
	}
	if r.SortOrder != nil {
		up["sort_order"] = *r.SortOrder
	}
	return up
}

type TicketResponse struct {
	ID               uuid.UUID        `json:"id"`
	ThemeID          *uuid.UUID       `json:"theme_id,omitempty"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	IsActive         bool             `json:"is_active"`
	SortOrder        int              `json:"sort_order"`
	Kind             model.TicketKind `json:"kind"`
	OriginalTicketID *uuid.UUID       `json:"original_ticket_id,omitempty"`
	QuestionsCount   int              `json:"questions_count"`
	CreatedAt        time.Time        `json:"created_at"`
}

func NewTicketResponse(m *model.TicketModel, questions int) TicketResponse {
	return TicketResponse{
		ID:               m.ID,
		ThemeID:          m.ThemeID,
		Title:            m.Title,
		Description:      m.Description,
		IsActive:         m.IsActive,
		SortOrder:        m.SortOrder,
		Kind:             m.Kind,
		OriginalTicketID: m.OriginalTicketID,
		QuestionsCount:   questions,
		CreatedAt:        m.CreatedAt,
	}
}
