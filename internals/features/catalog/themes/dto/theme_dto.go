package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"medcard_backend/internals/features/catalog/themes/model"
)

type CreateThemeRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   *int   `json:"sort_order" validate:"omitempty,min=0"`
}

func (r *CreateThemeRequest) ToModel(createdBy uuid.UUID) *model.ThemeModel {
	m := &model.ThemeModel{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.SortOrder != nil {
		m.SortOrder = *r.SortOrder
	}
	return m
}

type UpdateThemeRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   *int    `json:"sort_order" validate:"omitempty,min=0"`
}

func (r *UpdateThemeRequest) ToUpdates() map[string]any {
	up := map[string]any{}
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

type ThemeResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	SortOrder    int       `json:"sort_order"`
	TicketsCount int64     `json:"tickets_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewThemeResponse(m *model.ThemeModel, tickets int64) ThemeResponse {
	return ThemeResponse{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		IsActive:     m.IsActive,
		SortOrder:    m.SortOrder,
		TicketsCount: tickets,
		CreatedAt:    m.CreatedAt,
	}
}
