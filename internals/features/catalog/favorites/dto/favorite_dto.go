package dto

import (
	"time"

	"github.com/google/uuid"

	"medcard_backend/internals/features/catalog/favorites/model"
	"medcard_backend/internals/features/catalog/favorites/service"
)

type ToggleFavoriteRequest struct {
	Kind string    `json:"kind" validate:"required,oneof=theme ticket"`
	ID   uuid.UUID `json:"id" validate:"required"`
}

func (r *ToggleFavoriteRequest) Target() model.Target {
	t, _ := model.ParseTarget(r.Kind, r.ID)
	return t
}

type FavoriteStateResponse struct {
	Target     model.Target `json:"target"`
	IsFavorite bool         `json:"is_favorite"`
}

type FavoriteResponse struct {
	ID      uuid.UUID    `json:"id"`
	Target  model.Target `json:"target"`
	Title   string       `json:"title"`
	AddedAt time.Time    `json:"added_at"`
}

func NewFavoriteResponse(e service.Entry) FavoriteResponse {
	return FavoriteResponse{
		ID:      e.Favorite.ID,
		Target:  e.Favorite.Target(),
		Title:   e.Title,
		AddedAt: e.Favorite.AddedAt,
	}
}
