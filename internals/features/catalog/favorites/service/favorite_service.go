package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/features/catalog/favorites/model"
	themeModel "medcard_backend/internals/features/catalog/themes/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
)

var (
	ErrInvalidTarget  = errors.New("invalid favorite target")
	ErrTargetNotFound = errors.New("favorite target not found")
)

// targetExists reports whether the target is an active theme or permanent ticket.
func targetExists(ctx context.Context, db *gorm.DB, t model.Target) (bool, error) {
	var n int64
	q := db.WithContext(ctx)
	switch t.Kind {
	case model.TargetTheme:
		q = q.Model(&themeModel.ThemeModel{}).Where("id = ? AND is_active = ?", t.ID, true)
	case model.TargetTicket:
		q = q.Model(&ticketModel.TicketModel{}).
			Where("id = ? AND is_active = ? AND kind = ?", t.ID, true, ticketModel.TicketKindPermanent)
	default:
		return false, ErrInvalidTarget
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Toggle adds the target when absent and removes it when present.
// It returns the resulting state.
func Toggle(ctx context.Context, db *gorm.DB, userID uuid.UUID, t model.Target) (bool, error) {
	if !t.Kind.Valid() || t.ID == uuid.Nil {
		return false, ErrInvalidTarget
	}

	var added bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, t.Kind, t.ID).
			Delete(&model.FavoriteModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			added = false
			return nil
		}

		ok, err := targetExists(ctx, tx, t)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTargetNotFound
		}
		if err := tx.Create(&model.FavoriteModel{UserID: userID, TargetKind: t.Kind, TargetID: t.ID}).Error; err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

func IsFavorite(ctx context.Context, db *gorm.DB, userID uuid.UUID, t model.Target) (bool, error) {
	if !t.Kind.Valid() {
		return false, ErrInvalidTarget
	}
	var n int64
	if err := db.WithContext(ctx).Model(&model.FavoriteModel{}).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, t.Kind, t.ID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Entry is a favorite with its target's title resolved.
type Entry struct {
	Favorite model.FavoriteModel
	Title    string
}

// List returns the user's favorites, newest first. Targets that no longer
// exist are left out.
func List(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]Entry, error) {
	var favs []model.FavoriteModel
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Find(&favs).Error; err != nil {
		return nil, err
	}

	var themeIDs, ticketIDs []uuid.UUID
	for _, f := range favs {
		if f.TargetKind == model.TargetTheme {
			themeIDs = append(themeIDs, f.TargetID)
		} else {
			ticketIDs = append(ticketIDs, f.TargetID)
		}
	}

	titles := map[uuid.UUID]string{}
	if len(themeIDs) > 0 {
		var themes []themeModel.ThemeModel
		if err := db.WithContext(ctx).Select("id", "title").Where("id IN ?", themeIDs).Find(&themes).Error; err != nil {
			return nil, err
		}
		for _, t := range themes {
			titles[t.ID] = t.Title
		}
	}
	if len(ticketIDs) > 0 {
		var tickets []ticketModel.TicketModel
		if err := db.WithContext(ctx).Select("id", "title").Where("id IN ?", ticketIDs).Find(&tickets).Error; err != nil {
			return nil, err
		}
		for _, t := range tickets {
			titles[t.ID] = t.Title
		}
	}

	out := make([]Entry, 0, len(favs))
	for _, f := range favs {
		title, ok := titles[f.TargetID]
		if !ok {
			continue
		}
		out = append(out, Entry{Favorite: f, Title: title})
	}
	return out, nil
}
