package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	favoriteModel "medcard_backend/internals/features/catalog/favorites/model"
	themeModel "medcard_backend/internals/features/catalog/themes/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	ticketService "medcard_backend/internals/features/catalog/tickets/service"
)

// ActiveTicketCounts returns theme id -> number of active permanent tickets.
func ActiveTicketCounts(ctx context.Context, db *gorm.DB, themeIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(themeIDs))
	if len(themeIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ThemeID uuid.UUID
		N       int64
	}
	if err := db.WithContext(ctx).Model(&ticketModel.TicketModel{}).
		Select("theme_id, COUNT(*) AS n").
		Where("theme_id IN ? AND is_active = ? AND kind = ?", themeIDs, true, ticketModel.TicketKindPermanent).
		Group("theme_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ThemeID] = r.N
	}
	return out, nil
}

// PurgeTheme deletes a theme, its tickets and its favorites. Run inside a transaction.
func PurgeTheme(tx *gorm.DB, themeID uuid.UUID) error {
	var ticketIDs []uuid.UUID
	if err := tx.Model(&ticketModel.TicketModel{}).
		Where("theme_id = ?", themeID).
		Pluck("id", &ticketIDs).Error; err != nil {
		return err
	}
	if err := ticketService.PurgeTickets(tx, ticketIDs); err != nil {
		return err
	}
	if err := tx.Where("target_kind = ? AND target_id = ?", favoriteModel.TargetTheme, themeID).
		Delete(&favoriteModel.FavoriteModel{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", themeID).Delete(&themeModel.ThemeModel{}).Error
}
