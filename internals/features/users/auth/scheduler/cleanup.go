package scheduler

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"medcard_backend/internals/configs"
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	authRepo "medcard_backend/internals/features/users/auth/repository"
)

const cleanupInterval = 24 * time.Hour

// CleanupResult reports what one pass removed.
type CleanupResult struct {
	BlacklistRemoved int64
	RunsRemoved      int64
}

// RunCleanup purges expired blacklist rows and closed remediation runs older
// than the retention window. Open runs are never touched.
func RunCleanup(db *gorm.DB, now time.Time, cfg configs.AppConfig) (CleanupResult, error) {
	var out CleanupResult

	n, err := authRepo.CleanupExpiredBlacklist(db, now.UTC())
	if err != nil {
		return out, err
	}
	out.BlacklistRemoved = n

	retention := cfg.RemediationRetentionDays
	if retention <= 0 {
		retention = 7
	}
	cutoff := now.Add(-time.Duration(retention) * 24 * time.Hour)
	res := db.Where("closed_at IS NOT NULL AND closed_at < ?", cutoff).
		Delete(&remediationModel.RemediationRunModel{})
	if res.Error != nil {
		return out, res.Error
	}
	out.RunsRemoved = res.RowsAffected
	return out, nil
}

// StartCleanupScheduler runs RunCleanup once at start and then daily until ctx is done.
func StartCleanupScheduler(ctx context.Context, db *gorm.DB, cfg configs.AppConfig) {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			log.Println("[CLEANUP] running token_blacklist / remediation_runs cleanup...")
			res, err := RunCleanup(db.WithContext(ctx), time.Now(), cfg)
			if err != nil {
				log.Printf("[CLEANUP ERROR] %v", err)
			} else {
				log.Printf("[CLEANUP] removed %d blacklisted tokens, %d closed runs", res.BlacklistRemoved, res.RunsRemoved)
			}

			select {
			case <-ctx.Done():
				log.Println("[CLEANUP] stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}
