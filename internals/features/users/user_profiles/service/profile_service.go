package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	profileModel "medcard_backend/internals/features/users/user_profiles/model"
)

var ErrProfileNotUpdated = errors.New("profile row not updated")

// EnsureProfile creates the profile row when missing and returns it.
func EnsureProfile(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*profileModel.UserProfileModel, error) {
	p := profileModel.UserProfileModel{UserID: userID}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&p).Error; err != nil {
		log.Printf("[EnsureProfile] user_id=%s: %v", userID, err)
		return nil, err
	}
	return FindByUserID(ctx, db, userID)
}

// CreateProfile inserts the profile at registration time.
func CreateProfile(ctx context.Context, db *gorm.DB, userID uuid.UUID, hint string) (*profileModel.UserProfileModel, error) {
	p := profileModel.UserProfileModel{UserID: userID, PasswordHint: hint}
	if err := db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByUserID returns gorm.ErrRecordNotFound when the user has no profile.
func FindByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*profileModel.UserProfileModel, error) {
	var p profileModel.UserProfileModel
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordFailedLogin bumps the failure counter and returns the updated profile.
func RecordFailedLogin(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*profileModel.UserProfileModel, error) {
	if _, err := EnsureProfile(ctx, db, userID); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&profileModel.UserProfileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"failed_login_attempts": gorm.Expr("failed_login_attempts + 1"),
			"last_failed_attempt":   time.Now(),
		}).Error; err != nil {
		return nil, err
	}
	return FindByUserID(ctx, db, userID)
}

// ResetFailedLogins clears the failure counter after a successful login.
func ResetFailedLogins(ctx context.Context, db *gorm.DB, userID uuid.UUID) error {
	return db.WithContext(ctx).Model(&profileModel.UserProfileModel{}).
		Where("user_id = ? AND failed_login_attempts > 0", userID).
		Update("failed_login_attempts", 0).Error
}

func UpdateHint(ctx context.Context, db *gorm.DB, userID uuid.UUID, hint string) (*profileModel.UserProfileModel, error) {
	if _, err := EnsureProfile(ctx, db, userID); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&profileModel.UserProfileModel{}).
		Where("user_id = ?", userID).
		Update("password_hint", hint).Error; err != nil {
		return nil, err
	}
	return FindByUserID(ctx, db, userID)
}

// Delta is what one completed ticket contributes to the lifetime stats.
type Delta struct {
	Correct int
	Total   int
}

func (d Delta) Mistakes() int {
	if m := d.Total - d.correct(); m > 0 {
		return m
	}
	return 0
}

func (d Delta) correct() int {
	if d.Correct < 0 {
		return 0
	}
	return d.Correct
}

// ApplyCompletion adds a finished ticket to the user's stats. Pass the
// caller's transaction as tx.
func ApplyCompletion(ctx context.Context, tx *gorm.DB, userID uuid.UUID, d Delta) error {
	if _, err := EnsureProfile(ctx, tx, userID); err != nil {
		return err
	}
	res := tx.WithContext(ctx).Model(&profileModel.UserProfileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"tickets_solved":  gorm.Expr("tickets_solved + 1"),
			"correct_answers": gorm.Expr("correct_answers + ?", d.correct()),
			"mistakes_made":   gorm.Expr("mistakes_made + ?", d.Mistakes()),
			"last_activity":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrProfileNotUpdated
	}
	return nil
}

// RevertCompletion is the inverse of ApplyCompletion; every field floors at zero.
func RevertCompletion(ctx context.Context, tx *gorm.DB, userID uuid.UUID, d Delta) error {
	if _, err := EnsureProfile(ctx, tx, userID); err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&profileModel.UserProfileModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"tickets_solved":  floorExpr("tickets_solved", 1),
			"correct_answers": floorExpr("correct_answers", d.correct()),
			"mistakes_made":   floorExpr("mistakes_made", d.Mistakes()),
			"last_activity":   time.Now(),
		}).Error
}

func floorExpr(col string, by int) clause.Expr {
	return gorm.Expr("CASE WHEN "+col+" > ? THEN "+col+" - ? ELSE 0 END", by, by)
}
