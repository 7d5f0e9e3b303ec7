package scheduler

import (
	"testing"
	"time"

	"medcard_backend/internals/configs"
	"medcard_backend/internals/constants"
	"medcard_backend/internals/databases/dbtest"
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	authModel "medcard_backend/internals/features/users/auth/model"
)

func TestRunCleanup(t *testing.T) {
	db := dbtest.Open(t)
	user := dbtest.User(t, db, "student", constants.RoleUser)
	now := time.Now().UTC()
	old := now.Add(-10 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	rows := []any{
		&authModel.TokenBlacklist{Token: "expired", ExpiredAt: now.Add(-time.Minute)},
		&authModel.TokenBlacklist{Token: "live", ExpiredAt: now.Add(time.Hour)},
		&remediationModel.RemediationRunModel{UserID: user.ID, ClosedAt: &old},
		&remediationModel.RemediationRunModel{UserID: user.ID, ClosedAt: &recent},
		&remediationModel.RemediationRunModel{UserID: user.ID},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatal(err)
		}
	}

	res, err := RunCleanup(db, now, configs.AppConfig{RemediationRetentionDays: 7})
	if err != nil {
		t.Fatal(err)
	}
	if res.BlacklistRemoved != 1 || res.RunsRemoved != 1 {
		t.Fatalf("removed %+v", res)
	}

	var tokens, runs int64
	db.Model(&authModel.TokenBlacklist{}).Count(&tokens)
	db.Model(&remediationModel.RemediationRunModel{}).Count(&runs)
	if tokens != 1 || runs != 2 {
		t.Fatalf("left tokens=%d runs=%d", tokens, runs)
	}
}
