package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/constants"
	"medcard_backend/internals/databases/dbtest"
	favoriteModel "medcard_backend/internals/features/catalog/favorites/model"
	questionModel "medcard_backend/internals/features/catalog/questions/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
	remediationModel "medcard_backend/internals/features/progress/remediation/model"
	sessionModel "medcard_backend/internals/features/progress/sessions/model"
)

func count(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func TestFindVisible(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	owner := dbtest.User(t, db, "owner", "")
	stranger := dbtest.User(t, db, "stranger", "")
	perm := dbtest.Ticket(t, db, nil, staff.ID, "Perm")

	origID, ownerID := perm.ID, owner.ID
	temp := &ticketModel.TicketModel{
		Title: "Perm - Retake errors", IsActive: true, CreatedBy: owner.ID,
		Kind: ticketModel.TicketKindTemporaryFor, OriginalTicketID: &origID, OwnerUserID: &ownerID,
	}
	if err := db.Create(temp).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := FindVisible(ctx, db, perm.ID, stranger.ID); err != nil {
		t.Fatalf("permanent ticket: %v", err)
	}
	if _, err := FindVisible(ctx, db, temp.ID, owner.ID); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := FindVisible(ctx, db, temp.ID, stranger.ID); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("stranger: %v", err)
	}
	if _, err := FindPublic(ctx, db, temp.ID); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("temporary ticket listed publicly: %v", err)
	}
	if _, err := FindVisible(ctx, db, uuid.New(), owner.ID); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("missing ticket: %v", err)
	}
}

func TestKindIsValidatedOnSave(t *testing.T) {
	db := dbtest.Open(t)
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	bad := &ticketModel.TicketModel{Title: "x", CreatedBy: staff.ID, Kind: ticketModel.TicketKindTemporaryAggregate}
	if err := db.Create(bad).Error; !errors.Is(err, ticketModel.ErrInvalidTicketKind) {
		t.Fatalf("aggregate without owner saved: %v", err)
	}
}

func TestPurgeTicketsCascades(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	staff := dbtest.User(t, db, "staff", constants.RoleStaff)
	user := dbtest.User(t, db, "student", "")
	perm := dbtest.Ticket(t, db, nil, staff.ID, "Perm")
	keep := dbtest.Ticket(t, db, nil, staff.ID, "Keep")
	q := dbtest.Question(t, db, perm.ID, staff.ID, "Q", 0, dbtest.YesNo...)
	kept := dbtest.Question(t, db, keep.ID, staff.ID, "Q", 0, dbtest.YesNo...)

	origID, ownerID := perm.ID, user.ID
	temp := &ticketModel.TicketModel{
		Title: "temp", IsActive: true, CreatedBy: user.ID,
		Kind: ticketModel.TicketKindTemporaryFor, OriginalTicketID: &origID, OwnerUserID: &ownerID,
	}
	if err := db.Create(temp).Error; err != nil {
		t.Fatal(err)
	}
	tq := dbtest.Question(t, db, temp.ID, user.ID, "Q", 0, dbtest.YesNo...)

	for _, row := range []any{
		&sessionModel.UserAnswerModel{UserID: user.ID, QuestionID: q.ID},
		&sessionModel.UserAnswerModel{UserID: user.ID, QuestionID: tq.ID},
		&sessionModel.UserAnswerModel{UserID: user.ID, QuestionID: kept.ID},
		&sessionModel.TicketProgressModel{UserID: user.ID, TicketID: perm.ID},
		&sessionModel.TicketProgressModel{UserID: user.ID, TicketID: temp.ID},
		&favoriteModel.FavoriteModel{UserID: user.ID, TargetKind: favoriteModel.TargetTicket, TargetID: perm.ID},
		&remediationModel.RemediationRunModel{UserID: user.ID, TicketID: &origID},
	} {
		if err := db.Create(row).Error; err != nil {
			t.Fatal(err)
		}
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return PurgeTickets(tx, []uuid.UUID{perm.ID})
	}); err != nil {
		t.Fatal(err)
	}

	if n := count(t, db, &ticketModel.TicketModel{}, "id IN ?", []uuid.UUID{perm.ID, temp.ID}); n != 0 {
		t.Fatalf("tickets left = %d", n)
	}
	if n := count(t, db, &questionModel.QuestionModel{}, "id IN ?", []uuid.UUID{q.ID, tq.ID}); n != 0 {
		t.Fatalf("questions left = %d", n)
	}
	if n := count(t, db, &sessionModel.UserAnswerModel{}, "user_id = ?", user.ID); n != 1 {
		t.Fatalf("user answers left = %d, want 1", n)
	}
	if n := count(t, db, &sessionModel.TicketProgressModel{}, "user_id = ?", user.ID); n != 0 {
		t.Fatalf("progress left = %d", n)
	}
	if n := count(t, db, &favoriteModel.FavoriteModel{}, "user_id = ?", user.ID); n != 0 {
		t.Fatalf("favorites left = %d", n)
	}
	if n := count(t, db, &remediationModel.RemediationRunModel{}, "ticket_id IS NOT NULL"); n != 0 {
		t.Fatalf("runs still reference the ticket")
	}

	counts, err := ActiveQuestionCounts(ctx, db, []uuid.UUID{perm.ID, keep.ID})
	if err != nil || counts[keep.ID] != 1 || counts[perm.ID] != 0 {
		t.Fatalf("counts %v %v", counts, err)
	}
}
