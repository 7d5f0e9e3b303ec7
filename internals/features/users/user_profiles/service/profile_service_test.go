package service

import (
	"context"
	"testing"

	"medcard_backend/internals/constants"
	"medcard_backend/internals/databases/dbtest"
)

func TestDeltaMistakes(t *testing.T) {
	cases := []struct {
		d    Delta
		want int
	}{
		{Delta{Correct: 3, Total: 5}, 2},
		{Delta{Correct: 5, Total: 5}, 0},
		{Delta{Correct: 7, Total: 5}, 0},
		{Delta{Correct: -2, Total: 4}, 4},
	}
	for _, c := range cases {
		if got := c.d.Mistakes(); got != c.want {
			t.Errorf("%+v.Mistakes() = %d, want %d", c.d, got, c.want)
		}
	}
}

func TestApplyAndRevertCompletion(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	u := dbtest.User(t, db, "erin", constants.RoleUser)

	if err := ApplyCompletion(ctx, db, u.ID, Delta{Correct: 1, Total: 2}); err != nil {
		t.Fatal(err)
	}
	p, err := FindByUserID(ctx, db, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.TicketsSolved != 1 || p.CorrectAnswers != 1 || p.MistakesMade != 1 || p.LastActivity == nil {
		t.Fatalf("after apply: %+v", p)
	}

	// a larger revert than what was applied floors at zero
	if err := RevertCompletion(ctx, db, u.ID, Delta{Correct: 4, Total: 9}); err != nil {
		t.Fatal(err)
	}
	p, _ = FindByUserID(ctx, db, u.ID)
	if p.TicketsSolved != 0 || p.CorrectAnswers != 0 || p.MistakesMade != 0 {
		t.Fatalf("after revert: %+v", p)
	}
}

func TestFailedLoginsAndHint(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	u := dbtest.User(t, db, "finn", constants.RoleUser)

	for i := 1; i <= 3; i++ {
		p, err := RecordFailedLogin(ctx, db, u.ID)
		if err != nil {
			t.Fatal(err)
		}
		if p.FailedLoginAttempts != i || p.LastFailedAttempt == nil {
			t.Fatalf("attempt %d: %+v", i, p)
		}
	}
	if err := ResetFailedLogins(ctx, db, u.ID); err != nil {
		t.Fatal(err)
	}

	p, err := UpdateHint(ctx, db, u.ID, "blue door")
	if err != nil {
		t.Fatal(err)
	}
	if p.FailedLoginAttempts != 0 || p.PasswordHint != "blue door" {
		t.Fatalf("after reset and hint: %+v", p)
	}

	again, err := EnsureProfile(ctx, db, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != p.ID {
		t.Fatalf("EnsureProfile created a second row")
	}
}
