package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-5 * time.Second, "0s"},
		{42 * time.Second, "42s"},
		{2*time.Minute + 3*time.Second, "2m 3s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h 2m 3s"},
		{time.Hour, "1h 0m 0s"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAccuracyAndCounters(t *testing.T) {
	if got := Accuracy(3, 0); got != 0 {
		t.Fatalf("empty ticket accuracy = %v", got)
	}
	if got := Accuracy(3, 4); got != 75 {
		t.Fatalf("accuracy = %v", got)
	}

	p := TicketProgressModel{TotalQuestions: 4, CurrentQuestionIndex: 1, CorrectAnswers: 3}
	if p.ProgressPercentage() != 25 || p.RemainingQuestions() != 3 || p.Mistakes() != 1 {
		t.Fatalf("unexpected counters: pct=%v rem=%d mis=%d", p.ProgressPercentage(), p.RemainingQuestions(), p.Mistakes())
	}

	over := TicketProgressModel{TotalQuestions: 2, CurrentQuestionIndex: 5, CorrectAnswers: 3}
	if over.RemainingQuestions() != 0 || over.Mistakes() != 0 {
		t.Fatalf("counters must not go negative: %+v", over)
	}
}

func TestTimeSpent(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	running := TicketProgressModel{StartedAt: start}
	if got := running.TimeSpent(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Fatalf("running time spent = %v", got)
	}

	secs := int64(30)
	done := TicketProgressModel{StartedAt: start, IsCompleted: true, TimeSpentSeconds: &secs}
	if got := done.TimeSpent(start.Add(time.Hour)); got != 30*time.Second {
		t.Fatalf("completed time spent = %v", got)
	}
}

func TestQuestionOrderRoundTrip(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	raw, err := EncodeIDs(ids)
	if err != nil {
		t.Fatal(err)
	}
	p := TicketProgressModel{QuestionOrder: raw}
	if !p.HasQuestionOrder() {
		t.Fatal("expected a persisted order")
	}
	got, err := p.QuestionOrderIDs()
	if err != nil {
		t.Fatal(err)
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("order changed at %d", i)
		}
	}

	empty, _ := EncodeIDs(nil)
	if string(empty) != "[]" {
		t.Fatalf("empty order = %s", empty)
	}
	if (&TicketProgressModel{QuestionOrder: empty}).HasQuestionOrder() {
		t.Fatal("empty order reported as persisted")
	}
}
