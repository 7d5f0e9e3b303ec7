package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseTarget(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		kind string
		want Target
		ok   bool
	}{
		{"theme", ThemeTarget(id), true},
		{" Ticket ", TicketTarget(id), true},
		{"question", Target{Kind: "question", ID: id}, false},
		{"", Target{ID: id}, false},
	}
	for _, c := range cases {
		got, ok := ParseTarget(c.kind, id)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseTarget(%q) = %+v, %v; want %+v, %v", c.kind, got, ok, c.want, c.ok)
		}
	}
}
