package model

import "testing"

func TestMaskHint(t *testing.T) {
	cases := map[string]string{
		"":                   "Not set",
		"a":                  "*",
		"ab":                 "**",
		"abc":                "ab*",
		"my dog":             "my****",
		"a very long secret": "a ********",
		"ключик":             "кл****",
	}
	for in, want := range cases {
		if got := MaskHint(in); got != want {
			t.Fatalf("MaskHint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShouldRevealHint(t *testing.T) {
	p := UserProfileModel{PasswordHint: "pet name", FailedLoginAttempts: HintRevealAfterFailures - 1}
	if p.ShouldRevealHint() {
		t.Fatal("revealed before the threshold")
	}
	p.FailedLoginAttempts++
	if !p.ShouldRevealHint() {
		t.Fatal("not revealed at the threshold")
	}
	p.PasswordHint = ""
	if p.ShouldRevealHint() {
		t.Fatal("revealed an empty hint")
	}
}
