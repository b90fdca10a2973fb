package textutil

import (
	"math"
	"testing"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"  Beyoncé   Knowles ": "beyonce knowles",
		"Zoë":                  "zoe",
		"RuPaul's Drag Race":   "rupaul's drag race",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q want %q", in, got, want)
		}
	}
}

func TestSameName(t *testing.T) {
	if !SameName("Lala Kent", "LALA  KENT") || !SameName("José Ruiz", "Jose Ruiz") {
		t.Fatal("expected names to match")
	}
	if SameName("Lala Kent", "Lala") || SameName("", "") {
		t.Fatal("unexpected match")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity(nil, NewFingerprint("x")); got != 0 {
		t.Fatalf("nil similarity %v", got)
	}
	a := NewFingerprint("The Real Housewives of Atlanta")
	if got := CosineSimilarity(a, NewFingerprint("the real housewives of atlanta")); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical similarity %v", got)
	}
	if got := CosineSimilarity(a, NewFingerprint("Below Deck")); got != 0 {
		t.Fatalf("disjoint similarity %v", got)
	}
}

func TestBestMatch(t *testing.T) {
	idx, score := BestMatch("Summer House", []string{"Winter House", "Summer House", "Summer House: Martha's Vineyard"}, 0.6)
	if idx != 1 || score < 0.99 {
		t.Fatalf("unexpected best match %d %v", idx, score)
	}
	if idx, _ := BestMatch("Vanderpump Rules", []string{"Below Deck"}, 0.5); idx != -1 {
		t.Fatalf("expected no match, got %d", idx)
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("LISA VANDERPUMP"); got != "Lisa Vanderpump" {
		t.Fatalf("TitleCase = %q", got)
	}
	if got := TitleCase("DJ Khaled"); got != "DJ Khaled" {
		t.Fatalf("mixed case must be kept, got %q", got)
	}
}
