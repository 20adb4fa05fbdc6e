package sentiment_test

import (
	"testing"

	"steam_reviews/internal/sentiment"
)

func TestScore_Deterministic(t *testing.T) {
	s := sentiment.New()
	text := "Absolutely loved it, the best game I've played all year! The soundtrack is amazing."

	first := s.Score(text)
	for i := 0; i < 5; i++ {
		if got := s.Score(text); got != first {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}

func TestScore_WithinRange(t *testing.T) {
	s := sentiment.New()
	texts := []string{
		"Great fun, highly recommend.",
		"Terrible. Broken on launch, refunded after an hour.",
		"It is a game.",
		"", // degenerate but must not panic or escape the range
		"the and of a an", // stop words only
		"これは日本語のレビューです",
	}
	for _, txt := range texts {
		got := s.Score(txt)
		if got < 1.0 || got > 5.0 {
			t.Fatalf("score(%q) = %v out of [1,5]", txt, got)
		}
	}
}

func TestScore_PolarityOrdering(t *testing.T) {
	s := sentiment.New()

	pos := s.Score("Wonderful, beautiful game. I love everything about it.")
	neg := s.Score("Horrible, buggy mess. I hate it, worst purchase ever.")
	if pos <= neg {
		t.Fatalf("positive %v should outscore negative %v", pos, neg)
	}
	if pos <= 3.0 {
		t.Fatalf("positive text scored %v, expected above neutral", pos)
	}
	if neg >= 3.0 {
		t.Fatalf("negative text scored %v, expected below neutral", neg)
	}
}

func TestScore_NeutralNearMidpoint(t *testing.T) {
	s := sentiment.New()
	// no lexicon hits at all -> compound 0 -> exactly 3.0
	if got := s.Score("the keyboard has keys"); got != 3.0 {
		t.Fatalf("neutral text scored %v, want 3.0", got)
	}
}

func TestScore_OneDecimalPlace(t *testing.T) {
	s := sentiment.New()
	got := s.Score("Pretty good overall, some rough edges.")
	if rounded := float64(int(got*10+0.5)) / 10; rounded != got {
		t.Fatalf("score %v not rounded to one decimal", got)
	}
}
