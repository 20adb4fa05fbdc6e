// Package sentiment maps review text onto the 1–5 sentiment scale used by
// the popularity calculations downstream.
package sentiment

import (
	"math"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/jonreiter/govader"
)

// Scorer wraps a VADER analyzer. Scoring is a pure lexicon lookup: the same
// text always yields the same score, which keeps the persistence uniqueness
// key stable across runs. Non-English text is scored as-is.
type Scorer struct {
	sia *govader.SentimentIntensityAnalyzer
}

func New() *Scorer {
	return &Scorer{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns a sentiment in [1.0, 5.0], rounded to one decimal. The
// VADER compound polarity in [-1, 1] is mapped linearly so that -1 -> 1.0,
// 0 -> 3.0 and +1 -> 5.0.
func (s *Scorer) Score(text string) float64 {
	clean := strings.TrimSpace(stopwords.CleanString(text, "en", false))
	if clean == "" {
		// stop-word-only reviews still deserve a score; fall back to the raw text
		clean = text
	}

	compound := s.sia.PolarityScores(clean).Compound
	v := 1 + (compound+1)/2*4
	v = math.Round(v*10) / 10

	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
