package app

import (
	"errors"
	"strings"
	"time"

	"steam_reviews/internal/domain"
)

// Rejection reasons. A rejected entry is a data-quality signal, not an
// error: the pipeline counts it and moves on to the next entry.
var (
	ErrEmptyText    = errors.New("empty review text")
	ErrBadTimestamp = errors.New("unparsable review timestamp")
)

// Normalize validates and repairs one raw review entry. Rules, in order:
// empty or whitespace-only text rejects; a non-positive UNIX timestamp
// rejects; a missing vote count is zero-filled and negatives are clamped;
// playtime that exceeds the minutes elapsed since the game's release is
// impossible and zeroed rather than rejected.
func Normalize(raw domain.RawReviewEntry, game domain.Game, now time.Time) (domain.NormalizedReview, error) {
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return domain.NormalizedReview{}, ErrEmptyText
	}

	if raw.TimestampCreated <= 0 {
		return domain.NormalizedReview{}, ErrBadTimestamp
	}
	reviewedAt := time.Unix(raw.TimestampCreated, 0).UTC()
	if reviewedAt.After(now.Add(24 * time.Hour)) {
		return domain.NormalizedReview{}, ErrBadTimestamp
	}

	var score int64
	if raw.VotesUp != nil && *raw.VotesUp > 0 {
		score = *raw.VotesUp
	}

	playtime := raw.PlaytimeLast2W
	if playtime < 0 {
		playtime = 0
	}
	if !game.ReleaseDate.IsZero() {
		if limit := int64(now.Sub(game.ReleaseDate).Minutes()); playtime > limit {
			playtime = 0
		}
	}

	return domain.NormalizedReview{
		Text:           text,
		Score:          score,
		ReviewedAt:     reviewedAt.Truncate(24 * time.Hour),
		PlaytimeLast2W: playtime,
	}, nil
}
