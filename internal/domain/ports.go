package domain

import (
	"context"
	"time"
)

// ReviewSource fetches review data from the upstream store API.
type ReviewSource interface {
	// Summary returns the upstream review counts for a game. Games with a
	// zero total are skipped without opening a pagination loop.
	Summary(ctx context.Context, appID int64) (ReviewSummary, error)

	// ReviewsPage fetches one page of reviews. The first page uses the "*"
	// sentinel cursor. An empty page is a valid result, not an error.
	ReviewsPage(ctx context.Context, appID int64, cursor string) (ReviewPage, error)
}

// ReviewStore is the persistence boundary: the game registry (read) and the
// review sink (write).
type ReviewStore interface {
	// EligibleGames returns games whose release_date falls inside the
	// trailing lookback window, boundary inclusive.
	EligibleGames(ctx context.Context, lookback time.Duration) ([]Game, error)

	// GameIDByAppID resolves the storage-assigned foreign key for a game.
	// Returns ErrGameNotFound when the registry has no such row.
	GameIDByAppID(ctx context.Context, appID int64) (int64, error)

	// InsertReviews performs a duplicate-safe batched insert. Rows matching
	// the review uniqueness key are skipped, not errors.
	InsertReviews(ctx context.Context, reviews []ScoredReview) (LoadResult, error)

	// LogFailure records a per-game ingest failure for later inspection.
	LogFailure(ctx context.Context, appID int64, stage, reason string) error
}

// Cache is a small JSON-value cache used for registry lookups.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Scorer derives a sentiment value in [1.0, 5.0] from review text.
// Implementations must be deterministic: the sentiment participates in the
// persistence uniqueness key.
type Scorer interface {
	Score(text string) float64
}
