package domain

import "time"

// FirstCursor is the sentinel the review API expects for page one.
const FirstCursor = "*"

// RawReviewEntry is a single review as returned by the Steam appreviews
// endpoint. Fields are untrusted until Normalize has seen them.
type RawReviewEntry struct {
	Text             string
	VotesUp          *int64 // upstream "votes_up"; nil when absent
	TimestampCreated int64  // UNIX seconds
	PlaytimeLast2W   int64  // minutes played in the trailing two weeks
}

// ReviewPage is the result of one appreviews call. Ephemeral: consumed
// immediately by the pagination loop, never persisted.
type ReviewPage struct {
	Entries    []RawReviewEntry
	NextCursor string
}

// ReviewSummary mirrors the upstream query_summary block.
type ReviewSummary struct {
	Total    int
	Positive int
	Negative int
}

// NormalizedReview is the canonical in-memory record after validation.
// Text is guaranteed non-empty; Sentiment is filled by the scoring stage.
type NormalizedReview struct {
	GameID         int64
	Text           string
	Score          int64 // positive-vote count, never negative
	ReviewedAt     time.Time
	PlaytimeLast2W int64
}

// ScoredReview is a NormalizedReview with a finalized sentiment in [1.0, 5.0].
// Immutable once produced; the unit the loader batches.
type ScoredReview struct {
	NormalizedReview
	Sentiment float64
}

// LoadResult reports the outcome of one batched upsert. Skipped rows hit the
// review uniqueness key and were silently dropped, which is how repeated runs
// over overlapping review windows stay idempotent.
type LoadResult struct {
	Inserted int
	Skipped  int
}
