package mysql

// The review table enforces a uniqueness key over
// (game_id, review_text, review_score, reviewed_at, sentiment); INSERT IGNORE
// silently drops rows that hit it, which is the whole dedup mechanism across
// repeated runs over overlapping review windows.
const insertReviewsPrefix = "INSERT IGNORE INTO review\n" +
	"  (game_id, review_text, review_score, reviewed_at, playtime_last_2_weeks, sentiment)\n" +
	"VALUES "

const gameIDByAppSQL = `
SELECT game_id FROM game WHERE app_id = ?
`

const insertFailureSQL = `
INSERT INTO ingest_failure (app_id, stage, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  stage   = VALUES(stage),
  reason  = VALUES(reason),
  seen_at = CURRENT_TIMESTAMP
`
