package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"steam_reviews/internal/domain"
)

// insertChunk bounds the placeholder count of one multi-row statement.
const insertChunk = 500

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// EligibleGames returns games released inside the trailing lookback window,
// boundary inclusive on both ends.
func (r *Repo) EligibleGames(ctx context.Context, lookback time.Duration) ([]domain.Game, error) {
	now := time.Now().UTC()
	q, args, err := sq.Select("app_id", "release_date").
		From("game").
		Where(sq.GtOrEq{"release_date": now.Add(-lookback)}).
		Where(sq.LtOrEq{"release_date": now}).
		OrderBy("release_date DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Game
	for rows.Next() {
		var g domain.Game
		if err := rows.Scan(&g.AppID, &g.ReleaseDate); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) GameIDByAppID(ctx context.Context, appID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, gameIDByAppSQL, appID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, domain.ErrGameNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// InsertReviews writes a batch with INSERT IGNORE in chunks. RowsAffected
// counts the rows actually inserted; the remainder hit the uniqueness key
// and were skipped.
func (r *Repo) InsertReviews(ctx context.Context, reviews []domain.ScoredReview) (domain.LoadResult, error) {
	if len(reviews) == 0 {
		return domain.LoadResult{}, nil
	}

	var res domain.LoadResult
	for start := 0; start < len(reviews); start += insertChunk {
		end := start + insertChunk
		if end > len(reviews) {
			end = len(reviews)
		}
		chunk := reviews[start:end]

		values := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*6)
		for _, rv := range chunk {
			values = append(values, "(?,?,?,?,?,?)")
			args = append(args,
				rv.GameID,
				rv.Text,
				rv.Score,
				rv.ReviewedAt,
				rv.PlaytimeLast2W,
				rv.Sentiment,
			)
		}

		sqlStr := insertReviewsPrefix + strings.Join(values, ",")
		out, err := r.db.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return domain.LoadResult{}, err
		}
		inserted, err := out.RowsAffected()
		if err != nil {
			return domain.LoadResult{}, err
		}
		res.Inserted += int(inserted)
		res.Skipped += len(chunk) - int(inserted)
	}
	return res, nil
}

func (r *Repo) LogFailure(ctx context.Context, appID int64, stage, reason string) error {
	_, err := r.db.ExecContext(ctx, insertFailureSQL, appID, stage, reason)
	return err
}
