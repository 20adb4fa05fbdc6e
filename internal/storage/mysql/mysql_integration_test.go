//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"steam_reviews/internal/domain"
	mysqlrepo "steam_reviews/internal/storage/mysql"
)

// Schema fixture mirroring the fixed contract owned by the games pipeline:
// review carries a uniqueness key over (game_id, review_text, review_score,
// reviewed_at, sentiment).
var schema = []string{
	`CREATE TABLE game (
		game_id      BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		app_id       BIGINT NOT NULL UNIQUE,
		release_date DATETIME NOT NULL
	)`,
	`CREATE TABLE review (
		review_id             BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		game_id               BIGINT NOT NULL,
		review_text           TEXT NOT NULL,
		review_score          BIGINT NOT NULL,
		reviewed_at           DATETIME NOT NULL,
		playtime_last_2_weeks BIGINT NOT NULL DEFAULT 0,
		sentiment             DOUBLE NOT NULL,
		UNIQUE KEY uq_review (game_id, review_text(255), review_score, reviewed_at, sentiment),
		CONSTRAINT fk_review_game FOREIGN KEY (game_id) REFERENCES game (game_id)
	)`,
	`CREATE TABLE ingest_failure (
		app_id  BIGINT NOT NULL PRIMARY KEY,
		stage   VARCHAR(32) NOT NULL,
		reason  VARCHAR(255) NOT NULL,
		seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=steam",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/steam?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema: %v", err)
		}
	}
	return db
}

func seedGame(t *testing.T, db *sql.DB, appID int64, released time.Time) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO game (app_id, release_date) VALUES (?, ?)`, appID, released)
	if err != nil {
		t.Fatalf("seed game %d: %v", appID, err)
	}
	id, _ := res.LastInsertId()
	return id
}

func TestRepo_MySQL_LoaderAndRegistry(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	lookback := 14 * 24 * time.Hour

	inside := seedGame(t, db, 42, now.Add(-2*24*time.Hour))
	_ = seedGame(t, db, 43, now.Add(-lookback)) // exactly on the window edge
	_ = seedGame(t, db, 44, now.Add(-lookback-time.Hour))

	t.Run("eligibility window boundary", func(t *testing.T) {
		games, err := repo.EligibleGames(ctx, lookback)
		if err != nil {
			t.Fatalf("eligible: %v", err)
		}
		got := map[int64]bool{}
		for _, g := range games {
			got[g.AppID] = true
		}
		if !got[42] || !got[43] {
			t.Fatalf("expected apps 42 and 43 eligible, got %v", got)
		}
		if got[44] {
			t.Fatalf("app 44 released outside the window must not be eligible: %v", got)
		}
	})

	t.Run("registry lookup", func(t *testing.T) {
		id, err := repo.GameIDByAppID(ctx, 42)
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if id != inside {
			t.Fatalf("game_id: %d want %d", id, inside)
		}
		if _, err := repo.GameIDByAppID(ctx, 99999); !errors.Is(err, domain.ErrGameNotFound) {
			t.Fatalf("expected ErrGameNotFound, got %v", err)
		}
	})

	t.Run("idempotent batch insert", func(t *testing.T) {
		reviewedAt := now.Add(-24 * time.Hour)
		batch := make([]domain.ScoredReview, 0, 3)
		for i, txt := range []string{"loved it", "hated it", "mixed feelings"} {
			batch = append(batch, domain.ScoredReview{
				NormalizedReview: domain.NormalizedReview{
					GameID:     inside,
					Text:       txt,
					Score:      int64(i),
					ReviewedAt: reviewedAt,
				},
				Sentiment: 3.5,
			})
		}

		first, err := repo.InsertReviews(ctx, batch)
		if err != nil {
			t.Fatalf("first insert: %v", err)
		}
		if first.Inserted != 3 || first.Skipped != 0 {
			t.Fatalf("first insert result: %+v", first)
		}

		second, err := repo.InsertReviews(ctx, batch)
		if err != nil {
			t.Fatalf("second insert: %v", err)
		}
		if second.Inserted != 0 || second.Skipped != 3 {
			t.Fatalf("second insert result: %+v", second)
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM review WHERE game_id = ?`, inside).Scan(&count); err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 3 {
			t.Fatalf("duplicate rows in storage: %d", count)
		}
	})

	t.Run("failure log upserts", func(t *testing.T) {
		if err := repo.LogFailure(ctx, 42, "fetch", "timeout"); err != nil {
			t.Fatalf("log failure: %v", err)
		}
		if err := repo.LogFailure(ctx, 42, "load", "deadlock"); err != nil {
			t.Fatalf("log failure again: %v", err)
		}
		var stage string
		if err := db.QueryRow(`SELECT stage FROM ingest_failure WHERE app_id = 42`).Scan(&stage); err != nil {
			t.Fatalf("read failure: %v", err)
		}
		if stage != "load" {
			t.Fatalf("stage: %s", stage)
		}
	})
}
