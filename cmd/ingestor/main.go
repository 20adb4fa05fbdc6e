package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"steam_reviews/internal/adapters/observability"
	redisad "steam_reviews/internal/adapters/redis"
	"steam_reviews/internal/adapters/steam"
	"steam_reviews/internal/app"
	"steam_reviews/internal/sentiment"
	"steam_reviews/internal/shared"
	mysqlrepo "steam_reviews/internal/storage/mysql"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := shared.Load()
	if err != nil {
		// fatal before any game is processed
		log.Fatal().Err(err).Msg("configuration invalid")
	}

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.SteamBase).
		Int("workers", cfg.Workers).
		Int("page_size", cfg.PageSize).
		Int("max_pages", cfg.MaxPages).
		Int("lookback_days", cfg.LookbackDays).
		Msg("ingestor starting")

	observability.Serve(cfg.MetricsAddr)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := steam.New(cfg.SteamBase, cfg.PageSize, cfg.SteamRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	pipe := app.NewPipeline(client, repo, cache, sentiment.New(), cfg.MaxPages, cfg.CacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.CronSpec != "" {
		runScheduled(ctx, pipe, cfg)
		return 0
	}
	return runOnce(ctx, pipe, cfg)
}

// runOnce executes one full pipeline pass. Exit status feeds scheduler-level
// alerting: non-zero when at least one game failed irrecoverably.
func runOnce(ctx context.Context, pipe *app.Pipeline, cfg shared.Config) int {
	sum, err := pipe.Run(ctx, cfg.Lookback(), cfg.Workers)
	if err != nil {
		log.Error().Err(err).Msg("run aborted")
		return 1
	}
	if sum.Failed > 0 {
		return 1
	}
	return 0
}

// runScheduled keeps the process resident and runs the pipeline on a cron
// schedule, for environments without an external scheduler.
func runScheduled(ctx context.Context, pipe *app.Pipeline, cfg shared.Config) {
	c := cron.New()
	if _, err := c.AddFunc(cfg.CronSpec, func() { _ = runOnce(ctx, pipe, cfg) }); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.CronSpec).Msg("invalid INGEST_CRON")
	}
	c.Start()
	log.Info().Str("spec", cfg.CronSpec).Msg("scheduler started")

	<-ctx.Done()
	log.Info().Msg("stop requested; letting the in-flight run finish")
	<-c.Stop().Done()
}
