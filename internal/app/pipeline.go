package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"steam_reviews/internal/adapters/observability"
	"steam_reviews/internal/domain"
)

// Outcome is a game's terminal pipeline result.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomePartial
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomePartial:
		return "partial"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GameReport is the per-game record the orchestrator emits for operational
// visibility: one structured log event per game carries these fields.
type GameReport struct {
	AppID    int64
	GameID   int64
	Outcome  Outcome
	Pages    int
	Fetched  int
	Rejected int
	Load     domain.LoadResult
	Stop     Decision
	Stage    string // populated on failure: registry|fetch|load
	Reason   string // populated on failure
}

// RunSummary aggregates one scheduled invocation.
type RunSummary struct {
	Succeeded int
	Partial   int
	Failed    int
	Reports   []GameReport
}

// Pipeline sequences fetch -> cursor decision -> normalize -> score -> load
// for every eligible game. It is the only component holding cross-game
// state, and only for eligibility and outcome aggregation.
type Pipeline struct {
	source   domain.ReviewSource
	store    domain.ReviewStore
	cache    domain.Cache
	scorer   domain.Scorer
	maxPages int
	cacheTTL time.Duration

	now func() time.Time
}

func NewPipeline(source domain.ReviewSource, store domain.ReviewStore, cache domain.Cache, scorer domain.Scorer, maxPages int, cacheTTL time.Duration) *Pipeline {
	return &Pipeline{
		source:   source,
		store:    store,
		cache:    cache,
		scorer:   scorer,
		maxPages: maxPages,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Run processes every game released inside the lookback window. Games are
// independent, so they run on a bounded worker pool; a failure in one game
// never aborts the others. The returned summary drives the exit status.
func (p *Pipeline) Run(ctx context.Context, lookback time.Duration, workers int) (RunSummary, error) {
	games, err := p.store.EligibleGames(ctx, lookback)
	if err != nil {
		return RunSummary{}, fmt.Errorf("list eligible games: %w", err)
	}
	if len(games) == 0 {
		log.Warn().Dur("lookback", lookback).Msg("no new games in the lookback window")
		return RunSummary{}, nil
	}
	if workers <= 0 {
		workers = 1
	}

	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		summary RunSummary
	)

	for _, g := range games {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break // run cancelled; remaining games stay unprocessed
		}

		wg.Add(1)
		go func(game domain.Game) {
			defer wg.Done()
			defer sem.Release(1)

			rep := p.ingestGame(ctx, game)
			observability.ObserveOutcome(rep.Outcome.String())
			logReport(rep)

			mu.Lock()
			summary.Reports = append(summary.Reports, rep)
			mu.Unlock()
		}(g)
	}
	wg.Wait()

	sort.Slice(summary.Reports, func(i, j int) bool {
		return summary.Reports[i].AppID < summary.Reports[j].AppID
	})
	for _, r := range summary.Reports {
		switch r.Outcome {
		case OutcomeOK:
			summary.Succeeded++
		case OutcomePartial:
			summary.Partial++
		case OutcomeFailed:
			summary.Failed++
		}
	}

	log.Info().
		Int("succeeded", summary.Succeeded).
		Int("partial", summary.Partial).
		Int("failed", summary.Failed).
		Msg("run finished")
	return summary, nil
}

// ingestGame runs the whole pipeline for one game. All stages within a game
// are strictly sequential: each page's cursor determines the next fetch.
func (p *Pipeline) ingestGame(ctx context.Context, game domain.Game) GameReport {
	rep := GameReport{AppID: game.AppID}

	gameID, err := p.resolveGameID(ctx, game.AppID)
	if err != nil {
		return p.fail(ctx, rep, "registry", err)
	}
	rep.GameID = gameID

	sum, err := p.source.Summary(ctx, game.AppID)
	if err != nil {
		return p.fail(ctx, rep, "fetch", err)
	}
	if sum.Total == 0 {
		rep.Outcome = OutcomeOK
		return rep
	}

	var (
		batch    []domain.ScoredReview
		rejected int
		dec      Decision
	)
	state := NewPaginationState(domain.FirstCursor, p.maxPages)
	for {
		start := time.Now()
		page, err := p.source.ReviewsPage(ctx, game.AppID, state.Cursor)
		if err != nil {
			return p.fail(ctx, rep, "fetch", err)
		}
		observability.ObservePage(time.Since(start))

		state, dec = state.Advance(page.NextCursor)

		// A page whose cursor repeats re-serves content the loop has already
		// consumed; its entries are dropped, not normalized.
		if dec != StopCursorRepeat {
			for _, raw := range page.Entries {
				nr, nerr := Normalize(raw, game, p.now())
				if nerr != nil {
					rejected++
					observability.ObserveRejected(rejectReason(nerr))
					continue
				}
				nr.GameID = gameID
				batch = append(batch, domain.ScoredReview{
					NormalizedReview: nr,
					Sentiment:        p.scorer.Score(nr.Text),
				})
			}
		}

		if dec.Stopped() {
			break
		}
	}
	rep.Pages = state.Pages
	rep.Fetched = len(batch) + rejected
	rep.Rejected = rejected
	rep.Stop = dec

	// A cancelled game discards its partial pages rather than loading them,
	// so the dedup state is never ambiguous.
	if ctx.Err() != nil {
		return p.fail(ctx, rep, "fetch", ctx.Err())
	}

	res, err := p.store.InsertReviews(ctx, batch)
	if err != nil {
		// one whole-batch retry, never row-by-row
		res, err = p.store.InsertReviews(ctx, batch)
		if err != nil {
			return p.fail(ctx, rep, "load", &domain.LoadError{AppID: game.AppID, Batch: len(batch), Err: err})
		}
	}
	rep.Load = res
	observability.ObserveLoad(res.Inserted, res.Skipped)

	rep.Outcome = OutcomeOK
	if rejected > 0 || dec == StopPageCap {
		rep.Outcome = OutcomePartial
	}
	return rep
}

// resolveGameID maps the upstream app_id to the storage-assigned foreign
// key, cache-aside. Cache trouble is soft: fall through to the registry.
func (p *Pipeline) resolveGameID(ctx context.Context, appID int64) (int64, error) {
	key := fmt.Sprintf("game:app:%d", appID)

	var id int64
	if p.cache != nil {
		if ok, err := p.cache.Get(ctx, key, &id); err != nil {
			log.Debug().Err(err).Int64("app_id", appID).Msg("registry cache get failed")
		} else if ok {
			return id, nil
		}
	}

	id, err := p.store.GameIDByAppID(ctx, appID)
	if err != nil {
		return 0, err
	}
	if p.cache != nil {
		if err := p.cache.Set(ctx, key, id, p.cacheTTL); err != nil {
			log.Debug().Err(err).Int64("app_id", appID).Msg("registry cache set failed")
		}
	}
	return id, nil
}

func (p *Pipeline) fail(ctx context.Context, rep GameReport, stage string, err error) GameReport {
	rep.Outcome = OutcomeFailed
	rep.Stage = stage
	rep.Reason = err.Error()
	if lerr := p.store.LogFailure(ctx, rep.AppID, stage, rep.Reason); lerr != nil {
		log.Warn().Err(lerr).Int64("app_id", rep.AppID).Msg("failure log write failed")
	}
	return rep
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyText):
		return "empty_text"
	case errors.Is(err, ErrBadTimestamp):
		return "bad_timestamp"
	default:
		return "invalid"
	}
}

func logReport(rep GameReport) {
	ev := log.Info()
	if rep.Outcome == OutcomeFailed {
		ev = log.Error()
	}
	ev = ev.
		Int64("app_id", rep.AppID).
		Str("outcome", rep.Outcome.String()).
		Int("pages", rep.Pages).
		Int("fetched", rep.Fetched).
		Int("rejected", rep.Rejected).
		Int("inserted", rep.Load.Inserted).
		Int("skipped", rep.Load.Skipped)
	if rep.Stop.Stopped() {
		ev = ev.Str("stop", rep.Stop.String())
	}
	if rep.Stage != "" {
		ev = ev.Str("stage", rep.Stage).Str("reason", rep.Reason)
	}
	ev.Msg("game processed")
}
