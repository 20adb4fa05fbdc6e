package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	PagesFetched = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "steam", Name: "review_pages_fetched_total", Help: "Review API pages fetched."},
	)
	ReviewsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "steam", Name: "reviews_rejected_total", Help: "Raw entries dropped by validation."},
		[]string{"reason"}, // reason: empty_text|bad_timestamp
	)
	ReviewsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "steam", Name: "reviews_loaded_total", Help: "Batched insert results."},
		[]string{"result"}, // result: inserted|skipped
	)
	GameOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "steam", Name: "game_outcomes_total", Help: "Per-game terminal pipeline outcomes."},
		[]string{"outcome"}, // outcome: ok|partial|failed
	)
	FetchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "steam", Name: "review_fetch_duration_seconds",
			Help:    "Review API page fetch duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "steam", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(PagesFetched, ReviewsRejected, ReviewsLoaded, GameOutcomes, FetchLatency, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics and /healthz on addr; no-op when addr is empty.
func Serve(addr string) {
	if addr == "" {
		return // disabled
	}
	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Handle("/metrics", MetricsHandler(InitRegistry()))
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("ops server failed")
		}
	}()
}

func ObservePage(dur time.Duration) {
	PagesFetched.Inc()
	FetchLatency.Observe(dur.Seconds())
}

func ObserveRejected(reason string) {
	ReviewsRejected.WithLabelValues(reason).Inc()
}

func ObserveLoad(inserted, skipped int) {
	ReviewsLoaded.WithLabelValues("inserted").Add(float64(inserted))
	ReviewsLoaded.WithLabelValues("skipped").Add(float64(skipped))
}

func ObserveOutcome(outcome string) {
	GameOutcomes.WithLabelValues(outcome).Inc()
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}
