package metrics

import (
	"context"
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
	"sync"
	"time"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_errors_total",
			Help: "Total number of logged warnings and errors by error type.",
		},
		[]string{"type", "level"},
	)
	UpstreamRequestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_hh_page_requests_total",
			Help: "Total number of search page requests by outcome.",
		},
		[]string{"outcome"},
	)
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bot_search_fetch_duration_seconds",
			Help:    "Duration of fetching all pages of a search in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	SearchesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_searches_total",
			Help: "Total number of executed searches by result.",
		},
		[]string{"result"},
	)
	ResultCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_result_cache_lookups_total",
			Help: "Result cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
	DocumentsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_documents_total",
			Help: "Document requests by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	GenerationDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "bot_document_generation_duration_seconds",
			Help:       "Duration of document generation by type.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"type"},
	)
	PurgedSnapshotsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_snapshot_queries_purged_total",
			Help: "Total number of (user, query) pairs whose snapshots were removed by retention.",
		},
	)
)

var registerOnce sync.Once

func register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(UpstreamRequestsCounter)
		prometheus.MustRegister(FetchDuration)
		prometheus.MustRegister(SearchesCounter)
		prometheus.MustRegister(ResultCacheLookups)
		prometheus.MustRegister(DocumentsCounter)
		prometheus.MustRegister(GenerationDuration)
		prometheus.MustRegister(PurgedSnapshotsCounter)
	})
}

// StartMetricsServer serves /metrics on addr until ctx is done.
func StartMetricsServer(ctx context.Context, addr string) {

	register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
