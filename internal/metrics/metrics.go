package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "marketlens_analyses_total", Help: "Analyses run, by outcome"},
		[]string{"outcome"},
	)
	AnalysisSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketlens_analysis_seconds",
			Help:    "Wall time of one symbol analysis including fetch",
			Buckets: prometheus.DefBuckets,
		},
	)
	FetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "marketlens_fetch_errors_total", Help: "Provider fetch failures"},
		[]string{"source"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "marketlens_cache_hits_total", Help: "Cached fetch lookups, by result"},
		[]string{"result"},
	)
)

// Analysis outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeNoData = "not_enough_data"
	OutcomeError  = "error"
)

func init() {
	prometheus.MustRegister(AnalysesTotal, AnalysisSeconds, FetchErrorsTotal, CacheHitsTotal)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
