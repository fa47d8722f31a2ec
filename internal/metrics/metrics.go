package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequests counts chat turns handled, grounded or not
	ChatRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainchat_chat_requests_total",
		Help: "Chat turns handled.",
	})

	// Detections counts resolved intents by kind
	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainchat_detections_total",
		Help: "Resolved intents by kind.",
	}, []string{"intent"})

	// FetchErrors counts upstream fetch failures by intent
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainchat_fetch_errors_total",
		Help: "Upstream fetch failures by intent.",
	}, []string{"intent"})

	// Corrections counts replies that needed fetched data spliced back in
	Corrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainchat_corrections_total",
		Help: "Replies corrected because the model ignored fetched data.",
	})

	// CacheHits counts upstream lookups served from cache, by endpoint
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainchat_cache_hits_total",
		Help: "Upstream lookups served from cache.",
	}, []string{"endpoint"})

	// UpstreamRequests counts 1inch API calls by endpoint and outcome
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainchat_upstream_requests_total",
		Help: "1inch API calls by endpoint and HTTP status.",
	}, []string{"endpoint", "status"})

	// LLMLatency tracks chat model completion latency
	LLMLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chainchat_llm_latency_seconds",
		Help:    "Latency of chat model completions.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
