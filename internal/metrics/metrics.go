// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters for the HTTP adapter. The
// search and retrieval pipeline itself records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubmed_research_search_requests_total",
			Help: "Search requests by outcome (ok, empty, invalid, failed)",
		},
		[]string{"outcome"},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pubmed_research_search_duration_seconds",
			Help:    "Search latency including both E-utilities calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	searchRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pubmed_research_search_records",
			Help:    "Records returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	articleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubmed_research_article_requests_total",
			Help: "Article retrievals by response status",
		},
		[]string{"status"},
	)

	articleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pubmed_research_article_duration_seconds",
			Help:    "Article retrieval latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	agentActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubmed_research_agent_actions_total",
			Help: "Agent action-group invocations by api path and HTTP status",
		},
		[]string{"api_path", "status"},
	)
)

// RecordSearch records one search outcome.
func RecordSearch(outcome string, records int, d time.Duration) {
	searchRequests.WithLabelValues(outcome).Inc()
	searchDuration.Observe(d.Seconds())
	if outcome == "ok" || outcome == "empty" {
		searchRecords.Observe(float64(records))
	}
}

// RecordArticle records one retrieval by its response status.
func RecordArticle(status string, d time.Duration) {
	articleRequests.WithLabelValues(status).Inc()
	articleDuration.Observe(d.Seconds())
}

// UnknownAPIPath is the api_path label for events whose path is not served.
const UnknownAPIPath = "unknown"

// RecordAgentAction records one agent event. apiPath must come from a fixed
// set; callers map unrecognised paths to UnknownAPIPath.
func RecordAgentAction(apiPath, status string) {
	agentActions.WithLabelValues(apiPath, status).Inc()
}
