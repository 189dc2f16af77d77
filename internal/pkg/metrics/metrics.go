// Package metrics defines and registers all custom Prometheus metrics for the
// order tracking system. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Fetch metrics ─────────────────────────────────────────────────────────────

// FetchesTotal counts successful tracking results handed to consumers.
// Label:
//   - source: "live" or "cache"
var FetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetches_total",
		Help:      "Total number of tracking results served, by source.",
	},
	[]string{"source"},
)

// FetchFailuresTotal counts live fetch failures by classification.
// Label:
//   - reason: "network", "http", "malformed", or "unavailable" (both live and cache failed)
var FetchFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_failures_total",
		Help:      "Total number of failed tracking fetches, by failure classification.",
	},
	[]string{"reason"},
)

// FetchDuration measures the end-to-end duration of one coordinator call.
// Label:
//   - source: "live", "cache", or "error"
var FetchDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of a tracking fetch including cache fallback.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"source"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheEvictionsTotal counts entries removed from the TTL cache.
// Label:
//   - reason: "expired" or "corrupt"
var CacheEvictionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_evictions_total",
		Help:      "Total number of cache entries evicted, by reason.",
	},
	[]string{"reason"},
)

// ── Polling metrics ───────────────────────────────────────────────────────────

// PollTicksTotal counts polling loop ticks by what happened to them.
// Label:
//   - result: "fetched", "skipped_inflight", or "failed"
var PollTicksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_ticks_total",
		Help:      "Total number of polling ticks, by outcome.",
	},
	[]string{"result"},
)

// ── Normalization metrics ─────────────────────────────────────────────────────

// NormalizationFallbacksTotal counts payloads that degraded to the fallback
// record instead of failing.
// Label:
//   - carrier: carrier tag of the offending payload, or "unknown"
var NormalizationFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "normalization_fallbacks_total",
		Help:      "Total number of carrier payloads that fell back to a degraded record.",
	},
	[]string{"carrier"},
)
