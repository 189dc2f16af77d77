package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/domain"
	"github.com/fanportal/tracking-system/internal/core/ports"
	"github.com/fanportal/tracking-system/internal/pkg/metrics"
)

// TrackingCoordinator layers the TTL cache under the live tracking client:
// one live attempt, write-through on success, one cache lookup on failure.
// It is the only component consumers talk to for shipment status.
type TrackingCoordinator struct {
	fetcher ports.TrackingFetcher
	cache   ports.ShipmentCache
	ttl     time.Duration
	log     zerolog.Logger
}

// NewTrackingCoordinator wires a coordinator. ttl is the cache lifetime for
// tracking snapshots; pass 0 for the 1 hour default.
func NewTrackingCoordinator(fetcher ports.TrackingFetcher, cache ports.ShipmentCache, ttl time.Duration, log zerolog.Logger) *TrackingCoordinator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TrackingCoordinator{fetcher: fetcher, cache: cache, ttl: ttl, log: log}
}

// GetShipmentStatus returns the current tracking snapshot for an order.
//
// The fallback chain is linear and never retried: a single live fetch, then a
// single cache lookup. A live success is written through to the cache before
// this method returns, so the cache always reflects the most recent live
// result. Only *domain.TrackingUnavailableError escapes; every lower-level
// failure is either recovered via cache or wrapped into it.
func (c *TrackingCoordinator) GetShipmentStatus(ctx context.Context, orderID, userID string) (*ports.TrackingResult, error) {
	start := time.Now()
	key := ports.TrackingKey(orderID)

	record, fetchErr := c.fetcher.FetchTracking(ctx, orderID, userID)
	if fetchErr == nil {
		if err := c.cache.Set(ctx, key, *record, c.ttl); err != nil {
			// A broken cache must not take down a successful live fetch.
			c.log.Warn().Err(err).Str("order_id", orderID).Msg("cache write-through failed")
		}
		metrics.FetchesTotal.WithLabelValues(string(ports.SourceLive)).Inc()
		metrics.FetchDuration.WithLabelValues(string(ports.SourceLive)).Observe(time.Since(start).Seconds())
		return &ports.TrackingResult{Record: record, Source: ports.SourceLive, Stale: false}, nil
	}

	reason := classifyFetchError(fetchErr)
	metrics.FetchFailuresTotal.WithLabelValues(reason).Inc()
	c.log.Warn().Err(fetchErr).
		Str("order_id", orderID).
		Str("reason", reason).
		Msg("live fetch failed, falling back to cache")

	cached, cacheErr := c.cache.Get(ctx, key)
	if cacheErr != nil {
		c.log.Warn().Err(cacheErr).Str("order_id", orderID).Msg("cache fallback failed")
	}
	if cached != nil {
		metrics.FetchesTotal.WithLabelValues(string(ports.SourceCache)).Inc()
		metrics.FetchDuration.WithLabelValues(string(ports.SourceCache)).Observe(time.Since(start).Seconds())
		return &ports.TrackingResult{Record: cached, Source: ports.SourceCache, Stale: true}, nil
	}

	metrics.FetchFailuresTotal.WithLabelValues("unavailable").Inc()
	metrics.FetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
	return nil, &domain.TrackingUnavailableError{OrderID: orderID, Cause: fetchErr}
}

// classifyFetchError buckets a live fetch failure for logging and metrics.
// The coordinator treats all of them the same way: fall back to cache.
func classifyFetchError(err error) string {
	var netErr *domain.NetworkError
	var httpErr *domain.HTTPError
	var malformed *domain.MalformedResponseError
	switch {
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &httpErr):
		return "http"
	case errors.As(err, &malformed):
		return "malformed"
	default:
		return "unknown"
	}
}
