package ports

import (
	"context"
	"time"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

// Source tells a consumer where a tracking result came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
)

// TrackingResult is what the resilience layer hands to consumers: the record
// plus enough provenance to render a staleness affordance.
type TrackingResult struct {
	Record *domain.ShipmentRecord
	Source Source
	// Stale is true when Record was served from cache after a failed live fetch.
	Stale bool
}

// TrackingFetcher performs one live fetch against the tracking aggregator.
// Implementations classify failures as NetworkError, HTTPError, or
// MalformedResponseError and never touch the cache.
type TrackingFetcher interface {
	FetchTracking(ctx context.Context, orderID, userID string) (*domain.ShipmentRecord, error)
}

// ShipmentCache is the slice of the TTL cache the tracking core needs.
// Get returns (nil, nil) on a miss; expired or corrupt entries are evicted
// and reported as misses.
type ShipmentCache interface {
	Get(ctx context.Context, key string) (*domain.ShipmentRecord, error)
	Set(ctx context.Context, key string, record domain.ShipmentRecord, ttl time.Duration) error
}

// Cache key namespaces. A corrupt or expired entry in one namespace never
// affects another.
const (
	TrackingKeyPrefix  = "orderTracking_"
	OrderKeyPrefix     = "order_"
	UserStatsKeyPrefix = "userStats_"
)

// TrackingKey returns the cache key for an order's tracking snapshot.
func TrackingKey(orderID string) string { return TrackingKeyPrefix + orderID }

// OrderKey returns the cache key for an order's history entry.
func OrderKey(orderID string) string { return OrderKeyPrefix + orderID }

// UserStatsKey returns the cache key for a user's aggregate stats.
func UserStatsKey(userID string) string { return UserStatsKeyPrefix + userID }

// StatusProvider yields the current shipment status for an order, recovering
// from live-fetch failures where possible. The polling loop depends on this.
type StatusProvider interface {
	GetShipmentStatus(ctx context.Context, orderID, userID string) (*TrackingResult, error)
}
