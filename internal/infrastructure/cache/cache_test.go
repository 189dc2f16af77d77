package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/domain"
	"github.com/fanportal/tracking-system/internal/core/ports"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(t *testing.T) (*Cache[domain.ShipmentRecord], *MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	c := New[domain.ShipmentRecord](store, zerolog.Nop(), WithClock(clock.Now))
	return c, store, clock
}

func record(orderID string, status domain.ShipmentStatus) domain.ShipmentRecord {
	return domain.ShipmentRecord{
		OrderID:        orderID,
		OrderNumber:    "FP-1001",
		TrackingNumber: "1Z999AA10123456784",
		Carrier:        domain.CarrierUPS,
		CarrierName:    "UPS",
		CurrentStatus:  status,
		Progress:       50,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	want := record("order123", domain.StatusInTransit)
	if err := c.Set(ctx, ports.TrackingKey("order123"), want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, ports.TrackingKey("order123"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned miss immediately after Set")
	}
	if got.OrderID != want.OrderID || got.CurrentStatus != want.CurrentStatus || got.Progress != want.Progress {
		t.Errorf("Get = %+v, want %+v", *got, want)
	}
}

func TestCacheMiss(t *testing.T) {
	c, _, _ := newTestCache(t)

	got, err := c.Get(context.Background(), ports.TrackingKey("nope"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get on empty cache = %+v, want nil", *got)
	}
}

func TestCacheExpiry(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()
	key := ports.TrackingKey("order123")

	if err := c.Set(ctx, key, record("order123", domain.StatusInTransit), 50*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clock.Advance(60 * time.Millisecond)

	if got, _ := c.Get(ctx, key); got != nil {
		t.Fatal("expected expired entry to return nil")
	}
	// The expired key must be evicted, not resurrected.
	if _, ok, _ := store.Get(ctx, key); ok {
		t.Error("expired key still present in store after Get")
	}
	if got, _ := c.Get(ctx, key); got != nil {
		t.Error("second Get resurrected an evicted key")
	}
}

func TestCacheCorruptionSelfHeal(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()
	key := ports.TrackingKey("order123")

	if err := store.Set(ctx, key, []byte("{definitely not json"), 0); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get on corrupt entry: %v", err)
	}
	if got != nil {
		t.Errorf("Get on corrupt entry = %+v, want nil", *got)
	}
	if _, ok, _ := store.Get(ctx, key); ok {
		t.Error("corrupt key was not evicted")
	}
}

func TestCacheEnvelopeInvariant(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()
	key := ports.TrackingKey("order123")

	// Parses as JSON but violates expiresAt = timestamp + ttl.
	broken := []byte(`{"data":{},"timestamp":1000,"ttl":500,"expiresAt":9999}`)
	if err := store.Set(ctx, key, broken, 0); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	if got, _ := c.Get(ctx, key); got != nil {
		t.Error("entry with broken envelope invariant was served")
	}
	if _, ok, _ := store.Get(ctx, key); ok {
		t.Error("entry with broken envelope invariant was not evicted")
	}
}

func TestCacheNamespaceIsolation(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, ports.TrackingKey("order123"), record("order123", domain.StatusDelivered), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Corrupt an entry in a different namespace.
	if err := store.Set(ctx, ports.OrderKey("order123"), []byte("garbage"), 0); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	if got, _ := c.Get(ctx, ports.OrderKey("order123")); got != nil {
		t.Error("corrupt order entry was served")
	}
	got, err := c.Get(ctx, ports.TrackingKey("order123"))
	if err != nil || got == nil {
		t.Fatalf("tracking entry affected by corruption in another namespace: %v", err)
	}
}

func TestCacheEvict(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()
	key := ports.TrackingKey("order123")

	if err := c.Set(ctx, key, record("order123", domain.StatusPending), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Evict(ctx, key); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if got, _ := c.Get(ctx, key); got != nil {
		t.Error("Get after Evict returned a value")
	}
	// Evicting an absent key is not an error.
	if err := c.Evict(ctx, key); err != nil {
		t.Errorf("Evict on absent key: %v", err)
	}
}

func TestCacheEvictExpiredSweep(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, ports.TrackingKey("a"), record("a", domain.StatusPending), 10*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, ports.TrackingKey("b"), record("b", domain.StatusInTransit), 2*time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, ports.TrackingKey("c"), []byte("junk"), 0); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	// Outside the swept namespace.
	if err := c.Set(ctx, ports.UserStatsKey("u1"), record("u1", domain.StatusPending), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	clock.Advance(time.Hour)

	evicted, err := c.EvictExpired(ctx, ports.TrackingKeyPrefix)
	if err != nil {
		t.Fatalf("EvictExpired: %v", err)
	}
	if evicted != 2 {
		t.Errorf("EvictExpired evicted %d entries, want 2 (one expired, one corrupt)", evicted)
	}
	if got, _ := c.Get(ctx, ports.TrackingKey("b")); got == nil {
		t.Error("sweep removed a still-valid entry")
	}
	// The sweep must not cross namespaces, even for expired entries.
	if _, ok, _ := store.Get(ctx, ports.UserStatsKey("u1")); !ok {
		t.Error("sweep crossed into another namespace")
	}
}

func TestCacheSetRejectsNonPositiveTTL(t *testing.T) {
	c, _, _ := newTestCache(t)
	if err := c.Set(context.Background(), ports.TrackingKey("x"), record("x", domain.StatusPending), 0); err == nil {
		t.Error("Set with zero ttl should fail")
	}
}
