package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/domain"
	"github.com/fanportal/tracking-system/internal/core/ports"
)

// scriptedProvider serves a fixed sequence of statuses, repeating the last
// one, and tracks concurrent calls.
type scriptedProvider struct {
	mu       sync.Mutex
	statuses []domain.ShipmentStatus
	calls    int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	block chan struct{} // when non-nil, calls wait here
	errs  map[int]error // call index (0-based) -> error instead of a record
}

func (p *scriptedProvider) GetShipmentStatus(_ context.Context, orderID, _ string) (*ports.TrackingResult, error) {
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		max := p.maxInFlight.Load()
		if cur <= max || p.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	if p.block != nil {
		<-p.block
	}

	p.mu.Lock()
	idx := p.calls
	p.calls++
	status := p.statuses[len(p.statuses)-1]
	if idx < len(p.statuses) {
		status = p.statuses[idx]
	}
	p.mu.Unlock()

	if err, ok := p.errs[idx]; ok {
		return nil, err
	}

	progress, _ := status.Progress()
	return &ports.TrackingResult{
		Record: &domain.ShipmentRecord{
			OrderID:       orderID,
			CurrentStatus: status,
			Progress:      progress,
		},
		Source: ports.SourceLive,
	}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestPollingStopsOnTerminalStatus(t *testing.T) {
	provider := &scriptedProvider{
		statuses: []domain.ShipmentStatus{domain.StatusInTransit, domain.StatusInTransit, domain.StatusDelivered},
	}
	ctrl := NewPollingController(provider, 20*time.Millisecond, zerolog.Nop())
	defer ctrl.Stop()

	var updates atomic.Int32
	var lastStatus atomic.Value
	ctrl.Start(context.Background(), "order123", "user42", func(result *ports.TrackingResult, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}
		updates.Add(1)
		lastStatus.Store(result.Record.CurrentStatus)
	})

	// Immediate fetch + two ticks reach delivered; then the schedule stops.
	deadline := time.After(2 * time.Second)
	for provider.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d fetches before deadline", provider.callCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
	// Give the controller room to (wrongly) schedule further ticks.
	time.Sleep(150 * time.Millisecond)

	if got := provider.callCount(); got != 3 {
		t.Errorf("fetch count after terminal status = %d, want exactly 3", got)
	}
	if got := lastStatus.Load(); got != domain.StatusDelivered {
		t.Errorf("last reported status = %v, want delivered", got)
	}
	if updates.Load() != 3 {
		t.Errorf("onUpdate invoked %d times, want 3", updates.Load())
	}
}

func TestPollingSkipsOverlappingTicks(t *testing.T) {
	block := make(chan struct{})
	provider := &scriptedProvider{
		statuses: []domain.ShipmentStatus{domain.StatusInTransit},
		block:    block,
	}
	ctrl := NewPollingController(provider, 10*time.Millisecond, zerolog.Nop())
	defer ctrl.Stop()

	ctrl.Start(context.Background(), "order123", "user42", func(*ports.TrackingResult, error) {})

	// Several ticks fire while the first fetch is blocked.
	time.Sleep(100 * time.Millisecond)
	close(block)
	time.Sleep(50 * time.Millisecond)
	ctrl.Stop()

	if max := provider.maxInFlight.Load(); max > 1 {
		t.Errorf("max concurrent fetches = %d, want at most 1", max)
	}
}

func TestPollingTickFailureDoesNotCancelSchedule(t *testing.T) {
	provider := &scriptedProvider{
		statuses: []domain.ShipmentStatus{domain.StatusInTransit, domain.StatusInTransit, domain.StatusDelivered},
		errs: map[int]error{
			1: &domain.TrackingUnavailableError{OrderID: "order123", Cause: &domain.NetworkError{}},
		},
	}
	ctrl := NewPollingController(provider, 20*time.Millisecond, zerolog.Nop())
	defer ctrl.Stop()

	var errSeen atomic.Bool
	ctrl.Start(context.Background(), "order123", "user42", func(result *ports.TrackingResult, err error) {
		if err != nil {
			errSeen.Store(true)
		}
	})

	deadline := time.After(2 * time.Second)
	for provider.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("polling stalled after a failed tick: %d fetches", provider.callCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !errSeen.Load() {
		t.Error("failed tick was not surfaced through onUpdate")
	}
}

func TestStopSuppressesInFlightCallback(t *testing.T) {
	block := make(chan struct{})
	provider := &scriptedProvider{
		statuses: []domain.ShipmentStatus{domain.StatusInTransit},
		block:    block,
	}
	ctrl := NewPollingController(provider, time.Hour, zerolog.Nop())

	var called atomic.Bool
	ctrl.Start(context.Background(), "order123", "user42", func(*ports.TrackingResult, error) {
		called.Store(true)
	})

	// The immediate fetch is parked inside the provider. Stop, then let it
	// resolve: its callback must be suppressed.
	time.Sleep(20 * time.Millisecond)
	ctrl.Stop()
	close(block)
	time.Sleep(50 * time.Millisecond)

	if called.Load() {
		t.Error("onUpdate ran after Stop returned")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	ctrl := NewPollingController(&scriptedProvider{statuses: []domain.ShipmentStatus{domain.StatusPending}}, time.Hour, zerolog.Nop())

	// Safe without Start, and safe repeatedly.
	ctrl.Stop()
	ctrl.Stop()

	ctrl.Start(context.Background(), "order123", "user42", func(*ports.TrackingResult, error) {})
	ctrl.Stop()
	ctrl.Stop()
}

func TestStartWhileRunningIsANoOp(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	provider := &scriptedProvider{
		statuses: []domain.ShipmentStatus{domain.StatusInTransit},
		block:    block,
	}
	ctrl := NewPollingController(provider, time.Hour, zerolog.Nop())
	defer ctrl.Stop()

	ctrl.Start(context.Background(), "order123", "user42", func(*ports.TrackingResult, error) {})
	ctrl.Start(context.Background(), "order123", "user42", func(*ports.TrackingResult, error) {})

	time.Sleep(20 * time.Millisecond)
	if max := provider.maxInFlight.Load(); max > 1 {
		t.Errorf("second Start spawned a concurrent poll loop (max in flight %d)", max)
	}
}

func TestConcurrentStartStopNeverEmitsAfterStop(t *testing.T) {
	// Stop racing with Start must either win entirely (nothing emitted) or
	// lose entirely; it must never be overwritten by Start's tail end.
	for i := 0; i < 100; i++ {
		block := make(chan struct{})
		provider := &scriptedProvider{
			statuses: []domain.ShipmentStatus{domain.StatusInTransit},
			block:    block,
		}
		ctrl := NewPollingController(provider, time.Hour, zerolog.Nop())

		var stopReturned atomic.Bool
		var late atomic.Bool
		started := make(chan struct{})
		go func() {
			defer close(started)
			ctrl.Start(context.Background(), "order123", "user42", func(*ports.TrackingResult, error) {
				if stopReturned.Load() {
					late.Store(true)
				}
			})
		}()

		// As soon as the controller reports running, stop it while the
		// immediate fetch is still parked inside the provider.
		for {
			ctrl.mu.Lock()
			running := ctrl.running
			ctrl.mu.Unlock()
			if running {
				break
			}
		}
		ctrl.Stop()
		stopReturned.Store(true)
		close(block)
		<-started

		// The parked fetch clears the in-flight guard after any emit attempt.
		for ctrl.inFlight.Load() {
			time.Sleep(time.Millisecond)
		}
		if late.Load() {
			t.Fatalf("iteration %d: onUpdate ran after Stop returned", i)
		}
	}
}
