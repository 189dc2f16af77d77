package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/ports"
	"github.com/fanportal/tracking-system/internal/pkg/metrics"
)

// DefaultPollInterval is how often a shipment is refreshed while its status
// is non-terminal.
const DefaultPollInterval = 5 * time.Minute

// UpdateFunc receives every polling result. Exactly one of result and err is
// non-nil; err is always a *domain.TrackingUnavailableError.
type UpdateFunc func(result *ports.TrackingResult, err error)

// PollingController drives periodic tracking refreshes for one order. It
// performs an immediate fetch on Start, then refreshes at the configured
// interval until the shipment reaches a terminal status or Stop is called.
// Overlapping fetches for the order are never issued: a tick that fires while
// a fetch is still in flight is skipped.
type PollingController struct {
	provider ports.StatusProvider
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	inFlight atomic.Bool

	// cbMu serializes callback delivery against Stop, so that no onUpdate
	// runs after Stop returns. Stop must not be called from inside onUpdate.
	cbMu     sync.Mutex
	stopped  bool
	onUpdate UpdateFunc
}

// NewPollingController creates a controller polling through provider.
// interval <= 0 selects DefaultPollInterval.
func NewPollingController(provider ports.StatusProvider, interval time.Duration, log zerolog.Logger) *PollingController {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingController{provider: provider, interval: interval, log: log}
}

// Start begins polling for orderID. The first fetch happens immediately.
// Calling Start while already running is a no-op.
func (p *PollingController) Start(ctx context.Context, orderID, userID string, onUpdate UpdateFunc) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.log.Warn().Str("order_id", orderID).Msg("polling already running, start ignored")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel

	// Callback state is published under mu as well, so a concurrent Stop
	// either sees none of this Start or all of it. Lock order is mu, cbMu.
	p.cbMu.Lock()
	p.stopped = false
	p.onUpdate = onUpdate
	p.cbMu.Unlock()
	p.mu.Unlock()

	go p.run(runCtx, orderID, userID)
}

// Stop cancels the polling schedule. It is idempotent and safe to call from a
// teardown path even if Start was never called. Once Stop returns no further
// onUpdate call will be made; a fetch already in flight may still complete
// its cache write, but its result is suppressed.
func (p *PollingController) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
	p.cbMu.Lock()
	p.stopped = true
	p.cbMu.Unlock()
	p.mu.Unlock()
}

func (p *PollingController) run(ctx context.Context, orderID, userID string) {
	p.fetch(ctx, orderID, userID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.inFlight.CompareAndSwap(false, true) {
				metrics.PollTicksTotal.WithLabelValues("skipped_inflight").Inc()
				p.log.Debug().Str("order_id", orderID).Msg("previous fetch still in flight, tick skipped")
				continue
			}
			// The fetch runs off the loop so cancellation stays responsive.
			go func() {
				defer p.inFlight.Store(false)
				p.fetchLocked(ctx, orderID, userID)
			}()
		}
	}
}

// fetch wraps fetchLocked with the in-flight guard for the immediate fetch.
func (p *PollingController) fetch(ctx context.Context, orderID, userID string) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer p.inFlight.Store(false)
	p.fetchLocked(ctx, orderID, userID)
}

// fetchLocked performs one refresh. Caller holds the in-flight guard.
func (p *PollingController) fetchLocked(ctx context.Context, orderID, userID string) {
	result, err := p.provider.GetShipmentStatus(ctx, orderID, userID)
	if err != nil {
		// A failed tick surfaces the error but never cancels the schedule:
		// the next tick is another chance to recover.
		metrics.PollTicksTotal.WithLabelValues("failed").Inc()
		p.emit(nil, err)
		return
	}

	metrics.PollTicksTotal.WithLabelValues("fetched").Inc()
	p.emit(result, nil)

	if result.Record.CurrentStatus.IsTerminal() {
		p.log.Info().
			Str("order_id", orderID).
			Str("status", string(result.Record.CurrentStatus)).
			Msg("terminal status reached, polling stops")
		p.mu.Lock()
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
		p.running = false
		p.mu.Unlock()
	}
}

func (p *PollingController) emit(result *ports.TrackingResult, err error) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	if p.stopped || p.onUpdate == nil {
		return
	}
	p.onUpdate(result, err)
}
