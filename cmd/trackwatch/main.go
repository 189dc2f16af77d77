// Command trackwatch follows one order's shipment from the terminal: it polls
// the tracking aggregator, falls back to the local cache when the aggregator
// is unreachable, and stops on its own once the shipment reaches a terminal
// status.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fanportal/tracking-system/internal/core/domain"
	"github.com/fanportal/tracking-system/internal/core/ports"
	"github.com/fanportal/tracking-system/internal/core/service"
	"github.com/fanportal/tracking-system/internal/infrastructure/cache"
	"github.com/fanportal/tracking-system/internal/infrastructure/client"
	"github.com/fanportal/tracking-system/internal/pkg/config"
	"github.com/fanportal/tracking-system/pkg/logger"
)

func main() {
	orderID := flag.String("order", "", "order ID to watch (required)")
	userID := flag.String("user", "", "user ID the order belongs to")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})

	if *orderID == "" {
		log.Fatal().Msg("missing -order flag")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := client.New(
		cfg.Tracking.AggregatorURL,
		&http.Client{},
		log,
		client.WithTimeout(cfg.Tracking.RequestTimeout),
	)
	snapshots := cache.New[domain.ShipmentRecord](cache.NewMemoryStore(), log)
	coordinator := service.NewTrackingCoordinator(fetcher, snapshots, cfg.Tracking.CacheTTL, log)

	done := make(chan struct{})
	poller := service.NewPollingController(coordinator, cfg.Tracking.PollInterval, log)
	poller.Start(ctx, *orderID, *userID, func(result *ports.TrackingResult, err error) {
		if err != nil {
			log.Error().Err(err).Msg("tracking unavailable, will retry")
			return
		}
		event := log.Info().
			Str("status", string(result.Record.CurrentStatus)).
			Int("progress", result.Record.Progress).
			Str("source", string(result.Source)).
			Bool("stale", result.Stale)
		if result.Record.CurrentDescription != "" {
			event = event.Str("description", result.Record.CurrentDescription)
		}
		event.Msg("shipment update")

		if result.Record.CurrentStatus.IsTerminal() {
			close(done)
		}
	})
	defer poller.Stop()

	select {
	case <-ctx.Done():
		log.Info().Msg("interrupted")
	case <-done:
		log.Info().Msg("shipment reached a terminal status")
	}
}
