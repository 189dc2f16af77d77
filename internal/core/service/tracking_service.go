package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/carrier"
	"github.com/fanportal/tracking-system/internal/core/domain"
	"github.com/fanportal/tracking-system/internal/core/ports"
	"github.com/fanportal/tracking-system/internal/pkg/metrics"
)

type trackingService struct {
	orders   ports.OrderRegistry
	payloads ports.PayloadStore
	carriers *carrier.Registry
	now      func() time.Time
	log      zerolog.Logger
}

// NewTrackingService returns the aggregator's TrackingService. now may be nil,
// in which case time.Now is used.
func NewTrackingService(
	orders ports.OrderRegistry,
	payloads ports.PayloadStore,
	carriers *carrier.Registry,
	now func() time.Time,
	log zerolog.Logger,
) ports.TrackingService {
	if now == nil {
		now = time.Now
	}
	return &trackingService{
		orders:   orders,
		payloads: payloads,
		carriers: carriers,
		now:      now,
		log:      log,
	}
}

// RegisterOrder binds a store order to its carrier shipment.
func (s *trackingService) RegisterOrder(ctx context.Context, input ports.RegisterOrderInput) (*domain.Order, error) {
	carrierTag := domain.Carrier(input.Carrier)
	carrierName := input.Carrier
	if n, ok := s.carriers.Get(carrierTag); ok {
		carrierName = n.CarrierName()
	} else {
		s.log.Warn().Str("carrier", input.Carrier).Str("order_id", input.OrderID).Msg("registering order for carrier without normalizer")
		carrierTag = domain.CarrierOther
	}

	order := &domain.Order{
		OrderID:           input.OrderID,
		OrderNumber:       input.OrderNumber,
		UserID:            input.UserID,
		Carrier:           carrierTag,
		CarrierName:       carrierName,
		TrackingNumber:    input.TrackingNumber,
		EstimatedDelivery: input.EstimatedDelivery,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.orders.Register(ctx, order); err != nil {
		s.log.Error().Err(err).Str("order_id", input.OrderID).Msg("failed to register order")
		return nil, err
	}

	s.log.Info().
		Str("order_id", order.OrderID).
		Str("tracking_number", order.TrackingNumber).
		Str("carrier", string(order.Carrier)).
		Msg("order registered")
	return order, nil
}

// IngestPayload stores the most recent raw carrier payload for an order.
// Payloads are kept verbatim and normalized on read.
func (s *trackingService) IngestPayload(ctx context.Context, orderID string, carrierTag string, payload []byte) error {
	if _, err := s.orders.Find(ctx, orderID, ""); err != nil {
		return fmt.Errorf("ingest payload: %w", err)
	}
	if err := s.payloads.Save(ctx, orderID, domain.Carrier(carrierTag), payload, s.now().UTC()); err != nil {
		return fmt.Errorf("ingest payload: %w", err)
	}
	s.log.Info().
		Str("order_id", orderID).
		Str("carrier", carrierTag).
		Int("bytes", len(payload)).
		Msg("carrier payload ingested")
	return nil
}

// GetOrderTracking builds the canonical tracking snapshot for an order from
// its latest raw carrier payload.
//
// An order with no payload yet yields a pending record rather than an error.
// A payload from a carrier without a registered normalizer degrades to a
// pending record tagged carrier=other: normalization is total over
// malformed-but-present input. Only a payload missing required fields
// surfaces a *domain.NormalizationError.
func (s *trackingService) GetOrderTracking(ctx context.Context, orderID, userID string) (*domain.ShipmentRecord, error) {
	order, err := s.orders.Find(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("get tracking: %w", err)
	}

	now := s.now().UTC()

	carrierTag, payload, err := s.payloads.Latest(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNoPayload) {
			return carrier.BuildRecord(order, order.Carrier, order.CarrierName, nil, now), nil
		}
		return nil, fmt.Errorf("get tracking: %w", err)
	}

	normalizer, ok := s.carriers.Get(carrierTag)
	if !ok {
		metrics.NormalizationFallbacksTotal.WithLabelValues("unknown").Inc()
		s.log.Warn().
			Str("order_id", orderID).
			Str("carrier", string(carrierTag)).
			Msg("no normalizer for carrier, serving degraded record")
		return carrier.BuildRecord(order, domain.CarrierOther, order.CarrierName, nil, now), nil
	}

	updates, err := normalizer.Normalize(payload)
	if err != nil {
		metrics.NormalizationFallbacksTotal.WithLabelValues(string(carrierTag)).Inc()
		return nil, fmt.Errorf("get tracking: %w", err)
	}

	return carrier.BuildRecord(order, normalizer.Carrier(), normalizer.CarrierName(), updates, now), nil
}
