package ports

import (
	"context"
	"time"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

// RegisterOrderInput carries everything needed to bind an order to a carrier
// shipment in the registry.
type RegisterOrderInput struct {
	OrderID           string
	OrderNumber       string
	UserID            string
	Carrier           string
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

// OrderRegistry is the aggregator's durable map from store orders to carrier
// shipments.
type OrderRegistry interface {
	Register(ctx context.Context, order *domain.Order) error
	// Find retrieves an order. When userID is non-empty the lookup is
	// additionally scoped to that user.
	Find(ctx context.Context, orderID, userID string) (*domain.Order, error)
}

// PayloadStore keeps the most recent raw carrier payload per order. Payloads
// arrive from carrier pushes (or scheduled pulls) and are normalized on read.
type PayloadStore interface {
	Save(ctx context.Context, orderID string, carrier domain.Carrier, payload []byte, receivedAt time.Time) error
	// Latest returns the newest stored payload for the order, or
	// domain.ErrNoPayload when none has arrived yet.
	Latest(ctx context.Context, orderID string) (domain.Carrier, []byte, error)
}

// TrackingService is the aggregator's use-case surface: register orders,
// ingest raw carrier payloads, and serve normalized tracking snapshots.
type TrackingService interface {
	RegisterOrder(ctx context.Context, input RegisterOrderInput) (*domain.Order, error)
	IngestPayload(ctx context.Context, orderID string, carrier string, payload []byte) error
	GetOrderTracking(ctx context.Context, orderID, userID string) (*domain.ShipmentRecord, error)
}
