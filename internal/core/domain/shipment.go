package domain

import (
	"errors"
	"fmt"
	"time"
)

// Carrier identifies the shipping carrier a tracking payload originates from.
type Carrier string

const (
	CarrierUPS   Carrier = "ups"
	CarrierFedEx Carrier = "fedex"
	CarrierDHL   Carrier = "dhl"
	CarrierOther Carrier = "other"
)

// ShipmentStatus is the canonical, carrier-agnostic lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending        ShipmentStatus = "pending"
	StatusPickedUp       ShipmentStatus = "picked_up"
	StatusInTransit      ShipmentStatus = "in_transit"
	StatusOutForDelivery ShipmentStatus = "out_for_delivery"
	StatusDelivered      ShipmentStatus = "delivered"
	StatusFailed         ShipmentStatus = "failed"
	StatusReturned       ShipmentStatus = "returned"
)

// progression is the ordered happy path. Progress percentage is derived from
// the index of the current status in this list, index/4 scaled to 0-100:
// pending=0, picked_up=25, in_transit=50, out_for_delivery=75, delivered=100.
// failed and returned keep the progress reached at the point of failure.
var progression = []ShipmentStatus{
	StatusPending,
	StatusPickedUp,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
}

// terminalStatuses are states after which no further progress is expected.
var terminalStatuses = map[ShipmentStatus]bool{
	StatusDelivered: true,
	StatusFailed:    true,
	StatusReturned:  true,
}

var ErrOrderNotFound = errors.New("order not found")
var ErrDuplicateOrder = errors.New("order already registered")
var ErrNoPayload = errors.New("no carrier payload available")

// IsTerminal reports whether no further shipment progress is expected.
func (s ShipmentStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid reports whether s is one of the canonical statuses.
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPickedUp, StatusInTransit, StatusOutForDelivery,
		StatusDelivered, StatusFailed, StatusReturned:
		return true
	}
	return false
}

// Progress returns the percentage (0-100) the status represents on the happy
// path, and ok=false for failed/returned, which carry no position of their own.
func (s ShipmentStatus) Progress() (int, bool) {
	for i, st := range progression {
		if st == s {
			return i * 100 / (len(progression) - 1), true
		}
	}
	return 0, false
}

// Location is the place a status update was recorded at. Any field may be empty.
type Location struct {
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

// StatusUpdate is a single scan/activity event on a shipment, already mapped
// into canonical form.
type StatusUpdate struct {
	Status      ShipmentStatus `json:"status" bson:"status" validate:"required"`
	Description string         `json:"description" bson:"description"`
	Location    Location       `json:"location" bson:"location"`
	Timestamp   time.Time      `json:"timestamp" bson:"timestamp" validate:"required"`
}

// ShipmentRecord is the canonical tracking snapshot for one order. It is
// immutable once built: a refresh replaces the whole record, never patches it.
type ShipmentRecord struct {
	OrderID            string         `json:"orderId" bson:"order_id" validate:"required"`
	OrderNumber        string         `json:"orderNumber" bson:"order_number" validate:"required"`
	TrackingNumber     string         `json:"trackingNumber" bson:"tracking_number" validate:"required"`
	Carrier            Carrier        `json:"carrier" bson:"carrier" validate:"required"`
	CarrierName        string         `json:"carrierName" bson:"carrier_name"`
	CurrentStatus      ShipmentStatus `json:"currentStatus" bson:"current_status" validate:"required"`
	CurrentDescription string         `json:"currentDescription" bson:"current_description"`
	Progress           int            `json:"progress" bson:"progress" validate:"min=0,max=100"`
	EstimatedDelivery  *time.Time     `json:"estimatedDelivery,omitempty" bson:"estimated_delivery,omitempty"`
	ActualDelivery     *time.Time     `json:"actualDelivery,omitempty" bson:"actual_delivery,omitempty"`
	IsDelayed          bool           `json:"isDelayed" bson:"is_delayed"`
	// Updates is ordered newest-first.
	Updates  []StatusUpdate `json:"updates" bson:"updates"`
	LastSync time.Time      `json:"lastSync" bson:"last_sync"`
}

// NormalizationError reports a raw carrier payload missing fields required to
// build a ShipmentRecord. Malformed-but-present data never raises it; only
// absence does.
type NormalizationError struct {
	Carrier Carrier
	Field   string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s payload: missing %s", e.Carrier, e.Field)
}

// NetworkError reports a tracking request that timed out or was aborted
// before an HTTP response arrived.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("tracking request failed: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// HTTPError reports a non-2xx response from the tracking aggregator.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("tracking request returned %d: %s", e.Status, e.Message)
}

// MalformedResponseError reports a 2xx response whose body failed schema
// validation.
type MalformedResponseError struct {
	Cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("tracking response failed validation: %v", e.Cause)
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }

// CacheCorruptionError reports a stored cache value that failed to parse or
// lacked required fields. The cache self-heals by evicting the key.
type CacheCorruptionError struct {
	Key   string
	Cause error
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("corrupt cache entry %q: %v", e.Key, e.Cause)
}

func (e *CacheCorruptionError) Unwrap() error { return e.Cause }

// TrackingUnavailableError is the only error surfaced to consumers of the
// tracking core: both the live fetch and the cache fallback failed. Cause is
// the live fetch failure.
type TrackingUnavailableError struct {
	OrderID string
	Cause   error
}

func (e *TrackingUnavailableError) Error() string {
	return fmt.Sprintf("tracking unavailable for order %s: %v", e.OrderID, e.Cause)
}

func (e *TrackingUnavailableError) Unwrap() error { return e.Cause }
