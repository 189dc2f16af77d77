// Package dhl normalizes DHL Unified Tracking API payloads.
package dhl

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

// statusTable maps DHL event status codes to canonical statuses.
var statusTable = map[string]domain.ShipmentStatus{
	"pre-transit":      domain.StatusPending,
	"pickup":           domain.StatusPickedUp,
	"transit":          domain.StatusInTransit,
	"out-for-delivery": domain.StatusOutForDelivery,
	"delivered":        domain.StatusDelivered,
	"failure":          domain.StatusFailed,
	"returned":         domain.StatusReturned,
}

// Payload shapes from the DHL tracking response.
type trackResponse struct {
	Shipments []struct {
		Events []event `json:"events"`
	} `json:"shipments"`
}

type event struct {
	Timestamp   string `json:"timestamp"` // ISO 8601
	StatusCode  string `json:"statusCode"`
	Description string `json:"description"`
	Location    struct {
		Address struct {
			City        string `json:"city"`
			PostalCode  string `json:"postalCode"`
			CountryCode string `json:"countryCode"`
		} `json:"address"`
	} `json:"location"`
}

// Normalizer converts DHL payloads to canonical status updates.
type Normalizer struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

func (n *Normalizer) Carrier() domain.Carrier { return domain.CarrierDHL }

func (n *Normalizer) CarrierName() string { return "DHL" }

// Normalize flattens the events of every shipment in the payload into
// canonical updates. DHL reports no state/province, so that field stays empty.
func (n *Normalizer) Normalize(raw []byte) ([]domain.StatusUpdate, error) {
	var payload trackResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierDHL, Field: "shipments"}
	}
	if len(payload.Shipments) == 0 {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierDHL, Field: "shipments"}
	}

	var updates []domain.StatusUpdate
	for _, s := range payload.Shipments {
		for _, ev := range s.Events {
			status, ok := statusTable[ev.StatusCode]
			if !ok {
				n.log.Warn().
					Str("carrier", "dhl").
					Str("code", ev.StatusCode).
					Msg("unmapped status code, defaulting to pending")
				status = domain.StatusPending
			}
			updates = append(updates, domain.StatusUpdate{
				Status:      status,
				Description: ev.Description,
				Location: domain.Location{
					City:    ev.Location.Address.City,
					Country: ev.Location.Address.CountryCode,
				},
				Timestamp: n.parseTimestamp(ev.Timestamp),
			})
		}
	}
	return updates, nil
}

func (n *Normalizer) parseTimestamp(ts string) time.Time {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		n.log.Warn().Str("carrier", "dhl").Str("timestamp", ts).Msg("unparseable event timestamp")
		return time.Time{}
	}
	return parsed
}
