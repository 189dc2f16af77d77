// Package ups normalizes UPS Track API payloads.
package ups

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

// statusTable maps UPS activity status codes to canonical statuses.
var statusTable = map[string]domain.ShipmentStatus{
	"M":  domain.StatusPending, // billing information received
	"P":  domain.StatusPickedUp,
	"I":  domain.StatusInTransit,
	"O":  domain.StatusOutForDelivery,
	"D":  domain.StatusDelivered,
	"X":  domain.StatusFailed, // exception
	"RS": domain.StatusReturned,
}

// Payload shapes from the UPS Track API response.
type trackResponse struct {
	TrackResponse *struct {
		Shipment *struct {
			Package *struct {
				Activity []activity `json:"Activity"`
			} `json:"Package"`
		} `json:"Shipment"`
	} `json:"TrackResponse"`
}

type activity struct {
	Status struct {
		StatusType struct {
			Code        string `json:"Code"`
			Description string `json:"Description"`
		} `json:"StatusType"`
	} `json:"Status"`
	Date     string `json:"Date"` // YYYYMMDD
	Time     string `json:"Time"` // HHMMSS
	Location struct {
		City              string `json:"City"`
		StateProvinceCode string `json:"StateProvinceCode"`
		CountryCode       string `json:"CountryCode"`
	} `json:"Location"`
}

// Normalizer converts UPS payloads to canonical status updates.
type Normalizer struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

func (n *Normalizer) Carrier() domain.Carrier { return domain.CarrierUPS }

func (n *Normalizer) CarrierName() string { return "UPS" }

// Normalize maps the UPS activity list to canonical updates, newest-first.
func (n *Normalizer) Normalize(raw []byte) ([]domain.StatusUpdate, error) {
	var payload trackResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierUPS, Field: "TrackResponse"}
	}
	if payload.TrackResponse == nil {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierUPS, Field: "TrackResponse"}
	}
	if payload.TrackResponse.Shipment == nil {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierUPS, Field: "TrackResponse.Shipment"}
	}
	if payload.TrackResponse.Shipment.Package == nil {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierUPS, Field: "TrackResponse.Shipment.Package"}
	}

	activities := payload.TrackResponse.Shipment.Package.Activity
	updates := make([]domain.StatusUpdate, 0, len(activities))
	for _, a := range activities {
		status, ok := statusTable[a.Status.StatusType.Code]
		if !ok {
			n.log.Warn().
				Str("carrier", "ups").
				Str("code", a.Status.StatusType.Code).
				Msg("unmapped status code, defaulting to pending")
			status = domain.StatusPending
		}
		updates = append(updates, domain.StatusUpdate{
			Status:      status,
			Description: a.Status.StatusType.Description,
			Location: domain.Location{
				City:    a.Location.City,
				State:   a.Location.StateProvinceCode,
				Country: a.Location.CountryCode,
			},
			Timestamp: n.parseTimestamp(a.Date, a.Time),
		})
	}
	return updates, nil
}

// parseTimestamp combines UPS's split Date (YYYYMMDD) and Time (HHMMSS)
// fields. Unparseable values degrade to the zero time and are logged.
func (n *Normalizer) parseTimestamp(date, clock string) time.Time {
	ts, err := time.Parse("20060102 150405", fmt.Sprintf("%s %s", date, clock))
	if err != nil {
		n.log.Warn().
			Str("carrier", "ups").
			Str("date", date).
			Str("time", clock).
			Msg("unparseable activity timestamp")
		return time.Time{}
	}
	return ts
}
