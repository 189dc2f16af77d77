// Package fedex normalizes FedEx Track API payloads.
package fedex

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

// statusTable maps FedEx scan event types to canonical statuses.
var statusTable = map[string]domain.ShipmentStatus{
	"OC": domain.StatusPending, // order created
	"PU": domain.StatusPickedUp,
	"AR": domain.StatusInTransit, // arrived at facility
	"DP": domain.StatusInTransit, // departed facility
	"IT": domain.StatusInTransit,
	"OD": domain.StatusOutForDelivery,
	"DL": domain.StatusDelivered,
	"DE": domain.StatusFailed, // delivery exception
	"RS": domain.StatusReturned,
}

// Payload shapes from the FedEx Track API response.
type trackResponse struct {
	Output *struct {
		CompleteTrackResults []struct {
			TrackResults []struct {
				ScanEvents []scanEvent `json:"scanEvents"`
			} `json:"trackResults"`
		} `json:"completeTrackResults"`
	} `json:"output"`
}

type scanEvent struct {
	Date             string `json:"date"` // ISO 8601
	EventDescription string `json:"eventDescription"`
	EventType        string `json:"eventType"`
	Location         struct {
		City                string `json:"city"`
		StateOrProvinceCode string `json:"stateOrProvinceCode"`
		CountryCode         string `json:"countryCode"`
	} `json:"location"`
}

// Normalizer converts FedEx payloads to canonical status updates.
type Normalizer struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

func (n *Normalizer) Carrier() domain.Carrier { return domain.CarrierFedEx }

func (n *Normalizer) CarrierName() string { return "FedEx" }

// Normalize flattens all scan events across track results into canonical
// updates.
func (n *Normalizer) Normalize(raw []byte) ([]domain.StatusUpdate, error) {
	var payload trackResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierFedEx, Field: "output"}
	}
	if payload.Output == nil {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierFedEx, Field: "output"}
	}
	if len(payload.Output.CompleteTrackResults) == 0 {
		return nil, &domain.NormalizationError{Carrier: domain.CarrierFedEx, Field: "output.completeTrackResults"}
	}

	var updates []domain.StatusUpdate
	for _, ctr := range payload.Output.CompleteTrackResults {
		for _, tr := range ctr.TrackResults {
			for _, ev := range tr.ScanEvents {
				status, ok := statusTable[ev.EventType]
				if !ok {
					n.log.Warn().
						Str("carrier", "fedex").
						Str("code", ev.EventType).
						Msg("unmapped status code, defaulting to pending")
					status = domain.StatusPending
				}
				updates = append(updates, domain.StatusUpdate{
					Status:      status,
					Description: ev.EventDescription,
					Location: domain.Location{
						City:    ev.Location.City,
						State:   ev.Location.StateOrProvinceCode,
						Country: ev.Location.CountryCode,
					},
					Timestamp: n.parseTimestamp(ev.Date),
				})
			}
		}
	}
	return updates, nil
}

func (n *Normalizer) parseTimestamp(date string) time.Time {
	ts, err := time.Parse(time.RFC3339, date)
	if err != nil {
		n.log.Warn().Str("carrier", "fedex").Str("date", date).Msg("unparseable scan event timestamp")
		return time.Time{}
	}
	return ts
}
