package fedex_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanportal/tracking-system/internal/carrier/fedex"
	"github.com/fanportal/tracking-system/internal/core/domain"
)

const fedexPayload = `{
  "output": {
    "completeTrackResults": [
      {
        "trackResults": [
          {
            "scanEvents": [
              {
                "date": "2026-03-10T16:45:00Z",
                "eventDescription": "On FedEx vehicle for delivery",
                "eventType": "OD",
                "location": {"city": "Memphis", "stateOrProvinceCode": "TN", "countryCode": "US"}
              },
              {
                "date": "2026-03-09T22:10:00Z",
                "eventDescription": "Departed FedEx hub",
                "eventType": "DP",
                "location": {"city": "Memphis", "stateOrProvinceCode": "TN", "countryCode": "US"}
              }
            ]
          }
        ]
      }
    ]
  }
}`

func TestNormalize(t *testing.T) {
	n := fedex.New(zerolog.Nop())

	updates, err := n.Normalize([]byte(fedexPayload))
	require.NoError(t, err)
	require.Len(t, updates, 2)

	assert.Equal(t, domain.StatusOutForDelivery, updates[0].Status)
	assert.Equal(t, "On FedEx vehicle for delivery", updates[0].Description)
	assert.Equal(t, "Memphis", updates[0].Location.City)
	assert.Equal(t, time.Date(2026, 3, 10, 16, 45, 0, 0, time.UTC), updates[0].Timestamp)

	assert.Equal(t, domain.StatusInTransit, updates[1].Status)
}

func TestNormalizeUnmappedCodeDefaultsToPending(t *testing.T) {
	n := fedex.New(zerolog.Nop())
	payload := `{"output":{"completeTrackResults":[{"trackResults":[{"scanEvents":[
		{"date":"2026-03-10T10:00:00Z","eventDescription":"??","eventType":"WAT","location":{}}
	]}]}]}}`

	updates, err := n.Normalize([]byte(payload))
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, domain.StatusPending, updates[0].Status)
}

func TestNormalizeMissingRequiredFields(t *testing.T) {
	n := fedex.New(zerolog.Nop())

	for _, payload := range []string{`not json`, `{}`, `{"output":{}}`, `{"output":{"completeTrackResults":[]}}`} {
		_, err := n.Normalize([]byte(payload))
		var normErr *domain.NormalizationError
		require.True(t, errors.As(err, &normErr), "payload %q: want NormalizationError, got %v", payload, err)
		assert.Equal(t, domain.CarrierFedEx, normErr.Carrier)
	}
}
