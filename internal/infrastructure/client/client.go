// Package client implements the HTTP client for the tracking aggregator
// endpoint. It performs exactly one GET per call, classifies failures into
// the tracking error taxonomy, and never touches the cache.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Doer abstracts the HTTP transport so the client is testable without a
// network.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// trackingEnvelope is the aggregator's response body on success.
type trackingEnvelope struct {
	Success bool                   `json:"success"`
	Data    *domain.ShipmentRecord `json:"data"`
}

// errorEnvelope is the aggregator's response body on 4xx/5xx.
type errorEnvelope struct {
	Message string `json:"message"`
}

// Client fetches tracking snapshots from the aggregator.
type Client struct {
	baseURL  string
	http     Doer
	timeout  time.Duration
	validate *validator.Validate
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a Client talking to the aggregator at baseURL via doer.
func New(baseURL string, doer Doer, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		http:     doer,
		timeout:  defaultTimeout,
		validate: validator.New(),
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTracking issues GET /orders/{orderId}/tracking?userId={userId} and
// returns the validated ShipmentRecord. Failures are classified as
// *domain.NetworkError (timeout/abort), *domain.HTTPError (non-2xx), or
// *domain.MalformedResponseError (2xx body failing schema validation).
func (c *Client) FetchTracking(ctx context.Context, orderID, userID string) (*domain.ShipmentRecord, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/orders/%s/tracking?userId=%s",
		c.baseURL, url.PathEscape(orderID), url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.NetworkError{Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("order_id", orderID).Msg("tracking fetch failed")
		return nil, &domain.NetworkError{Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.HTTPError{Status: resp.StatusCode, Message: c.readErrorMessage(resp.Body)}
	}

	var envelope trackingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &domain.MalformedResponseError{Cause: err}
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, &domain.MalformedResponseError{Cause: fmt.Errorf("envelope missing success/data")}
	}
	if err := c.validate.Struct(envelope.Data); err != nil {
		return nil, &domain.MalformedResponseError{Cause: err}
	}

	return envelope.Data, nil
}

// readErrorMessage extracts the {"message": ...} body from an error response.
// Anything unparseable degrades to a generic message.
func (c *Client) readErrorMessage(body io.Reader) string {
	var envelope errorEnvelope
	if err := json.NewDecoder(body).Decode(&envelope); err != nil || envelope.Message == "" {
		return "tracking request rejected"
	}
	return envelope.Message
}
