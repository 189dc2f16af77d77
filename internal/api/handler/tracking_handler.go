package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fanportal/tracking-system/internal/core/domain"
	"github.com/fanportal/tracking-system/internal/core/ports"
)

// maxPayloadBytes caps ingested carrier payloads.
const maxPayloadBytes = 1 << 20

// trackingEnvelope is the success envelope of the tracking endpoint.
type trackingEnvelope struct {
	Success bool                   `json:"success"`
	Data    *domain.ShipmentRecord `json:"data"`
}

// TrackingHandler handles HTTP requests for order tracking operations.
type TrackingHandler struct {
	service ports.TrackingService
}

func NewTrackingHandler(service ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// Get handles GET /orders/:order_id/tracking.
//
// @Summary      Get the normalized tracking snapshot for an order
// @Tags         tracking
// @Produce      json
// @Param        order_id  path      string  true   "Order ID"
// @Param        userId    query     string  false  "Scope the lookup to this user"
// @Success      200       {object}  trackingEnvelope
// @Failure      404       {object}  messageResponse
// @Failure      502       {object}  messageResponse
// @Router       /orders/{order_id}/tracking [get]
func (h *TrackingHandler) Get(c echo.Context) error {
	orderID := c.Param("order_id")
	userID := c.QueryParam("userId")

	record, err := h.service.GetOrderTracking(c.Request().Context(), orderID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trackingEnvelope{Success: true, Data: record})
}

// Register handles POST /orders.
//
// @Summary      Register an order's carrier shipment for tracking
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        body  body      registerOrderRequest  true  "Order binding"
// @Success      201   {object}  registerOrderResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Router       /orders [post]
func (h *TrackingHandler) Register(c echo.Context) error {
	var req registerOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	order, err := h.service.RegisterOrder(c.Request().Context(), ports.RegisterOrderInput{
		OrderID:           req.OrderID,
		OrderNumber:       req.OrderNumber,
		UserID:            req.UserID,
		Carrier:           req.Carrier,
		TrackingNumber:    req.TrackingNumber,
		EstimatedDelivery: req.EstimatedDelivery,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerOrderResponse{
		OrderID:        order.OrderID,
		Carrier:        string(order.Carrier),
		CarrierName:    order.CarrierName,
		TrackingNumber: order.TrackingNumber,
		CreatedAt:      order.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Ingest handles POST /carriers/:carrier/payloads/:order_id. The body is the
// carrier's raw tracking payload, stored verbatim and normalized on read.
//
// @Summary      Ingest a raw carrier tracking payload for an order
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        carrier   path      string  true  "Carrier tag (ups, fedex, dhl)"
// @Param        order_id  path      string  true  "Order ID"
// @Success      202       {object}  acceptedResponse
// @Failure      400       {object}  messageResponse
// @Failure      404       {object}  messageResponse
// @Router       /carriers/{carrier}/payloads/{order_id} [post]
func (h *TrackingHandler) Ingest(c echo.Context) error {
	carrierTag := c.Param("carrier")
	orderID := c.Param("order_id")

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPayloadBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable payload")
	}
	if len(payload) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty payload")
	}

	if err := h.service.IngestPayload(c.Request().Context(), orderID, carrierTag, payload); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "payload accepted"})
}
