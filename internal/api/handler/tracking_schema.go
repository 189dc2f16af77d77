package handler

import "time"

// messageResponse is the error envelope returned on all 4xx/5xx responses.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Request / Response types ---

type registerOrderRequest struct {
	OrderID           string     `json:"order_id"        validate:"required"`
	OrderNumber       string     `json:"order_number"    validate:"required"`
	UserID            string     `json:"user_id"         validate:"required"`
	Carrier           string     `json:"carrier"         validate:"required"`
	TrackingNumber    string     `json:"tracking_number" validate:"required"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

type registerOrderResponse struct {
	OrderID        string `json:"order_id"`
	Carrier        string `json:"carrier"`
	CarrierName    string `json:"carrier_name"`
	TrackingNumber string `json:"tracking_number"`
	CreatedAt      string `json:"created_at"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}
