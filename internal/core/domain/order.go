package domain

import "time"

// Order binds a store order to the carrier shipment that fulfils it. It is
// what the aggregator knows before any carrier payload arrives.
type Order struct {
	ID                string     `json:"id" bson:"_id,omitempty"`
	OrderID           string     `json:"order_id" bson:"order_id"`
	OrderNumber       string     `json:"order_number" bson:"order_number"`
	UserID            string     `json:"user_id" bson:"user_id"`
	Carrier           Carrier    `json:"carrier" bson:"carrier"`
	CarrierName       string     `json:"carrier_name" bson:"carrier_name"`
	TrackingNumber    string     `json:"tracking_number" bson:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty" bson:"estimated_delivery,omitempty"`
	CreatedAt         time.Time  `json:"created_at" bson:"created_at"`
}
