package carrier

import (
	"sort"
	"time"

	"github.com/fanportal/tracking-system/internal/core/domain"
)

// BuildRecord assembles the canonical ShipmentRecord for an order from
// normalized updates.
//
// Progress is the maximum happy-path percentage reached across all updates,
// which makes it monotonic as events accumulate; failed and returned carry no
// percentage of their own, so they freeze progress at the point of failure.
// With no updates at all the shipment is pending at 0%.
func BuildRecord(order *domain.Order, carrierTag domain.Carrier, carrierName string, updates []domain.StatusUpdate, now time.Time) *domain.ShipmentRecord {
	sorted := make([]domain.StatusUpdate, len(updates))
	copy(sorted, updates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	status := domain.StatusPending
	description := ""
	if len(sorted) > 0 {
		status = sorted[0].Status
		description = sorted[0].Description
	}

	progress := 0
	var actualDelivery *time.Time
	for _, u := range sorted {
		if p, ok := u.Status.Progress(); ok && p > progress {
			progress = p
		}
		if u.Status == domain.StatusDelivered && actualDelivery == nil {
			ts := u.Timestamp
			actualDelivery = &ts
		}
	}

	delayed := order.EstimatedDelivery != nil &&
		now.After(*order.EstimatedDelivery) &&
		status != domain.StatusDelivered

	return &domain.ShipmentRecord{
		OrderID:            order.OrderID,
		OrderNumber:        order.OrderNumber,
		TrackingNumber:     order.TrackingNumber,
		Carrier:            carrierTag,
		CarrierName:        carrierName,
		CurrentStatus:      status,
		CurrentDescription: description,
		Progress:           progress,
		EstimatedDelivery:  order.EstimatedDelivery,
		ActualDelivery:     actualDelivery,
		IsDelayed:          delayed,
		Updates:            sorted,
		LastSync:           now,
	}
}
