// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation transitions
// into CONFIRMED. It carries enough information for downstream consumers
// to log, notify, or trigger analytics without querying the primary
// database.
type ReservationConfirmedEvent struct {
	ReservationID   uint64  `json:"reservation_id"`
	RequesterID     *uint64 `json:"requester_id,omitempty"`
	ResourceID      uint64  `json:"resource_id"`
	ResourceName    string  `json:"resource_name"`
	Family          string  `json:"family"`
	StartAt         string  `json:"start_at"`
	EndAt           string  `json:"end_at"`
	Occupancy       uint32  `json:"occupancy"`
	TotalPriceCents uint64  `json:"total_price_cents"`
	ConfirmedAt     string  `json:"confirmed_at"`
}
