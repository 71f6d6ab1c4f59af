package model

import "time"

// Status is the lifecycle state of a reservation. The allowed transitions
// between statuses are governed by the booking package's state machine;
// this package only defines the vocabulary.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"

	// Family extensions. CheckedOut, Expired and Reserved are terminal;
	// CheckedIn may still move to CheckedOut.
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusExpired    Status = "EXPIRED"
	StatusReserved   Status = "RESERVED"
)

// Active reports whether a reservation in this status still occupies its
// interval. Only active reservations participate in conflict detection.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reservation records one booking of one resource for one requester over
// one half-open [start, end) interval.
//
// Fields:
//  ID              – primary key identifier.
//  ResourceID      – resource being booked; looked up in the catalog.
//  RequesterID     – user who owns the reservation; nil for internal
//                    bookings created by administrators.
//  StartAt         – inclusive start instant (UTC).
//  EndAt           – exclusive end instant (UTC).
//  Occupancy       – units consumed (guests, quantity); never exceeds the
//                    resource capacity.
//  TotalPriceCents – server-computed price in the currency's minor unit.
//                    Client-supplied amounts are never trusted.
//  Status          – lifecycle state.
//  CreatedAt       – creation timestamp, engine managed.
//  UpdatedAt       – last update timestamp, engine managed.
type Reservation struct {
	ID              uint64    // reservations.id
	ResourceID      uint64    // reservations.resource_id
	RequesterID     *uint64   // reservations.requester_id (nullable)
	StartAt         time.Time // reservations.start_at
	EndAt           time.Time // reservations.end_at
	Occupancy       uint32    // reservations.occupancy
	TotalPriceCents uint64    // reservations.total_price_cents
	Status          Status    // reservations.status
	CreatedAt       time.Time // reservations.created_at
	UpdatedAt       time.Time // reservations.updated_at
}

// OwnedBy reports whether the reservation belongs to the given user.
// Internal reservations (nil requester) belong to nobody.
func (r *Reservation) OwnedBy(userID uint64) bool {
	return r.RequesterID != nil && *r.RequesterID == userID
}
