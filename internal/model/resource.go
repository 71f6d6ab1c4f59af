package model

import "time"

// Family groups resources that share a status vocabulary and a billing
// granularity. Rooms bill per night, vehicle slots per hour and travel
// slots per day; the reservation state machine is also selected by family.
type Family string

const (
	FamilyRoom    Family = "ROOM"    // hotel rooms, per-night billing
	FamilyVehicle Family = "VEHICLE" // vehicle slots, per-hour billing
	FamilyTravel  Family = "TRAVEL"  // travel slots, per-day billing
)

// Granularity is the whole time unit a resource is billed in.
type Granularity string

const (
	PerNight Granularity = "NIGHT"
	PerDay   Granularity = "DAY"
	PerHour  Granularity = "HOUR"
)

// Unit returns the duration of one billing unit. Nights and days are both
// 24 hours; the difference is purely presentational.
func (g Granularity) Unit() time.Duration {
	switch g {
	case PerHour:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// Resource describes one bookable unit of capacity: a room, a vehicle
// slot or a travel slot. The engine treats this record as read-only;
// catalog management lives outside the reservation core.
//
// Fields:
//  ID             – primary key identifier.
//  Family         – resource family (ROOM, VEHICLE, TRAVEL).
//  Name           – human readable label.
//  Capacity       – maximum occupancy a single reservation may consume.
//  UnitPriceCents – price per billing unit in the currency's minor unit.
//  Currency       – ISO 4217 code, informational only; all amounts are
//                   stored in minor units.
//  Granularity    – billing unit (NIGHT, DAY, HOUR).
//  FreeOccupancy  – occupants included in the base price; occupants
//                   beyond this threshold attract the surcharge.
//  SurchargeBps   – surcharge per extra occupant, in basis points of the
//                   base price (0 = no surcharge).
//  IsActive       – inactive resources are hidden from browse endpoints.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Resource struct {
	ID             uint64      // resources.id
	Family         Family      // resources.family
	Name           string      // resources.name
	Capacity       uint32      // resources.capacity
	UnitPriceCents uint64      // resources.unit_price_cents
	Currency       string      // resources.currency
	Granularity    Granularity // resources.granularity
	FreeOccupancy  uint32      // resources.free_occupancy
	SurchargeBps   uint32      // resources.surcharge_bps
	IsActive       bool        // resources.is_active
	CreatedAt      time.Time   // resources.created_at
	UpdatedAt      time.Time   // resources.updated_at
}
