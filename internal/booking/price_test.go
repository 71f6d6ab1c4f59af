package booking

import (
	"testing"

	"github.com/iliyamo/resource-reservation/internal/model"
)

func roomResource() *model.Resource {
	return &model.Resource{
		ID:             1,
		Family:         model.FamilyRoom,
		Name:           "Room 101",
		Capacity:       4,
		UnitPriceCents: 10_000, // 100.00 per night
		Currency:       "EUR",
		Granularity:    model.PerNight,
	}
}

func TestQuoteBasePrice(t *testing.T) {
	res := roomResource()
	iv := Interval{Start: ts("2026-09-01T00:00:00Z"), End: ts("2026-09-04T00:00:00Z")} // 3 nights

	// Without a configured surcharge the occupancy must not change the price.
	for _, occ := range []uint32{1, 2, 4} {
		got, err := Quote(res, iv, occ)
		if err != nil {
			t.Fatalf("Quote(occupancy=%d): %v", occ, err)
		}
		if got != 30_000 {
			t.Errorf("Quote(occupancy=%d) = %d, want 30000", occ, got)
		}
	}
}

func TestQuoteInvalidInterval(t *testing.T) {
	res := roomResource()

	inverted := Interval{Start: ts("2026-09-04T00:00:00Z"), End: ts("2026-09-01T00:00:00Z")}
	if _, err := Quote(res, inverted, 1); err != ErrInvalidInterval {
		t.Errorf("inverted interval: got %v, want ErrInvalidInterval", err)
	}

	// Shorter than one billing unit: zero nights must not price to zero,
	// it must fail.
	short := Interval{Start: ts("2026-09-01T14:00:00Z"), End: ts("2026-09-01T18:00:00Z")}
	if _, err := Quote(res, short, 1); err != ErrInvalidInterval {
		t.Errorf("sub-unit interval: got %v, want ErrInvalidInterval", err)
	}
}

func TestQuoteSurcharge(t *testing.T) {
	res := roomResource()
	res.FreeOccupancy = 2
	res.SurchargeBps = 1_500 // 15% of the base per extra occupant
	iv := Interval{Start: ts("2026-09-01T00:00:00Z"), End: ts("2026-09-03T00:00:00Z")} // 2 nights, base 20000

	cases := []struct {
		occupancy uint32
		want      uint64
	}{
		{1, 20_000}, // within the free threshold
		{2, 20_000}, // exactly at the threshold
		{3, 23_000}, // one extra: +15% of 20000
		{4, 26_000}, // two extra: +30% of 20000
	}
	for _, tc := range cases {
		got, err := Quote(res, iv, tc.occupancy)
		if err != nil {
			t.Fatalf("Quote(occupancy=%d): %v", tc.occupancy, err)
		}
		if got != tc.want {
			t.Errorf("Quote(occupancy=%d) = %d, want %d", tc.occupancy, got, tc.want)
		}
	}
}

func TestQuoteSurchargeRoundsHalfUp(t *testing.T) {
	res := &model.Resource{
		Capacity:       3,
		UnitPriceCents: 333, // odd base so the bps product does not divide evenly
		Granularity:    model.PerHour,
		FreeOccupancy:  1,
		SurchargeBps:   25, // 0.25%
	}
	iv := Interval{Start: ts("2026-09-01T10:00:00Z"), End: ts("2026-09-01T11:00:00Z")}

	// base = 333; surcharge for one extra occupant = 333 * 25 / 10000
	// = 0.8325 cents, rounded half-up to 1 cent.
	got, err := Quote(res, iv, 2)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if got != 334 {
		t.Errorf("Quote = %d, want 334", got)
	}

	// 333 * 50 / 10000 = 1.665, rounds to 2 cents for two extra occupants.
	got, err = Quote(res, iv, 3)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if got != 335 {
		t.Errorf("Quote = %d, want 335", got)
	}
}
