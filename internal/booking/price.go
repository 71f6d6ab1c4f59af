package booking

import "github.com/iliyamo/resource-reservation/internal/model"

// Quote computes the total price for booking the resource over the given
// interval with the given occupancy. Pure function, no I/O.
//
// The amount is whole billing units (truncated) times the unit price, in
// the currency's minor unit. Occupants beyond the resource's free
// threshold each add SurchargeBps basis points of the base amount,
// rounded half-up to the minor unit. Intervals shorter than one billing
// unit fail with ErrInvalidInterval.
func Quote(res *model.Resource, iv Interval, occupancy uint32) (uint64, error) {
	if err := iv.Validate(); err != nil {
		return 0, err
	}
	units := iv.Units(res.Granularity)
	if units <= 0 {
		return 0, ErrInvalidInterval
	}
	base := uint64(units) * res.UnitPriceCents
	total := base
	if res.SurchargeBps > 0 && occupancy > res.FreeOccupancy {
		extra := uint64(occupancy - res.FreeOccupancy)
		total += roundHalfUp(base*extra*uint64(res.SurchargeBps), 10_000)
	}
	return total, nil
}

// roundHalfUp divides num by den rounding half away from zero. Used for
// the basis-point surcharge so that e.g. 0.5 cent rounds to 1 cent.
func roundHalfUp(num, den uint64) uint64 {
	return (num + den/2) / den
}
