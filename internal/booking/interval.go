package booking

import (
	"time"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// Interval is a half-open [Start, End) time range. All comparisons in the
// engine use half-open semantics: an interval ending exactly when another
// starts does not overlap it, so back-to-back reservations are legal.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Validate returns ErrInvalidInterval unless Start is strictly before End.
func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether the two half-open intervals intersect.
// The predicate is start < other.end AND end > other.start; boundary
// touching is not an overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Units returns the number of whole billing units contained in the
// interval, computed by truncation: 90 minutes is one hour, 69 hours is
// two nights. Anything shorter than one unit yields zero and is rejected
// by Quote.
func (iv Interval) Units(g model.Granularity) int64 {
	return int64(iv.End.Sub(iv.Start) / g.Unit())
}
