// Package booking implements the reservation availability and lifecycle
// engine: interval conflict detection, price calculation, the status
// state machine and the orchestrator tying them together. It is
// transport-agnostic; handlers translate its typed errors into HTTP
// responses and repositories supply persistence behind small interfaces.
package booking

import (
	"errors"
	"fmt"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// Sentinel errors returned by the engine. Every failure path surfaces one
// of these (or a *TransitionError) so callers can branch with errors.Is
// instead of string matching. Validation failures are always detected
// before any write; no operation leaves a partial row behind.
var (
	// ErrResourceNotFound is returned when the referenced resource does
	// not exist in the catalog.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrReservationNotFound is returned when the reservation id does not
	// resolve to a row.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrNotOwned is returned when a requester operates on a reservation
	// that belongs to somebody else.
	ErrNotOwned = errors.New("reservation not owned by requester")

	// ErrCapacityExceeded is returned when the requested occupancy is
	// zero or exceeds the resource capacity.
	ErrCapacityExceeded = errors.New("occupancy exceeds resource capacity")

	// ErrSlotUnavailable is returned when the requested interval overlaps
	// an active reservation on the same resource. Callers may retry with
	// a different interval.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrInvalidInterval is returned when start is not strictly before
	// end, or the interval is shorter than one billing unit.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrInvalidState is returned when an operation is not permitted in
	// the reservation's current status, e.g. removing a confirmed
	// reservation. Unlike ErrSlotUnavailable this is not retryable.
	ErrInvalidState = errors.New("operation not allowed in current status")
)

// TransitionError reports an illegal status change. It carries both ends
// of the attempted transition for diagnostics.
type TransitionError struct {
	From model.Status
	To   model.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// IsTransitionError reports whether err is a *TransitionError and returns it.
func IsTransitionError(err error) (*TransitionError, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
