package booking

import (
	"context"
	"database/sql"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// OverlapSource lists the reservations on a resource whose status is
// still active (PENDING or CONFIRMED) and whose interval overlaps the
// requested one under half-open semantics. excludeID is skipped so an
// update can be re-validated against everybody but itself; pass 0 to
// exclude nothing. Implemented by repository.ReservationRepo.
type OverlapSource interface {
	ActiveOverlapping(ctx context.Context, resourceID uint64, iv Interval, excludeID uint64) ([]model.Reservation, error)
	ActiveOverlappingTx(ctx context.Context, tx *sql.Tx, resourceID uint64, iv Interval, excludeID uint64) ([]model.Reservation, error)
}

// ConflictDetector answers whether a requested interval collides with an
// existing active reservation. It is read-only and safe for concurrent
// use; the transactional variant must be used inside a create or update
// so the check and the subsequent write share one boundary.
type ConflictDetector struct {
	source OverlapSource
}

// NewConflictDetector returns a detector backed by the given source.
func NewConflictDetector(src OverlapSource) *ConflictDetector {
	return &ConflictDetector{source: src}
}

// HasConflict reports whether any active reservation on the resource
// overlaps iv. The interval is validated first; a malformed interval
// fails with ErrInvalidInterval rather than silently matching nothing.
func (d *ConflictDetector) HasConflict(ctx context.Context, resourceID uint64, iv Interval, excludeID uint64) (bool, error) {
	if err := iv.Validate(); err != nil {
		return false, err
	}
	rows, err := d.source.ActiveOverlapping(ctx, resourceID, iv, excludeID)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// HasConflictTx is HasConflict executed inside the caller's transaction,
// so the read participates in whatever locking the caller holds.
func (d *ConflictDetector) HasConflictTx(ctx context.Context, tx *sql.Tx, resourceID uint64, iv Interval, excludeID uint64) (bool, error) {
	if err := iv.Validate(); err != nil {
		return false, err
	}
	rows, err := d.source.ActiveOverlappingTx(ctx, tx, resourceID, iv, excludeID)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
