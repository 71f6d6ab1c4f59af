package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/resource-reservation/internal/model"
)

// TxBeginner starts transactions. *sql.DB satisfies it; tests use a
// sqlmock database instead.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Catalog is the engine's read-only view of bookable resources. The
// catalog is maintained by an external collaborator; the engine never
// writes to it. ResourceForUpdateTx locks the resource row (SELECT ...
// FOR UPDATE) so that concurrent check-then-insert sequences on the same
// resource serialize. Both methods return sql.ErrNoRows for unknown ids.
type Catalog interface {
	Resource(ctx context.Context, id uint64) (*model.Resource, error)
	ResourceForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Resource, error)
}

// Store is the persistence capability the engine needs for reservations.
// The Tx variants run inside an engine-owned transaction; InsertTx maps a
// storage-level uniqueness violation on the overlap guard to
// ErrSlotUnavailable so races that slip past the application check still
// surface as a retryable conflict. Lookup misses return sql.ErrNoRows.
type Store interface {
	OverlapSource
	InsertTx(ctx context.Context, tx *sql.Tx, r *model.Reservation) error
	UpdateTx(ctx context.Context, tx *sql.Tx, r *model.Reservation) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error)
	List(ctx context.Context, f Filter) ([]model.Reservation, error)
}

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	Status      *model.Status
	RequesterID *uint64
	ResourceID  *uint64
}

// CreateInput carries everything needed to book a resource. RequesterID
// is nil for internal reservations created by administrators.
type CreateInput struct {
	ResourceID  uint64
	RequesterID *uint64
	Interval    Interval
	Occupancy   uint32
}

// Change is a partial update. Nil fields keep the current value; any
// non-nil field triggers full re-validation of interval, capacity and
// conflicts, and the price is recomputed. Fields are validated
// individually, never blind-merged.
type Change struct {
	StartAt   *time.Time
	EndAt     *time.Time
	Occupancy *uint32
}

// Engine orchestrates the catalog, the conflict detector, the price
// calculator and the state machine into the five reservation operations.
// All blocking work is I/O against the backing store; every method takes
// a context and is safe for concurrent use.
type Engine struct {
	db       TxBeginner
	catalog  Catalog
	store    Store
	detector *ConflictDetector
	now      func() time.Time
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(db TxBeginner, catalog Catalog, store Store) *Engine {
	if db == nil || catalog == nil || store == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{
		db:       db,
		catalog:  catalog,
		store:    store,
		detector: NewConflictDetector(store),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// begin opens a repeatable-read transaction. Combined with the FOR UPDATE
// lock on the resource row this serializes check-then-insert per
// resource, so two concurrent creates for overlapping intervals cannot
// both pass the conflict check and commit.
func (e *Engine) begin(ctx context.Context) (*sql.Tx, error) {
	return e.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
}

// Create books resourceID for the requester over the given interval. It
// validates the interval, locks the resource, checks capacity and
// conflicts, computes the price and persists a PENDING reservation, all
// inside one transaction. Failures are typed: ErrInvalidInterval,
// ErrResourceNotFound, ErrCapacityExceeded, ErrSlotUnavailable.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	if err := in.Interval.Validate(); err != nil {
		return nil, err
	}
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := e.catalog.ResourceForUpdateTx(ctx, tx, in.ResourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if in.Occupancy == 0 || in.Occupancy > res.Capacity {
		return nil, ErrCapacityExceeded
	}
	conflict, err := e.detector.HasConflictTx(ctx, tx, in.ResourceID, in.Interval, 0)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrSlotUnavailable
	}
	price, err := Quote(res, in.Interval, in.Occupancy)
	if err != nil {
		return nil, err
	}

	now := e.now()
	rsv := &model.Reservation{
		ResourceID:      in.ResourceID,
		RequesterID:     in.RequesterID,
		StartAt:         in.Interval.Start,
		EndAt:           in.Interval.End,
		Occupancy:       in.Occupancy,
		TotalPriceCents: price,
		Status:          model.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.store.InsertTx(ctx, tx, rsv); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rsv, nil
}

// Get loads one reservation, enforcing ownership unless admin is set.
func (e *Engine) Get(ctx context.Context, id, requesterID uint64, admin bool) (*model.Reservation, error) {
	rsv, err := e.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if !admin && !rsv.OwnedBy(requesterID) {
		return nil, ErrNotOwned
	}
	return rsv, nil
}

// Cancel applies CANCELLED. Self-service cancellation is limited to
// PENDING reservations owned by the requester; administrators may also
// cancel CONFIRMED ones (the one legal route out of CONFIRMED that is
// closed to the generic status update). Re-cancelling surfaces a
// *TransitionError instead of silently succeeding so retrying clients
// notice their bug; other statuses fail with ErrInvalidState.
func (e *Engine) Cancel(ctx context.Context, id, requesterID uint64, admin bool) (*model.Reservation, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rsv, err := e.store.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if !admin && !rsv.OwnedBy(requesterID) {
		return nil, ErrNotOwned
	}
	switch {
	case rsv.Status == model.StatusPending:
		// self-service path
	case admin && rsv.Status == model.StatusConfirmed:
		// administrative cancel of a confirmed reservation
	case rsv.Status == model.StatusCancelled:
		return nil, &TransitionError{From: model.StatusCancelled, To: model.StatusCancelled}
	default:
		return nil, ErrInvalidState
	}
	rsv.Status = model.StatusCancelled
	rsv.UpdatedAt = e.now()
	if err := e.store.UpdateTx(ctx, tx, rsv); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rsv, nil
}

// UpdateStatus is the administrative transition path. The per-family
// state machine table decides; anything outside the table fails with a
// *TransitionError carrying the current and requested status.
func (e *Engine) UpdateStatus(ctx context.Context, id uint64, next model.Status) (*model.Reservation, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rsv, err := e.store.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	res, err := e.catalog.Resource(ctx, rsv.ResourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if err := MachineFor(res.Family).Apply(rsv, next); err != nil {
		return nil, err
	}
	rsv.UpdatedAt = e.now()
	if err := e.store.UpdateTx(ctx, tx, rsv); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rsv, nil
}

// Update applies a partial change. When the interval or occupancy moves,
// capacity and conflicts are re-checked (excluding the reservation's own
// row) and the price is recomputed; the resource row is locked so the
// re-check serializes against concurrent creates. Terminal reservations
// cannot be edited.
func (e *Engine) Update(ctx context.Context, id uint64, ch Change, requesterID uint64, admin bool) (*model.Reservation, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rsv, err := e.store.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if !admin && !rsv.OwnedBy(requesterID) {
		return nil, ErrNotOwned
	}
	if !rsv.Status.Active() {
		return nil, ErrInvalidState
	}
	if ch.StartAt == nil && ch.EndAt == nil && ch.Occupancy == nil {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return rsv, nil
	}

	iv := Interval{Start: rsv.StartAt, End: rsv.EndAt}
	if ch.StartAt != nil {
		iv.Start = *ch.StartAt
	}
	if ch.EndAt != nil {
		iv.End = *ch.EndAt
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	occ := rsv.Occupancy
	if ch.Occupancy != nil {
		occ = *ch.Occupancy
	}

	res, err := e.catalog.ResourceForUpdateTx(ctx, tx, rsv.ResourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if occ == 0 || occ > res.Capacity {
		return nil, ErrCapacityExceeded
	}
	conflict, err := e.detector.HasConflictTx(ctx, tx, rsv.ResourceID, iv, rsv.ID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrSlotUnavailable
	}
	price, err := Quote(res, iv, occ)
	if err != nil {
		return nil, err
	}

	rsv.StartAt = iv.Start
	rsv.EndAt = iv.End
	rsv.Occupancy = occ
	rsv.TotalPriceCents = price
	rsv.UpdatedAt = e.now()
	if err := e.store.UpdateTx(ctx, tx, rsv); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rsv, nil
}

// Remove physically deletes a reservation. Only PENDING, CANCELLED and
// REJECTED rows may be removed; confirmed and later states must be
// cancelled instead so the audit trail survives.
func (e *Engine) Remove(ctx context.Context, id uint64) error {
	tx, err := e.begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rsv, err := e.store.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		return err
	}
	switch rsv.Status {
	case model.StatusPending, model.StatusCancelled, model.StatusRejected:
	default:
		return ErrInvalidState
	}
	if err := e.store.DeleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// List returns reservations matching the filter, newest first. The
// result is a finite slice; callers may re-issue the query freely.
func (e *Engine) List(ctx context.Context, f Filter) ([]model.Reservation, error) {
	return e.store.List(ctx, f)
}

// Available is the read-only availability probe used by the public
// catalog endpoint. It never locks anything; a true answer is advisory
// and Create may still fail with ErrSlotUnavailable.
func (e *Engine) Available(ctx context.Context, resourceID uint64, iv Interval) (bool, error) {
	if err := iv.Validate(); err != nil {
		return false, err
	}
	if _, err := e.catalog.Resource(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrResourceNotFound
		}
		return false, err
	}
	conflict, err := e.detector.HasConflict(ctx, resourceID, iv, 0)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}
