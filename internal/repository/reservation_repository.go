package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/resource-reservation/internal/booking"
	"github.com/iliyamo/resource-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations. It implements
// booking.Store; the ...Tx methods run inside an engine-owned
// transaction and the rest use the pooled connection directly. All
// timestamps are stored and compared in UTC (the DSN sets loc=UTC and
// parseTime=true).
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = `id, resource_id, requester_id, start_at, end_at, occupancy, total_price_cents, status, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(s rowScanner) (*model.Reservation, error) {
	var (
		rsv       model.Reservation
		requester sql.NullInt64
		status    string
	)
	err := s.Scan(
		&rsv.ID, &rsv.ResourceID, &requester,
		&rsv.StartAt, &rsv.EndAt, &rsv.Occupancy,
		&rsv.TotalPriceCents, &status,
		&rsv.CreatedAt, &rsv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if requester.Valid {
		id := uint64(requester.Int64)
		rsv.RequesterID = &id
	}
	rsv.Status = model.Status(status)
	return &rsv, nil
}

// Half-open overlap predicate: an existing row conflicts when it starts
// before the requested end AND ends after the requested start. Rows that
// merely touch a boundary (end == requested start) do not match, so
// back-to-back reservations are accepted. Only PENDING and CONFIRMED
// rows occupy their interval.
const overlapQuery = `SELECT ` + reservationCols + `
	FROM reservations
	WHERE resource_id = ?
	  AND status IN ('PENDING','CONFIRMED')
	  AND start_at < ?
	  AND end_at > ?
	  AND id <> ?
	ORDER BY start_at`

// ActiveOverlapping lists active reservations on the resource whose
// interval overlaps iv, excluding excludeID (0 excludes nothing; row ids
// start at 1).
func (r *ReservationRepo) ActiveOverlapping(ctx context.Context, resourceID uint64, iv booking.Interval, excludeID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, overlapQuery, resourceID, iv.End, iv.Start, excludeID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ActiveOverlappingTx is ActiveOverlapping inside the caller's
// transaction, so the read sees and participates in the caller's locks.
func (r *ReservationRepo) ActiveOverlappingTx(ctx context.Context, tx *sql.Tx, resourceID uint64, iv booking.Interval, excludeID uint64) ([]model.Reservation, error) {
	rows, err := tx.QueryContext(ctx, overlapQuery, resourceID, iv.End, iv.Start, excludeID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rsv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertTx inserts a new reservation within the provided transaction and
// populates the generated ID. A duplicate-key violation (MySQL error
// 1062) on the overlap guard index is translated to ErrSlotUnavailable:
// it means a concurrent writer won the slot after our conflict check, and
// callers should retry with a different interval rather than see a
// storage error.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, rsv *model.Reservation) error {
	const q = `INSERT INTO reservations
		(resource_id, requester_id, start_at, end_at, occupancy, total_price_cents, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)`
	var requester interface{}
	if rsv.RequesterID != nil {
		requester = *rsv.RequesterID
	}
	result, err := tx.ExecContext(ctx, q,
		rsv.ResourceID, requester,
		rsv.StartAt, rsv.EndAt, rsv.Occupancy,
		rsv.TotalPriceCents, string(rsv.Status),
		rsv.CreatedAt, rsv.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return booking.ErrSlotUnavailable
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rsv.ID = uint64(id)
	return nil
}

// UpdateTx rewrites the mutable columns of an existing row.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rsv *model.Reservation) error {
	const q = `UPDATE reservations
		SET start_at = ?, end_at = ?, occupancy = ?, total_price_cents = ?, status = ?, updated_at = ?
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		rsv.StartAt, rsv.EndAt, rsv.Occupancy,
		rsv.TotalPriceCents, string(rsv.Status), rsv.UpdatedAt,
		rsv.ID,
	)
	if err != nil && strings.Contains(err.Error(), "1062") {
		return booking.ErrSlotUnavailable
	}
	return err
}

// DeleteTx removes a reservation row inside the transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	return err
}

// GetByID returns one reservation or sql.ErrNoRows.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// GetByIDForUpdateTx loads a reservation with a row lock so that
// concurrent lifecycle operations on the same reservation serialize.
func (r *ReservationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id = ? FOR UPDATE`, id)
	return scanReservation(row)
}

// List returns reservations matching the filter ordered newest first.
// The WHERE clause is assembled from the non-nil filter fields.
func (r *ReservationRepo) List(ctx context.Context, f booking.Filter) ([]model.Reservation, error) {
	query := `SELECT ` + reservationCols + ` FROM reservations`
	conds := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.RequesterID != nil {
		conds = append(conds, "requester_id = ?")
		args = append(args, *f.RequesterID)
	}
	if f.ResourceID != nil {
		conds = append(conds, "resource_id = ?")
		args = append(args, *f.ResourceID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}
