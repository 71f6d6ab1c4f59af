package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/iliyamo/resource-reservation/internal/booking"
	"github.com/iliyamo/resource-reservation/internal/model"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func newMockRepo(t *testing.T) (*ReservationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewReservationRepo(db), mock
}

func reservationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "resource_id", "requester_id", "start_at", "end_at",
		"occupancy", "total_price_cents", "status", "created_at", "updated_at",
	})
}

func TestActiveOverlappingQuery(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := ts("2026-09-10T00:00:00Z")
	end := ts("2026-09-13T00:00:00Z")

	// The half-open predicate compares the existing row's start against
	// the requested end and vice versa; argument order is (resource, end,
	// start, exclude).
	mock.ExpectQuery(`(?s)resource_id = \?.*status IN \('PENDING','CONFIRMED'\).*start_at < \?.*end_at > \?.*id <> \?`).
		WithArgs(uint64(1), end, start, uint64(0)).
		WillReturnRows(reservationRows().AddRow(
			5, 1, nil, ts("2026-09-09T00:00:00Z"), ts("2026-09-11T00:00:00Z"),
			2, 20_000, "CONFIRMED", ts("2026-08-01T00:00:00Z"), ts("2026-08-01T00:00:00Z"),
		))

	got, err := repo.ActiveOverlapping(context.Background(), 1, booking.Interval{Start: start, End: end}, 0)
	if err != nil {
		t.Fatalf("ActiveOverlapping: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	if got[0].ID != 5 || got[0].Status != model.StatusConfirmed {
		t.Errorf("unexpected row: %+v", got[0])
	}
	if got[0].RequesterID != nil {
		t.Errorf("NULL requester_id must scan to nil, got %v", *got[0].RequesterID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestInsertTxPopulatesID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	tx, err := repo.DB().Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	rsv := &model.Reservation{
		ResourceID: 1,
		StartAt:    ts("2026-09-10T00:00:00Z"),
		EndAt:      ts("2026-09-13T00:00:00Z"),
		Occupancy:  2,
		Status:     model.StatusPending,
	}
	if err := repo.InsertTx(context.Background(), tx, rsv); err != nil {
		t.Fatalf("InsertTx: %v", err)
	}
	if rsv.ID != 42 {
		t.Errorf("ID = %d, want 42", rsv.ID)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestInsertTxMapsDuplicateKey(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '1-2026-09-10 00:00:00' for key 'uniq_active_slot'"))
	mock.ExpectRollback()

	tx, err := repo.DB().Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	rsv := &model.Reservation{ResourceID: 1, Status: model.StatusPending}
	if err := repo.InsertTx(context.Background(), tx, rsv); !errors.Is(err, booking.ErrSlotUnavailable) {
		t.Errorf("got %v, want ErrSlotUnavailable", err)
	}
	_ = tx.Rollback()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGetByIDForUpdateLocksRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FROM reservations WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(reservationRows().AddRow(
			7, 1, 3, ts("2026-09-10T00:00:00Z"), ts("2026-09-13T00:00:00Z"),
			2, 30_000, "PENDING", ts("2026-08-01T00:00:00Z"), ts("2026-08-01T00:00:00Z"),
		))
	mock.ExpectRollback()

	tx, err := repo.DB().Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	got, err := repo.GetByIDForUpdateTx(context.Background(), tx, 7)
	if err != nil {
		t.Fatalf("GetByIDForUpdateTx: %v", err)
	}
	if got.RequesterID == nil || *got.RequesterID != 3 {
		t.Errorf("requester = %v, want 3", got.RequesterID)
	}
	_ = tx.Rollback()
}

func TestGetByIDNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM reservations WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("got %v, want sql.ErrNoRows", err)
	}
}

func TestListAssemblesWhereClause(t *testing.T) {
	repo, mock := newMockRepo(t)
	status := model.StatusPending
	requester := uint64(3)

	mock.ExpectQuery(`(?s)FROM reservations WHERE status = \? AND requester_id = \? ORDER BY created_at DESC`).
		WithArgs("PENDING", requester).
		WillReturnRows(reservationRows().AddRow(
			1, 1, 3, ts("2026-09-10T00:00:00Z"), ts("2026-09-13T00:00:00Z"),
			2, 30_000, "PENDING", ts("2026-08-01T00:00:00Z"), ts("2026-08-01T00:00:00Z"),
		))

	got, err := repo.List(context.Background(), booking.Filter{Status: &status, RequesterID: &requester})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("unexpected result: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestListUnfiltered(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`(?s)FROM reservations ORDER BY created_at DESC`).
		WillReturnRows(reservationRows())

	got, err := repo.List(context.Background(), booking.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("rows = %d, want 0", len(got))
	}
}
