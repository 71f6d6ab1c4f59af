package booking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/iliyamo/resource-reservation/internal/model"
)

// fakeCatalog serves resources from a map. The engine only ever reads
// the catalog, so a map is all the fake needs.
type fakeCatalog struct {
	resources map[uint64]*model.Resource
}

func (c *fakeCatalog) Resource(_ context.Context, id uint64) (*model.Resource, error) {
	res, ok := c.resources[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *res
	return &cp, nil
}

func (c *fakeCatalog) ResourceForUpdateTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Resource, error) {
	return c.Resource(ctx, id)
}

// fakeStore keeps reservations in memory and evaluates overlaps with the
// same half-open predicate the SQL repository uses. insertErr, when set,
// simulates the storage-level overlap guard firing on insert.
type fakeStore struct {
	nextID    uint64
	rows      map[uint64]*model.Reservation
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uint64]*model.Reservation)}
}

func (s *fakeStore) seed(r model.Reservation) uint64 {
	s.nextID++
	r.ID = s.nextID
	s.rows[r.ID] = &r
	return r.ID
}

func (s *fakeStore) ActiveOverlapping(_ context.Context, resourceID uint64, iv Interval, excludeID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.rows {
		if r.ResourceID != resourceID || r.ID == excludeID || !r.Status.Active() {
			continue
		}
		if iv.Overlaps(Interval{Start: r.StartAt, End: r.EndAt}) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeStore) ActiveOverlappingTx(ctx context.Context, _ *sql.Tx, resourceID uint64, iv Interval, excludeID uint64) ([]model.Reservation, error) {
	return s.ActiveOverlapping(ctx, resourceID, iv, excludeID)
}

func (s *fakeStore) InsertTx(_ context.Context, _ *sql.Tx, r *model.Reservation) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	r.ID = s.nextID
	cp := *r
	s.rows[r.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateTx(_ context.Context, _ *sql.Tx, r *model.Reservation) error {
	if _, ok := s.rows[r.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *r
	s.rows[r.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteTx(_ context.Context, _ *sql.Tx, id uint64) error {
	if _, ok := s.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.rows, id)
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := s.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) GetByIDForUpdateTx(ctx context.Context, _ *sql.Tx, id uint64) (*model.Reservation, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeStore) List(_ context.Context, f Filter) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.rows {
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.ResourceID != nil && r.ResourceID != *f.ResourceID {
			continue
		}
		if f.RequesterID != nil && (r.RequesterID == nil || *r.RequesterID != *f.RequesterID) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func u64p(v uint64) *uint64     { return &v }
func u32p(v uint32) *uint32     { return &v }
func tp(t time.Time) *time.Time { return &t }

// newTestEngine wires an Engine over a sqlmock transaction source and the
// in-memory fakes, with a frozen clock.
func newTestEngine(t *testing.T, cat *fakeCatalog, st *fakeStore) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	eng := NewEngine(db, cat, st)
	eng.now = func() time.Time { return ts("2026-08-01T12:00:00Z") }
	return eng, mock
}

func roomCatalog() *fakeCatalog {
	return &fakeCatalog{resources: map[uint64]*model.Resource{
		1: {
			ID:             1,
			Family:         model.FamilyRoom,
			Name:           "Room 101",
			Capacity:       4,
			UnitPriceCents: 10_000,
			Currency:       "EUR",
			Granularity:    model.PerNight,
			IsActive:       true,
		},
	}}
}

func pendingRoom(requester uint64, start, end string) model.Reservation {
	return model.Reservation{
		ResourceID:      1,
		RequesterID:     u64p(requester),
		StartAt:         ts(start),
		EndAt:           ts(end),
		Occupancy:       2,
		TotalPriceCents: 30_000,
		Status:          model.StatusPending,
	}
}

func TestCreateReservation(t *testing.T) {
	st := newFakeStore()
	eng, mock := newTestEngine(t, roomCatalog(), st)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rsv, err := eng.Create(context.Background(), CreateInput{
		ResourceID:  1,
		RequesterID: u64p(7),
		Interval:    Interval{Start: ts("2026-09-01T00:00:00Z"), End: ts("2026-09-04T00:00:00Z")},
		Occupancy:   2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rsv.ID == 0 {
		t.Error("expected an assigned id")
	}
	if rsv.Status != model.StatusPending {
		t.Errorf("status = %s, want PENDING", rsv.Status)
	}
	if rsv.TotalPriceCents != 30_000 {
		t.Errorf("price = %d, want 30000 (3 nights at 10000)", rsv.TotalPriceCents)
	}
	if !rsv.CreatedAt.Equal(ts("2026-08-01T12:00:00Z")) {
		t.Errorf("CreatedAt = %v, want the frozen clock", rsv.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("tx expectations: %v", err)
	}
}

func TestCreateConflict(t *testing.T) {
	st := newFakeStore()
	st.seed(pendingRoom(9, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z"))
	eng, mock := newTestEngine(t, roomCatalog(), st)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := eng.Create(context.Background(), CreateInput{
		ResourceID:  1,
		RequesterID: u64p(7),
		Interval:    Interval{Start: ts("2026-09-12T00:00:00Z"), End: ts("2026-09-14T00:00:00Z")},
		Occupancy:   1,
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("Create over an active reservation: got %v, want ErrSlotUnavailable", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("tx expectations: %v", err)
	}
}

func TestCreateBackToBack(t *testing.T) {
	st := newFakeStore()
	st.seed(pendingRoom(9, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z"))
	eng, mock := newTestEngine(t, roomCatalog(), st)
	mock.ExpectBegin()
	mock.ExpectCommit()

	// Starts exactly when the existing one ends: no overlap under
	// half-open semantics.
	rsv, err := eng.Create(context.Background(), CreateInput{
		ResourceID:  1,
		RequesterID: u64p(7),
		Interval:    Interval{Start: ts("2026-09-13T00:00:00Z"), End: ts("2026-09-15T00:00:00Z")},
		Occupancy:   1,
	})
	if err != nil {
		t.Fatalf("back-to-back Create: %v", err)
	}
	if rsv.TotalPriceCents != 20_000 {
		t.Errorf("price = %d, want 20000", rsv.TotalPriceCents)
	}
}

func TestCreateCapacityAndNotFound(t *testing.T) {
	iv := Interval{Start: ts("2026-09-01T00:00:00Z"), End: ts("2026-09-02T00:00:00Z")}

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"zero occupancy", CreateInput{ResourceID: 1, Interval: iv, Occupancy: 0}, ErrCapacityExceeded},
		{"over capacity", CreateInput{ResourceID: 1, Interval: iv, Occupancy: 5}, ErrCapacityExceeded},
		{"unknown resource", CreateInput{ResourceID: 42, Interval: iv, Occupancy: 1}, ErrResourceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng, mock := newTestEngine(t, roomCatalog(), newFakeStore())
			mock.ExpectBegin()
			mock.ExpectRollback()
			if _, err := eng.Create(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Errorf("Create: got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateInvalidIntervalSkipsTx(t *testing.T) {
	eng, mock := newTestEngine(t, roomCatalog(), newFakeStore())
	// No ExpectBegin: validation must fail before any transaction starts.

	_, err := eng.Create(context.Background(), CreateInput{
		ResourceID: 1,
		Interval:   Interval{Start: ts("2026-09-04T00:00:00Z"), End: ts("2026-09-01T00:00:00Z")},
		Occupancy:  1,
	})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("got %v, want ErrInvalidInterval", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("tx expectations: %v", err)
	}
}

func TestCreateStorageGuardRace(t *testing.T) {
	// A concurrent insert that slips past the application check trips the
	// unique key on the storage side; the engine must surface that as the
	// same retryable conflict.
	st := newFakeStore()
	st.insertErr = ErrSlotUnavailable
	eng, mock := newTestEngine(t, roomCatalog(), st)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := eng.Create(context.Background(), CreateInput{
		ResourceID:  1,
		RequesterID: u64p(7),
		Interval:    Interval{Start: ts("2026-09-01T00:00:00Z"), End: ts("2026-09-02T00:00:00Z")},
		Occupancy:   1,
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("got %v, want ErrSlotUnavailable", err)
	}
}

func TestCancel(t *testing.T) {
	cases := []struct {
		name      string
		status    model.Status
		requester uint64
		admin     bool
		wantErr   error
	}{
		{"owner cancels pending", model.StatusPending, 7, false, nil},
		{"admin cancels pending", model.StatusPending, 0, true, nil},
		{"owner cannot cancel confirmed", model.StatusConfirmed, 7, false, ErrInvalidState},
		{"admin cancels confirmed", model.StatusConfirmed, 0, true, nil},
		{"stranger rejected", model.StatusPending, 8, false, ErrNotOwned},
		{"checked-in not cancellable", model.StatusCheckedIn, 0, true, ErrInvalidState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeStore()
			r := pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z")
			r.Status = tc.status
			id := st.seed(r)

			eng, mock := newTestEngine(t, roomCatalog(), st)
			mock.ExpectBegin()
			if tc.wantErr == nil {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			got, err := eng.Cancel(context.Background(), id, tc.requester, tc.admin)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Cancel: got %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr == nil && got.Status != model.StatusCancelled {
				t.Errorf("status = %s, want CANCELLED", got.Status)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("tx expectations: %v", err)
			}
		})
	}
}

func TestCancelTwice(t *testing.T) {
	st := newFakeStore()
	r := pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z")
	r.Status = model.StatusCancelled
	id := st.seed(r)

	eng, mock := newTestEngine(t, roomCatalog(), st)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := eng.Cancel(context.Background(), id, 7, false)
	te, ok := IsTransitionError(err)
	if !ok {
		t.Fatalf("re-cancel: got %v, want *TransitionError", err)
	}
	if te.From != model.StatusCancelled || te.To != model.StatusCancelled {
		t.Errorf("TransitionError = %s -> %s, want CANCELLED -> CANCELLED", te.From, te.To)
	}
}

func TestUpdateStatus(t *testing.T) {
	cases := []struct {
		name    string
		status  model.Status
		next    model.Status
		wantErr bool
	}{
		{"confirm pending", model.StatusPending, model.StatusConfirmed, false},
		{"reject pending", model.StatusPending, model.StatusRejected, false},
		{"check in confirmed room", model.StatusConfirmed, model.StatusCheckedIn, false},
		{"confirmed never regresses", model.StatusConfirmed, model.StatusPending, true},
		{"confirmed not cancellable here", model.StatusConfirmed, model.StatusCancelled, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeStore()
			r := pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z")
			r.Status = tc.status
			id := st.seed(r)

			eng, mock := newTestEngine(t, roomCatalog(), st)
			mock.ExpectBegin()
			if tc.wantErr {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			got, err := eng.UpdateStatus(context.Background(), id, tc.next)
			if tc.wantErr {
				if _, ok := IsTransitionError(err); !ok {
					t.Fatalf("got %v, want *TransitionError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if got.Status != tc.next {
				t.Errorf("status = %s, want %s", got.Status, tc.next)
			}
		})
	}
}

func TestUpdateRechecksConflictsExcludingSelf(t *testing.T) {
	st := newFakeStore()
	id := st.seed(pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z"))
	eng, mock := newTestEngine(t, roomCatalog(), st)
	mock.ExpectBegin()
	mock.ExpectCommit()

	// Shifting one day later still overlaps the reservation's own row;
	// only the row itself must be excluded from the conflict check.
	got, err := eng.Update(context.Background(), id, Change{
		StartAt: tp(ts("2026-09-11T00:00:00Z")),
		EndAt:   tp(ts("2026-09-14T00:00:00Z")),
	}, 7, false)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.StartAt.Equal(ts("2026-09-11T00:00:00Z")) {
		t.Errorf("StartAt not moved: %v", got.StartAt)
	}
	if got.TotalPriceCents != 30_000 {
		t.Errorf("price = %d, want 30000 after requote", got.TotalPriceCents)
	}
}

func TestUpdateConflictWithOther(t *testing.T) {
	st := newFakeStore()
	id := st.seed(pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z"))
	st.seed(pendingRoom(9, "2026-09-15T00:00:00Z", "2026-09-18T00:00:00Z"))
	eng, mock := newTestEngine(t, roomCatalog(), st)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := eng.Update(context.Background(), id, Change{
		StartAt: tp(ts("2026-09-14T00:00:00Z")),
		EndAt:   tp(ts("2026-09-16T00:00:00Z")),
	}, 7, false)
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("got %v, want ErrSlotUnavailable", err)
	}
}

func TestUpdateGuards(t *testing.T) {
	t.Run("occupancy over capacity", func(t *testing.T) {
		st := newFakeStore()
		id := st.seed(pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z"))
		eng, mock := newTestEngine(t, roomCatalog(), st)
		mock.ExpectBegin()
		mock.ExpectRollback()
		if _, err := eng.Update(context.Background(), id, Change{Occupancy: u32p(9)}, 7, false); !errors.Is(err, ErrCapacityExceeded) {
			t.Errorf("got %v, want ErrCapacityExceeded", err)
		}
	})
	t.Run("terminal reservation not editable", func(t *testing.T) {
		st := newFakeStore()
		r := pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z")
		r.Status = model.StatusCancelled
		id := st.seed(r)
		eng, mock := newTestEngine(t, roomCatalog(), st)
		mock.ExpectBegin()
		mock.ExpectRollback()
		if _, err := eng.Update(context.Background(), id, Change{Occupancy: u32p(1)}, 7, false); !errors.Is(err, ErrInvalidState) {
			t.Errorf("got %v, want ErrInvalidState", err)
		}
	})
	t.Run("empty change is a no-op", func(t *testing.T) {
		st := newFakeStore()
		id := st.seed(pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z"))
		eng, mock := newTestEngine(t, roomCatalog(), st)
		mock.ExpectBegin()
		mock.ExpectCommit()
		got, err := eng.Update(context.Background(), id, Change{}, 7, false)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.TotalPriceCents != 30_000 || !got.StartAt.Equal(ts("2026-09-10T00:00:00Z")) {
			t.Errorf("no-op update changed the reservation: %+v", got)
		}
	})
}

func TestRemove(t *testing.T) {
	cases := []struct {
		name    string
		status  model.Status
		wantErr error
	}{
		{"pending removed", model.StatusPending, nil},
		{"cancelled removed", model.StatusCancelled, nil},
		{"rejected removed", model.StatusRejected, nil},
		{"confirmed kept", model.StatusConfirmed, ErrInvalidState},
		{"checked-out kept", model.StatusCheckedOut, ErrInvalidState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newFakeStore()
			r := pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z")
			r.Status = tc.status
			id := st.seed(r)

			eng, mock := newTestEngine(t, roomCatalog(), st)
			mock.ExpectBegin()
			if tc.wantErr == nil {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			err := eng.Remove(context.Background(), id)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Remove: got %v, want %v", err, tc.wantErr)
			}
			_, present := st.rows[id]
			if tc.wantErr == nil && present {
				t.Error("reservation still present after Remove")
			}
			if tc.wantErr != nil && !present {
				t.Error("reservation deleted despite error")
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	st := newFakeStore()
	st.seed(pendingRoom(9, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z"))
	eng, _ := newTestEngine(t, roomCatalog(), st)
	ctx := context.Background()

	free, err := eng.Available(ctx, 1, Interval{Start: ts("2026-09-13T00:00:00Z"), End: ts("2026-09-15T00:00:00Z")})
	if err != nil || !free {
		t.Errorf("boundary-touching probe: free=%v err=%v, want true, nil", free, err)
	}
	free, err = eng.Available(ctx, 1, Interval{Start: ts("2026-09-12T00:00:00Z"), End: ts("2026-09-14T00:00:00Z")})
	if err != nil || free {
		t.Errorf("overlapping probe: free=%v err=%v, want false, nil", free, err)
	}
	if _, err = eng.Available(ctx, 42, Interval{Start: ts("2026-09-01T00:00:00Z"), End: ts("2026-09-02T00:00:00Z")}); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("unknown resource: got %v, want ErrResourceNotFound", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	st := newFakeStore()
	id := st.seed(pendingRoom(7, "2026-09-10T00:00:00Z", "2026-09-13T00:00:00Z"))
	eng, _ := newTestEngine(t, roomCatalog(), st)
	ctx := context.Background()

	if _, err := eng.Get(ctx, id, 7, false); err != nil {
		t.Errorf("owner Get: %v", err)
	}
	if _, err := eng.Get(ctx, id, 8, false); !errors.Is(err, ErrNotOwned) {
		t.Errorf("stranger Get: got %v, want ErrNotOwned", err)
	}
	if _, err := eng.Get(ctx, id, 8, true); err != nil {
		t.Errorf("admin Get: %v", err)
	}
	if _, err := eng.Get(ctx, 999, 7, false); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("missing Get: got %v, want ErrReservationNotFound", err)
	}
}
