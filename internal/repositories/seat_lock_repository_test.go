package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"adventurebuddha/internal/domain/models"
)

func TestSeatLockAcquireInsertsWhenSeatsFree(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Now()
	lock := models.SeatLock{SlotID: 7, SeatIDs: []string{"A2", "A3"}, LockToken: "tok", UserID: 3, ExpiresAt: now.Add(5 * time.Minute)}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM trip_slots WHERE id=\? FOR UPDATE`).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT seat_ids FROM seat_locks`).WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"seat_ids"}).AddRow(`["A1"]`))
	mock.ExpectQuery(`SELECT seat_ids FROM bookings`).WithArgs(int64(7), "pending_payment", "confirmed", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"seat_ids"}).AddRow(`["B1","B2"]`))
	mock.ExpectExec(`INSERT INTO seat_locks`).WithArgs(int64(7), `["A2","A3"]`, "tok", int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	id, conflicts, err := SeatLockRepository{DB: db}.Acquire(lock, now)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if id != 11 || len(conflicts) != 0 {
		t.Fatalf("unexpected result id=%d conflicts=%v", id, conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeatLockAcquireReportsConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	lock := models.SeatLock{SlotID: 7, SeatIDs: []string{"A1", "B2", "C1"}, LockToken: "tok", UserID: 3}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM trip_slots WHERE id=\? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT seat_ids FROM seat_locks`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_ids"}).AddRow(`["A1"]`))
	mock.ExpectQuery(`SELECT seat_ids FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_ids"}).AddRow(`["B2"]`))
	mock.ExpectRollback()

	_, conflicts, err := SeatLockRepository{DB: db}.Acquire(lock, time.Now())
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if len(conflicts) != 2 || conflicts[0] != "A1" || conflicts[1] != "B2" {
		t.Fatalf("unexpected conflicts %v", conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeatLockAcquireUnknownSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM trip_slots WHERE id=\? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, _, err = SeatLockRepository{DB: db}.Acquire(models.SeatLock{SlotID: 99, SeatIDs: []string{"A1"}}, time.Now())
	if err != ErrSlotNotFound {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestBookingCreateFromLockAdjustsSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Now()
	b := models.Booking{UserID: 3, SlotID: 7, SeatIDs: []string{"A2", "A3"}, LockToken: "tok", Amount: 5000, Status: models.BookingPendingPayment}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM seat_locks WHERE id=\? AND user_id=\? AND slot_id=\? AND expires_at > \?`).
		WithArgs(int64(11), int64(3), int64(7), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT total_seats, available_seats FROM trip_slots WHERE id=\? FOR UPDATE`).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"total_seats", "available_seats"}).AddRow(10, 3))
	mock.ExpectExec(`UPDATE trip_slots SET available_seats=\?, status=\? WHERE id=\?`).WithArgs(1, models.SlotFillingFast, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bookings`).WithArgs(int64(3), int64(7), `["A2","A3"]`, "tok", 5000.0, models.BookingPendingPayment).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()

	id, err := BookingRepository{DB: db}.CreateFromLock(b, 11, now)
	if err != nil {
		t.Fatalf("CreateFromLock returned error: %v", err)
	}
	if id != 21 {
		t.Fatalf("unexpected booking id %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingCreateFromLockRejectsConsumedLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	b := models.Booking{UserID: 3, SlotID: 7, SeatIDs: []string{"A2"}, LockToken: "tok", Amount: 2500, Status: models.BookingPendingPayment}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM seat_locks`).WithArgs(int64(11), int64(3), int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	id, err := BookingRepository{DB: db}.CreateFromLock(b, 11, time.Now())
	if err != ErrLockNotHeld {
		t.Fatalf("expected ErrLockNotHeld, got id=%d err=%v", id, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingCancelReturnsSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT total_seats, available_seats FROM trip_slots`).
		WillReturnRows(sqlmock.NewRows([]string{"total_seats", "available_seats"}).AddRow(10, 0))
	mock.ExpectExec(`UPDATE trip_slots SET available_seats`).WithArgs(2, models.SlotFillingFast, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status=\? WHERE id=\?`).WithArgs(models.BookingCancelled, int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = BookingRepository{DB: db}.Cancel(models.Booking{ID: 21, SlotID: 7, SeatIDs: []string{"A2", "A3"}})
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
