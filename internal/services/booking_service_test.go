package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/repositories"
)

var lockCols = []string{"id", "slot_id", "seat_ids", "lock_token", "user_id", "expires_at", "created_at"}

func newBookingService(t *testing.T, now time.Time) (BookingService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := BookingService{
		Bookings: repositories.BookingRepository{DB: db},
		Locks:    repositories.SeatLockRepository{DB: db},
		Trips:    repositories.TripRepository{DB: db},
		Now:      func() time.Time { return now },
	}
	return s, mock, func() { db.Close() }
}

func TestBookingCreateRequiresFields(t *testing.T) {
	_, err := BookingService{}.Create(context.Background(), 1, CreateBookingInput{SlotID: 7, SeatIDs: []string{"A1"}})
	assert.EqualError(t, err, "slot_id, seat_ids and lock_token are required")
}

func TestBookingCreateExpiredLockIsRemoved(t *testing.T) {
	now := time.Now()
	s, mock, done := newBookingService(t, now)
	defer done()

	mock.ExpectQuery(`FROM seat_locks WHERE lock_token=\?`).WithArgs("tok").
		WillReturnRows(sqlmock.NewRows(lockCols).AddRow(int64(11), int64(7), `["A1","A2"]`, "tok", int64(1), now.Add(-time.Second), now.Add(-6*time.Minute)))
	mock.ExpectExec(`DELETE FROM seat_locks WHERE id=\?`).WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := s.Create(context.Background(), 1, CreateBookingInput{SlotID: 7, SeatIDs: []string{"A1", "A2"}, LockToken: "tok"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Seat lock has expired", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCreateRejectsMismatchedLock(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name   string
		userID int64
		slotID int64
		seats  []string
		msg    string
	}{
		{"other owner", 2, 7, []string{"A1", "A2"}, "Invalid seat lock"},
		{"other slot", 1, 8, []string{"A1", "A2"}, "Invalid seat lock"},
		{"different seats", 1, 7, []string{"A1", "A3"}, "Seat ids do not match the locked seats"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock, done := newBookingService(t, now)
			defer done()
			mock.ExpectQuery(`FROM seat_locks WHERE lock_token=\?`).
				WillReturnRows(sqlmock.NewRows(lockCols).AddRow(int64(11), int64(7), `["A1","A2"]`, "tok", int64(1), now.Add(4*time.Minute), now))

			_, err := s.Create(context.Background(), tc.userID, CreateBookingInput{SlotID: tc.slotID, SeatIDs: tc.seats, LockToken: "tok"})
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, tc.msg, err.Error())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingCreateSeatOrderIgnored(t *testing.T) {
	now := time.Now()
	s, mock, done := newBookingService(t, now)
	defer done()

	mock.ExpectQuery(`FROM seat_locks WHERE lock_token=\?`).
		WillReturnRows(sqlmock.NewRows(lockCols).AddRow(int64(11), int64(7), `["A1","A2"]`, "tok", int64(1), now.Add(4*time.Minute), now))
	mock.ExpectQuery(`FROM trip_slots WHERE id=\?`).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "date", "time", "vehicle_type", "total_seats", "available_seats", "price", "status", "created_at"}).
			AddRow(int64(7), int64(1), "2026-11-02", "07:00", "tempo", 10, 10, 2500.0, "available", now))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM seat_locks WHERE id=\? AND user_id=\? AND slot_id=\? AND expires_at > \?`).
		WithArgs(int64(11), int64(1), int64(7), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT total_seats, available_seats FROM trip_slots`).
		WillReturnRows(sqlmock.NewRows([]string{"total_seats", "available_seats"}).AddRow(10, 10))
	mock.ExpectExec(`UPDATE trip_slots SET available_seats`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bookings`).WithArgs(int64(1), int64(7), `["A1","A2"]`, "tok", 5000.0, "pending_payment").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`WHERE b.id=\? AND b.user_id=\?`).WithArgs(int64(21), int64(1)).WillReturnRows(bookingRow(21, 1, "pending_payment"))

	b, err := s.Create(context.Background(), 1, CreateBookingInput{SlotID: 7, SeatIDs: []string{"A2", "A1"}, LockToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, int64(21), b.ID)
	assert.Equal(t, "pending_payment", b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCreateLockConsumedConcurrently(t *testing.T) {
	now := time.Now()
	s, mock, done := newBookingService(t, now)
	defer done()

	mock.ExpectQuery(`FROM seat_locks WHERE lock_token=\?`).
		WillReturnRows(sqlmock.NewRows(lockCols).AddRow(int64(11), int64(7), `["A1"]`, "tok", int64(1), now.Add(4*time.Minute), now))
	mock.ExpectQuery(`FROM trip_slots WHERE id=\?`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "date", "time", "vehicle_type", "total_seats", "available_seats", "price", "status", "created_at"}).
			AddRow(int64(7), int64(1), "2026-11-02", "07:00", "tempo", 10, 10, 2500.0, "available", now))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM seat_locks WHERE id=\?`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), 1, CreateBookingInput{SlotID: 7, SeatIDs: []string{"A1"}, LockToken: "tok"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Invalid seat lock", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}
