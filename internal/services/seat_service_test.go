package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/repositories"
)

type fakeHolder struct {
	conflicts []string
	released  int
}

func (h *fakeHolder) Hold(context.Context, int64, []string, string, time.Duration) ([]string, error) {
	return h.conflicts, nil
}

func (h *fakeHolder) Release(context.Context, int64, []string, string) error {
	h.released++
	return nil
}

func TestSeatLockValidation(t *testing.T) {
	s := SeatService{}
	_, err := s.Lock(context.Background(), 1, 0, []string{"A1"})
	assert.EqualError(t, err, "slot_id and seat_ids are required")

	_, err = s.Lock(context.Background(), 1, 3, []string{" ", ""})
	assert.EqualError(t, err, "slot_id and seat_ids are required")

	_, err = s.Lock(context.Background(), 1, 3, []string{"A1", "A1"})
	assert.EqualError(t, err, "Duplicate seat ids")
}

func TestSeatLockReportsHolderConflicts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM trip_slots`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "date", "time", "vehicle_type", "total_seats", "available_seats", "price", "status", "created_at"}).
			AddRow(int64(3), int64(1), "2025-08-01", "06:00:00", "tempo", 20, 20, 10500.0, "available", time.Now()))
	mock.ExpectQuery(`FROM seat_maps`).WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows([]string{"slot_id"}))

	holder := &fakeHolder{conflicts: []string{"B2"}}
	s := SeatService{Trips: repositories.TripRepository{DB: db}, Locks: repositories.SeatLockRepository{DB: db}, Holder: holder}
	_, err = s.Lock(context.Background(), 1, 3, []string{"A1", "B2"})

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Seats not available: B2", err.Error())
	var conflict SeatConflict
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"B2"}, conflict.Seats)
}
