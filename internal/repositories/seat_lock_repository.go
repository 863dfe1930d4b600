package repositories

import (
	"database/sql"
	"errors"
	"time"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

// ErrSlotNotFound is returned when a lock or booking targets a missing slot.
var ErrSlotNotFound = errors.New("slot not found")

type SeatLockRepository struct {
	DB *sql.DB
}

func (r SeatLockRepository) db() *sql.DB { return pickDB(r.DB) }

func holdingStatusArgs() []any {
	return inArgs(models.HoldingBookingStatuses)
}

// LockedSeats lists seats held by locks that have not expired yet.
func lockedSeats(q dbtx, slotID int64, now time.Time) ([]string, error) {
	rows, err := q.Query(`SELECT seat_ids FROM seat_locks WHERE slot_id=? AND expires_at > ?`, slotID, now)
	if err != nil {
		return nil, err
	}
	return seatSets(rows)
}

// bookedSeats lists seats taken by pending, confirmed or completed bookings.
func bookedSeats(q dbtx, slotID int64) ([]string, error) {
	args := append([]any{slotID}, holdingStatusArgs()...)
	rows, err := q.Query(`SELECT seat_ids FROM bookings WHERE slot_id=? AND status IN (`+intdb.Placeholders(len(models.HoldingBookingStatuses))+`)`, args...)
	if err != nil {
		return nil, err
	}
	return seatSets(rows)
}

func (r SeatLockRepository) LockedSeats(slotID int64, now time.Time) ([]string, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	return lockedSeats(db, slotID, now)
}

func (r SeatLockRepository) BookedSeats(slotID int64) ([]string, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	return bookedSeats(db, slotID)
}

// Acquire inserts lock only when none of its seats is held or booked. The
// slot row is locked FOR UPDATE so concurrent acquisitions serialize. On
// conflict the conflicting seats are returned and nothing is written.
func (r SeatLockRepository) Acquire(lock models.SeatLock, now time.Time) (int64, []string, error) {
	db := r.db()
	if db == nil {
		return 0, nil, ErrDBUnavailable
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback()

	var slotID int64
	if err := tx.QueryRow(`SELECT id FROM trip_slots WHERE id=? FOR UPDATE`, lock.SlotID).Scan(&slotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, ErrSlotNotFound
		}
		return 0, nil, err
	}

	held, err := lockedSeats(tx, lock.SlotID, now)
	if err != nil {
		return 0, nil, err
	}
	booked, err := bookedSeats(tx, lock.SlotID)
	if err != nil {
		return 0, nil, err
	}
	taken := make(map[string]bool, len(held)+len(booked))
	for _, s := range append(held, booked...) {
		taken[s] = true
	}
	conflicts := []string{}
	for _, s := range lock.SeatIDs {
		if taken[s] {
			conflicts = append(conflicts, s)
		}
	}
	if len(conflicts) > 0 {
		return 0, conflicts, nil
	}

	seats, err := intdb.JSONColumn(lock.SeatIDs)
	if err != nil {
		return 0, nil, err
	}
	res, err := tx.Exec(`INSERT INTO seat_locks (slot_id, seat_ids, lock_token, user_id, expires_at) VALUES (?,?,?,?,?)`,
		lock.SlotID, seats, lock.LockToken, lock.UserID, lock.ExpiresAt)
	if err != nil {
		return 0, nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, nil, err
	}
	return id, nil, tx.Commit()
}

func (r SeatLockRepository) GetByToken(token string) (models.SeatLock, error) {
	db := r.db()
	if db == nil {
		return models.SeatLock{}, ErrDBUnavailable
	}
	var l models.SeatLock
	var seats sql.NullString
	err := db.QueryRow(`SELECT id, slot_id, seat_ids, lock_token, user_id, expires_at, created_at FROM seat_locks WHERE lock_token=? LIMIT 1`, token).
		Scan(&l.ID, &l.SlotID, &seats, &l.LockToken, &l.UserID, &l.ExpiresAt, &l.CreatedAt)
	if err != nil {
		return l, err
	}
	l.SeatIDs = []string{}
	return l, intdb.ScanJSON(seats, &l.SeatIDs)
}

// DeleteForUser removes the caller's lock. It reports false when the token is
// unknown or belongs to someone else.
func (r SeatLockRepository) DeleteForUser(token string, userID int64) (bool, error) {
	db := r.db()
	if db == nil {
		return false, ErrDBUnavailable
	}
	res, err := db.Exec(`DELETE FROM seat_locks WHERE lock_token=? AND user_id=?`, token, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r SeatLockRepository) Delete(id int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`DELETE FROM seat_locks WHERE id=?`, id)
	return err
}

// ExpiredSince returns expired locks so callers can announce released seats.
func (r SeatLockRepository) ExpiredSince(now time.Time) ([]models.SeatLock, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT id, slot_id, seat_ids, lock_token, user_id FROM seat_locks WHERE expires_at <= ?`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.SeatLock{}
	for rows.Next() {
		var l models.SeatLock
		var seats sql.NullString
		if err := rows.Scan(&l.ID, &l.SlotID, &seats, &l.LockToken, &l.UserID); err != nil {
			return nil, err
		}
		if err := intdb.ScanJSON(seats, &l.SeatIDs); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r SeatLockRepository) DeleteExpired(now time.Time) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`DELETE FROM seat_locks WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
