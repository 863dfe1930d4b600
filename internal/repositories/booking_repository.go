package repositories

import (
	"database/sql"
	"errors"
	"time"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

const bookingColumns = `b.id, b.user_id, b.slot_id, b.seat_ids, b.lock_token, b.amount, b.status, b.rating, b.created_at, b.updated_at,
	COALESCE(t.id,0), COALESCE(t.title,''), COALESCE(t.slug,''), COALESCE(DATE_FORMAT(s.date,'%Y-%m-%d'),''), COALESCE(s.time,'')`

const bookingJoins = ` FROM bookings b
	LEFT JOIN trip_slots s ON s.id = b.slot_id
	LEFT JOIN trips t ON t.id = s.trip_id`

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB { return pickDB(r.DB) }

func scanBooking(s scanner) (models.Booking, error) {
	var b models.Booking
	var seats sql.NullString
	var rating sql.NullInt64
	err := s.Scan(&b.ID, &b.UserID, &b.SlotID, &seats, &b.LockToken, &b.Amount, &b.Status, &rating, &b.CreatedAt, &b.UpdatedAt,
		&b.TripID, &b.TripTitle, &b.TripSlug, &b.SlotDate, &b.SlotTime)
	if err != nil {
		return b, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		b.Rating = &v
	}
	b.SeatIDs = []string{}
	return b, intdb.ScanJSON(seats, &b.SeatIDs)
}

func (r BookingRepository) ListByUser(userID int64) ([]models.Booking, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT `+bookingColumns+bookingJoins+` WHERE b.user_id=? ORDER BY b.created_at DESC, b.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r BookingRepository) GetByID(id int64) (models.Booking, error) {
	db := r.db()
	if db == nil {
		return models.Booking{}, ErrDBUnavailable
	}
	return scanBooking(db.QueryRow(`SELECT `+bookingColumns+bookingJoins+` WHERE b.id=? LIMIT 1`, id))
}

// GetForUser only returns the booking when userID owns it.
func (r BookingRepository) GetForUser(id, userID int64) (models.Booking, error) {
	db := r.db()
	if db == nil {
		return models.Booking{}, ErrDBUnavailable
	}
	return scanBooking(db.QueryRow(`SELECT `+bookingColumns+bookingJoins+` WHERE b.id=? AND b.user_id=? LIMIT 1`, id, userID))
}

// adjustSlot moves available_seats by delta and recomputes the slot status.
// The caller must hold the slot row lock.
func adjustSlot(tx *sql.Tx, slotID int64, delta int) error {
	var total, available int
	if err := tx.QueryRow(`SELECT total_seats, available_seats FROM trip_slots WHERE id=? FOR UPDATE`, slotID).Scan(&total, &available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSlotNotFound
		}
		return err
	}
	available += delta
	if available < 0 {
		available = 0
	}
	if available > total {
		available = total
	}
	_, err := tx.Exec(`UPDATE trip_slots SET available_seats=?, status=? WHERE id=?`, available, models.SlotStatusFor(available, total), slotID)
	return err
}

// ErrLockNotHeld is returned when the seat lock behind a booking is gone,
// expired or owned by someone else by the time the booking commits.
var ErrLockNotHeld = errors.New("seat lock not held")

// CreateFromLock turns a held lock into a booking: the lock is consumed, the
// booking row inserted and the slot availability decremented in one
// transaction. Exactly one live lock row owned by b.UserID must be deleted,
// so a lock can back at most one booking.
func (r BookingRepository) CreateFromLock(b models.Booking, lockID int64, now time.Time) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM seat_locks WHERE id=? AND user_id=? AND slot_id=? AND expires_at > ?`, lockID, b.UserID, b.SlotID, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, ErrLockNotHeld
	}

	if err := adjustSlot(tx, b.SlotID, -len(b.SeatIDs)); err != nil {
		return 0, err
	}
	seats, err := intdb.JSONColumn(b.SeatIDs)
	if err != nil {
		return 0, err
	}
	res, err = tx.Exec(`INSERT INTO bookings (user_id, slot_id, seat_ids, lock_token, amount, status) VALUES (?,?,?,?,?,?)`,
		b.UserID, b.SlotID, seats, b.LockToken, b.Amount, b.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// Cancel marks the booking cancelled and returns its seats to the slot.
func (r BookingRepository) Cancel(b models.Booking) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := adjustSlot(tx, b.SlotID, len(b.SeatIDs)); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE bookings SET status=? WHERE id=?`, models.BookingCancelled, b.ID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r BookingRepository) Rate(id int64, rating int) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE bookings SET rating=? WHERE id=?`, rating, id)
	return err
}
