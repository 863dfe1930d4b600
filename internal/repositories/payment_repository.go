package repositories

import (
	"database/sql"
	"errors"
	"time"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

// ErrBookingNotPending is returned when a payment tries to confirm a booking
// that is no longer awaiting payment.
var ErrBookingNotPending = errors.New("booking not pending payment")

// confirmPending moves a pending_payment booking to confirmed. Any other
// status, cancelled included, is left alone.
func confirmPending(tx *sql.Tx, bookingID int64) error {
	res, err := tx.Exec(`UPDATE bookings SET status=? WHERE id=? AND status=?`,
		models.BookingConfirmed, bookingID, models.BookingPendingPayment)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrBookingNotPending
	}
	return nil
}

type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() *sql.DB { return pickDB(r.DB) }

func (r PaymentRepository) GetByBooking(bookingID int64) (models.Payment, error) {
	db := r.db()
	if db == nil {
		return models.Payment{}, ErrDBUnavailable
	}
	var p models.Payment
	var data sql.NullString
	err := db.QueryRow(`
		SELECT id, booking_id, user_id, amount, method, status, transaction_id, payment_data, created_at, updated_at
		FROM payments WHERE booking_id=? LIMIT 1
	`, bookingID).Scan(&p.ID, &p.BookingID, &p.UserID, &p.Amount, &p.Method, &p.Status, &p.TransactionID, &data, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.PaymentData = map[string]any{}
	return p, intdb.ScanJSON(data, &p.PaymentData)
}

// UpsertPending creates or resets the single payment row of a booking.
func (r PaymentRepository) UpsertPending(p models.Payment) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	data, err := intdb.JSONColumn(p.PaymentData)
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(`
		INSERT INTO payments (booking_id, user_id, amount, method, status, transaction_id, payment_data)
		VALUES (?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE id=LAST_INSERT_ID(id), amount=VALUES(amount), method=VALUES(method),
			status=VALUES(status), transaction_id=VALUES(transaction_id), payment_data=VALUES(payment_data)
	`, p.BookingID, p.UserID, p.Amount, p.Method, models.PaymentPending, p.TransactionID, data)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Complete marks the payment completed and confirms its booking atomically.
func (r PaymentRepository) Complete(paymentID, bookingID int64, transactionID string, data map[string]any) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	raw, err := intdb.JSONColumn(data)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := confirmPending(tx, bookingID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE payments SET status=?, transaction_id=?, payment_data=? WHERE id=?`,
		models.PaymentCompleted, transactionID, raw, paymentID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r PaymentRepository) MarkFailed(paymentID int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE payments SET status=? WHERE id=?`, models.PaymentFailed, paymentID)
	return err
}

func (r PaymentRepository) CreateManual(paymentID int64, screenshot string) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`INSERT INTO manual_payments (payment_id, screenshot) VALUES (?,?)`, paymentID, screenshot)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ManualWithBooking returns a manual upload with the payment and booking it belongs to.
func (r PaymentRepository) ManualWithBooking(manualID int64) (models.ManualPayment, int64, error) {
	db := r.db()
	if db == nil {
		return models.ManualPayment{}, 0, ErrDBUnavailable
	}
	var m models.ManualPayment
	var bookingID int64
	var verifiedBy sql.NullInt64
	var verifiedAt sql.NullTime
	err := db.QueryRow(`
		SELECT m.id, m.payment_id, m.screenshot, m.verified, m.verified_by, m.verified_at, m.created_at, p.booking_id
		FROM manual_payments m
		JOIN payments p ON p.id = m.payment_id
		WHERE m.id=? LIMIT 1
	`, manualID).Scan(&m.ID, &m.PaymentID, &m.Screenshot, &m.Verified, &verifiedBy, &verifiedAt, &m.CreatedAt, &bookingID)
	if err != nil {
		return m, 0, err
	}
	m.VerifiedBy = int64Ptr(verifiedBy)
	m.VerifiedAt = timePtr(verifiedAt)
	return m, bookingID, nil
}

// VerifyManual approves an upload: the manual row, its payment and the
// booking are updated in one transaction.
func (r PaymentRepository) VerifyManual(m models.ManualPayment, bookingID, adminID int64, at time.Time) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := confirmPending(tx, bookingID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE manual_payments SET verified=1, verified_by=?, verified_at=? WHERE id=?`, adminID, at, m.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE payments SET status=? WHERE id=?`, models.PaymentCompleted, m.PaymentID); err != nil {
		return err
	}
	return tx.Commit()
}
