package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
)

func TestRazorpaySignature(t *testing.T) {
	got := RazorpaySignature("rzp_secret", "order_ABC123", "pay_XYZ789")
	assert.Equal(t, "fa6a10de257732814bd52e36696b2f2b7b4f7b2f28975e52604a722b3dc74aa9", got)
}

func TestPaymentBookingValidation(t *testing.T) {
	_, err := PaymentService{}.CreateRazorpayOrder(1, 0)
	assert.EqualError(t, err, "booking_id is required")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`WHERE b.id=\? AND b.user_id=\?`).WithArgs(int64(9), int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s := PaymentService{Bookings: repositories.BookingRepository{DB: db}}
	_, err = s.UPILink(1, 9)
	assert.True(t, domain.IsValidation(err))
	assert.EqualError(t, err, "Invalid booking_id")
}

var bookingCols = []string{"id", "user_id", "slot_id", "seat_ids", "lock_token", "amount", "status", "rating", "created_at", "updated_at",
	"trip_id", "title", "slug", "date", "time"}

func bookingRow(id, userID int64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingCols).
		AddRow(id, userID, int64(7), `["A1"]`, "tok", 2500.0, status, nil, now, now, int64(1), "Rishikesh Rafting", "rishikesh-rafting", "2026-11-02", "07:00")
}

func paymentRow(id, bookingID int64, orderID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "booking_id", "user_id", "amount", "method", "status", "transaction_id", "payment_data", "created_at", "updated_at"}).
		AddRow(id, bookingID, int64(1), 2500.0, models.PaymentRazorpay, models.PaymentPending, orderID, `{}`, now, now)
}

func TestVerifyRazorpayRejectsCancelledBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`WHERE b.id=\? AND b.user_id=\?`).WithArgs(int64(5), int64(1)).
		WillReturnRows(bookingRow(5, 1, models.BookingCancelled))

	s := PaymentService{Bookings: repositories.BookingRepository{DB: db}, Payments: repositories.PaymentRepository{DB: db}, RazorpayKeySecret: "rzp_secret"}
	ok, err := s.VerifyRazorpay(1, models.RazorpayVerifyInput{
		BookingID: 5, RazorpayOrderID: "order_b", RazorpayPaymentID: "pay_1",
		RazorpaySignature: RazorpaySignature("rzp_secret", "order_b", "pay_1"),
	})
	assert.False(t, ok)
	assert.True(t, domain.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRazorpayRejectsOrderOfAnotherBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`WHERE b.id=\? AND b.user_id=\?`).WillReturnRows(bookingRow(5, 1, models.BookingPendingPayment))
	mock.ExpectQuery(`FROM payments WHERE booking_id=\?`).WithArgs(int64(5)).WillReturnRows(paymentRow(40, 5, "order_b"))

	s := PaymentService{Bookings: repositories.BookingRepository{DB: db}, Payments: repositories.PaymentRepository{DB: db}, RazorpayKeySecret: "rzp_secret"}
	ok, err := s.VerifyRazorpay(1, models.RazorpayVerifyInput{
		BookingID: 5, RazorpayOrderID: "order_other", RazorpayPaymentID: "pay_1",
		RazorpaySignature: RazorpaySignature("rzp_secret", "order_other", "pay_1"),
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRazorpayConfirmsPendingBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`WHERE b.id=\? AND b.user_id=\?`).WillReturnRows(bookingRow(5, 1, models.BookingPendingPayment))
	mock.ExpectQuery(`FROM payments WHERE booking_id=\?`).WillReturnRows(paymentRow(40, 5, "order_b"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status=\? WHERE id=\? AND status=\?`).
		WithArgs(models.BookingConfirmed, int64(5), models.BookingPendingPayment).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments SET status=\?, transaction_id=\?, payment_data=\? WHERE id=\?`).
		WithArgs(models.PaymentCompleted, "pay_1", sqlmock.AnyArg(), int64(40)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := PaymentService{Bookings: repositories.BookingRepository{DB: db}, Payments: repositories.PaymentRepository{DB: db}, RazorpayKeySecret: "rzp_secret"}
	ok, err := s.VerifyRazorpay(1, models.RazorpayVerifyInput{
		BookingID: 5, RazorpayOrderID: "order_b", RazorpayPaymentID: "pay_1",
		RazorpaySignature: RazorpaySignature("rzp_secret", "order_b", "pay_1"),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRazorpayBookingCancelledBeforeCommit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`WHERE b.id=\? AND b.user_id=\?`).WillReturnRows(bookingRow(5, 1, models.BookingPendingPayment))
	mock.ExpectQuery(`FROM payments WHERE booking_id=\?`).WillReturnRows(paymentRow(40, 5, "order_b"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status=\? WHERE id=\? AND status=\?`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	s := PaymentService{Bookings: repositories.BookingRepository{DB: db}, Payments: repositories.PaymentRepository{DB: db}}
	ok, err := s.VerifyRazorpay(1, models.RazorpayVerifyInput{BookingID: 5, RazorpayOrderID: "order_b", RazorpayPaymentID: "pay_1"})
	assert.False(t, ok)
	assert.EqualError(t, err, "Booking is not awaiting payment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyManualLeavesCancelledBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`FROM manual_payments m`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "screenshot", "verified", "verified_by", "verified_at", "created_at", "booking_id"}).
			AddRow(int64(3), int64(40), "uploads/payments/5_x.png", false, nil, nil, time.Now(), int64(5)))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status=\? WHERE id=\? AND status=\?`).
		WithArgs(models.BookingConfirmed, int64(5), models.BookingPendingPayment).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	s := PaymentService{Bookings: repositories.BookingRepository{DB: db}, Payments: repositories.PaymentRepository{DB: db}}
	_, err = s.VerifyManual(99, 3)
	assert.True(t, domain.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
