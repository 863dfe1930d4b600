package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLeadStatsAggregates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM leads`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "today", "week", "month", "converted"}).AddRow(8, 1, 3, 6, 2))
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM leads GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("converted", 2).AddRow("new", 6))
	mock.ExpectQuery(`SELECT destination, COUNT\(\*\) AS cnt FROM leads`).
		WillReturnRows(sqlmock.NewRows([]string{"destination", "cnt"}).AddRow("Ladakh", 4).AddRow("Goa", 1))

	st, converted, err := LeadRepository{DB: db}.Stats(time.Now())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if st.TotalLeads != 8 || st.NewLeadsToday != 1 || st.NewLeadsWeek != 3 || st.NewLeadsMonth != 6 || converted != 2 {
		t.Fatalf("unexpected counters %+v converted=%d", st, converted)
	}
	if len(st.StatusBreakdown) != 2 || len(st.TopDestinations) != 2 || st.TopDestinations[0].Destination != "Ladakh" {
		t.Fatalf("unexpected breakdowns %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPaymentCompleteConfirmsBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status=\? WHERE id=\? AND status=\?`).WithArgs("confirmed", int64(21), "pending_payment").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments SET status=\?, transaction_id=\?, payment_data=\? WHERE id=\?`).
		WithArgs("completed", "pay_1", `{"razorpay_order_id":"order_1"}`, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = PaymentRepository{DB: db}.Complete(5, 21, "pay_1", map[string]any{"razorpay_order_id": "order_1"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPaymentCompleteSkipsCancelledBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status=\? WHERE id=\? AND status=\?`).WithArgs("confirmed", int64(21), "pending_payment").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = PaymentRepository{DB: db}.Complete(5, 21, "pay_1", nil)
	if err != ErrBookingNotPending {
		t.Fatalf("expected ErrBookingNotPending, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDashboardAvgRatingWithoutColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`information_schema\.columns`).WithArgs("bookings", "rating").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	avg, err := DashboardRepository{DB: db}.avgRating(db, 0)
	if err != nil || avg != 0 {
		t.Fatalf("expected 0 without rating column, got %v err=%v", avg, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
