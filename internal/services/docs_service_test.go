package services

import (
	"bytes"
	"testing"
	"time"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
)

func TestDocsServiceGenerate(t *testing.T) {
	loader := func(userID, id int64) (bookingDocData, error) {
		return bookingDocData{
			Booking: models.Booking{
				ID:        id,
				UserID:    userID,
				SeatIDs:   []string{"A1", "A2"},
				Amount:    21000,
				Status:    models.BookingConfirmed,
				TripTitle: "Spiti Valley Circuit",
				TripSlug:  "spiti-valley-circuit",
				SlotDate:  time.Now().Format("2006-01-02"),
				SlotTime:  "06:30:00",
			},
			CustomerName:  "Tester",
			CustomerPhone: "+919876543210",
			PaymentMethod: "razorpay",
		}, nil
	}

	svc := DocsService{Loader: loader}

	invoice, name, err := svc.GenerateInvoice(7, 10)
	if err != nil {
		t.Fatalf("GenerateInvoice returned error: %v", err)
	}
	if !bytes.HasPrefix(invoice, []byte("%PDF")) || name != "INVOICE_10_spiti-valley-circuit.pdf" {
		t.Fatalf("unexpected invoice output: name=%q len=%d", name, len(invoice))
	}

	ticket, ticketName, err := svc.GenerateETicket(7, 10)
	if err != nil {
		t.Fatalf("GenerateETicket returned error: %v", err)
	}
	if len(ticket) == 0 || ticketName == "" {
		t.Fatalf("GenerateETicket returned empty data")
	}
}

func TestDocsServiceRejectsUnpaidBooking(t *testing.T) {
	svc := DocsService{Loader: func(userID, id int64) (bookingDocData, error) {
		return bookingDocData{Booking: models.Booking{ID: id, Status: models.BookingPendingPayment}}, nil
	}}
	_, _, err := svc.GenerateInvoice(1, 2)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestGSTSplit(t *testing.T) {
	base, tax := gstSplit(10500, 5)
	if base != 10000 || tax != 500 {
		t.Fatalf("got base=%v tax=%v", base, tax)
	}
}
