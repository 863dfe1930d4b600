package models

import (
	"sort"
	"time"
)

const (
	BookingPendingPayment = "pending_payment"
	BookingConfirmed      = "confirmed"
	BookingCancelled      = "cancelled"
	BookingCompleted      = "completed"
)

// HoldingBookingStatuses are the statuses whose seats are taken.
var HoldingBookingStatuses = []string{BookingPendingPayment, BookingConfirmed, BookingCompleted}

type SeatLock struct {
	ID        int64     `json:"id"`
	SlotID    int64     `json:"slot_id"`
	SeatIDs   []string  `json:"seat_ids"`
	LockToken string    `json:"lock_token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (l SeatLock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// SameSeats compares two seat sets ignoring order.
func SameSeats(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	SlotID    int64     `json:"slot_id"`
	SeatIDs   []string  `json:"seat_ids"`
	LockToken string    `json:"-"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TripID    int64  `json:"trip_id,omitempty"`
	TripTitle string `json:"trip_title,omitempty"`
	TripSlug  string `json:"trip_slug,omitempty"`
	SlotDate  string `json:"slot_date,omitempty"`
	SlotTime  string `json:"slot_time,omitempty"`
	UserName  string `json:"user_name,omitempty"`
}

func (b Booking) Cancellable() bool {
	return b.Status == BookingPendingPayment || b.Status == BookingConfirmed
}

func (b Booking) Invoiceable() bool {
	return b.Status == BookingConfirmed || b.Status == BookingCompleted
}
