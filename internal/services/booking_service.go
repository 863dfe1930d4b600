package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/events"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"
)

type BookingService struct {
	Bookings  repositories.BookingRepository
	Locks     repositories.SeatLockRepository
	Trips     repositories.TripRepository
	Holder    SeatHolder
	Notifier  Notifier
	Events    events.Publisher
	RequestID string
	Now       clock
}

type CreateBookingInput struct {
	SlotID    int64    `json:"slot_id"`
	SeatIDs   []string `json:"seat_ids"`
	LockToken string   `json:"lock_token"`
}

// Create converts the caller's seat lock into a pending_payment booking.
func (s BookingService) Create(ctx context.Context, userID int64, in CreateBookingInput) (models.Booking, error) {
	seats := cleanSeatIDs(in.SeatIDs)
	token := strings.TrimSpace(in.LockToken)
	if in.SlotID <= 0 || len(seats) == 0 || token == "" {
		return models.Booking{}, domain.ValidationError{Msg: "slot_id, seat_ids and lock_token are required"}
	}

	lock, err := s.Locks.GetByToken(token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.ValidationError{Msg: "Invalid seat lock"}
		}
		return models.Booking{}, repoErr("seat lock", err)
	}
	if lock.UserID != userID || lock.SlotID != in.SlotID {
		return models.Booking{}, domain.ValidationError{Msg: "Invalid seat lock"}
	}
	if lock.Expired(s.Now.now()) {
		if err := s.Locks.Delete(lock.ID); err != nil {
			utils.LogEvent(s.RequestID, "bookings", "expired_lock_delete_failed", err.Error())
		}
		s.releaseHold(ctx, lock)
		notifySeats(s.Notifier, lock.SlotID, SeatEventReleased, lock.SeatIDs, userID)
		return models.Booking{}, domain.ValidationError{Msg: "Seat lock has expired"}
	}
	if !models.SameSeats(seats, lock.SeatIDs) {
		return models.Booking{}, domain.ValidationError{Msg: "Seat ids do not match the locked seats"}
	}

	slot, err := s.Trips.GetSlot(in.SlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.ValidationError{Msg: "Invalid slot_id"}
		}
		return models.Booking{}, repoErr("slot", err)
	}

	b := models.Booking{
		UserID:    userID,
		SlotID:    slot.ID,
		SeatIDs:   lock.SeatIDs,
		LockToken: lock.LockToken,
		Amount:    utils.RoundTo(slot.Price*float64(len(lock.SeatIDs)), 2),
		Status:    models.BookingPendingPayment,
	}
	id, err := s.Bookings.CreateFromLock(b, lock.ID, s.Now.now())
	if err != nil {
		if errors.Is(err, repositories.ErrLockNotHeld) {
			return b, domain.ValidationError{Msg: "Invalid seat lock"}
		}
		return b, repoErr("booking", err)
	}
	s.releaseHold(ctx, lock)

	utils.LogEvent(s.RequestID, "bookings", "create", fmt.Sprintf("booking_id=%d slot_id=%d seats=%d", id, slot.ID, len(b.SeatIDs)))
	notifySeats(s.Notifier, slot.ID, SeatEventBooked, b.SeatIDs, userID)

	created, err := s.Bookings.GetForUser(id, userID)
	if err != nil {
		b.ID = id
		created = b
	}
	events.Emit(s.Events, s.RequestID, events.New(events.BookingCreated, userID,
		"New booking", fmt.Sprintf("Booking #%d for %s (%d seats)", id, created.TripTitle, len(b.SeatIDs)),
		map[string]any{"booking_id": id, "slot_id": slot.ID, "amount": b.Amount}))
	return created, nil
}

func (s BookingService) releaseHold(ctx context.Context, lock models.SeatLock) {
	if s.Holder == nil {
		return
	}
	if err := s.Holder.Release(ctx, lock.SlotID, lock.SeatIDs, lock.LockToken); err != nil {
		utils.LogEvent(s.RequestID, "bookings", "holder_release_failed", err.Error())
	}
}

func (s BookingService) List(userID int64) ([]models.Booking, error) {
	out, err := s.Bookings.ListByUser(userID)
	return out, repoErr("booking", err)
}

func (s BookingService) Get(userID, id int64) (models.Booking, error) {
	b, err := s.Bookings.GetForUser(id, userID)
	return b, repoErr("booking", err)
}

// Cancel returns the seats of a pending or confirmed booking to its slot.
func (s BookingService) Cancel(userID, id int64) (models.Booking, error) {
	b, err := s.Get(userID, id)
	if err != nil {
		return b, err
	}
	if !b.Cancellable() {
		return b, domain.ValidationError{Msg: fmt.Sprintf("Cannot cancel booking in %s status", b.Status)}
	}
	if err := s.Bookings.Cancel(b); err != nil {
		return b, repoErr("booking", err)
	}
	b.Status = models.BookingCancelled
	utils.LogEvent(s.RequestID, "bookings", "cancel", fmt.Sprintf("booking_id=%d", id))
	notifySeats(s.Notifier, b.SlotID, SeatEventReleased, b.SeatIDs, userID)
	events.Emit(s.Events, s.RequestID, events.New(events.BookingCancelled, userID,
		"Booking cancelled", fmt.Sprintf("Booking #%d for %s was cancelled", id, b.TripTitle),
		map[string]any{"booking_id": id, "slot_id": b.SlotID}))
	return b, nil
}

func (s BookingService) Rate(userID, id int64, rating int) (models.Booking, error) {
	if rating < 1 || rating > 5 {
		return models.Booking{}, domain.ValidationError{Field: "rating", Msg: "rating must be between 1 and 5"}
	}
	b, err := s.Get(userID, id)
	if err != nil {
		return b, err
	}
	if b.Status != models.BookingCompleted {
		return b, domain.ValidationError{Msg: "Only completed bookings can be rated"}
	}
	if err := s.Bookings.Rate(id, rating); err != nil {
		return b, repoErr("booking", err)
	}
	b.Rating = &rating
	return b, nil
}
