package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/realtime"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"github.com/google/uuid"
)

const (
	SeatEventLocked   = "seat_locked"
	SeatEventReleased = "seat_released"
	SeatEventBooked   = "seat_booked"
)

// SeatEvent is pushed to the seat_updates_<slot> group.
type SeatEvent struct {
	Event  string `json:"event"`
	SeatID string `json:"seat_id"`
	ByUser int64  `json:"by_user"`
}

// SeatConflict lists seats that are held or booked by someone else.
type SeatConflict struct {
	Seats []string
}

func (e SeatConflict) Error() string {
	return "Seats not available: " + strings.Join(e.Seats, ", ")
}

func seatConflictError(seats []string) error {
	c := SeatConflict{Seats: seats}
	return domain.ValidationError{Msg: c.Error(), Err: c}
}

type SeatService struct {
	Locks     repositories.SeatLockRepository
	Trips     repositories.TripRepository
	Holder    SeatHolder
	Notifier  Notifier
	TTL       time.Duration
	RequestID string
	Now       clock
	NewToken  func() string
}

func (s SeatService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 5 * time.Minute
}

func (s SeatService) token() string {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return uuid.NewString()
}

func notifySeats(n Notifier, slotID int64, event string, seats []string, userID int64) {
	n = notifierOr(n)
	group := realtime.SeatUpdatesGroup(slotID)
	for _, seat := range seats {
		n.Broadcast(group, SeatEvent{Event: event, SeatID: seat, ByUser: userID})
	}
}

func cleanSeatIDs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Lock holds seats of a slot for the caller. It is all or nothing: either
// every seat is held under one token or nothing changes.
func (s SeatService) Lock(ctx context.Context, userID, slotID int64, seatIDs []string) (models.SeatLock, error) {
	seatIDs = cleanSeatIDs(seatIDs)
	if slotID <= 0 || len(seatIDs) == 0 {
		return models.SeatLock{}, domain.ValidationError{Msg: "slot_id and seat_ids are required"}
	}
	if _, dup := utils.Dedup(seatIDs); dup {
		return models.SeatLock{}, domain.ValidationError{Msg: "Duplicate seat ids"}
	}
	if _, err := s.Trips.GetSlot(slotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SeatLock{}, domain.ValidationError{Msg: "Invalid slot_id"}
		}
		return models.SeatLock{}, repoErr("slot", err)
	}
	if err := s.checkSeatMap(slotID, seatIDs); err != nil {
		return models.SeatLock{}, err
	}

	now := s.Now.now()
	lock := models.SeatLock{
		SlotID:    slotID,
		SeatIDs:   seatIDs,
		LockToken: s.token(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl()),
	}

	if s.Holder != nil {
		conflicts, err := s.Holder.Hold(ctx, slotID, seatIDs, lock.LockToken, s.ttl())
		if err != nil {
			return lock, domain.UnavailableError{Service: "seat holder", Err: err}
		}
		if len(conflicts) > 0 {
			return lock, seatConflictError(conflicts)
		}
	}

	id, conflicts, err := s.Locks.Acquire(lock, now)
	if err != nil || len(conflicts) > 0 {
		s.release(ctx, lock)
		if errors.Is(err, repositories.ErrSlotNotFound) {
			return lock, domain.ValidationError{Msg: "Invalid slot_id"}
		}
		if err != nil {
			return lock, repoErr("seat lock", err)
		}
		return lock, seatConflictError(conflicts)
	}
	lock.ID = id
	lock.CreatedAt = now

	utils.LogEvent(s.RequestID, "seats", "lock", fmt.Sprintf("slot_id=%d seats=%d user_id=%d", slotID, len(seatIDs), userID))
	notifySeats(s.Notifier, slotID, SeatEventLocked, seatIDs, userID)
	return lock, nil
}

// checkSeatMap rejects unknown and blocked seats when the slot has a seat map.
func (s SeatService) checkSeatMap(slotID int64, seatIDs []string) error {
	m, err := s.Trips.GetSeatMap(slotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return repoErr("seat map", err)
	}
	known := make(map[string]string, len(m.Seats))
	for _, seat := range m.Seats {
		known[seat.ID] = seat.Status
	}
	for _, id := range seatIDs {
		status, ok := known[id]
		if !ok {
			return domain.ValidationError{Msg: "Unknown seat " + id}
		}
		if status == models.SeatBlocked {
			return domain.ValidationError{Msg: "Seat " + id + " is blocked"}
		}
	}
	return nil
}

func (s SeatService) release(ctx context.Context, lock models.SeatLock) {
	if s.Holder == nil {
		return
	}
	if err := s.Holder.Release(ctx, lock.SlotID, lock.SeatIDs, lock.LockToken); err != nil {
		utils.LogEvent(s.RequestID, "seats", "holder_release_failed", err.Error())
	}
}

// Unlock drops the caller's lock.
func (s SeatService) Unlock(ctx context.Context, userID int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ValidationError{Msg: "lock_token is required"}
	}
	lock, err := s.Locks.GetByToken(token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ValidationError{Msg: "Invalid lock_token"}
		}
		return repoErr("seat lock", err)
	}
	if lock.UserID != userID {
		return domain.ValidationError{Msg: "Invalid lock_token"}
	}
	deleted, err := s.Locks.DeleteForUser(token, userID)
	if err != nil {
		return repoErr("seat lock", err)
	}
	if !deleted {
		return domain.ValidationError{Msg: "Invalid lock_token"}
	}
	s.release(ctx, lock)
	utils.LogEvent(s.RequestID, "seats", "unlock", fmt.Sprintf("slot_id=%d user_id=%d", lock.SlotID, userID))
	notifySeats(s.Notifier, lock.SlotID, SeatEventReleased, lock.SeatIDs, userID)
	return nil
}

// CleanupExpired deletes expired locks and announces their seats as free.
func (s SeatService) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.Now.now()
	expired, err := s.Locks.ExpiredSince(now)
	if err != nil {
		return 0, repoErr("seat lock", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}
	n, err := s.Locks.DeleteExpired(now)
	if err != nil {
		return 0, repoErr("seat lock", err)
	}
	for _, lock := range expired {
		s.release(ctx, lock)
		notifySeats(s.Notifier, lock.SlotID, SeatEventReleased, lock.SeatIDs, lock.UserID)
	}
	return n, nil
}
