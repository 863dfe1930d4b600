package services

import (
	"fmt"
	"strings"
	"time"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"

	"github.com/patrickmn/go-cache"
)

// TripCache holds the featured and popular lists for a minute.
var TripCache = cache.New(60*time.Second, 2*time.Minute)

const (
	cacheKeyFeatured = "trips:featured"
	cacheKeyPopular  = "trips:popular"
)

type TripService struct {
	Trips     repositories.TripRepository
	Locks     repositories.SeatLockRepository
	Cache     *cache.Cache
	RequestID string
	// OnChange runs after every successful admin write, e.g. to rebuild the
	// trip knowledge chunks.
	OnChange func()
	Now      clock
}

func (s TripService) cache() *cache.Cache {
	if s.Cache != nil {
		return s.Cache
	}
	return TripCache
}

func (s TripService) changed() {
	s.cache().Flush()
	if s.OnChange != nil {
		s.OnChange()
	}
}

// List returns published trips matching filter. Tags must all be present.
func (s TripService) List(filter models.TripFilter) ([]models.Trip, error) {
	trips, err := s.Trips.List(filter, true)
	if err != nil {
		return nil, repoErr("trip", err)
	}
	if len(filter.Tags) == 0 {
		return trips, nil
	}
	out := make([]models.Trip, 0, len(trips))
	for _, t := range trips {
		if t.HasTags(filter.Tags) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s TripService) Featured() ([]models.Trip, error) {
	return s.cached(cacheKeyFeatured, "featured")
}

func (s TripService) Popular() ([]models.Trip, error) {
	return s.cached(cacheKeyPopular, "popular")
}

func (s TripService) cached(key, featured string) ([]models.Trip, error) {
	if v, ok := s.cache().Get(key); ok {
		return v.([]models.Trip), nil
	}
	trips, err := s.Trips.List(models.TripFilter{Featured: featured}, true)
	if err != nil {
		return nil, repoErr("trip", err)
	}
	s.cache().SetDefault(key, trips)
	return trips, nil
}

// GetPublished hides drafts and archived trips from the public catalog.
func (s TripService) GetPublished(slug string) (models.Trip, error) {
	t, err := s.Trips.GetBySlug(strings.TrimSpace(slug))
	if err != nil {
		return t, repoErr("trip", err)
	}
	if t.Status != models.TripStatusPublished {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func (s TripService) Availability(slug string) ([]models.TripSlot, error) {
	t, err := s.GetPublished(slug)
	if err != nil {
		return nil, err
	}
	slots, err := s.Trips.ListSlots(t.ID)
	if err != nil {
		return nil, repoErr("slot", err)
	}
	return slots, nil
}

func (s TripService) Slot(id int64) (models.TripSlot, error) {
	slot, err := s.Trips.GetSlot(id)
	return slot, repoErr("slot", err)
}

// SeatMapView partitions the seat map of a slot into available, locked,
// booked and blocked seats.
func (s TripService) SeatMapView(slotID int64) (models.SeatMapView, error) {
	var view models.SeatMapView
	m, err := s.Trips.GetSeatMap(slotID)
	if err != nil {
		return view, repoErr("seat map", err)
	}
	locked, err := s.Locks.LockedSeats(slotID, s.Now.now())
	if err != nil {
		return view, repoErr("seat lock", err)
	}
	booked, err := s.Locks.BookedSeats(slotID)
	if err != nil {
		return view, repoErr("booking", err)
	}
	blocked := m.BlockedSeats()

	taken := map[string]bool{}
	for _, group := range [][]string{locked, booked, blocked} {
		for _, id := range group {
			taken[id] = true
		}
	}
	available := []string{}
	for _, seat := range m.Seats {
		if !taken[seat.ID] {
			available = append(available, seat.ID)
		}
	}
	return models.SeatMapView{SeatMap: m, Available: available, Locked: locked, Booked: booked, Blocked: blocked}, nil
}

func validateTrip(t *models.Trip) error {
	t.Title = utils.NormalizeSpace(t.Title)
	if t.Title == "" {
		return domain.ValidationError{Field: "title", Msg: "title is required"}
	}
	t.Slug = utils.Slugify(t.Slug)
	if t.Slug == "" {
		t.Slug = utils.Slugify(t.Title)
	}
	if t.Price < 0 {
		return domain.ValidationError{Field: "price", Msg: "price must not be negative"}
	}
	if t.OriginalPrice != nil && *t.OriginalPrice < 0 {
		return domain.ValidationError{Field: "original_price", Msg: "original_price must not be negative"}
	}
	if t.GSTPercentage == 0 {
		t.GSTPercentage = 5
	}
	if t.Category == "" {
		t.Category = "mixed"
	}
	if t.FeaturedStatus == "" {
		t.FeaturedStatus = "none"
	}
	if t.Difficulty == "" {
		t.Difficulty = "moderate"
	}
	if t.Status == "" {
		t.Status = models.TripStatusDraft
	}
	checks := []struct {
		field   string
		value   string
		options []string
	}{
		{"category", t.Category, models.TripCategories},
		{"featured_status", t.FeaturedStatus, models.FeaturedStatuses},
		{"difficulty", t.Difficulty, models.Difficulties},
		{"status", t.Status, models.TripStatuses},
	}
	for _, c := range checks {
		if !utils.Contains(c.options, c.value) {
			return domain.ValidationError{Field: c.field, Msg: fmt.Sprintf("invalid %s %q", c.field, c.value)}
		}
	}
	return nil
}

// uniqueSlug appends -2, -3, ... until slug is free.
func (s TripService) uniqueSlug(slug string, excludeID int64) (string, error) {
	candidate := slug
	for i := 2; ; i++ {
		exists, err := s.Trips.SlugExists(candidate, excludeID)
		if err != nil {
			return "", repoErr("trip", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}

func (s TripService) Create(t models.Trip) (models.Trip, error) {
	if err := validateTrip(&t); err != nil {
		return t, err
	}
	slug, err := s.uniqueSlug(t.Slug, 0)
	if err != nil {
		return t, err
	}
	t.Slug = slug
	id, err := s.Trips.Create(t)
	if err != nil {
		return t, repoErr("trip", err)
	}
	utils.LogEvent(s.RequestID, "trips", "create", fmt.Sprintf("trip_id=%d slug=%s", id, t.Slug))
	s.changed()
	created, err := s.Trips.GetByID(id)
	return created, repoErr("trip", err)
}

func (s TripService) Update(id int64, t models.Trip) (models.Trip, error) {
	if _, err := s.Trips.GetByID(id); err != nil {
		return t, repoErr("trip", err)
	}
	if err := validateTrip(&t); err != nil {
		return t, err
	}
	exists, err := s.Trips.SlugExists(t.Slug, id)
	if err != nil {
		return t, repoErr("trip", err)
	}
	if exists {
		return t, domain.ConflictError{Resource: "trip", Msg: "slug already in use"}
	}
	t.ID = id
	if err := s.Trips.Update(t); err != nil {
		return t, repoErr("trip", err)
	}
	utils.LogEvent(s.RequestID, "trips", "update", fmt.Sprintf("trip_id=%d", id))
	s.changed()
	updated, err := s.Trips.GetByID(id)
	return updated, repoErr("trip", err)
}

func (s TripService) Delete(id int64) error {
	if err := s.Trips.Delete(id); err != nil {
		return repoErr("trip", err)
	}
	utils.LogEvent(s.RequestID, "trips", "delete", fmt.Sprintf("trip_id=%d", id))
	s.changed()
	return nil
}

func (s TripService) CreateSlot(tripID int64, slot models.TripSlot) (models.TripSlot, error) {
	if _, err := s.Trips.GetByID(tripID); err != nil {
		return slot, repoErr("trip", err)
	}
	if slot.TotalSeats <= 0 {
		return slot, domain.ValidationError{Field: "total_seats", Msg: "total_seats must be greater than 0"}
	}
	if slot.Price < 0 {
		return slot, domain.ValidationError{Field: "price", Msg: "price must not be negative"}
	}
	if _, err := utils.ParseDate(slot.Date); err != nil {
		return slot, domain.ValidationError{Field: "date", Msg: "date must be YYYY-MM-DD"}
	}
	slot.TripID = tripID
	if slot.AvailableSeats <= 0 || slot.AvailableSeats > slot.TotalSeats {
		slot.AvailableSeats = slot.TotalSeats
	}
	slot.Status = models.SlotStatusFor(slot.AvailableSeats, slot.TotalSeats)
	id, err := s.Trips.CreateSlot(slot)
	if err != nil {
		return slot, repoErr("slot", err)
	}
	utils.LogEvent(s.RequestID, "trips", "create_slot", fmt.Sprintf("trip_id=%d slot_id=%d", tripID, id))
	s.changed()
	created, err := s.Trips.GetSlot(id)
	return created, repoErr("slot", err)
}

func (s TripService) PutSeatMap(slotID int64, m models.SeatMap) (models.SeatMap, error) {
	if _, err := s.Trips.GetSlot(slotID); err != nil {
		return m, repoErr("slot", err)
	}
	seen := map[string]bool{}
	for _, seat := range m.Seats {
		id := strings.TrimSpace(seat.ID)
		if id == "" {
			return m, domain.ValidationError{Field: "seats", Msg: "every seat needs an id"}
		}
		if seen[id] {
			return m, domain.ValidationError{Field: "seats", Msg: "duplicate seat id " + id}
		}
		seen[id] = true
	}
	m.SlotID = slotID
	if err := s.Trips.UpsertSeatMap(m); err != nil {
		return m, repoErr("seat map", err)
	}
	utils.LogEvent(s.RequestID, "trips", "put_seatmap", fmt.Sprintf("slot_id=%d seats=%d", slotID, len(m.Seats)))
	saved, err := s.Trips.GetSeatMap(slotID)
	return saved, repoErr("seat map", err)
}
