package models

import (
	"encoding/json"
	"time"
)

const (
	TripStatusDraft     = "draft"
	TripStatusPublished = "published"
	TripStatusArchived  = "archived"

	SlotAvailable   = "available"
	SlotFillingFast = "filling_fast"
	SlotSoldOut     = "sold_out"

	SeatBlocked = "blocked"
)

var (
	TripCategories   = []string{"cultural", "adventure", "spiritual", "beach", "trekking", "mixed"}
	FeaturedStatuses = []string{"featured", "popular", "both", "none"}
	Difficulties     = []string{"easy", "moderate", "challenging"}
	TripStatuses     = []string{TripStatusDraft, TripStatusPublished, TripStatusArchived}
)

type Trip struct {
	ID              int64           `json:"id"`
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	Subtitle        string          `json:"subtitle"`
	Description     string          `json:"description"`
	Overview        string          `json:"overview"`
	Images          []string        `json:"images"`
	Price           float64         `json:"price"`
	OriginalPrice   *float64        `json:"original_price,omitempty"`
	GSTPercentage   float64         `json:"gst_percentage"`
	Duration        string          `json:"duration"`
	Tags            []string        `json:"tags"`
	Category        string          `json:"category"`
	FeaturedStatus  string          `json:"featured_status"`
	Difficulty      string          `json:"difficulty"`
	Rating          float64         `json:"rating"`
	ReviewCount     int             `json:"review_count"`
	Inclusions      []string        `json:"inclusions"`
	Exclusions      []string        `json:"exclusions"`
	ThingsToCarry   []string        `json:"things_to_carry"`
	ImportantPoints []string        `json:"important_points"`
	WhoCanAttend    string          `json:"who_can_attend"`
	Itinerary       json.RawMessage `json:"itinerary,omitempty"`
	ContactInfo     json.RawMessage `json:"contact_info,omitempty"`
	BankDetails     json.RawMessage `json:"bank_details,omitempty"`
	Notes           string          `json:"notes"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasTags reports whether the trip carries every tag in want.
func (t Trip) HasTags(want []string) bool {
	have := make(map[string]bool, len(t.Tags))
	for _, tag := range t.Tags {
		have[tag] = true
	}
	for _, tag := range want {
		if !have[tag] {
			return false
		}
	}
	return true
}

// TripFilter holds the public catalog query parameters.
type TripFilter struct {
	Tags     []string
	Category string
	Featured string
	Search   string
}

type TripSlot struct {
	ID             int64     `json:"id"`
	TripID         int64     `json:"trip_id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	VehicleType    string    `json:"vehicle_type"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
	Price          float64   `json:"price"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// SlotStatusFor derives the slot status from remaining availability.
func SlotStatusFor(available, total int) string {
	if available <= 0 {
		return SlotSoldOut
	}
	if total > 0 && float64(available) <= float64(total)*0.2 {
		return SlotFillingFast
	}
	return SlotAvailable
}

type Seat struct {
	ID     string `json:"id"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type SeatMap struct {
	ID      int64  `json:"id"`
	SlotID  int64  `json:"slot_id"`
	Vehicle string `json:"vehicle"`
	Rows    int    `json:"rows"`
	Cols    int    `json:"cols"`
	Seats   []Seat `json:"seats"`
}

// BlockedSeats returns the ids of seats that can never be sold.
func (m SeatMap) BlockedSeats() []string {
	out := []string{}
	for _, s := range m.Seats {
		if s.Status == SeatBlocked {
			out = append(out, s.ID)
		}
	}
	return out
}

// SeatMapView is the seat map plus the live seat partition.
type SeatMapView struct {
	SeatMap   SeatMap  `json:"seatMap"`
	Available []string `json:"available"`
	Locked    []string `json:"locked"`
	Booked    []string `json:"booked"`
	Blocked   []string `json:"blocked"`
}
