package models

import "time"

type AdminOverview struct {
	TotalBookings   int     `json:"total_bookings"`
	TotalRevenue    float64 `json:"total_revenue"`
	ActiveUsers     int     `json:"active_users"`
	AvgRating       float64 `json:"avg_rating"`
	MonthlyGrowth   float64 `json:"monthly_growth"`
	PendingBookings int     `json:"pending_bookings"`
}

type RecentBooking struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"user_name"`
	TripTitle string    `json:"trip_title"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Seats     int       `json:"seats"`
	CreatedAt time.Time `json:"created_at"`
}

type TripPerformance struct {
	TripID        int64   `json:"trip_id"`
	Title         string  `json:"title"`
	BookingsCount int     `json:"bookings_count"`
	Revenue       float64 `json:"revenue"`
	Rating        float64 `json:"rating"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

type AgentStatus struct {
	AgentType       string  `json:"agent_type"`
	Chats           int     `json:"chats"`
	AvgResponseSecs float64 `json:"avg_response_seconds"`
}

type UserOverview struct {
	TotalTrips    int     `json:"total_trips"`
	TotalSpent    float64 `json:"total_spent"`
	LoyaltyPoints int     `json:"loyalty_points"`
	AvgRating     float64 `json:"avg_rating"`
}

// LoyaltyPoints is 100 per trip plus one per 100 spent.
func LoyaltyPoints(trips int, spent float64) int {
	return trips*100 + int(spent/100)
}

type TravelInsights struct {
	SpentThisYear     float64   `json:"spent_this_year"`
	FavouriteCategory string    `json:"favourite_category"`
	UpcomingTrips     []Booking `json:"upcoming_trips"`
}

type Activity struct {
	ID           int64     `json:"id"`
	ActivityType string    `json:"activity_type"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	UserID       *int64    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
