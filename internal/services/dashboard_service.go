package services

import (
	"encoding/json"
	"fmt"
	"math"

	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/events"
	"adventurebuddha/internal/realtime"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"
)

const (
	recentBookingsLimit = 10
	activitiesLimit     = 20
)

type DashboardService struct {
	Dashboard repositories.DashboardRepository
	Bookings  repositories.BookingRepository
	RequestID string
	Now       clock
}

// MonthlyGrowth is the percentage change of this month's revenue against the
// previous month, 0 when there was no previous revenue.
func MonthlyGrowth(thisMonth, lastMonth float64) float64 {
	if lastMonth == 0 {
		return 0
	}
	return utils.RoundTo((thisMonth-lastMonth)/lastMonth*100, 2)
}

// Occupancy is booked/total seats as a percentage capped at 100.
func Occupancy(booked, total int) float64 {
	if total <= 0 {
		return 0
	}
	return utils.RoundTo(math.Min(float64(booked)/float64(total)*100, 100), 2)
}

func (s DashboardService) AdminOverview() (models.AdminOverview, error) {
	o, w, err := s.Dashboard.AdminTotals(utils.MonthStart(s.Now.now()))
	if err != nil {
		return o, repoErr("dashboard", err)
	}
	o.MonthlyGrowth = MonthlyGrowth(w.ThisMonth, w.LastMonth)
	o.AvgRating = utils.RoundTo(o.AvgRating, 2)
	return o, nil
}

func (s DashboardService) RecentBookings() ([]models.RecentBooking, error) {
	out, err := s.Dashboard.RecentBookings(recentBookingsLimit)
	return out, repoErr("booking", err)
}

func (s DashboardService) TripPerformance() ([]models.TripPerformance, error) {
	rows, err := s.Dashboard.TripPerformance(utils.MonthStart(s.Now.now()))
	if err != nil {
		return nil, repoErr("trip", err)
	}
	out := make([]models.TripPerformance, 0, len(rows))
	for _, r := range rows {
		p := r.TripPerformance
		p.OccupancyRate = Occupancy(r.BookedSeats, r.TotalSeats)
		out = append(out, p)
	}
	return out, nil
}

func (s DashboardService) AgentStatus() ([]models.AgentStatus, error) {
	out, err := s.Dashboard.AgentStatus(s.Now.now().AddDate(0, 0, -30))
	return out, repoErr("agent status", err)
}

func (s DashboardService) Activities() ([]models.Activity, error) {
	out, err := s.Dashboard.Activities(activitiesLimit)
	return out, repoErr("activity", err)
}

func (s DashboardService) UserOverview(userID int64) (models.UserOverview, error) {
	o, err := s.Dashboard.UserTotals(userID)
	if err != nil {
		return o, repoErr("dashboard", err)
	}
	o.LoyaltyPoints = models.LoyaltyPoints(o.TotalTrips, o.TotalSpent)
	o.AvgRating = utils.RoundTo(o.AvgRating, 2)
	return o, nil
}

func (s DashboardService) UserBookings(userID int64) ([]models.Booking, error) {
	out, err := s.Bookings.ListByUser(userID)
	return out, repoErr("booking", err)
}

func (s DashboardService) TravelInsights(userID int64) (models.TravelInsights, error) {
	now := s.Now.now()
	var in models.TravelInsights
	var err error
	if in.SpentThisYear, err = s.Dashboard.SpentSince(userID, utils.YearStart(now)); err != nil {
		return in, repoErr("dashboard", err)
	}
	if in.FavouriteCategory, err = s.Dashboard.FavouriteCategory(userID); err != nil {
		return in, repoErr("dashboard", err)
	}
	if in.UpcomingTrips, err = s.Dashboard.UpcomingBookings(userID, now); err != nil {
		return in, repoErr("booking", err)
	}
	return in, nil
}

// Snapshot is the payload pushed over the dashboard websocket.
type Snapshot struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

type AdminSnapshot struct {
	Overview        models.AdminOverview     `json:"overview"`
	RecentBookings  []models.RecentBooking   `json:"recent_bookings"`
	TripPerformance []models.TripPerformance `json:"trip_performance"`
	AgentStatus     []models.AgentStatus     `json:"agent_status"`
}

type UserSnapshot struct {
	Overview models.UserOverview `json:"overview"`
	Bookings []models.Booking    `json:"bookings"`
}

func (s DashboardService) snapshot(data any) Snapshot {
	return Snapshot{Type: "dashboard_update", Data: data, Timestamp: utils.FormatDateTime(s.Now.now())}
}

func (s DashboardService) AdminSnapshot() (Snapshot, error) {
	var d AdminSnapshot
	var err error
	if d.Overview, err = s.AdminOverview(); err != nil {
		return Snapshot{}, err
	}
	if d.RecentBookings, err = s.RecentBookings(); err != nil {
		return Snapshot{}, err
	}
	if d.TripPerformance, err = s.TripPerformance(); err != nil {
		return Snapshot{}, err
	}
	if d.AgentStatus, err = s.AgentStatus(); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(d), nil
}

func (s DashboardService) UserSnapshot(userID int64) (Snapshot, error) {
	var d UserSnapshot
	var err error
	if d.Overview, err = s.UserOverview(userID); err != nil {
		return Snapshot{}, err
	}
	if d.Bookings, err = s.UserBookings(userID); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(d), nil
}

// ActivityRecorder turns domain events into dashboard activities and pushes
// them to connected dashboards.
type ActivityRecorder struct {
	Dashboard DashboardService
	Notifier  Notifier
}

var activityTypes = map[string]string{
	events.BookingCreated:    "booking",
	events.BookingCancelled:  "cancellation",
	events.PaymentCompleted:  "payment",
	events.LeadCreated:       "lead",
	events.CampaignCompleted: "campaign",
}

// Handle implements events.Handler.
func (r ActivityRecorder) Handle(routingKey string, body []byte) error {
	var ev events.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	kind, ok := activityTypes[routingKey]
	if !ok {
		return nil
	}
	a := models.Activity{ActivityType: kind, Title: ev.Title, Description: ev.Description}
	if ev.UserID > 0 {
		uid := ev.UserID
		a.UserID = &uid
	}
	id, err := r.Dashboard.Dashboard.CreateActivity(a)
	if err != nil {
		return err
	}
	a.ID = id
	a.CreatedAt = r.Dashboard.Now.now()

	n := notifierOr(r.Notifier)
	n.Broadcast(realtime.AdminDashboardGroup, map[string]any{
		"type":      "activity_update",
		"activity":  a,
		"timestamp": utils.FormatDateTime(a.CreatedAt),
	})
	if ev.UserID > 0 {
		if snap, err := r.Dashboard.UserSnapshot(ev.UserID); err == nil {
			n.Broadcast(realtime.UserDashboardGroup(ev.UserID), snap)
		}
		n.Broadcast(realtime.NotificationsGroup(ev.UserID), map[string]any{
			"type":         "notification",
			"notification": map[string]any{"title": ev.Title, "message": ev.Description, "kind": kind},
			"timestamp":    utils.FormatDateTime(a.CreatedAt),
		})
	}
	utils.LogEvent(utils.WorkerTag("activity"), "dashboard", "activity", fmt.Sprintf("type=%s id=%d", kind, id))
	return nil
}
