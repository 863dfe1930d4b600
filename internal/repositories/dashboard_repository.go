package repositories

import (
	"database/sql"
	"errors"
	"time"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

type DashboardRepository struct {
	DB *sql.DB
}

func (r DashboardRepository) db() *sql.DB { return pickDB(r.DB) }

// RevenueWindow holds completed-payment revenue for this and the previous month.
type RevenueWindow struct {
	ThisMonth float64
	LastMonth float64
}

// AdminTotals fills the raw overview counters. Growth is derived by the caller.
func (r DashboardRepository) AdminTotals(monthStart time.Time) (models.AdminOverview, RevenueWindow, error) {
	db := r.db()
	var o models.AdminOverview
	var w RevenueWindow
	if db == nil {
		return o, w, ErrDBUnavailable
	}
	prevStart := monthStart.AddDate(0, -1, 0)
	err := db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM bookings WHERE status IN ('confirmed','completed')),
			(SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='completed'),
			(SELECT COUNT(*) FROM users WHERE status='active'),
			(SELECT COUNT(*) FROM bookings WHERE status='pending_payment'),
			(SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='completed' AND updated_at >= ?),
			(SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='completed' AND updated_at >= ? AND updated_at < ?)
	`, monthStart, prevStart, monthStart).Scan(&o.TotalBookings, &o.TotalRevenue, &o.ActiveUsers, &o.PendingBookings, &w.ThisMonth, &w.LastMonth)
	if err != nil {
		return o, w, err
	}
	o.AvgRating, err = r.avgRating(db, 0)
	return o, w, err
}

// avgRating averages booking ratings, optionally for one user. Databases
// created before ratings existed have no rating column and report 0.
func (r DashboardRepository) avgRating(db *sql.DB, userID int64) (float64, error) {
	if !intdb.HasColumn(db, "bookings", "rating") {
		return 0, nil
	}
	query := `SELECT COALESCE(AVG(rating),0) FROM bookings WHERE rating IS NOT NULL`
	args := []any{}
	if userID > 0 {
		query += ` AND user_id=?`
		args = append(args, userID)
	}
	var avg float64
	err := db.QueryRow(query, args...).Scan(&avg)
	return avg, err
}

func (r DashboardRepository) RecentBookings(limit int) ([]models.RecentBooking, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`
		SELECT b.id, COALESCE(NULLIF(u.name,''), u.username, ''), COALESCE(t.title,''), b.amount, b.status,
			COALESCE(JSON_LENGTH(b.seat_ids),0), b.created_at
		FROM bookings b
		LEFT JOIN users u ON u.id = b.user_id
		LEFT JOIN trip_slots s ON s.id = b.slot_id
		LEFT JOIN trips t ON t.id = s.trip_id
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.RecentBooking{}
	for rows.Next() {
		var b models.RecentBooking
		if err := rows.Scan(&b.ID, &b.UserName, &b.TripTitle, &b.Amount, &b.Status, &b.Seats, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TripPerformanceRow carries booked and offered seats so occupancy can be derived.
type TripPerformanceRow struct {
	models.TripPerformance
	BookedSeats int
	TotalSeats  int
}

func (r DashboardRepository) TripPerformance(since time.Time) ([]TripPerformanceRow, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`
		SELECT t.id, t.title, COUNT(b.id), COALESCE(SUM(b.amount),0), t.rating,
			COALESCE(SUM(JSON_LENGTH(b.seat_ids)),0),
			(SELECT COALESCE(SUM(s2.total_seats),0) FROM trip_slots s2 WHERE s2.trip_id = t.id)
		FROM trips t
		JOIN trip_slots s ON s.trip_id = t.id
		JOIN bookings b ON b.slot_id = s.id
		WHERE b.status IN ('confirmed','completed') AND b.created_at >= ?
		GROUP BY t.id, t.title, t.rating
		ORDER BY SUM(b.amount) DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TripPerformanceRow{}
	for rows.Next() {
		var p TripPerformanceRow
		if err := rows.Scan(&p.TripID, &p.Title, &p.BookingsCount, &p.Revenue, &p.Rating, &p.BookedSeats, &p.TotalSeats); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r DashboardRepository) AgentStatus(since time.Time) ([]models.AgentStatus, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`
		SELECT agent_type, COUNT(*), COALESCE(AVG(response_seconds),0)
		FROM chat_messages
		WHERE message_type='agent' AND created_at >= ?
		GROUP BY agent_type
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.AgentStatus{}
	for rows.Next() {
		var s models.AgentStatus
		if err := rows.Scan(&s.AgentType, &s.Chats, &s.AvgResponseSecs); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r DashboardRepository) UserTotals(userID int64) (models.UserOverview, error) {
	db := r.db()
	var o models.UserOverview
	if db == nil {
		return o, ErrDBUnavailable
	}
	err := db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM bookings WHERE user_id=? AND status IN ('confirmed','completed')),
			(SELECT COALESCE(SUM(amount),0) FROM payments WHERE user_id=? AND status='completed')
	`, userID, userID).Scan(&o.TotalTrips, &o.TotalSpent)
	if err != nil {
		return o, err
	}
	o.AvgRating, err = r.avgRating(db, userID)
	return o, err
}

func (r DashboardRepository) SpentSince(userID int64, since time.Time) (float64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	var spent float64
	err := db.QueryRow(`SELECT COALESCE(SUM(amount),0) FROM payments WHERE user_id=? AND status='completed' AND updated_at >= ?`, userID, since).Scan(&spent)
	return spent, err
}

func (r DashboardRepository) FavouriteCategory(userID int64) (string, error) {
	db := r.db()
	if db == nil {
		return "", ErrDBUnavailable
	}
	var category string
	err := db.QueryRow(`
		SELECT t.category
		FROM bookings b
		JOIN trip_slots s ON s.id = b.slot_id
		JOIN trips t ON t.id = s.trip_id
		WHERE b.user_id=? AND b.status IN ('confirmed','completed')
		GROUP BY t.category
		ORDER BY COUNT(*) DESC, t.category ASC
		LIMIT 1
	`, userID).Scan(&category)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return category, err
}

func (r DashboardRepository) UpcomingBookings(userID int64, from time.Time) ([]models.Booking, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT `+bookingColumns+bookingJoins+`
		WHERE b.user_id=? AND b.status IN ('pending_payment','confirmed') AND s.date >= ?
		ORDER BY s.date ASC, b.id ASC`, userID, from.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r DashboardRepository) CreateActivity(a models.Activity) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`INSERT INTO dashboard_activities (activity_type, title, description, user_id) VALUES (?,?,?,?)`,
		a.ActivityType, a.Title, a.Description, nullInt64(a.UserID))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r DashboardRepository) Activities(limit int) ([]models.Activity, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT id, activity_type, title, COALESCE(description,''), user_id, created_at FROM dashboard_activities ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		var uid sql.NullInt64
		if err := rows.Scan(&a.ID, &a.ActivityType, &a.Title, &a.Description, &uid, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.UserID = int64Ptr(uid)
		out = append(out, a)
	}
	return out, rows.Err()
}
