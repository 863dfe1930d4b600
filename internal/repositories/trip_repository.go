package repositories

import (
	"database/sql"
	"encoding/json"
	"strings"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

const tripColumns = `id, slug, title, subtitle, COALESCE(description,''), COALESCE(overview,''), images,
	price, original_price, gst_percentage, duration, tags, category, featured_status, difficulty,
	rating, review_count, inclusions, exclusions, things_to_carry, important_points,
	COALESCE(who_can_attend,''), itinerary, contact_info, bank_details, COALESCE(notes,''),
	status, created_at, updated_at`

const slotColumns = `id, trip_id, DATE_FORMAT(date,'%Y-%m-%d'), time, vehicle_type, total_seats, available_seats, price, status, created_at`

type TripRepository struct {
	DB *sql.DB
}

func (r TripRepository) db() *sql.DB { return pickDB(r.DB) }

func scanTrip(s scanner) (models.Trip, error) {
	var t models.Trip
	var images, tags, incl, excl, carry, points, itinerary, contact, bank sql.NullString
	var original sql.NullFloat64
	err := s.Scan(&t.ID, &t.Slug, &t.Title, &t.Subtitle, &t.Description, &t.Overview, &images,
		&t.Price, &original, &t.GSTPercentage, &t.Duration, &tags, &t.Category, &t.FeaturedStatus, &t.Difficulty,
		&t.Rating, &t.ReviewCount, &incl, &excl, &carry, &points,
		&t.WhoCanAttend, &itinerary, &contact, &bank, &t.Notes,
		&t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if original.Valid {
		v := original.Float64
		t.OriginalPrice = &v
	}
	for _, f := range []struct {
		raw sql.NullString
		dst *[]string
	}{{images, &t.Images}, {tags, &t.Tags}, {incl, &t.Inclusions}, {excl, &t.Exclusions}, {carry, &t.ThingsToCarry}, {points, &t.ImportantPoints}} {
		*f.dst = []string{}
		if err := intdb.ScanJSON(f.raw, f.dst); err != nil {
			return t, err
		}
	}
	t.Itinerary = rawJSON(itinerary)
	t.ContactInfo = rawJSON(contact)
	t.BankDetails = rawJSON(bank)
	return t, nil
}

func rawJSON(v sql.NullString) json.RawMessage {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	return json.RawMessage(v.String)
}

func jsonOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// List returns trips matching the SQL-expressible part of filter, newest first.
// Tag filtering is left to the caller because tags live in a JSON column.
func (r TripRepository) List(filter models.TripFilter, onlyPublished bool) ([]models.Trip, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	where := []string{"1=1"}
	args := []any{}
	if onlyPublished {
		where = append(where, "status=?")
		args = append(args, models.TripStatusPublished)
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		where = append(where, "category=?")
		args = append(args, c)
	}
	switch strings.TrimSpace(filter.Featured) {
	case "featured":
		where = append(where, "featured_status IN ('featured','both')")
	case "popular":
		where = append(where, "featured_status IN ('popular','both')")
	case "both":
		where = append(where, "featured_status='both'")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		like := "%" + strings.ToLower(s) + "%"
		args = append(args, like, like)
	}

	rows, err := db.Query(`SELECT `+tripColumns+` FROM trips WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r TripRepository) GetBySlug(slug string) (models.Trip, error) {
	db := r.db()
	if db == nil {
		return models.Trip{}, ErrDBUnavailable
	}
	return scanTrip(db.QueryRow(`SELECT `+tripColumns+` FROM trips WHERE slug=? LIMIT 1`, slug))
}

func (r TripRepository) GetByID(id int64) (models.Trip, error) {
	db := r.db()
	if db == nil {
		return models.Trip{}, ErrDBUnavailable
	}
	return scanTrip(db.QueryRow(`SELECT `+tripColumns+` FROM trips WHERE id=? LIMIT 1`, id))
}

func (r TripRepository) SlugExists(slug string, excludeID int64) (bool, error) {
	db := r.db()
	if db == nil {
		return false, ErrDBUnavailable
	}
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM trips WHERE slug=? AND id<>?`, slug, excludeID).Scan(&n)
	return n > 0, err
}

func tripArgs(t models.Trip) []any {
	var original any
	if t.OriginalPrice != nil {
		original = *t.OriginalPrice
	}
	return []any{
		t.Slug, t.Title, t.Subtitle, t.Description, t.Overview, intdb.MustJSON(t.Images),
		t.Price, original, t.GSTPercentage, t.Duration, intdb.MustJSON(t.Tags), t.Category, t.FeaturedStatus, t.Difficulty,
		t.Rating, t.ReviewCount, intdb.MustJSON(t.Inclusions), intdb.MustJSON(t.Exclusions), intdb.MustJSON(t.ThingsToCarry), intdb.MustJSON(t.ImportantPoints),
		t.WhoCanAttend, jsonOrNull(t.Itinerary), jsonOrNull(t.ContactInfo), jsonOrNull(t.BankDetails), t.Notes, t.Status,
	}
}

func (r TripRepository) Create(t models.Trip) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT INTO trips (slug, title, subtitle, description, overview, images,
			price, original_price, gst_percentage, duration, tags, category, featured_status, difficulty,
			rating, review_count, inclusions, exclusions, things_to_carry, important_points,
			who_can_attend, itinerary, contact_info, bank_details, notes, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, tripArgs(t)...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r TripRepository) Update(t models.Trip) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	args := append(tripArgs(t), t.ID)
	res, err := db.Exec(`
		UPDATE trips SET slug=?, title=?, subtitle=?, description=?, overview=?, images=?,
			price=?, original_price=?, gst_percentage=?, duration=?, tags=?, category=?, featured_status=?, difficulty=?,
			rating=?, review_count=?, inclusions=?, exclusions=?, things_to_carry=?, important_points=?,
			who_can_attend=?, itinerary=?, contact_info=?, bank_details=?, notes=?, status=?
		WHERE id=?
	`, args...)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r TripRepository) Delete(id int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	res, err := db.Exec(`DELETE FROM trips WHERE id=?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func scanSlot(s scanner) (models.TripSlot, error) {
	var sl models.TripSlot
	err := s.Scan(&sl.ID, &sl.TripID, &sl.Date, &sl.Time, &sl.VehicleType, &sl.TotalSeats, &sl.AvailableSeats, &sl.Price, &sl.Status, &sl.CreatedAt)
	return sl, err
}

func (r TripRepository) ListSlots(tripID int64) ([]models.TripSlot, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT `+slotColumns+` FROM trip_slots WHERE trip_id=? ORDER BY date ASC, time ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.TripSlot{}
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r TripRepository) GetSlot(id int64) (models.TripSlot, error) {
	db := r.db()
	if db == nil {
		return models.TripSlot{}, ErrDBUnavailable
	}
	return scanSlot(db.QueryRow(`SELECT `+slotColumns+` FROM trip_slots WHERE id=? LIMIT 1`, id))
}

func (r TripRepository) CreateSlot(s models.TripSlot) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT INTO trip_slots (trip_id, date, time, vehicle_type, total_seats, available_seats, price, status)
		VALUES (?,?,?,?,?,?,?,?)
	`, s.TripID, s.Date, s.Time, s.VehicleType, s.TotalSeats, s.AvailableSeats, s.Price, s.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r TripRepository) GetSeatMap(slotID int64) (models.SeatMap, error) {
	db := r.db()
	if db == nil {
		return models.SeatMap{}, ErrDBUnavailable
	}
	var m models.SeatMap
	var seats sql.NullString
	err := db.QueryRow("SELECT id, slot_id, vehicle, `rows`, cols, seats FROM seat_maps WHERE slot_id=? LIMIT 1", slotID).
		Scan(&m.ID, &m.SlotID, &m.Vehicle, &m.Rows, &m.Cols, &seats)
	if err != nil {
		return m, err
	}
	m.Seats = []models.Seat{}
	return m, intdb.ScanJSON(seats, &m.Seats)
}

func (r TripRepository) UpsertSeatMap(m models.SeatMap) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	seats, err := intdb.JSONColumn(m.Seats)
	if err != nil {
		return err
	}
	_, err = db.Exec("INSERT INTO seat_maps (slot_id, vehicle, `rows`, cols, seats) VALUES (?,?,?,?,?) "+
		"ON DUPLICATE KEY UPDATE vehicle=VALUES(vehicle), `rows`=VALUES(`rows`), cols=VALUES(cols), seats=VALUES(seats)",
		m.SlotID, m.Vehicle, m.Rows, m.Cols, seats)
	return err
}
