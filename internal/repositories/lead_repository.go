package repositories

import (
	"database/sql"
	"strings"
	"time"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

const leadColumns = `id, name, email, phone, COALESCE(destination,''), COALESCE(DATE_FORMAT(travel_date,'%Y-%m-%d'),''),
	travelers, budget, experience_level, interests, status, source, ip_address, user_agent, follow_up_date,
	COALESCE(notes,''), created_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
}

func (r LeadRepository) db() *sql.DB { return pickDB(r.DB) }

func scanLead(s scanner) (models.Lead, error) {
	var l models.Lead
	var interests sql.NullString
	var followUp sql.NullTime
	err := s.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Destination, &l.TravelDate,
		&l.Travelers, &l.Budget, &l.ExperienceLevel, &interests, &l.Status, &l.Source, &l.IPAddress, &l.UserAgent, &followUp,
		&l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return l, err
	}
	l.FollowUpDate = timePtr(followUp)
	l.Interests = []string{}
	return l, intdb.ScanJSON(interests, &l.Interests)
}

func (r LeadRepository) EmailExists(email string) (bool, error) {
	db := r.db()
	if db == nil {
		return false, ErrDBUnavailable
	}
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM leads WHERE email=?`, strings.ToLower(strings.TrimSpace(email))).Scan(&n)
	return n > 0, err
}

func (r LeadRepository) Create(l models.Lead) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT INTO leads (name, email, phone, destination, travel_date, travelers, budget, experience_level,
			interests, status, source, ip_address, user_agent, follow_up_date, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, l.Name, strings.ToLower(l.Email), l.Phone, nullIfEmpty(l.Destination), nullIfEmpty(l.TravelDate), l.Travelers, l.Budget, l.ExperienceLevel,
		intdb.MustJSON(l.Interests), l.Status, l.Source, l.IPAddress, l.UserAgent, nullTime(l.FollowUpDate), l.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r LeadRepository) GetByID(id int64) (models.Lead, error) {
	db := r.db()
	if db == nil {
		return models.Lead{}, ErrDBUnavailable
	}
	return scanLead(db.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id=? LIMIT 1`, id))
}

// List returns leads newest first, optionally filtered by status. limit <= 0
// means no limit.
func (r LeadRepository) List(status string, limit int) ([]models.Lead, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []any{}
	if status = strings.TrimSpace(status); status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r LeadRepository) UpdateStatus(id int64, status string) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	res, err := db.Exec(`UPDATE leads SET status=? WHERE id=?`, status, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r LeadRepository) UpdateNotes(id int64, notes string) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	res, err := db.Exec(`UPDATE leads SET notes=? WHERE id=?`, notes, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// Stats aggregates lead counts relative to now. ConversionRate is left for
// the caller to derive.
func (r LeadRepository) Stats(now time.Time) (models.LeadStats, int, error) {
	db := r.db()
	st := models.LeadStats{StatusBreakdown: []models.CountByKey{}, TopDestinations: []models.CountByKey{}}
	if db == nil {
		return st, 0, ErrDBUnavailable
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var converted int
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(created_at >= ?),0),
			COALESCE(SUM(created_at >= ?),0),
			COALESCE(SUM(created_at >= ?),0),
			COALESCE(SUM(status=?),0)
		FROM leads
	`, today, now.AddDate(0, 0, -7), now.AddDate(0, 0, -30), models.LeadConverted).
		Scan(&st.TotalLeads, &st.NewLeadsToday, &st.NewLeadsWeek, &st.NewLeadsMonth, &converted)
	if err != nil {
		return st, 0, err
	}

	rows, err := db.Query(`SELECT status, COUNT(*) FROM leads GROUP BY status ORDER BY status`)
	if err != nil {
		return st, 0, err
	}
	for rows.Next() {
		var c models.CountByKey
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			rows.Close()
			return st, 0, err
		}
		st.StatusBreakdown = append(st.StatusBreakdown, c)
	}
	rows.Close()

	rows, err = db.Query(`
		SELECT destination, COUNT(*) AS cnt FROM leads
		WHERE destination IS NOT NULL AND destination <> ''
		GROUP BY destination ORDER BY cnt DESC, destination ASC LIMIT 5
	`)
	if err != nil {
		return st, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var c models.CountByKey
		if err := rows.Scan(&c.Destination, &c.Count); err != nil {
			return st, 0, err
		}
		st.TopDestinations = append(st.TopDestinations, c)
	}
	return st, converted, rows.Err()
}
