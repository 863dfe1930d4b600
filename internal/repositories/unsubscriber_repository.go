package repositories

import (
	"database/sql"

	"adventurebuddha/internal/domain/models"
)

type UnsubscriberRepository struct {
	DB *sql.DB
}

func (r UnsubscriberRepository) db() *sql.DB { return pickDB(r.DB) }

func (r UnsubscriberRepository) List() ([]models.Unsubscriber, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT id, phone_number, reason, created_at FROM unsubscribers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Unsubscriber{}
	for rows.Next() {
		var u models.Unsubscriber
		if err := rows.Scan(&u.ID, &u.PhoneNumber, &u.Reason, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Add records an opt-out; repeating it only refreshes the reason.
func (r UnsubscriberRepository) Add(phone, reason string) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`INSERT INTO unsubscribers (phone_number, reason) VALUES (?,?) ON DUPLICATE KEY UPDATE reason=VALUES(reason)`, phone, reason)
	return err
}

// Set returns all opted-out numbers for fast membership checks.
func (r UnsubscriberRepository) Set() (map[string]bool, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT phone_number FROM unsubscribers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = true
	}
	return out, rows.Err()
}
