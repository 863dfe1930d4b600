package repositories

import (
	"database/sql"

	"adventurebuddha/internal/domain/models"
)

const templateColumns = `id, name, content, category, is_active, created_by, created_at, updated_at`

type TemplateRepository struct {
	DB *sql.DB
}

func (r TemplateRepository) db() *sql.DB { return pickDB(r.DB) }

func scanTemplate(s scanner) (models.MessageTemplate, error) {
	var t models.MessageTemplate
	err := s.Scan(&t.ID, &t.Name, &t.Content, &t.Category, &t.IsActive, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r TemplateRepository) List(userID int64) ([]models.MessageTemplate, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT `+templateColumns+` FROM message_templates WHERE created_by=? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.MessageTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r TemplateRepository) Get(id, userID int64) (models.MessageTemplate, error) {
	db := r.db()
	if db == nil {
		return models.MessageTemplate{}, ErrDBUnavailable
	}
	return scanTemplate(db.QueryRow(`SELECT `+templateColumns+` FROM message_templates WHERE id=? AND created_by=? LIMIT 1`, id, userID))
}

func (r TemplateRepository) Create(t models.MessageTemplate) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`INSERT INTO message_templates (name, content, category, is_active, created_by) VALUES (?,?,?,?,?)`,
		t.Name, t.Content, t.Category, t.IsActive, t.CreatedBy)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r TemplateRepository) Update(t models.MessageTemplate) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	res, err := db.Exec(`UPDATE message_templates SET name=?, content=?, category=?, is_active=? WHERE id=? AND created_by=?`,
		t.Name, t.Content, t.Category, t.IsActive, t.ID, t.CreatedBy)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r TemplateRepository) Delete(id, userID int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	res, err := db.Exec(`DELETE FROM message_templates WHERE id=? AND created_by=?`, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

type TemplatePerformance struct {
	TemplateID   int64   `json:"template_id"`
	Name         string  `json:"name"`
	Campaigns    int     `json:"campaigns"`
	AverageSent  float64 `json:"average_sent"`
	AverageTotal float64 `json:"average_total"`
}

// BestPerforming ranks the caller's templates by average sent messages per campaign.
func (r TemplateRepository) BestPerforming(userID int64, limit int) ([]TemplatePerformance, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`
		SELECT t.id, t.name, COUNT(c.id), COALESCE(AVG(c.sent_messages),0), COALESCE(AVG(c.total_messages),0)
		FROM message_templates t
		JOIN message_campaigns c ON c.template_id = t.id
		WHERE t.created_by=?
		GROUP BY t.id, t.name
		ORDER BY AVG(c.sent_messages) DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TemplatePerformance{}
	for rows.Next() {
		var p TemplatePerformance
		if err := rows.Scan(&p.TemplateID, &p.Name, &p.Campaigns, &p.AverageSent, &p.AverageTotal); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
