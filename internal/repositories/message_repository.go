package repositories

import (
	"database/sql"
	"time"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

const messageColumns = `m.id, m.campaign_id, m.contact_id, m.content, m.attachment_url, m.status, m.provider_message_id,
	COALESCE(m.error_message,''), m.retry_count, m.max_retries, m.sent_at, m.delivered_at, m.created_at,
	COALESCE(ct.phone_number,''), COALESCE(ct.name,'')`

const messageJoins = ` FROM messages m LEFT JOIN contacts ct ON ct.id = m.contact_id`

type MessageRepository struct {
	DB *sql.DB
}

func (r MessageRepository) db() *sql.DB { return pickDB(r.DB) }

func scanMessage(s scanner) (models.Message, error) {
	var m models.Message
	var sent, delivered sql.NullTime
	err := s.Scan(&m.ID, &m.CampaignID, &m.ContactID, &m.Content, &m.AttachmentURL, &m.Status, &m.ProviderMessageID,
		&m.ErrorMessage, &m.RetryCount, &m.MaxRetries, &sent, &delivered, &m.CreatedAt,
		&m.PhoneNumber, &m.ContactName)
	m.SentAt = timePtr(sent)
	m.DeliveredAt = timePtr(delivered)
	return m, err
}

func (r MessageRepository) query(query string, args ...any) ([]models.Message, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Queued returns up to limit queued messages of a campaign in insertion order.
func (r MessageRepository) Queued(campaignID int64, limit int) ([]models.Message, error) {
	return r.query(`SELECT `+messageColumns+messageJoins+` WHERE m.campaign_id=? AND m.status=? ORDER BY m.id ASC LIMIT ?`,
		campaignID, models.MessageQueued, limit)
}

func (r MessageRepository) ListByCampaign(campaignID int64, status string) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + messageJoins + ` WHERE m.campaign_id=?`
	args := []any{campaignID}
	if status != "" {
		query += ` AND m.status=?`
		args = append(args, status)
	}
	return r.query(query+` ORDER BY m.id ASC`, args...)
}

func (r MessageRepository) ListForUser(userID int64, status string) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + messageJoins + ` JOIN message_campaigns c ON c.id = m.campaign_id WHERE c.created_by=?`
	args := []any{userID}
	if status != "" {
		query += ` AND m.status=?`
		args = append(args, status)
	}
	return r.query(query+` ORDER BY m.id DESC`, args...)
}

func (r MessageRepository) Get(id int64) (models.Message, error) {
	db := r.db()
	if db == nil {
		return models.Message{}, ErrDBUnavailable
	}
	return scanMessage(db.QueryRow(`SELECT `+messageColumns+messageJoins+` WHERE m.id=? LIMIT 1`, id))
}

func (r MessageRepository) GetForUser(id, userID int64) (models.Message, error) {
	db := r.db()
	if db == nil {
		return models.Message{}, ErrDBUnavailable
	}
	return scanMessage(db.QueryRow(`SELECT `+messageColumns+messageJoins+` JOIN message_campaigns c ON c.id = m.campaign_id
		WHERE m.id=? AND c.created_by=? LIMIT 1`, id, userID))
}

func (r MessageRepository) MarkSending(id int64) error {
	return r.exec(`UPDATE messages SET status=? WHERE id=?`, models.MessageSending, id)
}

func (r MessageRepository) MarkSent(id int64, providerID string, at time.Time) error {
	return r.exec(`UPDATE messages SET status=?, provider_message_id=?, sent_at=?, error_message=NULL WHERE id=?`,
		models.MessageSent, providerID, at, id)
}

func (r MessageRepository) MarkFailed(id int64, reason string) error {
	return r.exec(`UPDATE messages SET status=?, error_message=?, retry_count=retry_count+1 WHERE id=?`,
		models.MessageFailed, reason, id)
}

func (r MessageRepository) Requeue(id int64) error {
	return r.exec(`UPDATE messages SET status=? WHERE id=?`, models.MessageQueued, id)
}

func (r MessageRepository) MarkDelivered(providerID string, at time.Time) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	var id, campaignID int64
	if err := db.QueryRow(`SELECT id, campaign_id FROM messages WHERE provider_message_id=? LIMIT 1`, providerID).Scan(&id, &campaignID); err != nil {
		return 0, err
	}
	if err := r.exec(`UPDATE messages SET status=?, delivered_at=? WHERE id=?`, models.MessageDelivered, at, id); err != nil {
		return 0, err
	}
	return campaignID, nil
}

func (r MessageRepository) exec(query string, args ...any) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(query, args...)
	return err
}

func (r MessageRepository) AddLog(messageID int64, event string, details map[string]any) error {
	return r.exec(`INSERT INTO message_logs (message_id, event, details) VALUES (?,?,?)`, messageID, event, intdb.MustJSON(details))
}

func (r MessageRepository) ListLogs(userID int64, messageID int64) ([]models.MessageLog, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	query := `SELECT l.id, l.message_id, l.event, l.details, l.created_at
		FROM message_logs l
		JOIN messages m ON m.id = l.message_id
		JOIN message_campaigns c ON c.id = m.campaign_id
		WHERE c.created_by=?`
	args := []any{userID}
	if messageID > 0 {
		query += ` AND l.message_id=?`
		args = append(args, messageID)
	}
	rows, err := db.Query(query+` ORDER BY l.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.MessageLog{}
	for rows.Next() {
		var l models.MessageLog
		var details sql.NullString
		if err := rows.Scan(&l.ID, &l.MessageID, &l.Event, &details, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Details = map[string]any{}
		if err := intdb.ScanJSON(details, &l.Details); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type AutomatedAnalytics struct {
	TotalMessages int `json:"total_messages"`
	Sent          int `json:"sent"`
	Delivered     int `json:"delivered"`
	Failed        int `json:"failed"`
	Incoming      int `json:"incoming"`
	Replied       int `json:"replied"`
}

// Automated summarizes automated campaign traffic and inbound replies since a point in time.
func (r MessageRepository) Automated(since time.Time) (AutomatedAnalytics, error) {
	db := r.db()
	var a AutomatedAnalytics
	if db == nil {
		return a, ErrDBUnavailable
	}
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(m.status IN ('sent','delivered','read')),0),
			COALESCE(SUM(m.status IN ('delivered','read')),0),
			COALESCE(SUM(m.status='failed'),0)
		FROM messages m
		JOIN message_campaigns c ON c.id = m.campaign_id
		WHERE c.campaign_type=? AND m.created_at >= ?
	`, models.CampaignAutomated, since).Scan(&a.TotalMessages, &a.Sent, &a.Delivered, &a.Failed)
	if err != nil {
		return a, err
	}
	err = db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(reply IS NOT NULL AND reply <> ''),0)
		FROM incoming_messages WHERE created_at >= ?
	`, since).Scan(&a.Incoming, &a.Replied)
	return a, err
}

func (r MessageRepository) CreateIncoming(in models.IncomingMessage) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`INSERT INTO incoming_messages (contact_id, provider_message_id, message_type, body) VALUES (?,?,?,?)`,
		in.ContactID, in.ProviderMessageID, in.MessageType, in.Body)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r MessageRepository) FinishIncoming(id int64, intent, reply string, at time.Time) error {
	return r.exec(`UPDATE incoming_messages SET intent=?, reply=?, processed_at=? WHERE id=?`, intent, reply, at, id)
}
