package repositories

import (
	"database/sql"
	"time"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

const campaignColumns = `id, name, template_id, message_content, attachment_url, contact_list_id, status, campaign_type,
	personalization_rules, delay_between_messages, batch_size, total_messages, sent_messages, delivered_messages,
	failed_messages, pending_messages, current_batch, last_message_sent_at, scheduled_at, started_at, completed_at,
	created_by, created_at, updated_at`

type CampaignRepository struct {
	DB *sql.DB
}

func (r CampaignRepository) db() *sql.DB { return pickDB(r.DB) }

func scanCampaign(s scanner) (models.MessageCampaign, error) {
	var c models.MessageCampaign
	var templateID sql.NullInt64
	var rules sql.NullString
	var lastSent, scheduled, started, completed sql.NullTime
	err := s.Scan(&c.ID, &c.Name, &templateID, &c.MessageContent, &c.AttachmentURL, &c.ContactListID, &c.Status, &c.CampaignType,
		&rules, &c.DelayBetweenMessages, &c.BatchSize, &c.TotalMessages, &c.SentMessages, &c.DeliveredMessages,
		&c.FailedMessages, &c.PendingMessages, &c.CurrentBatch, &lastSent, &scheduled, &started, &completed,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.TemplateID = int64Ptr(templateID)
	c.LastMessageSentAt = timePtr(lastSent)
	c.ScheduledAt = timePtr(scheduled)
	c.StartedAt = timePtr(started)
	c.CompletedAt = timePtr(completed)
	c.PersonalizationRules = map[string]string{}
	return c, intdb.ScanJSON(rules, &c.PersonalizationRules)
}

// CreateWithMessages inserts the campaign and its queued messages together.
func (r CampaignRepository) CreateWithMessages(c models.MessageCampaign, msgs []models.Message) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO message_campaigns (name, template_id, message_content, attachment_url, contact_list_id, status,
			campaign_type, personalization_rules, delay_between_messages, batch_size, total_messages, pending_messages,
			scheduled_at, created_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, c.Name, nullInt64(c.TemplateID), c.MessageContent, c.AttachmentURL, c.ContactListID, c.Status,
		c.CampaignType, intdb.MustJSON(c.PersonalizationRules), c.DelayBetweenMessages, c.BatchSize, len(msgs), len(msgs),
		nullTime(c.ScheduledAt), c.CreatedBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if len(msgs) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO messages (campaign_id, contact_id, content, attachment_url, status, max_retries) VALUES (?,?,?,?,?,?)`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		for _, m := range msgs {
			if _, err := stmt.Exec(id, m.ContactID, m.Content, m.AttachmentURL, models.MessageQueued, models.DefaultMaxRetries); err != nil {
				return 0, err
			}
		}
	}
	return id, tx.Commit()
}

func (r CampaignRepository) Get(id int64) (models.MessageCampaign, error) {
	db := r.db()
	if db == nil {
		return models.MessageCampaign{}, ErrDBUnavailable
	}
	return scanCampaign(db.QueryRow(`SELECT `+campaignColumns+` FROM message_campaigns WHERE id=? LIMIT 1`, id))
}

func (r CampaignRepository) GetForUser(id, userID int64) (models.MessageCampaign, error) {
	db := r.db()
	if db == nil {
		return models.MessageCampaign{}, ErrDBUnavailable
	}
	return scanCampaign(db.QueryRow(`SELECT `+campaignColumns+` FROM message_campaigns WHERE id=? AND created_by=? LIMIT 1`, id, userID))
}

func (r CampaignRepository) List(userID int64) ([]models.MessageCampaign, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT `+campaignColumns+` FROM message_campaigns WHERE created_by=? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.MessageCampaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r CampaignRepository) Delete(id, userID int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.Exec(`DELETE FROM message_campaigns WHERE id=? AND created_by=?`, id, userID)
	if err != nil {
		return err
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM messages WHERE campaign_id=?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SetStatus changes status; non-nil started/completed timestamps are written too.
func (r CampaignRepository) SetStatus(id int64, status string, started, completed *time.Time) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`
		UPDATE message_campaigns
		SET status=?, started_at=COALESCE(?, started_at), completed_at=COALESCE(?, completed_at)
		WHERE id=?
	`, status, nullTime(started), nullTime(completed), id)
	return err
}

// RecordSend updates the counters after one message attempt.
func (r CampaignRepository) RecordSend(id int64, sent bool, at time.Time) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	query := `UPDATE message_campaigns SET failed_messages=failed_messages+1, pending_messages=GREATEST(pending_messages-1,0) WHERE id=?`
	args := []any{id}
	if sent {
		query = `UPDATE message_campaigns SET sent_messages=sent_messages+1, pending_messages=GREATEST(pending_messages-1,0), last_message_sent_at=? WHERE id=?`
		args = []any{at, id}
	}
	_, err := db.Exec(query, args...)
	return err
}

// RecordRetry puts a failed message back into the pending count.
func (r CampaignRepository) RecordRetry(id int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE message_campaigns SET failed_messages=GREATEST(failed_messages-1,0), pending_messages=pending_messages+1 WHERE id=?`, id)
	return err
}

func (r CampaignRepository) NextBatch(id int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE message_campaigns SET current_batch=current_batch+1 WHERE id=?`, id)
	return err
}

func (r CampaignRepository) MarkDelivered(id int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE message_campaigns SET delivered_messages=delivered_messages+1 WHERE id=?`, id)
	return err
}

// Stats aggregates the caller's campaigns. SuccessRate is derived by the caller.
func (r CampaignRepository) Stats(userID int64) (models.MessagingStats, error) {
	db := r.db()
	var st models.MessagingStats
	if db == nil {
		return st, ErrDBUnavailable
	}
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(status IN ('running','scheduled')),0),
			COALESCE(SUM(status='completed'),0),
			COALESCE(SUM(sent_messages),0),
			COALESCE(SUM(failed_messages),0)
		FROM message_campaigns WHERE created_by=?
	`, userID).Scan(&st.TotalCampaigns, &st.ActiveCampaigns, &st.CompletedCampaigns, &st.TotalMessagesSent, &st.TotalMessagesFailed)
	return st, err
}

// Runnable lists campaigns the sender should pick up after a restart.
func (r CampaignRepository) Runnable() ([]int64, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT id FROM message_campaigns WHERE status IN ('running','scheduled') ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r CampaignRepository) CreateReport(rep models.CampaignReport) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`INSERT INTO campaign_reports (campaign_id, report_type, file_path, generated_by) VALUES (?,?,?,?)`,
		rep.CampaignID, rep.ReportType, rep.FilePath, rep.GeneratedBy)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r CampaignRepository) ListReports(userID int64) ([]models.CampaignReport, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`
		SELECT r.id, r.campaign_id, r.report_type, r.file_path, r.generated_by, r.created_at
		FROM campaign_reports r
		JOIN message_campaigns c ON c.id = r.campaign_id
		WHERE c.created_by=? ORDER BY r.created_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.CampaignReport{}
	for rows.Next() {
		var rep models.CampaignReport
		if err := rows.Scan(&rep.ID, &rep.CampaignID, &rep.ReportType, &rep.FilePath, &rep.GeneratedBy, &rep.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r CampaignRepository) GetReport(id, userID int64) (models.CampaignReport, error) {
	db := r.db()
	var rep models.CampaignReport
	if db == nil {
		return rep, ErrDBUnavailable
	}
	err := db.QueryRow(`
		SELECT r.id, r.campaign_id, r.report_type, r.file_path, r.generated_by, r.created_at
		FROM campaign_reports r
		JOIN message_campaigns c ON c.id = r.campaign_id
		WHERE r.id=? AND c.created_by=? LIMIT 1
	`, id, userID).Scan(&rep.ID, &rep.CampaignID, &rep.ReportType, &rep.FilePath, &rep.GeneratedBy, &rep.CreatedAt)
	return rep, err
}
