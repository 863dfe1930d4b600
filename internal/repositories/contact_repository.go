package repositories

import (
	"database/sql"
	"time"

	intdb "adventurebuddha/internal/db"
	"adventurebuddha/internal/domain/models"
)

const contactListColumns = `id, name, file_name, column_mapping, total_contacts, valid_contacts, invalid_contacts,
	whatsapp_contacts, uploaded_by, processed_at, created_at`

const contactColumns = `c.id, c.contact_list_id, c.name, c.phone_number, c.email, c.status, c.whatsapp_status,
	c.custom_fields, c.conversation_history, c.last_interaction_at, c.created_at`

type ContactRepository struct {
	DB *sql.DB
}

func (r ContactRepository) db() *sql.DB { return pickDB(r.DB) }

func scanContactList(s scanner) (models.ContactList, error) {
	var l models.ContactList
	var mapping sql.NullString
	var processed sql.NullTime
	err := s.Scan(&l.ID, &l.Name, &l.FileName, &mapping, &l.TotalContacts, &l.ValidContacts, &l.InvalidContacts,
		&l.WhatsAppContacts, &l.UploadedBy, &processed, &l.CreatedAt)
	if err != nil {
		return l, err
	}
	l.ProcessedAt = timePtr(processed)
	l.ColumnMapping = map[string]string{}
	return l, intdb.ScanJSON(mapping, &l.ColumnMapping)
}

func scanContact(s scanner) (models.Contact, error) {
	var c models.Contact
	var listID sql.NullInt64
	var fields, history sql.NullString
	var last sql.NullTime
	err := s.Scan(&c.ID, &listID, &c.Name, &c.PhoneNumber, &c.Email, &c.Status, &c.WhatsAppStatus,
		&fields, &history, &last, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.ContactListID = int64Ptr(listID)
	c.LastInteractionAt = timePtr(last)
	c.CustomFields = map[string]string{}
	c.ConversationHistory = []models.ConversationEntry{}
	if err := intdb.ScanJSON(fields, &c.CustomFields); err != nil {
		return c, err
	}
	return c, intdb.ScanJSON(history, &c.ConversationHistory)
}

func (r ContactRepository) CreateList(l models.ContactList) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`INSERT INTO contact_lists (name, file_name, column_mapping, uploaded_by) VALUES (?,?,?,?)`,
		l.Name, l.FileName, intdb.MustJSON(l.ColumnMapping), l.UploadedBy)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishList stores the ingest counters and the mapping that was applied.
func (r ContactRepository) FinishList(l models.ContactList, at time.Time) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`
		UPDATE contact_lists SET column_mapping=?, total_contacts=?, valid_contacts=?, invalid_contacts=?,
			whatsapp_contacts=?, processed_at=?
		WHERE id=?
	`, intdb.MustJSON(l.ColumnMapping), l.TotalContacts, l.ValidContacts, l.InvalidContacts, l.WhatsAppContacts, at, l.ID)
	return err
}

func (r ContactRepository) ListLists(userID int64) ([]models.ContactList, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	rows, err := db.Query(`SELECT `+contactListColumns+` FROM contact_lists WHERE uploaded_by=? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.ContactList{}
	for rows.Next() {
		l, err := scanContactList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r ContactRepository) GetList(id, userID int64) (models.ContactList, error) {
	db := r.db()
	if db == nil {
		return models.ContactList{}, ErrDBUnavailable
	}
	return scanContactList(db.QueryRow(`SELECT `+contactListColumns+` FROM contact_lists WHERE id=? AND uploaded_by=? LIMIT 1`, id, userID))
}

// DeleteList removes the list and its contacts.
func (r ContactRepository) DeleteList(id, userID int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.Exec(`DELETE FROM contact_lists WHERE id=? AND uploaded_by=?`, id, userID)
	if err != nil {
		return err
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM contacts WHERE contact_list_id=?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertContact stores one contact. Duplicate phone numbers within a list are
// ignored and reported with inserted=false.
func (r ContactRepository) InsertContact(c models.Contact) (inserted bool, err error) {
	db := r.db()
	if db == nil {
		return false, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT IGNORE INTO contacts (contact_list_id, name, phone_number, email, status, whatsapp_status, custom_fields, conversation_history)
		VALUES (?,?,?,?,?,?,?,'[]')
	`, nullInt64(c.ContactListID), c.Name, c.PhoneNumber, c.Email, c.Status, c.WhatsAppStatus, intdb.MustJSON(c.CustomFields))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListContacts returns contacts of a list with optional status and WhatsApp filters.
func (r ContactRepository) ListContacts(listID int64, status string, whatsapp *bool) ([]models.Contact, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	query := `SELECT ` + contactColumns + ` FROM contacts c WHERE c.contact_list_id=?`
	args := []any{listID}
	if status != "" {
		query += ` AND c.status=?`
		args = append(args, status)
	}
	if whatsapp != nil {
		query += ` AND c.whatsapp_status=?`
		args = append(args, *whatsapp)
	}
	query += ` ORDER BY c.id ASC`
	return r.queryContacts(db, query, args...)
}

// ListForUser returns every contact in lists uploaded by userID.
func (r ContactRepository) ListForUser(userID int64) ([]models.Contact, error) {
	db := r.db()
	if db == nil {
		return nil, ErrDBUnavailable
	}
	return r.queryContacts(db, `SELECT `+contactColumns+` FROM contacts c
		JOIN contact_lists l ON l.id = c.contact_list_id
		WHERE l.uploaded_by=? ORDER BY c.id DESC`, userID)
}

func (r ContactRepository) queryContacts(db *sql.DB, query string, args ...any) ([]models.Contact, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r ContactRepository) GetForUser(id, userID int64) (models.Contact, error) {
	db := r.db()
	if db == nil {
		return models.Contact{}, ErrDBUnavailable
	}
	return scanContact(db.QueryRow(`SELECT `+contactColumns+` FROM contacts c
		JOIN contact_lists l ON l.id = c.contact_list_id
		WHERE c.id=? AND l.uploaded_by=? LIMIT 1`, id, userID))
}

func (r ContactRepository) Get(id int64) (models.Contact, error) {
	db := r.db()
	if db == nil {
		return models.Contact{}, ErrDBUnavailable
	}
	return scanContact(db.QueryRow(`SELECT `+contactColumns+` FROM contacts c WHERE c.id=? LIMIT 1`, id))
}

func (r ContactRepository) Update(c models.Contact) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE contacts SET name=?, email=?, status=?, whatsapp_status=?, custom_fields=? WHERE id=?`,
		c.Name, c.Email, c.Status, c.WhatsAppStatus, intdb.MustJSON(c.CustomFields), c.ID)
	return err
}

func (r ContactRepository) Delete(id int64) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`DELETE FROM contacts WHERE id=?`, id)
	return err
}

// FindByPhone returns the most recent contact with phone, from any list.
func (r ContactRepository) FindByPhone(phone string) (models.Contact, error) {
	db := r.db()
	if db == nil {
		return models.Contact{}, ErrDBUnavailable
	}
	return scanContact(db.QueryRow(`SELECT `+contactColumns+` FROM contacts c WHERE c.phone_number=? ORDER BY c.id DESC LIMIT 1`, phone))
}

func (r ContactRepository) SaveHistory(c models.Contact, at time.Time) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE contacts SET conversation_history=?, last_interaction_at=? WHERE id=?`,
		intdb.MustJSON(c.ConversationHistory), at, c.ID)
	return err
}

func (r ContactRepository) CreateLoose(phone, name string) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT INTO contacts (contact_list_id, name, phone_number, status, whatsapp_status, custom_fields, conversation_history)
		VALUES (NULL,?,?,?,1,'{}','[]')
	`, name, phone, models.ContactWhatsAppValid)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
