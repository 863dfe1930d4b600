package repositories

import (
	"database/sql"
	"strings"

	"adventurebuddha/internal/domain/models"
)

const userColumns = `id, name, username, email, phone, password_hash, role, status, provider, COALESCE(provider_uid,''), created_at`

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB { return pickDB(r.DB) }

func scanUser(s scanner) (models.User, error) {
	var u models.User
	err := s.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.Status, &u.Provider, &u.ProviderUID, &u.CreatedAt)
	return u, err
}

func (r UserRepository) getOne(where string, args ...any) (models.User, error) {
	db := r.db()
	if db == nil {
		return models.User{}, ErrDBUnavailable
	}
	return scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, args...))
}

func (r UserRepository) GetByID(id int64) (models.User, error) {
	return r.getOne("id=?", id)
}

func (r UserRepository) GetByEmail(email string) (models.User, error) {
	return r.getOne("email=?", strings.ToLower(strings.TrimSpace(email)))
}

// GetByLogin accepts either an email address or a username.
func (r UserRepository) GetByLogin(identifier string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return r.GetByEmail(identifier)
	}
	return r.getOne("username=?", identifier)
}

func (r UserRepository) GetByProvider(provider, uid string) (models.User, error) {
	return r.getOne("provider=? AND provider_uid=?", provider, uid)
}

// Taken reports which of email/username are already registered.
func (r UserRepository) Taken(email, username string) (emailTaken, usernameTaken bool, err error) {
	db := r.db()
	if db == nil {
		return false, false, ErrDBUnavailable
	}
	var e, u int
	err = db.QueryRow(`
		SELECT
			COALESCE(SUM(email=?),0),
			COALESCE(SUM(username=?),0)
		FROM users
		WHERE email=? OR username=?
	`, email, username, email, username).Scan(&e, &u)
	return e > 0, u > 0, err
}

func (r UserRepository) Create(u models.User) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, ErrDBUnavailable
	}
	res, err := db.Exec(`
		INSERT INTO users (name, username, email, phone, password_hash, role, status, provider, provider_uid)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, u.Name, u.Username, strings.ToLower(u.Email), u.Phone, u.PasswordHash, u.Role, u.Status, u.Provider, nullIfEmpty(u.ProviderUID))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// BindProvider attaches an external identity to an existing account.
func (r UserRepository) BindProvider(id int64, provider, uid string) error {
	db := r.db()
	if db == nil {
		return ErrDBUnavailable
	}
	_, err := db.Exec(`UPDATE users SET provider=?, provider_uid=? WHERE id=?`, provider, uid, id)
	return err
}

func (r UserRepository) UsernameExists(username string) (bool, error) {
	db := r.db()
	if db == nil {
		return false, ErrDBUnavailable
	}
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE username=?`, username).Scan(&n)
	return n > 0, err
}
