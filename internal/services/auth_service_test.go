package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/repositories"
)

var userCols = []string{"id", "name", "username", "email", "phone", "password_hash", "role", "status", "provider", "provider_uid", "created_at"}

func TestRegisterValidation(t *testing.T) {
	_, err := AuthService{}.Register(RegisterInput{Email: "not-an-email", Password: "secret1"})
	assert.True(t, domain.IsValidation(err))

	_, err = AuthService{}.Register(RegisterInput{Email: "asha@example.com", Password: "12345"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "password: password must be at least 6 characters", err.Error())
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM users`).WithArgs("asha@example.com", "asha", "asha@example.com", "asha").
		WillReturnRows(sqlmock.NewRows([]string{"e", "u"}).AddRow(1, 0))

	s := AuthService{Users: repositories.UserRepository{DB: db}}
	_, err = s.Register(RegisterInput{Email: "Asha@Example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateKeyOnInsertIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM users`).WillReturnRows(sqlmock.NewRows([]string{"e", "u"}).AddRow(0, 0))
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	s := AuthService{Users: repositories.UserRepository{DB: db}}
	_, err = s.Register(RegisterInput{Email: "asha@example.com", Username: "asha", Password: "secret1"})
	assert.True(t, domain.IsConflict(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE email=\?`).WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(4), "Asha", "asha", "asha@example.com", "", string(hash), "user", "active", "local", "", time.Now()))
	mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("ghost").WillReturnRows(sqlmock.NewRows(userCols))

	s := AuthService{Users: repositories.UserRepository{DB: db}, Tokens: Tokens{Secret: []byte("s3cret"), AccessTTL: time.Hour}}

	_, _, err = s.Login("asha@example.com", "wrong-pass")
	assert.True(t, domain.IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", err.Error())

	_, _, err = s.Login("ghost", "secret1")
	assert.True(t, domain.IsUnauthorized(err))

	_, _, err = s.Login("", "secret1")
	assert.True(t, domain.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginIssuesTokens(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("asha").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(4), "Asha", "asha", "asha@example.com", "", string(hash), "user", "active", "local", "", time.Now()))

	s := AuthService{Users: repositories.UserRepository{DB: db}, Tokens: Tokens{Secret: []byte("s3cret"), AccessTTL: time.Hour}}
	u, pair, err := s.Login("asha", "secret1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), u.ID)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
}
