package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/repositories"
)

func TestLeadCaptureValidation(t *testing.T) {
	s := LeadService{}
	_, err := s.Capture(LeadInput{Email: "a@b.c"}, "", "")
	assert.True(t, domain.IsValidation(err))

	_, err = s.Capture(LeadInput{Name: "Asha", Email: "a@b.c", Phone: "98x"}, "", "")
	assert.True(t, domain.IsValidation(err))

	_, err = s.Capture(LeadInput{Name: "Asha", Email: "a@b.c", Travelers: 21}, "", "")
	assert.True(t, domain.IsValidation(err))
}

func TestLeadCaptureRejectsDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE email=\?`).WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	s := LeadService{Leads: repositories.LeadRepository{DB: db}}
	_, err = s.Capture(LeadInput{Name: "Asha", Email: " Asha@Example.com "}, "127.0.0.1", "test")
	assert.EqualError(t, err, "A lead with this email already exists.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanLeadPhone(t *testing.T) {
	p, ok := cleanLeadPhone("+91 98765-43210")
	assert.True(t, ok)
	assert.Equal(t, "919876543210", p)

	_, ok = cleanLeadPhone("98765abc")
	assert.False(t, ok)
}

func TestLeadCaptureDuplicateInsertIsValidation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads WHERE email=\?`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO leads`).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'asha@example.com' for key 'email'"})

	s := LeadService{Leads: repositories.LeadRepository{DB: db}}
	_, err = s.Capture(LeadInput{Name: "Asha", Email: "asha@example.com"}, "127.0.0.1", "test")
	assert.True(t, domain.IsValidation(err))
	assert.EqualError(t, err, "A lead with this email already exists.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadAddNotePrependsTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 10, 18, 9, 30, 5, 0, time.Local)
	mock.ExpectQuery(`FROM leads WHERE id=\?`).WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "destination", "travel_date",
			"travelers", "budget", "experience_level", "interests", "status", "source", "ip_address", "user_agent", "follow_up_date",
			"notes", "created_at", "updated_at"}).
			AddRow(int64(8), "Asha", "asha@example.com", "", "Spiti", "", 2, "", "", `[]`, "new", "home_page_modal", "", "", nil,
				"[2026-10-17 10:00:00] called once", now, now))
	want := "[2026-10-18 09:30:05] wants a December slot\n\n[2026-10-17 10:00:00] called once"
	mock.ExpectExec(`UPDATE leads SET notes=\? WHERE id=\?`).WithArgs(want, int64(8)).WillReturnResult(sqlmock.NewResult(0, 1))

	s := LeadService{Leads: repositories.LeadRepository{DB: db}, Now: func() time.Time { return now }}
	lead, err := s.AddNote(8, "  wants a December slot ")
	require.NoError(t, err)
	assert.Equal(t, want, lead.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = s.AddNote(8, " ")
	assert.EqualError(t, err, "Note is required")
}
