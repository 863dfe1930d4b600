package db

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestHasTableAndColumn(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery("information_schema\\.tables").WithArgs("bookings").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("bookings"))
	mock.ExpectQuery("information_schema\\.columns").WithArgs("bookings", "rating").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

	if !HasTable(conn, "bookings") {
		t.Fatalf("expected bookings table to exist")
	}
	if HasColumn(conn, "bookings", "rating") {
		t.Fatalf("expected rating column to be missing")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJSONColumnNilContainers(t *testing.T) {
	var tags []string
	got, err := JSONColumn(tags)
	if err != nil || got != "[]" {
		t.Fatalf("nil slice should encode as [], got %q err=%v", got, err)
	}

	var fields map[string]string
	got, err = JSONColumn(fields)
	if err != nil || got != "{}" {
		t.Fatalf("nil map should encode as {}, got %q err=%v", got, err)
	}
}

func TestScanJSON(t *testing.T) {
	var out []string
	if err := ScanJSON(sql.NullString{}, &out); err != nil || out != nil {
		t.Fatalf("NULL should leave dst untouched, got %v err=%v", out, err)
	}
	if err := ScanJSON(sql.NullString{Valid: true, String: `["A1","A2"]`}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[1] != "A2" {
		t.Fatalf("unexpected decode result: %v", out)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?,?,?" {
		t.Fatalf("got %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestEnsureSchemaCreatesEveryTable(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	for _, table := range Tables() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table + " ").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	if err := EnsureSchema(conn); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIsDuplicate(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'email'"}
	if !IsDuplicate(fmt.Errorf("insert lead: %w", dup)) {
		t.Fatalf("wrapped 1062 should be a duplicate")
	}
	if IsDuplicate(&mysql.MySQLError{Number: 1213}) {
		t.Fatalf("deadlock is not a duplicate")
	}
	if IsDuplicate(sql.ErrNoRows) {
		t.Fatalf("ErrNoRows is not a duplicate")
	}
}
