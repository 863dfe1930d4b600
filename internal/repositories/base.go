package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "adventurebuddha/internal/config"
	intdb "adventurebuddha/internal/db"
)

// ErrDBUnavailable is returned when no connection has been configured.
var ErrDBUnavailable = errors.New("db not available")

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func pickDB(db *sql.DB) *sql.DB {
	if db != nil {
		return db
	}
	return intconfig.DB
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullIfEmpty(s string) any { return intdb.NullIfEmpty(s) }

func inArgs[T any](vals []T) []any {
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		out = append(out, v)
	}
	return out
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// seatSets decodes a column of JSON seat arrays into a flat list.
func seatSets(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var seats []string
		if err := intdb.ScanJSON(raw, &seats); err != nil {
			return nil, err
		}
		out = append(out, seats...)
	}
	return out, rows.Err()
}
