package config

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex

	dbDSN = Env{DBUser: "root", DBHost: "127.0.0.1:3306", DBName: "adventure_buddha"}.DSN()
)

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB(env Env) *sql.DB {
	dbMu.Lock()
	defer dbMu.Unlock()

	if env.DBHost != "" {
		dbDSN = env.DSN()
	}
	return connectLocked()
}

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// connectLocked retries the first ping so the API can start alongside a MySQL
// container that is still booting. Delays double after each attempt.
func connectLocked() *sql.DB {
	if DB != nil {
		return DB
	}

	db, err := sql.Open("mysql", dbDSN)
	if err != nil {
		log.Fatalf("failed to open DB: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	delay := connectBackoff
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			log.Fatalf("failed to ping DB after %d attempts: %v", attempt, err)
		}
		log.Printf("MySQL not ready (attempt %d/%d): %v", attempt, connectAttempts, err)
		time.Sleep(delay)
		delay *= 2
	}

	DB = db
	log.Println("connected to MySQL")
	return DB
}

var ErrNotConnected = errors.New("database not connected")

// EnsureDB pings the shared connection. It never dials; ConnectDB does that
// once at startup.
func EnsureDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB == nil {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return DB.PingContext(ctx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
