// Package database implements the transactional sqlite store behind the
// reservation core. All conflict checks run inside the same transaction as
// the writes they guard.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection pool.
type DB struct {
	*sql.DB
	loc    *time.Location
	logger *zerolog.Logger
}

// NewDB opens (or creates) the database at path and runs migrations.
// Calendar-day comparisons use loc, the deployment's fixed zone.
func NewDB(path string, loc *time.Location, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL for concurrent readers; immediate transactions so writers
	// serialize at BEGIN instead of failing at COMMIT.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}
	instance := &DB{DB: db, loc: loc, logger: logger}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if logger != nil {
		logger.Info().Str("path", path).Msg("Database initialized")
	}
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			phone TEXT,
			role TEXT NOT NULL DEFAULT 'CUSTOMER',
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS business_categories (
			id TEXT PRIMARY KEY,
			category TEXT UNIQUE NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1
		)`,

		`CREATE TABLE IF NOT EXISTS businesses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			address TEXT,
			phone TEXT,
			email TEXT,
			owner_id TEXT NOT NULL,
			category_id TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (owner_id) REFERENCES users(id),
			FOREIGN KEY (category_id) REFERENCES business_categories(id)
		)`,

		// Exactly one row per weekday per business.
		`CREATE TABLE IF NOT EXISTS business_hours (
			id TEXT PRIMARY KEY,
			business_id TEXT NOT NULL,
			weekday INTEGER NOT NULL,
			is_closed BOOLEAN NOT NULL DEFAULT 1,
			open_time TEXT,
			close_time TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (business_id, weekday),
			FOREIGN KEY (business_id) REFERENCES businesses(id)
		)`,

		`CREATE TABLE IF NOT EXISTS reservations (
			id TEXT PRIMARY KEY,
			business_id TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			number_of_people INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'pending',
			active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			version INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (business_id) REFERENCES businesses(id),
			FOREIGN KEY (customer_id) REFERENCES users(id)
		)`,

		// One cancellation record per reservation, ever.
		`CREATE TABLE IF NOT EXISTS cancellations (
			id TEXT PRIMARY KEY,
			reservation_id TEXT UNIQUE NOT NULL,
			reason TEXT NOT NULL,
			cancelled_by TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (reservation_id) REFERENCES reservations(id),
			FOREIGN KEY (cancelled_by) REFERENCES users(id)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			business_id TEXT NOT NULL,
			reservation_id TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			action TEXT NOT NULL,
			details TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_businesses_owner ON businesses(owner_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses(category_id, active)`,
		`CREATE INDEX IF NOT EXISTS idx_hours_business ON business_hours(business_id, weekday)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_business_times ON reservations(business_id, start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_customer ON reservations(customer_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_business ON audit_log(business_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Location returns the deployment zone used for calendar-day comparisons.
func (db *DB) Location() *time.Location {
	return db.loc
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx so guard queries can run
// inside or outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
