package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite3"
)

func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

func NewDB(driver Driver, dsn string) (*sql.DB, error) {
	if !driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; one connection keeps transactions from
	// tripping over SQLITE_BUSY.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

var schemas = map[Driver][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS todos (
			id       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			task     VARCHAR(100) NOT NULL,
			status   BOOLEAN NOT NULL DEFAULT FALSE,
			due_date DATE,
			memo     VARCHAR(500)
		)`,
		`CREATE TABLE IF NOT EXISTS steps (
			id      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			todo_id BIGINT NOT NULL REFERENCES todos (id) ON DELETE CASCADE,
			step    VARCHAR(200) NOT NULL,
			status  BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_steps_todo_id ON steps (todo_id)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS todos (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			task     VARCHAR(100) NOT NULL,
			status   BOOLEAN NOT NULL DEFAULT 0,
			due_date DATE,
			memo     VARCHAR(500)
		)`,
		`CREATE TABLE IF NOT EXISTS steps (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			todo_id INTEGER NOT NULL REFERENCES todos (id) ON DELETE CASCADE,
			step    VARCHAR(200) NOT NULL,
			status  BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_steps_todo_id ON steps (todo_id)`,
	},
}

// Migrate creates the todos and steps tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB, driver Driver) error {
	stmts, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}
