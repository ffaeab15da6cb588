package prefs

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLiteStore keeps preferences in a SQLite database, one row per name/key pair.
type SQLiteStore struct {
	dbConn *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite connects to the database file at pth and applies pending migrations.
func OpenSQLite(pth string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_journal=WAL&_timeout=5000", pth))
	if err != nil {
		return nil, fmt.Errorf("connecting to db : %w", err)
	}

	db.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting dialect for migrations : %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migration : %w", err)
	}
	return &SQLiteStore{dbConn: db}, nil
}

// Close ...
func (s *SQLiteStore) Close() error {
	if err := s.dbConn.Close(); err != nil {
		return fmt.Errorf("closing preferences db : %w", err)
	}
	return nil
}

// Bool ...
func (s *SQLiteStore) Bool(name, key string) (bool, bool, error) {
	var value bool
	query := `SELECT value FROM preferences WHERE name = ? AND key = ?`
	err := s.dbConn.Get(&value, query, name, key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("getting preference %s/%s: %w", name, key, err)
	}
	return value, true, nil
}

// SetBool ...
func (s *SQLiteStore) SetBool(name, key string, value bool) error {
	query := `
		INSERT INTO preferences (name, key, value) VALUES (?, ?, ?)
		ON CONFLICT (name, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.dbConn.Exec(query, name, key, value); err != nil {
		return fmt.Errorf("setting preference %s/%s: %w", name, key, err)
	}
	return nil
}
