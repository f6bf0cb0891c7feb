package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/lms-client/internal/database"
)

// SQL persists entries in the client_storage table.  It runs on any of the
// drivers database.Open accepts.
type SQL struct {
	DB     *sql.DB
	Driver string
}

func NewSQL(db *sql.DB, driver string) *SQL { return &SQL{DB: db, Driver: driver} }

// EnsureSchema creates client_storage if it does not exist.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS client_storage (
		storage_key   VARCHAR(191) NOT NULL PRIMARY KEY,
		storage_value TEXT NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`)
	return err
}

func (s *SQL) q(query string) string { return database.Rebind(s.Driver, query) }

// Get returns the stored value for key.
func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.DB.QueryRowContext(ctx,
		s.q("SELECT storage_value FROM client_storage WHERE storage_key=?"), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set replaces the row for key.  Delete+insert in one transaction keeps the
// statement portable across MySQL, Postgres and SQLite upsert dialects.
func (s *SQL) Set(ctx context.Context, key, value string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM client_storage WHERE storage_key=?"), key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		s.q("INSERT INTO client_storage (storage_key, storage_value, updated_at) VALUES (?,?,?)"),
		key, value, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// Remove deletes the row for key.
func (s *SQL) Remove(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, s.q("DELETE FROM client_storage WHERE storage_key=?"), key)
	return err
}
