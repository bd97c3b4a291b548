// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"astroplanner/internal/domain"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

var _ domain.UserRepository = (*DB)(nil)
var _ domain.LocationRepository = (*DB)(nil)
var _ domain.SessionRepository = (*DB)(nil)
var _ domain.LogRepository = (*DB)(nil)
var _ domain.TokenRepository = (*TokenRepo)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

var migrations = []string{
	"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, email TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL DEFAULT '', created_at TIMESTAMPTZ NOT NULL);",
	"CREATE TABLE IF NOT EXISTS access_tokens (id TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
	"CREATE INDEX IF NOT EXISTS idx_access_tokens_expires_at ON access_tokens(expires_at);",
	"CREATE TABLE IF NOT EXISTS locations (id BIGSERIAL PRIMARY KEY, owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, name TEXT NOT NULL, latitude DOUBLE PRECISION NOT NULL, longitude DOUBLE PRECISION NOT NULL, timezone TEXT NOT NULL DEFAULT '', notes TEXT NOT NULL DEFAULT '');",
	"CREATE INDEX IF NOT EXISTS idx_locations_owner_id ON locations(owner_id);",
	"CREATE TABLE IF NOT EXISTS observation_sessions (id BIGSERIAL PRIMARY KEY, owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, location_id BIGINT NOT NULL REFERENCES locations(id) ON DELETE CASCADE, target_name TEXT NOT NULL, scheduled_start TIMESTAMPTZ NOT NULL, status TEXT NOT NULL DEFAULT 'planned' CHECK(status IN ('planned','completed','cancelled')));",
	"CREATE INDEX IF NOT EXISTS idx_observation_sessions_owner_start ON observation_sessions(owner_id, scheduled_start);",
	"CREATE TABLE IF NOT EXISTS observation_logs (id BIGSERIAL PRIMARY KEY, session_id BIGINT NOT NULL REFERENCES observation_sessions(id) ON DELETE CASCADE, notes TEXT NOT NULL DEFAULT '', seeing TEXT NOT NULL DEFAULT '', transparency TEXT NOT NULL DEFAULT '', rating INTEGER CHECK(rating BETWEEN 1 AND 5), created_at TIMESTAMPTZ NOT NULL);",
	"CREATE INDEX IF NOT EXISTS idx_observation_logs_session_id ON observation_logs(session_id);",
}

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
