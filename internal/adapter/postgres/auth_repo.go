package postgres

import (
	"context"
	"database/sql"
	"time"

	"astroplanner/internal/domain"
)

// GetByEmail retrieves a user by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE lower(email) = lower($1)",
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users (email, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id, email, password_hash, created_at",
		email, passwordHash, time.Now().UTC(),
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TokenRepo implements access token bookkeeping on DB.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo wraps a DB as a TokenRepository.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Create records an issued token.
func (r *TokenRepo) Create(ctx context.Context, t domain.AccessToken) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO access_tokens (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		t.ID, t.UserID, t.ExpiresAt.UTC(), t.CreatedAt.UTC(),
	)
	return err
}

// Get retrieves a token record by ID.
func (r *TokenRepo) Get(ctx context.Context, id string) (*domain.AccessToken, error) {
	var t domain.AccessToken
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM access_tokens WHERE id = $1",
		id,
	).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete revokes a token.
func (r *TokenRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM access_tokens WHERE id = $1", id)
	return err
}

// DeleteExpired deletes all tokens expired at now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM access_tokens WHERE expires_at <= $1", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
