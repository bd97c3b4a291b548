package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"astroplanner/internal/domain"
)

const sessionColumns = "id, target_name, scheduled_start, location_id, status"

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var s domain.Session
	var status string
	if err := row.Scan(&s.ID, &s.TargetName, &s.ScheduledStart, &s.LocationID, &status); err != nil {
		return nil, err
	}
	s.ScheduledStart = s.ScheduledStart.UTC()
	s.Status = domain.Status(status)
	return &s, nil
}

// sessionQuery builds the listing statement for f.
func sessionQuery(userID int64, f domain.SessionFilter) (string, []any) {
	where := []string{"owner_id=$1"}
	args := []any{userID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.LocationID != 0 {
		add("location_id=$%d", f.LocationID)
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}
	if !f.From.IsZero() {
		add("scheduled_start >= $%d", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("scheduled_start <= $%d", f.To.UTC())
	}
	q := "SELECT " + sessionColumns + " FROM observation_sessions WHERE " +
		strings.Join(where, " AND ") + " ORDER BY scheduled_start DESC, id DESC;"
	return q, args
}

// ListSessions returns a user's sessions matching f, latest start first.
func (d *DB) ListSessions(ctx context.Context, userID int64, f domain.SessionFilter) ([]domain.Session, error) {
	q, args := sessionQuery(userID, f)
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetSession returns one of a user's sessions.
func (d *DB) GetSession(ctx context.Context, userID, id int64) (*domain.Session, error) {
	s, err := scanSession(d.sql.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM observation_sessions WHERE id=$1 AND owner_id=$2;", id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// CreateSession inserts a session.
func (d *DB) CreateSession(ctx context.Context, userID int64, s domain.Session) (*domain.Session, error) {
	return scanSession(d.sql.QueryRowContext(ctx,
		"INSERT INTO observation_sessions(owner_id, location_id, target_name, scheduled_start, status) VALUES($1, $2, $3, $4, $5) RETURNING "+sessionColumns+";",
		userID, s.LocationID, s.TargetName, s.ScheduledStart.UTC(), string(s.Status)))
}

// UpdateSession replaces a session's mutable fields.
func (d *DB) UpdateSession(ctx context.Context, userID int64, s domain.Session) (*domain.Session, error) {
	out, err := scanSession(d.sql.QueryRowContext(ctx,
		"UPDATE observation_sessions SET target_name=$1, scheduled_start=$2, status=$3 WHERE id=$4 AND owner_id=$5 RETURNING "+sessionColumns+";",
		s.TargetName, s.ScheduledStart.UTC(), string(s.Status), s.ID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return out, err
}

// DeleteSession removes a session; its logs cascade.
func (d *DB) DeleteSession(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM observation_sessions WHERE id=$1 AND owner_id=$2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
