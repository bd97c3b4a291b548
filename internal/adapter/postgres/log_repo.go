package postgres

import (
	"context"
	"database/sql"
	"time"

	"astroplanner/internal/domain"
)

const logColumns = "id, session_id, notes, seeing, transparency, rating, created_at"

func scanLog(row interface{ Scan(...any) error }) (*domain.ObservationLog, error) {
	var l domain.ObservationLog
	var rating sql.NullInt64
	if err := row.Scan(&l.ID, &l.SessionID, &l.Notes, &l.Seeing, &l.Transparency, &rating, &l.CreatedAt); err != nil {
		return nil, err
	}
	if rating.Valid {
		r := int(rating.Int64)
		l.Rating = &r
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}

func nullRating(r *int) sql.NullInt64 {
	if r == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*r), Valid: true}
}

// ListLogs returns a session's logs, newest first.
func (d *DB) ListLogs(ctx context.Context, sessionID int64) ([]domain.ObservationLog, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+logColumns+" FROM observation_logs WHERE session_id=$1 ORDER BY created_at DESC, id DESC;", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.ObservationLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// CreateLog inserts a log.
func (d *DB) CreateLog(ctx context.Context, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error) {
	return scanLog(d.sql.QueryRowContext(ctx,
		"INSERT INTO observation_logs(session_id, notes, seeing, transparency, rating, created_at) VALUES($1, $2, $3, $4, $5, $6) RETURNING "+logColumns+";",
		sessionID, in.Notes, in.Seeing, in.Transparency, nullRating(in.Rating), time.Now().UTC()))
}

// UpdateLog replaces a log's fields.
func (d *DB) UpdateLog(ctx context.Context, sessionID, id int64, in domain.LogInput) (*domain.ObservationLog, error) {
	l, err := scanLog(d.sql.QueryRowContext(ctx,
		"UPDATE observation_logs SET notes=$1, seeing=$2, transparency=$3, rating=$4 WHERE id=$5 AND session_id=$6 RETURNING "+logColumns+";",
		in.Notes, in.Seeing, in.Transparency, nullRating(in.Rating), id, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

// DeleteLog removes a log.
func (d *DB) DeleteLog(ctx context.Context, sessionID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM observation_logs WHERE id=$1 AND session_id=$2;", id, sessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
